package mysql

const upsertCollectionSQL = `
INSERT INTO collections (id, hotel_count)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  hotel_count  = VALUES(hotel_count),
  refreshed_at = CURRENT_TIMESTAMP
`

// Rooms go with their hotels through ON DELETE CASCADE.
const deleteHotelsSQL = `DELETE FROM hotels WHERE collection_id = ?`

const insertHotelsPrefix = "INSERT INTO hotels\n  (collection_id, id, position, name, address1, address2, star_rating, images)\nVALUES "

const insertRoomsPrefix = "INSERT INTO rooms\n  (collection_id, hotel_id, id, position, name, bed_configuration, long_description, images, max_adults, max_children)\nVALUES "

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const collectionExistsSQL = `SELECT 1 FROM collections WHERE id = ?`

const listHotelsSQL = `
SELECT id, name, address1, address2, star_rating, images
FROM hotels
WHERE collection_id = ?
ORDER BY position
`

const listRoomsSQL = `
SELECT hotel_id, id, name, bed_configuration, long_description, images, max_adults, max_children
FROM rooms
WHERE collection_id = ?
ORDER BY hotel_id, position
`
