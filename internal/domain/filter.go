package domain

const MaxStarRating = 5

type CapacityField string

const (
	Adults   CapacityField = "adults"
	Children CapacityField = "children"
)

// FilterState is replaced, never mutated, on every user action.
type FilterState struct {
	Rating   int `json:"rating" validate:"min=0,max=5"`
	Adults   int `json:"adults" validate:"min=0"`
	Children int `json:"children" validate:"min=0"`
}

// HotelListing is a hotel whose Rooms holds only the rooms that passed the
// occupancy filter.
type HotelListing struct {
	Hotel
	NoRooms bool `json:"noRooms"`
}

type Listing struct {
	Collection string         `json:"collection"`
	Filters    FilterState    `json:"filters"`
	Hotels     []HotelListing `json:"hotels"`
}
