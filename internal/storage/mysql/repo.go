package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"guestline_hotels/internal/domain"
)

// rows per multi-row INSERT; keeps statements well below the placeholder limit
const batchSize = 500

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valImages(imgs []domain.Image) (string, error) {
	if imgs == nil {
		imgs = []domain.Image{}
	}
	b, err := json.Marshal(imgs)
	return string(b), err
}

type Repo struct {
	db *sql.DB

	// runs between the room and hotel reads of ListHotels; tests only
	afterRoomsRead func()
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// SaveCollection replaces the stored snapshot of a collection in one transaction.
func (r *Repo) SaveCollection(ctx context.Context, collectionID string, hotels []domain.Hotel) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertCollectionSQL, collectionID, len(hotels)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, deleteHotelsSQL, collectionID); err != nil {
		return err
	}
	if err = insertHotels(ctx, tx, collectionID, hotels); err != nil {
		return err
	}
	if err = insertRooms(ctx, tx, collectionID, hotels); err != nil {
		return err
	}
	return tx.Commit()
}

func insertHotels(ctx context.Context, tx *sql.Tx, collectionID string, hotels []domain.Hotel) error {
	for start := 0; start < len(hotels); start += batchSize {
		end := min(start+batchSize, len(hotels))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*8) // 8 params per row
		for pos := start; pos < end; pos++ {
			h := hotels[pos]
			imgs, err := valImages(h.Images)
			if err != nil {
				return fmt.Errorf("hotel %s images: %w", h.ID, err)
			}
			values = append(values, "(?,?,?,?,?,?,?,?)")
			args = append(args,
				collectionID,
				h.ID,
				pos,
				h.Name,
				h.Address1,
				valStr(h.Address2),
				h.StarRating,
				imgs,
			)
		}
		if _, err := tx.ExecContext(ctx, insertHotelsPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return nil
}

func insertRooms(ctx context.Context, tx *sql.Tx, collectionID string, hotels []domain.Hotel) error {
	values := make([]string, 0, batchSize)
	args := make([]any, 0, batchSize*10) // 10 params per row
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, insertRoomsPrefix+strings.Join(values, ","), args...)
		values, args = values[:0], args[:0]
		return err
	}

	for _, h := range hotels {
		for pos, rm := range h.Rooms {
			imgs, err := valImages(rm.Images)
			if err != nil {
				return fmt.Errorf("room %s/%s images: %w", h.ID, rm.ID, err)
			}
			values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
			args = append(args,
				collectionID,
				h.ID,
				rm.ID,
				pos,
				rm.Name,
				rm.BedConfiguration,
				rm.LongDescription,
				imgs,
				rm.Occupancy.MaxAdults,
				rm.Occupancy.MaxChildren,
			)
			if len(values) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

// ListHotels returns the stored snapshot in its original order, rooms
// included. Unknown collections yield domain.ErrNotFound.
//
// All reads share one read-only transaction, so a SaveCollection committing
// meanwhile is either fully visible or not at all.
func (r *Repo) ListHotels(ctx context.Context, collectionID string) ([]domain.Hotel, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, collectionExistsSQL, collectionID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
		}
		return nil, err
	}

	rooms, err := listRooms(ctx, tx, collectionID)
	if err != nil {
		return nil, err
	}
	if r.afterRoomsRead != nil {
		r.afterRoomsRead()
	}

	out, err := listHotels(ctx, tx, collectionID, rooms)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func listHotels(ctx context.Context, tx *sql.Tx, collectionID string, rooms map[string][]domain.Room) ([]domain.Hotel, error) {
	rows, err := tx.QueryContext(ctx, listHotelsSQL, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		var h domain.Hotel
		var addr2 sql.NullString
		var imagesJSON []byte
		if err := rows.Scan(&h.ID, &h.Name, &h.Address1, &addr2, &h.StarRating, &imagesJSON); err != nil {
			return nil, err
		}
		if addr2.Valid {
			h.Address2 = addr2.String
		}
		if err := json.Unmarshal(imagesJSON, &h.Images); err != nil {
			return nil, fmt.Errorf("hotel %s images: %w", h.ID, err)
		}
		h.Rooms = rooms[h.ID]
		if h.Rooms == nil {
			h.Rooms = []domain.Room{}
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func listRooms(ctx context.Context, tx *sql.Tx, collectionID string) (map[string][]domain.Room, error) {
	rows, err := tx.QueryContext(ctx, listRoomsSQL, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Room{}
	for rows.Next() {
		var (
			hotelID    string
			rm         domain.Room
			imagesJSON []byte
		)
		if err := rows.Scan(
			&hotelID,
			&rm.ID,
			&rm.Name,
			&rm.BedConfiguration,
			&rm.LongDescription,
			&imagesJSON,
			&rm.Occupancy.MaxAdults,
			&rm.Occupancy.MaxChildren,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(imagesJSON, &rm.Images); err != nil {
			return nil, fmt.Errorf("room %s/%s images: %w", hotelID, rm.ID, err)
		}
		out[hotelID] = append(out[hotelID], rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
