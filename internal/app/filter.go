package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"guestline_hotels/internal/domain"
)

// ParseStarRating reads the leading integer of a star rating ("4", " 3 ",
// "4.5" all parse). ok is false when no integer can be read.
func ParseStarRating(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FilterHotels keeps, in order, the hotels rated at least minRating.
// Hotels with an unreadable rating never pass.
func FilterHotels(hotels []domain.Hotel, minRating int) []domain.Hotel {
	out := make([]domain.Hotel, 0, len(hotels))
	for _, h := range hotels {
		if stars, ok := ParseStarRating(h.StarRating); ok && stars >= minRating {
			out = append(out, h)
		}
	}
	return out
}

// FilterRooms keeps, in order, the rooms fitting both minAdults and minChildren.
func FilterRooms(rooms []domain.Room, minAdults, minChildren int) []domain.Room {
	out := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Occupancy.MaxAdults >= minAdults && r.Occupancy.MaxChildren >= minChildren {
			out = append(out, r)
		}
	}
	return out
}

// AdjustCapacity returns state with field moved by delta, floored at zero.
func AdjustCapacity(state domain.FilterState, field domain.CapacityField, delta int) (domain.FilterState, error) {
	switch field {
	case domain.Adults:
		state.Adults = shift(state.Adults, delta)
	case domain.Children:
		state.Children = shift(state.Children, delta)
	default:
		return state, fmt.Errorf("%w: unknown capacity field %q", domain.ErrInvalidFilter, field)
	}
	return state, nil
}

// SelectRating returns state with the minimum star rating set, clamped to 0..5.
func SelectRating(state domain.FilterState, rating int) domain.FilterState {
	state.Rating = min(floorZero(rating), domain.MaxStarRating)
	return state
}

// Apply runs the rating filter and then the occupancy filter on every
// remaining hotel.
func Apply(collectionID string, hotels []domain.Hotel, state domain.FilterState) domain.Listing {
	passing := FilterHotels(hotels, state.Rating)
	out := domain.Listing{
		Collection: collectionID,
		Filters:    state,
		Hotels:     make([]domain.HotelListing, 0, len(passing)),
	}
	for _, h := range passing {
		h.Rooms = FilterRooms(h.Rooms, state.Adults, state.Children)
		out.Hotels = append(out.Hotels, domain.HotelListing{Hotel: h, NoRooms: len(h.Rooms) == 0})
	}
	return out
}

// shift adds delta to a capacity, saturating at math.MaxInt and flooring at 0.
func shift(v, delta int) int {
	if delta > 0 && v > math.MaxInt-delta {
		return math.MaxInt
	}
	return floorZero(v + delta)
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
