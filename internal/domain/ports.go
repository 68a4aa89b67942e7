package domain

import (
	"context"
	"time"
)

// RatesClient is the upstream hotel/room-rate API.
type RatesClient interface {
	GetHotels(ctx context.Context, collectionID string) ([]Hotel, error)
	GetRoomRates(ctx context.Context, collectionID, hotelID string) (RoomRates, error)
}

type HotelRepository interface {
	// Write path
	SaveCollection(ctx context.Context, collectionID string, hotels []Hotel) error

	// Read path; ErrNotFound when the collection has no snapshot.
	ListHotels(ctx context.Context, collectionID string) ([]Hotel, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type AggregateStats struct {
	Collection string        `json:"collection"`
	Requested  int           `json:"requested"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// HotelAggregator resolves a collection into fully populated hotels.
type HotelAggregator interface {
	Aggregate(ctx context.Context, collectionID string) ([]Hotel, AggregateStats, error)
}
