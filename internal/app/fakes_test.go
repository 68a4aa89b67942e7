package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"guestline_hotels/internal/domain"
)

// ---- fakes ----

type fakeClient struct {
	hotels  []domain.Hotel
	rooms   map[string][]domain.Room
	listErr error
	failIDs map[string]error

	listCalls int32
	rateCalls int32

	mu       sync.Mutex
	inflight int
	peak     int
	seen     []string
}

func (f *fakeClient) GetHotels(ctx context.Context, collectionID string) ([]domain.Hotel, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	// hand out a copy, as a real decode would
	out := make([]domain.Hotel, len(f.hotels))
	copy(out, f.hotels)
	return out, nil
}

func (f *fakeClient) GetRoomRates(ctx context.Context, collectionID, hotelID string) (domain.RoomRates, error) {
	atomic.AddInt32(&f.rateCalls, 1)
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.seen = append(f.seen, hotelID)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if err, ok := f.failIDs[hotelID]; ok {
		return domain.RoomRates{}, err
	}
	return domain.RoomRates{Rooms: f.rooms[hotelID]}, nil
}

type fakeAggregator struct {
	hotels []domain.Hotel
	err    error
	calls  int
}

func (f *fakeAggregator) Aggregate(ctx context.Context, collectionID string) ([]domain.Hotel, domain.AggregateStats, error) {
	f.calls++
	st := domain.AggregateStats{Collection: collectionID, Requested: len(f.hotels), Succeeded: len(f.hotels)}
	if f.err != nil {
		return nil, st, f.err
	}
	return f.hotels, st, nil
}

type fakeRepo struct {
	snapshots map[string][]domain.Hotel
	listErr   error
	saveErr   error
	saves     int
}

func (f *fakeRepo) SaveCollection(ctx context.Context, collectionID string, hotels []domain.Hotel) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.snapshots == nil {
		f.snapshots = map[string][]domain.Hotel{}
	}
	f.saves++
	f.snapshots[collectionID] = hotels
	return nil
}

func (f *fakeRepo) ListHotels(ctx context.Context, collectionID string) ([]domain.Hotel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	hs, ok := f.snapshots[collectionID]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
	}
	return hs, nil
}

type fakeCache struct {
	store  map[string]any
	dels   []string
	getErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.Hotel:
		*d = v.([]domain.Hotel)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- fixtures ----

func room(id string, adults, children int) domain.Room {
	return domain.Room{ID: id, Name: "Room " + id, Occupancy: domain.Occupancy{MaxAdults: adults, MaxChildren: children}}
}

func hotel(id, stars string, rooms ...domain.Room) domain.Hotel {
	return domain.Hotel{ID: id, Name: "Hotel " + id, StarRating: stars, Rooms: rooms}
}
