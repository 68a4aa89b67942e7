package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"guestline_hotels/internal/adapters/observability"
	"guestline_hotels/internal/domain"
)

// FailurePolicy decides what a failed per-hotel room fetch does to the batch.
type FailurePolicy int

const (
	// FailAll fails the whole aggregation; no partial list is returned.
	FailAll FailurePolicy = iota
	// SkipFailed drops hotels whose rooms could not be fetched.
	SkipFailed
)

func (p FailurePolicy) String() string {
	if p == SkipFailed {
		return "skip_failed"
	}
	return "fail_all"
}

type Aggregator struct {
	client  domain.RatesClient
	workers int
	policy  FailurePolicy
}

// NewAggregator returns an aggregator issuing at most workers concurrent
// room-rate requests; workers <= 0 means one request per hotel at once.
func NewAggregator(c domain.RatesClient, workers int, policy FailurePolicy) *Aggregator {
	return &Aggregator{client: c, workers: workers, policy: policy}
}

type roomResult struct {
	rooms []domain.Room
	err   error
	ok    bool
}

// Aggregate lists the hotels of a collection, fetches every hotel's rooms
// concurrently and attaches them. It returns only after all fetches finished.
func (a *Aggregator) Aggregate(ctx context.Context, collectionID string) ([]domain.Hotel, domain.AggregateStats, error) {
	start := time.Now()
	stats := domain.AggregateStats{Collection: collectionID}

	listed, err := a.client.GetHotels(ctx, collectionID)
	if err != nil {
		stats.Duration = time.Since(start)
		observability.ObserveAggregation(collectionID, "failed", 0, stats.Duration)
		return nil, stats, fmt.Errorf("list hotels of %s: %w", collectionID, err)
	}

	hotels, index := indexHotels(collectionID, listed)
	stats.Requested = len(hotels)

	var sem *semaphore.Weighted
	if a.workers > 0 {
		sem = semaphore.NewWeighted(int64(a.workers))
	}

	// results[k] belongs to hotels[k]; every task writes only its own slot.
	results := make([]roomResult, len(hotels))
	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error

	for k := range hotels {
		k := k
		id := hotels[k].ID
		if sem != nil {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(gctx, 1); err != nil {
				acquireErr = err
				break
			}
		}
		g.Go(func() error {
			if sem != nil {
				defer sem.Release(1)
			}
			rr, err := a.client.GetRoomRates(gctx, collectionID, id)
			if err != nil {
				results[k].err = fmt.Errorf("room rates of hotel %s: %w", id, err)
				if a.policy == FailAll {
					return results[k].err
				}
				return nil
			}
			results[k].rooms = rr.Rooms
			results[k].ok = true
			return nil
		})
	}

	err = g.Wait()
	if err == nil && acquireErr != nil {
		err = fmt.Errorf("%w: %w", domain.ErrNetwork, acquireErr)
	}
	if err != nil {
		for _, r := range results {
			if !r.ok {
				stats.Failed++
			}
		}
		stats.Succeeded = stats.Requested - stats.Failed
		stats.Duration = time.Since(start)
		observability.ObserveAggregation(collectionID, "failed", 0, stats.Duration)
		return nil, stats, err
	}

	out := make([]domain.Hotel, 0, len(hotels))
	for k, r := range results {
		if !r.ok {
			stats.Failed++
			log.Warn().
				Str("collection", collectionID).
				Str("hotel_id", hotels[k].ID).
				Err(r.err).
				Msg("dropping hotel without room data")
			continue
		}
		attachRooms(hotels, index, hotels[k].ID, r.rooms)
		out = append(out, hotels[k])
	}
	stats.Succeeded = len(out)
	stats.Duration = time.Since(start)

	outcome := "ok"
	if stats.Failed > 0 {
		outcome = "partial"
	}
	observability.ObserveAggregation(collectionID, outcome, len(out), stats.Duration)
	log.Info().
		Str("collection", collectionID).
		Str("policy", a.policy.String()).
		Int("requested", stats.Requested).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("collection aggregated")

	return out, stats, nil
}

// indexHotels keys the list response by hotel id. The first record of a
// duplicated id wins; later ones are dropped.
func indexHotels(collectionID string, listed []domain.Hotel) ([]domain.Hotel, map[string]int) {
	hotels := make([]domain.Hotel, 0, len(listed))
	index := make(map[string]int, len(listed))
	for _, h := range listed {
		if _, dup := index[h.ID]; dup {
			log.Warn().Str("collection", collectionID).Str("hotel_id", h.ID).Msg("duplicate hotel id in list response")
			continue
		}
		index[h.ID] = len(hotels)
		hotels = append(hotels, h)
	}
	return hotels, index
}

// attachRooms sets the rooms of the hotel keyed by id. Ids always come from
// the index, so every room-rate response has an owner.
func attachRooms(hotels []domain.Hotel, index map[string]int, id string, rooms []domain.Room) {
	if rooms == nil {
		rooms = []domain.Room{}
	}
	hotels[index[id]].Rooms = rooms
}
