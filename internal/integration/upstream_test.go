package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"guestline_hotels/internal/domain"
)

// fakeUpstream serves the hotel list and room-rate endpoints from memory.
type fakeUpstream struct {
	hotels    []domain.Hotel
	rooms     map[string][]domain.Room
	failHotel string

	listHits int32
	rateHits int32
}

func (f *fakeUpstream) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/hotels", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.listHits, 1)
		if r.URL.Query().Get("collection-id") != "OBMNG" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.hotels)
	})
	mux.HandleFunc("/api/roomRates/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.rateHits, 1)
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if id == f.failHotel {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"rooms": f.rooms[id], "ratePlans": []any{}})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func sampleUpstream() *fakeUpstream {
	return &fakeUpstream{
		hotels: []domain.Hotel{
			{ID: "OBMNG1", Name: "OBM Hotel", Address1: "Street 1", StarRating: "3",
				Images: []domain.Image{{URL: "https://img/h1.jpg", Alt: "front"}}},
			{ID: "OBMNG2", Name: "OBM Palace", Address1: "Street 2", Address2: "Town", StarRating: "5"},
			{ID: "OBMNG3", Name: "OBM Inn", Address1: "Street 3", StarRating: "4"},
		},
		rooms: map[string][]domain.Room{
			"OBMNG1": {
				{ID: "DSTN", Name: "Deluxe Twin", Occupancy: domain.Occupancy{MaxAdults: 2, MaxChildren: 1}},
				{ID: "SGL", Name: "Single", Occupancy: domain.Occupancy{MaxAdults: 1}},
			},
			"OBMNG2": {
				{ID: "FAM", Name: "Family Suite", Occupancy: domain.Occupancy{MaxAdults: 4, MaxChildren: 2}},
			},
			"OBMNG3": {},
		},
	}
}
