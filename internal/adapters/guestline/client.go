// internal/adapters/guestline/client.go
package guestline

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"guestline_hotels/internal/adapters/observability"
	"guestline_hotels/internal/domain"
)

const DefaultBaseURL = "https://obmng.dbm.guestline.net"

type Client struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	retries int
}

// New builds a client for the hotel/room-rate API. retries is the number of
// extra attempts made on 429 and transient 5xx responses; 0 disables retrying.
func New(base string, rps, retries int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 10
	}
	if retries < 0 {
		retries = 0
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		retries: retries,
	}, nil
}

// ---- Public API ----

func (c *Client) GetHotels(ctx context.Context, collectionID string) ([]domain.Hotel, error) {
	u := fmt.Sprintf("%s/api/hotels?collection-id=%s", c.base, url.QueryEscape(collectionID))
	var out []domain.Hotel
	if err := c.get(ctx, "hotels", u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRoomRates(ctx context.Context, collectionID, hotelID string) (domain.RoomRates, error) {
	u := fmt.Sprintf("%s/api/roomRates/%s/%s", c.base, url.PathEscape(collectionID), url.PathEscape(hotelID))
	var out domain.RoomRates
	if err := c.get(ctx, "roomRates", u, &out); err != nil {
		return domain.RoomRates{}, err
	}
	return out, nil
}

// ---- Internals ----

// get performs a rate-limited GET and decodes the JSON body into out.
// Transport failures and bad statuses wrap domain.ErrNetwork, body decoding
// failures wrap domain.ErrDecode.
func (c *Client) get(ctx context.Context, endpoint, rawURL string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	var lastErr error
	for i := 0; i <= c.retries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "guestline-hotels/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("guestline", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
			}
			lastErr = fmt.Errorf("%w: %w", domain.ErrNetwork, err)
			if i < c.retries && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("guestline", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrDecode, endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%w: %w: %s", domain.ErrNetwork, domain.ErrNotFound, rawURL)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrNetwork, resp.StatusCode)
			if i < c.retries && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: bad status %d: %s", domain.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
