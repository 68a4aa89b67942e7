// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"guestline_hotels/internal/app"
	"guestline_hotels/internal/domain"
)

const maxBodyBytes = 1 << 16

type Handlers struct {
	Q          *app.QueryService
	Collection string // collection rendered at "/"
	v          *validator.Validate
}

func NewHandlers(q *app.QueryService, collection string) *Handlers {
	v := validator.New()
	// report json names ("adults") instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Handlers{Q: q, Collection: collection, v: v}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type adjustRequest struct {
	State domain.FilterState `json:"state"`
	Field string             `json:"field" validate:"required,oneof=adults children"`
	Delta int                `json:"delta" validate:"oneof=-1 1"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/", h.page)
	s.mux.Get("/collections/{collection}", h.page)
	s.mux.Get("/v1/collections/{collection}/hotels", h.listHotels)
	s.mux.Post("/v1/filters/adjust", h.adjust)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps domain errors onto HTTP statuses and problem titles.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, "Invalid filter"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream timeout"
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrDecode):
		return http.StatusBadGateway, "Upstream unavailable"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) collectionOf(r *http.Request) string {
	if c := chi.URLParam(r, "collection"); c != "" {
		return c
	}
	return h.Collection
}

// parseFilters reads rating/adults/children; absent values are zero.
func (h *Handlers) parseFilters(q url.Values) (domain.FilterState, error) {
	var f domain.FilterState
	fields := []struct {
		key string
		dst *int
	}{
		{"rating", &f.Rating},
		{"adults", &f.Adults},
		{"children", &f.Children},
	}
	for _, p := range fields {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.FilterState{}, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidFilter, p.key)
		}
		*p.dst = n
	}
	if err := h.validate(f); err != nil {
		return domain.FilterState{}, err
	}
	return f, nil
}

func (h *Handlers) validate(v any) error {
	err := h.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is %s", e.Field(), e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidFilter, strings.Join(msgs, "; "))
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r.URL.Query())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	collection := h.collectionOf(r)
	out, err := h.Q.Listing(r.Context(), collection, f)
	if err != nil {
		status, title := statusFor(err)
		log.Error().Err(err).Str("collection", collection).Msg("listing failed")
		writeProblem(w, status, title, "hotel data could not be loaded")
		return
	}

	etag, body := calcETagAndBody(out)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listHotels body")
	}
}

func (h *Handlers) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	if err := h.validate(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	next, err := app.AdjustCapacity(req.State, domain.CapacityField(req.Field), req.Delta)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(next); err != nil {
		log.Error().Err(err).Msg("failed to write adjust body")
	}
}
