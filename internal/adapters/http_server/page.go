package httpserver

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"guestline_hotels/internal/app"
	"guestline_hotels/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("listing.html").Funcs(template.FuncMap{
	"stars": starsOf,
}).ParseFS(templateFS, "templates/listing.html"))

type starLink struct {
	Value  int
	Href   string
	Active bool
}

type counter struct {
	Label       string
	Value       int
	Dec, Inc    string
	DecDisabled bool
}

type pageView struct {
	Collection string
	Error      string
	Listing    domain.Listing
	Stars      []starLink
	Counters   []counter
}

// starsOf renders a rating as five filled/empty stars.
func starsOf(rating string) string {
	n, ok := app.ParseStarRating(rating)
	if !ok {
		n = 0
	}
	n = max(0, min(n, domain.MaxStarRating))
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxStarRating-n)
}

func filterHref(path string, f domain.FilterState) string {
	q := url.Values{}
	q.Set("rating", strconv.Itoa(f.Rating))
	q.Set("adults", strconv.Itoa(f.Adults))
	q.Set("children", strconv.Itoa(f.Children))
	return path + "?" + q.Encode()
}

// controls builds the links of the filter bar. Each link carries the state
// the corresponding user action produces.
func controls(path string, f domain.FilterState) ([]starLink, []counter) {
	stars := make([]starLink, 0, domain.MaxStarRating)
	for n := 1; n <= domain.MaxStarRating; n++ {
		next := app.SelectRating(f, n)
		if n == f.Rating {
			// picking the selected star again clears the rating filter
			next = app.SelectRating(f, 0)
		}
		stars = append(stars, starLink{Value: n, Href: filterHref(path, next), Active: n <= f.Rating})
	}

	counters := make([]counter, 0, 2)
	for _, c := range []struct {
		label string
		field domain.CapacityField
		value int
	}{
		{"Adults", domain.Adults, f.Adults},
		{"Children", domain.Children, f.Children},
	} {
		dec, _ := app.AdjustCapacity(f, c.field, -1)
		inc, _ := app.AdjustCapacity(f, c.field, 1)
		counters = append(counters, counter{
			Label:       c.label,
			Value:       c.value,
			Dec:         filterHref(path, dec),
			Inc:         filterHref(path, inc),
			DecDisabled: c.value == 0,
		})
	}
	return stars, counters
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	collection := h.collectionOf(r)
	view := pageView{Collection: collection}
	status := http.StatusOK

	f, err := h.parseFilters(r.URL.Query())
	if err != nil {
		status = http.StatusBadRequest
		view.Error = err.Error()
	} else {
		l, lerr := h.Q.Listing(r.Context(), collection, f)
		if lerr != nil {
			status, _ = statusFor(lerr)
			log.Error().Err(lerr).Str("collection", collection).Msg("page listing failed")
			view.Error = "Hotel data is currently unavailable. Please try again later."
		} else {
			view.Listing = l
		}
	}
	view.Stars, view.Counters = controls(r.URL.Path, f)

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, view); err != nil {
		log.Error().Err(err).Msg("render listing page failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write page body")
	}
}
