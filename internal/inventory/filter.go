// Package inventory implements the dashboard's filter, sort and pagination
// pipeline. It is pure in-memory computation over the tenant's inventory
// snapshot: the expected collection sizes are small, so the whole view is
// recomputed whenever an input changes instead of being maintained
// incrementally.
package inventory

import (
	"strconv"
	"strings"
	"time"

	"luthier/internal/models"

	"github.com/google/uuid"
)

// PageSize is the fixed dashboard page size.
const PageSize = 20

// Default sort: newest arrivals first.
const (
	DefaultSortBy    = "created_at"
	DefaultSortOrder = "desc"
)

// Item is one instrument enriched with its client links.
type Item struct {
	*models.Instrument
	Clients []*models.ClientInstrument
}

// Normalize fills in defaults (a non-nil Clients slice) so every later
// predicate can assume total fields instead of branching on nil.
func Normalize(items []Item) []Item {
	normalized := make([]Item, len(items))
	for i, item := range items {
		if item.Clients == nil {
			item.Clients = []*models.ClientInstrument{}
		}
		normalized[i] = item
	}
	return normalized
}

// FilterState holds every dashboard filter dimension. An empty slice or blank
// string means the dimension is inactive; inactive dimensions never constrain
// the result.
type FilterState struct {
	SearchTerm  string
	Status      []string
	Maker       []string
	Type        []string
	Subtype     []string
	Ownership   []string
	Certificate []string // "true"/"false" selections, normalized when applied
	HasClients  *bool
	PriceMin    string
	PriceMax    string
	DateFrom    string // YYYY-MM-DD, inclusive
	DateTo      string // YYYY-MM-DD, inclusive
	SortBy      string
	SortOrder   string
	Page        int

	// Deep-link anchors, applied after every other stage.
	InstrumentID *uuid.UUID
	ClientID     *uuid.UUID
}

// NewFilterState returns the empty state with default sort and first page.
func NewFilterState() FilterState {
	return FilterState{
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Page:      1,
	}
}

// ActiveCount counts one per active dimension, regardless of how many values
// a dimension holds. It backs the filter badge in the UI and must agree with
// the predicates: a dimension counts exactly when it constrains the result.
func (s *FilterState) ActiveCount() int {
	count := 0
	for _, values := range [][]string{s.Status, s.Maker, s.Type, s.Subtype, s.Ownership, s.Certificate} {
		if len(values) > 0 {
			count++
		}
	}
	if s.HasClients != nil {
		count++
	}
	if s.PriceMin != "" || s.PriceMax != "" {
		count++
	}
	if s.DateFrom != "" || s.DateTo != "" {
		count++
	}
	if s.SearchTerm != "" {
		count++
	}
	return count
}

func matchesSearch(item Item, term string) bool {
	needle := strings.ToLower(term)
	for _, field := range []*string{item.Maker, item.Type, item.Subtype} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

// matchesValues implements the categorical predicate: OR within the value
// set, and a nil field never matches a non-empty filter.
func matchesValues(field *string, values []string) bool {
	if field == nil {
		return false
	}
	for _, value := range values {
		if *field == value {
			return true
		}
	}
	return false
}

func matchesStatus(status string, values []string) bool {
	for _, value := range values {
		if status == value {
			return true
		}
	}
	return false
}

// certificateSet normalizes the requested "true"/"false" selections into the
// set of effective-certificate booleans to keep.
func certificateSet(values []string) map[bool]bool {
	set := make(map[bool]bool, 2)
	for _, value := range values {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			set[true] = true
		case "false":
			set[false] = true
		}
	}
	return set
}

// priceBound parses one bound, falling back to the default when the bound is
// blank or not numeric.
func priceBound(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// Date-range defaults: effectively unbounded on either side.
var (
	minDateBound = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDateBound = time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)
)

// dateBounds resolves the inclusive [from 00:00:00, to 23:59:59.999] window.
func dateBounds(from, to string) (time.Time, time.Time) {
	lower := minDateBound
	upper := maxDateBound
	if from != "" {
		if d, err := time.Parse("2006-01-02", from); err == nil {
			lower = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	if to != "" {
		if d, err := time.Parse("2006-01-02", to); err == nil {
			upper = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 999000000, time.UTC)
		}
	}
	return lower, upper
}

func hasClientLink(item Item, clientID uuid.UUID) bool {
	for _, link := range item.Clients {
		if link.ClientID == clientID {
			return true
		}
	}
	return false
}
