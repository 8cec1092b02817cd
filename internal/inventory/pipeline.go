package inventory

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// View is the computed dashboard view: the full filtered set in sort order,
// the slice for the current page, and the pagination totals.
type View struct {
	FilteredItems  []Item `json:"filtered_items"`
	PaginatedItems []Item `json:"paginated_items"`
	TotalCount     int    `json:"total_count"`
	TotalPages     int    `json:"total_pages"`
	Page           int    `json:"page"`
}

// ComputeView runs the full pipeline: normalization, text search, categorical
// filters, certificate, price range, has-clients, date range, deep-link
// anchors, stable sort, pagination. Every stage consumes the previous stage's
// output; the function is pure in its inputs.
func ComputeView(items []Item, state FilterState) View {
	kept := Normalize(items)

	if state.SearchTerm != "" {
		kept = keep(kept, func(item Item) bool {
			return matchesSearch(item, state.SearchTerm)
		})
	}

	if len(state.Status) > 0 {
		kept = keep(kept, func(item Item) bool {
			return matchesStatus(item.Status, state.Status)
		})
	}
	if len(state.Maker) > 0 {
		kept = keep(kept, func(item Item) bool {
			return matchesValues(item.Maker, state.Maker)
		})
	}
	if len(state.Type) > 0 {
		kept = keep(kept, func(item Item) bool {
			return matchesValues(item.Type, state.Type)
		})
	}
	if len(state.Subtype) > 0 {
		kept = keep(kept, func(item Item) bool {
			return matchesValues(item.Subtype, state.Subtype)
		})
	}
	if len(state.Ownership) > 0 {
		kept = keep(kept, func(item Item) bool {
			return matchesValues(item.Ownership, state.Ownership)
		})
	}

	if len(state.Certificate) > 0 {
		wanted := certificateSet(state.Certificate)
		kept = keep(kept, func(item Item) bool {
			return wanted[item.EffectiveCertificate()]
		})
	}

	if state.PriceMin != "" || state.PriceMax != "" {
		min := priceBound(state.PriceMin, 0)
		max := priceBound(state.PriceMax, math.Inf(1))
		kept = keep(kept, func(item Item) bool {
			// Price-less items never match an active price filter.
			if item.Price == nil {
				return false
			}
			return *item.Price >= min && *item.Price <= max
		})
	}

	if state.HasClients != nil {
		kept = keep(kept, func(item Item) bool {
			return (len(item.Clients) > 0) == *state.HasClients
		})
	}

	if state.DateFrom != "" || state.DateTo != "" {
		lower, upper := dateBounds(state.DateFrom, state.DateTo)
		kept = keep(kept, func(item Item) bool {
			if item.CreatedAt.IsZero() {
				return false
			}
			return !item.CreatedAt.Before(lower) && !item.CreatedAt.After(upper)
		})
	}

	if state.InstrumentID != nil {
		kept = keep(kept, func(item Item) bool {
			return item.ID == *state.InstrumentID
		})
	}
	if state.ClientID != nil {
		kept = keep(kept, func(item Item) bool {
			return hasClientLink(item, *state.ClientID)
		})
	}

	sortItems(kept, state.SortBy, state.SortOrder)

	totalCount := len(kept)
	totalPages := totalCount / PageSize
	if totalCount%PageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	page := clampPage(state.Page, totalPages)
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > totalCount {
		start = totalCount
	}
	if end > totalCount {
		end = totalCount
	}

	return View{
		FilteredItems:  kept,
		PaginatedItems: kept[start:end],
		TotalCount:     totalCount,
		TotalPages:     totalPages,
		Page:           page,
	}
}

func keep(items []Item, predicate func(Item) bool) []Item {
	kept := items[:0:0]
	for _, item := range items {
		if predicate(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// sortItems sorts in place, stably: re-sorting by the same field and
// direction is a no-op permutation-wise, ties keep prior relative order.
func sortItems(items []Item, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	descending := strings.ToLower(sortOrder) != "asc"

	less := lessFunc(sortBy)
	sort.SliceStable(items, func(i, j int) bool {
		if descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func lessFunc(sortBy string) func(a, b Item) bool {
	switch sortBy {
	case "maker":
		return func(a, b Item) bool { return deref(a.Maker) < deref(b.Maker) }
	case "type":
		return func(a, b Item) bool { return deref(a.Type) < deref(b.Type) }
	case "subtype":
		return func(a, b Item) bool { return deref(a.Subtype) < deref(b.Subtype) }
	case "ownership":
		return func(a, b Item) bool { return deref(a.Ownership) < deref(b.Ownership) }
	case "status":
		return func(a, b Item) bool { return a.Status < b.Status }
	case "year":
		return func(a, b Item) bool { return derefInt(a.Year) < derefInt(b.Year) }
	case "price":
		return func(a, b Item) bool { return derefFloat(a.Price) < derefFloat(b.Price) }
	default: // created_at
		return func(a, b Item) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Pipeline is the stateful controller around ComputeView. It owns the filter
// state transitions the dashboard performs: filter changes reset pagination
// to the first page, page changes clamp, swapping in a fresh snapshot leaves
// the state (including the current page) alone.
type Pipeline struct {
	items []Item
	state FilterState
}

func NewPipeline(items []Item) *Pipeline {
	return &Pipeline{
		items: Normalize(items),
		state: NewFilterState(),
	}
}

// SetItems swaps in a fresh snapshot without touching the filter state.
func (p *Pipeline) SetItems(items []Item) {
	p.items = Normalize(items)
}

// State returns a copy of the current filter state.
func (p *Pipeline) State() FilterState { return p.state }

// View computes the current dashboard view.
func (p *Pipeline) View() View {
	return ComputeView(p.items, p.state)
}

// SetSearchTerm applies the (debounced upstream) search term and resets to
// the first page.
func (p *Pipeline) SetSearchTerm(term string) {
	p.state.SearchTerm = term
	p.state.Page = 1
}

// SetFilter replaces one categorical dimension's selected values and resets
// to the first page. Passing an empty slice deactivates the dimension.
func (p *Pipeline) SetFilter(dimension string, values []string) error {
	switch dimension {
	case "status":
		p.state.Status = values
	case "maker":
		p.state.Maker = values
	case "type":
		p.state.Type = values
	case "subtype":
		p.state.Subtype = values
	case "ownership":
		p.state.Ownership = values
	case "certificate":
		p.state.Certificate = values
	default:
		return fmt.Errorf("unknown filter dimension %q", dimension)
	}
	p.state.Page = 1
	return nil
}

// SetHasClients sets or clears the has-clients filter and resets to the
// first page.
func (p *Pipeline) SetHasClients(hasClients *bool) {
	p.state.HasClients = hasClients
	p.state.Page = 1
}

// SetPriceRange updates one bound ("min" or "max"); a blank value unbounds
// that side.
func (p *Pipeline) SetPriceRange(bound, value string) error {
	switch bound {
	case "min":
		p.state.PriceMin = value
	case "max":
		p.state.PriceMax = value
	default:
		return fmt.Errorf("unknown price bound %q", bound)
	}
	return nil
}

// SetDateRange applies the created-at window and resets to the first page.
func (p *Pipeline) SetDateRange(from, to string) {
	p.state.DateFrom = from
	p.state.DateTo = to
	p.state.Page = 1
}

// SetSort changes the sort field and direction.
func (p *Pipeline) SetSort(field, order string) {
	p.state.SortBy = field
	p.state.SortOrder = order
}

// SetPage clamps the requested page into [1, totalPages] for the current
// filtered set.
func (p *Pipeline) SetPage(page int) {
	probe := p.state
	probe.Page = 1
	view := ComputeView(p.items, probe)
	p.state.Page = clampPage(page, view.TotalPages)
}

// SetAnchor applies the deep-link anchors (instrument or client) and resets
// to the first page.
func (p *Pipeline) SetAnchor(instrumentID, clientID *uuid.UUID) {
	p.state.InstrumentID = instrumentID
	p.state.ClientID = clientID
	p.state.Page = 1
}

// ActiveFiltersCount backs the filter badge.
func (p *Pipeline) ActiveFiltersCount() int {
	return p.state.ActiveCount()
}

// ClearAllFilters resets every dimension to its empty default, keeping only
// the sort settings; pagination implicitly returns to the first page.
func (p *Pipeline) ClearAllFilters() {
	sortBy, sortOrder := p.state.SortBy, p.state.SortOrder
	p.state = NewFilterState()
	p.state.SortBy = sortBy
	p.state.SortOrder = sortOrder
}
