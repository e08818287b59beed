package marketplace

import (
	"sort"
	"strings"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

const (
	SortByPrice  = "price"
	SortByNewest = "newest"
)

// FilterState is the marketplace page's filter controls.
type FilterState struct {
	SearchQuery string
	EnergyType  domain.EnergyType
	SortBy      string
}

// Filter applies search, energy-type and sort to an in-memory listing
// page. Pure and deterministic: equal sort keys keep their input order.
func Filter(listings []domain.Listing, state FilterState) []domain.Listing {
	query := strings.ToLower(strings.TrimSpace(state.SearchQuery))

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if !matchesQuery(l, query) {
			continue
		}
		if state.EnergyType != "" && l.EnergyType != state.EnergyType {
			continue
		}
		out = append(out, l)
	}

	if state.SortBy == SortByPrice {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PricePerKWh < out[j].PricePerKWh
		})
	} else {
		// Newest first.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// matchesQuery is a case-insensitive substring match over title,
// energy type and location. The empty query matches everything.
func matchesQuery(l domain.Listing, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), query) ||
		strings.Contains(strings.ToLower(string(l.EnergyType)), query) ||
		strings.Contains(strings.ToLower(l.Location), query)
}
