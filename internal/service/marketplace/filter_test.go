package marketplace

import (
	"testing"
	"time"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

func sampleListings() []domain.Listing {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Listing{
		{ID: "1", Title: "Rooftop solar surplus", EnergyType: domain.EnergyTypeSolar, PricePerKWh: 18.50, Location: "Nakuru", CreatedAt: base},
		{ID: "2", Title: "Community wind co-op", EnergyType: domain.EnergyTypeWind, PricePerKWh: 14.00, Location: "Ngong Hills", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Micro-hydro offtake", EnergyType: domain.EnergyTypeHydro, PricePerKWh: 22.25, Location: "Kericho", CreatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(listings []domain.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func assertOrder(t *testing.T, got []domain.Listing, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("Expected %d listings, got %d (%v)", len(want), len(gotIDs), gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, gotIDs)
			return
		}
	}
}

func TestFilterSortsByPriceAscending(t *testing.T) {
	got := Filter(sampleListings(), FilterState{SortBy: SortByPrice})
	assertOrder(t, got, "2", "1", "3")
}

func TestFilterDefaultsToNewestFirst(t *testing.T) {
	got := Filter(sampleListings(), FilterState{})
	assertOrder(t, got, "3", "2", "1")
}

func TestFilterByEnergyType(t *testing.T) {
	got := Filter(sampleListings(), FilterState{EnergyType: domain.EnergyTypeWind})
	assertOrder(t, got, "2")
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"matches title", "SOLAR", []string{"1"}},
		{"matches location", "kericho", []string{"3"}},
		{"matches energy type", "wind", []string{"2"}},
		{"whitespace only matches everything", "   ", []string{"3", "2", "1"}},
		{"no match", "geothermal", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleListings(), FilterState{SearchQuery: tt.query})
			assertOrder(t, got, tt.want...)
		})
	}
}

func TestFilterCombinesSearchTypeAndSort(t *testing.T) {
	listings := sampleListings()
	listings = append(listings, domain.Listing{
		ID: "4", Title: "Solar farm offtake", EnergyType: domain.EnergyTypeSolar,
		PricePerKWh: 9.75, Location: "Nakuru", CreatedAt: time.Now(),
	})

	got := Filter(listings, FilterState{
		SearchQuery: "nakuru",
		EnergyType:  domain.EnergyTypeSolar,
		SortBy:      SortByPrice,
	})
	assertOrder(t, got, "4", "1")
}

func TestFilterPriceSortIsStable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	listings := []domain.Listing{
		{ID: "a", PricePerKWh: 10, CreatedAt: base},
		{ID: "b", PricePerKWh: 10, CreatedAt: base.Add(time.Hour)},
		{ID: "c", PricePerKWh: 5, CreatedAt: base.Add(2 * time.Hour)},
	}

	got := Filter(listings, FilterState{SortBy: SortByPrice})
	assertOrder(t, got, "c", "a", "b")
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	listings := sampleListings()
	Filter(listings, FilterState{SortBy: SortByPrice})
	assertOrder(t, listings, "1", "2", "3")
}
