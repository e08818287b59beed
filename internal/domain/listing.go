package domain

import (
	"time"
)

type EnergyType string

const (
	EnergyTypeSolar      EnergyType = "Solar"
	EnergyTypeWind       EnergyType = "Wind"
	EnergyTypeHydro      EnergyType = "Hydro"
	EnergyTypeBiomass    EnergyType = "Biomass"
	EnergyTypeGeothermal EnergyType = "Geothermal"
)

// EnergyTypes lists every tradable energy type, in display order.
var EnergyTypes = []EnergyType{
	EnergyTypeSolar,
	EnergyTypeWind,
	EnergyTypeHydro,
	EnergyTypeBiomass,
	EnergyTypeGeothermal,
}

func (t EnergyType) Valid() bool {
	for _, known := range EnergyTypes {
		if t == known {
			return true
		}
	}
	return false
}

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// Listing is a seller's offer of a quantity of energy at a unit price.
// The upstream marketplace API owns it; this service only holds a
// read-only copy per page load.
type Listing struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	EnergyType  EnergyType    `json:"energy_type"`
	QuantityKWh float64       `json:"quantity"`
	PricePerKWh float64       `json:"price"`
	Location    string        `json:"location"`
	Status      ListingStatus `json:"status"`
	ImageURL    string        `json:"image_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ListingDraft carries the fields a supplier submits when creating or
// editing a listing. Image holds raw upload bytes; when present the
// upstream call switches to multipart encoding.
type ListingDraft struct {
	Title       string
	EnergyType  EnergyType
	QuantityKWh float64
	PricePerKWh float64
	Location    string
	Status      ListingStatus
	Image       []byte
	ImageName   string
}

// ListingFilter narrows the upstream listings query.
type ListingFilter struct {
	Status     ListingStatus
	EnergyType EnergyType
	Limit      int
}
