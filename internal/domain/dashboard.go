package domain

import (
	"time"
)

// DashboardMetrics is the unauthenticated metric snapshot served by the
// upstream /dashboard/metrics endpoint.
type DashboardMetrics struct {
	TotalEnergyTradedKWh float64   `json:"total_energy_traded_kwh"`
	ActiveListings       int       `json:"active_listings"`
	RegisteredUsers      int       `json:"registered_users"`
	CO2SavedTonnes       float64   `json:"co2_saved_tonnes"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PerformancePrediction is one point of the upstream generation forecast.
type PerformancePrediction struct {
	Period       string  `json:"period"`
	EnergyType   string  `json:"energy_type"`
	PredictedKWh float64 `json:"predicted_kwh"`
	Confidence   float64 `json:"confidence"`
}
