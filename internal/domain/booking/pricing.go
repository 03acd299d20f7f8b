package booking

import (
	"fmt"
	"time"
)

// PricingStrategy defines the interface for calculating rental prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	DailyRateCents int64
	RentStart      time.Time
	RentEnd        time.Time
}

// DailyRatePricing implements the flat per-day pricing model: the total
// is the inclusive number of rental days times the vehicle's daily rate.
type DailyRatePricing struct{}

// NewDailyRatePricing creates a new DailyRatePricing.
func NewDailyRatePricing() *DailyRatePricing {
	return &DailyRatePricing{}
}

// Calculate computes the total price in cents. Both endpoints of the
// rental period count as billable days, so a same-day rental costs one
// full day.
func (DailyRatePricing) Calculate(params PricingParams) (int64, error) {
	if params.DailyRateCents <= 0 {
		return 0, fmt.Errorf("daily rate must be positive")
	}
	if params.RentEnd.Before(params.RentStart) {
		return 0, fmt.Errorf("rental end date precedes start date")
	}
	return RentalDays(params.RentStart, params.RentEnd) * params.DailyRateCents, nil
}

// RentalDays returns the inclusive number of calendar days between start
// and end. Timestamps are truncated to their UTC calendar dates first.
func RentalDays(start, end time.Time) int64 {
	s := normalizeDate(start)
	e := normalizeDate(end)
	return int64(e.Sub(s).Hours()/24) + 1
}
