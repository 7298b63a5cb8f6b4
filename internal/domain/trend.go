package domain

import "time"

// TrendPoint is one entry of the population trend series.
// Series order is fixed when the series is produced.
type TrendPoint struct {
	Label  string    `json:"label"`  // "Jan".."Dec"
	Period time.Time `json:"period"` // first instant of the month, UTC
	Value  float64   `json:"value"`
}
