package poller

import (
	"strconv"
	"strings"
	"time"

	"item-manager/internal/dispatch"
)

// TimeLayout is the layout of Reading.Time, in local time
const TimeLayout = "2006-01-02 15:04:05"

// Reading is one sampled temperature, stored as an item
type Reading struct {
	Time           string `json:"time"`
	CPUTemperature string `json:"cpu temperature"`
}

// NewReading builds a Reading for a temperature sampled at t
func NewReading(celsius float64, t time.Time) Reading {
	return Reading{
		Time:           t.Local().Format(TimeLayout),
		CPUTemperature: FormatTemperature(celsius),
	}
}

// FormatTemperature prints celsius with at least one fractional digit,
// e.g. 42.5 or 42.0
func FormatTemperature(celsius float64) string {
	s := strconv.FormatFloat(celsius, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

// CreateRequest is the create envelope posted to the dispatcher
type CreateRequest struct {
	Operation dispatch.Operation `json:"operation"`
	Payload   CreateReading      `json:"payload"`
}

// CreateReading is the create payload carrying a Reading
type CreateReading struct {
	Item Reading `json:"Item"`
}

// NewCreateRequest wraps r in a create envelope
func NewCreateRequest(r Reading) CreateRequest {
	return CreateRequest{
		Operation: dispatch.OpCreate,
		Payload:   CreateReading{Item: r},
	}
}
