package stats

import "spendrill/internal/core"

// Message types understood across the worker boundary. Anything else is
// ignored by both sides.
const (
	TypeCompute = "compute"
	TypeStats   = "stats"
)

// Request asks the worker for one aggregation pass.
type Request struct {
	Type    string         `json:"type"`
	Payload RequestPayload `json:"payload"`
}

type RequestPayload struct {
	Transactions []core.EnrichedTransaction `json:"transactions"`
}

// Response carries the aggregate result back over the bus.
type Response struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

// Payload is the aggregate statistics for one transaction list.
type Payload struct {
	MonthlyTotal   float64            `json:"monthlyTotal"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
	Average        float64            `json:"average"`
	TopCategory    *string            `json:"topCategory"`
	Trend          []MonthTotal       `json:"trend"`
}

// MonthTotal is one aggregation bucket of the trend, keyed by "YYYY-MM".
type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}
