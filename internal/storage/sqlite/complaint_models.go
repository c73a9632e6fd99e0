package sqlite

import "errors"

// ComplaintRecord represents one processed complaint row
type ComplaintRecord struct {
	ID        int64  `json:"id"`
	Complaint string `json:"complaint"`
	Category  string `json:"category"`
	Location  string `json:"location,omitempty"` // empty when HasLocation is false
	// HasLocation distinguishes a stored NULL from an empty string
	HasLocation bool   `json:"has_location"`
	Urgency     string `json:"urgency"`
}

// CountRow is one row of a grouped count
type CountRow struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Columns that may be grouped by CountBy
const (
	FieldCategory = "category"
	FieldUrgency  = "urgency"
)

// ErrUnknownField is returned when CountBy is asked for a column it does not group
var ErrUnknownField = errors.New("unknown complaint field")
