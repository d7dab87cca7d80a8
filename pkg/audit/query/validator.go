package query

import (
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/audit"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/disposition"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/risk"
)

const (
	// DefaultLimit is the default number of entries to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of entries that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *audit.Query) error {
	if q.Limit < 0 {
		return audit.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return audit.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return audit.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return audit.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Kind != "" && !q.Kind.Valid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid kind: %s", q.Kind))
	}
	if q.Disposition != "" && !disposition.Kind(q.Disposition).Valid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid disposition: %s", q.Disposition))
	}
	if q.Band != "" && !risk.Band(q.Band).Valid() {
		return audit.NewQueryError(q, fmt.Errorf("invalid band: %s", q.Band))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *audit.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortOrder == "" {
		q.SortOrder = "asc"
	}
}

// Prepare validates q and applies defaults.
func Prepare(q *audit.Query) error {
	if err := Validate(q); err != nil {
		return err
	}
	ApplyDefaults(q)
	return nil
}
