// FilePath: internal/models/api.models.filters.go
package models

import "time"

// ReadingFilters defines the query options for listing raw telemetry.
// Decoded from the query string with gorilla/schema.
type ReadingFilters struct {
	ParameterKey string     `schema:"parameter"`
	Start        *time.Time `schema:"start"`
	End          *time.Time `schema:"end"`
	Limit        int        `schema:"limit"`
}

// SummaryFilters defines the query options for daily summary rows.
type SummaryFilters struct {
	ParameterKey string     `schema:"parameter"`
	Start        *time.Time `schema:"start"`
	End          *time.Time `schema:"end"`
}

// SessionFilters defines the query options for listing drive sessions.
type SessionFilters struct {
	OpenOnly bool `schema:"open"`
	Limit    int  `schema:"limit"`
	Offset   int  `schema:"offset"`
}
