package domain

import (
	"strings"
	"time"
)

// MaxSpotlightRank is the number of spotlight slots shown at once.
const MaxSpotlightRank = 10

// SpotlightToken is a promoted token with a rank and active date range.
// Corresponds to token_spotlight table in PostgreSQL.
type SpotlightToken struct {
	ID           string    `json:"id"`
	Chain        string    `json:"chain"`        // chain registry key
	TokenAddress string    `json:"tokenAddress"` // contract or mint address
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	Rank         int       `json:"rank"` // 1..MaxSpotlightRank, 0 = assign
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks fields that do not depend on other rows.
func (s *SpotlightToken) Validate() error {
	if strings.TrimSpace(s.Chain) == "" {
		return invalidf("spotlight chain is required")
	}
	if strings.TrimSpace(s.TokenAddress) == "" {
		return invalidf("spotlight token address is required")
	}
	if strings.TrimSpace(s.Symbol) == "" {
		return invalidf("spotlight symbol is required")
	}
	if s.Rank < 0 || s.Rank > MaxSpotlightRank {
		return invalidf("spotlight rank must be between 1 and %d", MaxSpotlightRank)
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return invalidf("spotlight start and end dates are required")
	}
	if s.EndDate.Before(s.StartDate) {
		return invalidf("spotlight end date must not be before start date")
	}
	return nil
}

// Overlaps reports whether the entry's range intersects [start, end] (inclusive).
func (s *SpotlightToken) Overlaps(start, end time.Time) bool {
	return !s.StartDate.After(end) && !start.After(s.EndDate)
}

// IsActive reports whether at falls inside the entry's range.
func (s *SpotlightToken) IsActive(at time.Time) bool {
	return s.Overlaps(at, at)
}
