package domain

import (
	"net/url"
	"strings"
	"time"
)

// Placement is the slot of the front end an advert is rendered into.
type Placement string

const (
	PlacementBanner  Placement = "banner"
	PlacementSidebar Placement = "sidebar"
	PlacementSwap    Placement = "swap"
	PlacementPopup   Placement = "popup"
)

// IsValid checks if the placement is a known value.
func (p Placement) IsValid() bool {
	switch p {
	case PlacementBanner, PlacementSidebar, PlacementSwap, PlacementPopup:
		return true
	}
	return false
}

// Advert is a paid promotion shown inside its date range.
// Corresponds to adverts table in PostgreSQL.
type Advert struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	LinkURL     string    `json:"linkUrl"`
	Placement   Placement `json:"placement"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the fields an admin supplies.
func (a *Advert) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return invalidf("advert title is required")
	}
	if !isHTTPURL(a.LinkURL) {
		return invalidf("advert link url must be an absolute http(s) url")
	}
	if a.ImageURL != "" && !isHTTPURL(a.ImageURL) {
		return invalidf("advert image url must be an absolute http(s) url")
	}
	if !a.Placement.IsValid() {
		return invalidf("unknown placement %q", a.Placement)
	}
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return invalidf("advert start and end dates are required")
	}
	if !a.EndDate.After(a.StartDate) {
		return invalidf("advert end date must be after start date")
	}
	return nil
}

// IsActive reports whether at falls inside [StartDate, EndDate].
func (a *Advert) IsActive(at time.Time) bool {
	return !at.Before(a.StartDate) && !at.After(a.EndDate)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
