
package locator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"thronebutt-scraper/internal/models"
)

const DefaultBaseURL = "https://beta.thronebutt.com"

// Locator turns a race query into a leaderboard page address.
type Locator struct {
	base string
}

func New(baseURL string) (*Locator, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	return &Locator{base: strings.TrimRight(u.String(), "/")}, nil
}

func (l *Locator) BaseURL() string { return l.base }

func (l *Locator) Build(q models.RaceQuery) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	page := strconv.Itoa(q.Page)
	var segments []string
	switch q.Category {
	case models.Daily:
		segments = []string{"daily", q.Year, q.Month, q.Day, page}
	case models.Weekly:
		segments = []string{"weekly", q.Year, q.Week, page}
	}
	return url.JoinPath(l.base, segments...)
}
