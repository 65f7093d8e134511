
package models

import (
	"errors"
	"fmt"
	"strings"
)

// NotAvailable fills any participant field whose element could not be found.
const NotAvailable = "N/A"

var ErrInvalidQuery = errors.New("invalid race query")

type Category string

const (
	Daily  Category = "daily"
	Weekly Category = "weekly"
)

type Participant struct {
	Rank     string `json:"rank"`
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Kills    string `json:"kills"`
}

// RaceQuery selects one leaderboard page. Month and Day are used by daily
// races, Week by weekly ones.
type RaceQuery struct {
	Category Category `json:"category"`
	Year     string   `json:"year"`
	Month    string   `json:"month,omitempty"`
	Day      string   `json:"day,omitempty"`
	Week     string   `json:"week,omitempty"`
	Page     int      `json:"page"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func (q RaceQuery) Validate() error {
	if !isDigits(q.Year, 4) {
		return invalid("year %q must be numeric", q.Year)
	}
	if q.Page < 1 {
		return invalid("page %d must be >= 1", q.Page)
	}
	switch q.Category {
	case Daily:
		if q.Week != "" {
			return invalid("daily race takes month/day, not week")
		}
		if !isDigits(q.Month, 2) || !isDigits(q.Day, 2) {
			return invalid("daily race needs numeric month and day, got %q/%q", q.Month, q.Day)
		}
	case Weekly:
		if q.Month != "" || q.Day != "" {
			return invalid("weekly race takes week, not month/day")
		}
		if !isDigits(q.Week, 2) {
			return invalid("weekly race needs numeric week, got %q", q.Week)
		}
	default:
		return invalid("unknown category %q", q.Category)
	}
	return nil
}

// WithPage returns a copy of q pointing at page n.
func (q RaceQuery) WithPage(n int) RaceQuery {
	q.Page = n
	return q
}

func (q RaceQuery) String() string {
	if q.Category == Daily {
		return fmt.Sprintf("daily %s/%s/%s p%d", q.Year, q.Month, q.Day, q.Page)
	}
	return fmt.Sprintf("%s %s/%s p%d", q.Category, q.Year, q.Week, q.Page)
}

// ParseIdentifier builds a query from the "MM/DD" (daily) or "WW" (weekly)
// identifier form accepted by the API and CLI.
func ParseIdentifier(category, year, identifier string, page int) (RaceQuery, error) {
	q := RaceQuery{
		Category: Category(strings.ToLower(strings.TrimSpace(category))),
		Year:     strings.TrimSpace(year),
		Page:     page,
	}
	identifier = strings.TrimSpace(identifier)
	switch q.Category {
	case Daily:
		month, day, ok := strings.Cut(identifier, "/")
		if !ok {
			return q, invalid("daily identifier %q must be MM/DD", identifier)
		}
		q.Month, q.Day = strings.TrimSpace(month), strings.TrimSpace(day)
	case Weekly:
		if strings.Contains(identifier, "/") {
			return q, invalid("weekly identifier %q must be a week number", identifier)
		}
		q.Week = identifier
	}
	return q, q.Validate()
}

func isDigits(s string, maxLen int) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type PageState string

const (
	// StateNoScores means the site explicitly reported an empty leaderboard.
	StateNoScores  PageState = "no_scores"
	StateEmpty     PageState = "empty"
	StatePopulated PageState = "populated"
)

type Classification struct {
	State  PageState         `json:"state"`
	Reason map[string]string `json:"reason,omitempty"`
}

type Page struct {
	Number  int           `json:"page"`
	State   PageState     `json:"state"`
	Plates  int           `json:"plates"`
	Skipped int           `json:"skipped,omitempty"`
	Records []Participant `json:"records"`
}

// Terminal reports whether pagination should stop at this page.
func (p Page) Terminal() bool {
	return p.State != StatePopulated || len(p.Records) == 0
}

type RaceResult struct {
	Query        RaceQuery     `json:"query"`
	AllPages     bool          `json:"all_pages,omitempty"`
	Participants []Participant `json:"participants"`
	FailedPage   int           `json:"failed_page,omitempty"`
	Error        string        `json:"error,omitempty"`
}
