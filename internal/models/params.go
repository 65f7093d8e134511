
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PageNumber accepts both 2 and "2" on the wire.
type PageNumber int

func (p *PageNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("page %s: %w", s, ErrInvalidQuery)
	}
	*p = PageNumber(n)
	return nil
}

// RaceParams is the request shape shared by the HTTP API and batch files.
type RaceParams struct {
	RaceType   string     `json:"race_type"`
	Year       string     `json:"year"`
	Identifier string     `json:"identifier"`
	Page       PageNumber `json:"page,omitempty"`
	AllPages   bool       `json:"all_pages,omitempty"`
}

// Query validates the params; a missing page means page 1.
func (p RaceParams) Query() (RaceQuery, error) {
	page := int(p.Page)
	if page == 0 {
		page = 1
	}
	return ParseIdentifier(p.RaceType, p.Year, p.Identifier, page)
}

func DecodeParams(b []byte) (RaceParams, error) {
	var p RaceParams
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return p, nil
}
