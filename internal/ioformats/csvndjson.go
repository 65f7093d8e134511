
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"thronebutt-scraper/internal/models"
)

// ReadParams reads race requests from a CSV (header with race_type, year,
// identifier and optionally page, all_pages) or NDJSON file of RaceParams.
// If ext cannot be determined, tries CSV first then NDJSON.
func ReadParams(path string) ([]models.RaceParams, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return readCSV(path)
	case ".ndjson", ".jsonl":
		return readNDJSON(path)
	default:
		if params, err := readCSV(path); err == nil && len(params) > 0 {
			return params, nil
		}
		return readNDJSON(path)
	}
}

func readCSV(path string) ([]models.RaceParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"race_type", "year", "identifier"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv must contain a %q header column", required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []models.RaceParams
	for n, row := range rows[1:] {
		p := models.RaceParams{
			RaceType:   cell(row, "race_type"),
			Year:       cell(row, "year"),
			Identifier: cell(row, "identifier"),
		}
		if p.RaceType == "" {
			continue
		}
		if raw := cell(row, "page"); raw != "" {
			page, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: page %q: %w", n+2, raw, models.ErrInvalidQuery)
			}
			p.Page = models.PageNumber(page)
		}
		if raw := cell(row, "all_pages"); raw != "" {
			all, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: all_pages %q: %w", n+2, raw, models.ErrInvalidQuery)
			}
			p.AllPages = all
		}
		out = append(out, p)
	}
	return out, nil
}

func readNDJSON(path string) ([]models.RaceParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []models.RaceParams
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		p, err := models.DecodeParams([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no race requests found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
