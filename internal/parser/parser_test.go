
package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"thronebutt-scraper/internal/classifier"
	"thronebutt-scraper/internal/models"
)

func plate(rank, name string, levels []string, wideKills, narrowKills string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="score_plate flex" data-rank="%s">`, rank)
	fmt.Fprintf(&b, `<div class="min-w-0"><div class="break-words font-bold"> %s </div></div>`, name)
	b.WriteString(`<div class="flex flex-col gap-1">`)
	for _, l := range levels {
		fmt.Fprintf(&b, `<span> %s </span>`, l)
	}
	b.WriteString(`</div>`)
	if wideKills != "" {
		fmt.Fprintf(&b, `<div class="hidden sm:flex"><div class="nt-text-shadow text-right">%s</div></div>`, wideKills)
	}
	if narrowKills != "" {
		fmt.Fprintf(&b, `<div class="flex sm:hidden"><div class="nt-text-shadow">%s</div></div>`, narrowKills)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func page(plates ...string) string {
	return `<!doctype html><html><head><title>Weekly</title></head><body>
<div class="text-center text-2xl">Weekly 2024 / 10</div>
<div id="scores">` + strings.Join(plates, "\n") + `</div></body></html>`
}

func TestExtractExample(t *testing.T) {
	html := page(
		plate("1", "Alice", []string{"3200", "2"}, "15", ""),
		plate("2", "Bob", []string{"1800", "1"}, "7", ""),
	)
	p := New()
	got, err := p.Extract(strings.NewReader(html), "text/html; charset=utf-8")
	require.NoError(t, err)

	want := []models.Participant{
		{Rank: "1", Name: "Alice", Distance: "3200 2", Kills: "15"},
		{Rank: "2", Name: "Bob", Distance: "1800 1", Kills: "7"},
	}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, models.StatePopulated, got.State)
	require.Equal(t, 2, got.Plates)
	require.Zero(t, got.Skipped)
}

func TestExtractNoScoresWins(t *testing.T) {
	html := `<html><body><div class="mx-auto text-center">No scores!</div>` +
		plate("1", "Ghost", []string{"1"}, "3", "") + `</body></html>`
	got, err := New().Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	require.Equal(t, models.StateNoScores, got.State)
	require.Empty(t, got.Records)
	require.True(t, got.Terminal())
}

func TestExtractZeroPlates(t *testing.T) {
	got, err := New().Extract(strings.NewReader(page()), "text/html")
	require.NoError(t, err)
	require.Equal(t, models.StateEmpty, got.State)
	require.Empty(t, got.Records)
	require.True(t, got.Terminal())
}

func TestExtractKillsFallbackAndSeparators(t *testing.T) {
	html := page(
		plate("1", "Wide", []string{"7-3"}, "1,204", "9"),
		plate("2", "Narrow", []string{"5-1"}, "", "12,345"),
	)
	got, err := New().Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	require.Equal(t, "1204", got.Records[0].Kills)
	require.Equal(t, "12345", got.Records[1].Kills)
}

func TestExtractMissingFieldsUseSentinel(t *testing.T) {
	html := page(`<div class="score_plate"><p>broken entry</p></div>`)
	got, err := New().Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	want := []models.Participant{{
		Rank:     models.NotAvailable,
		Name:     models.NotAvailable,
		Distance: models.NotAvailable,
		Kills:    models.NotAvailable,
	}}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSkipsNestedPlate(t *testing.T) {
	outer := `<div class="score_plate" data-rank="1">` + plate("2", "Inner", []string{"4"}, "5", "") + `</div>`
	html := page(outer, plate("3", "Sibling", []string{"2"}, "1", ""))
	got, err := New().Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	require.Equal(t, 3, got.Plates)
	require.Equal(t, 1, got.Skipped)
	require.Len(t, got.Records, 2)
	require.Equal(t, "Inner", got.Records[0].Name)
	require.Equal(t, "Sibling", got.Records[1].Name)
}

func TestExtractRecoversStrategyPanic(t *testing.T) {
	layout := DefaultLayout()
	layout.Name = append([]Strategy{func(s *goquery.Selection) (string, bool) {
		if s.AttrOr("data-rank", "") == "2" {
			panic("corrupt plate")
		}
		return "", false
	}}, layout.Name...)
	p := NewWithLayout(classifier.New(), layout)

	html := page(
		plate("1", "Alice", []string{"3200"}, "15", ""),
		plate("2", "Bob", []string{"1800"}, "7", ""),
		plate("3", "Carol", []string{"900"}, "2", ""),
	)
	got, err := p.Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	require.Equal(t, 1, got.Skipped)
	require.Len(t, got.Records, 2)
	require.Equal(t, "1", got.Records[0].Rank)
	require.Equal(t, "3", got.Records[1].Rank)
}

func TestExtractIdempotent(t *testing.T) {
	html := page(plate("1", "Alice", []string{"3200", "2"}, "15", ""))
	p := New()
	a, err := p.Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	b, err := p.Extract(strings.NewReader(html), "text/html")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestExtractMalformed(t *testing.T) {
	_, err := New().Extract(strings.NewReader("  \n "), "text/html")
	require.True(t, errors.Is(err, ErrMalformedDocument))

	_, err = New().Extract(failingReader{}, "text/html")
	require.ErrorIs(t, err, ErrMalformedDocument)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
