
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"thronebutt-scraper/internal/classifier"
	"thronebutt-scraper/internal/models"
)

var (
	// ErrMalformedDocument means the page could not be scanned at all, as
	// opposed to a page that was read fine and simply has no entries.
	ErrMalformedDocument = errors.New("malformed document")
	errPlateFault        = errors.New("score plate fault")
)

// Strategy pulls one field out of a score plate. ok is false when the
// element it looks for is absent.
type Strategy func(plate *goquery.Selection) (value string, ok bool)

// Layout lists, per field, the strategies to try in order.
type Layout struct {
	Rank     []Strategy
	Name     []Strategy
	Distance []Strategy
	Kills    []Strategy
}

func DefaultLayout() Layout {
	return Layout{
		Rank: []Strategy{Attr("data-rank")},
		Name: []Strategy{Text("div.break-all, div.break-words")},
		Distance: []Strategy{
			Joined("div.flex.flex-col.gap-1 span"),
		},
		Kills: []Strategy{
			// wide viewport
			Digits(Text(`div.hidden.sm\:flex div.nt-text-shadow.text-right`)),
			// narrow viewport
			Digits(Text(`div.flex.sm\:hidden div.nt-text-shadow`)),
		},
	}
}

func Attr(name string) Strategy {
	return func(plate *goquery.Selection) (string, bool) {
		return plate.Attr(name)
	}
}

func Text(selector string) Strategy {
	return func(plate *goquery.Selection) (string, bool) {
		s := plate.Find(selector).First()
		if s.Length() == 0 {
			return "", false
		}
		return strings.TrimSpace(s.Text()), true
	}
}

// Joined concatenates the trimmed text of every match with single spaces.
func Joined(selector string) Strategy {
	return func(plate *goquery.Selection) (string, bool) {
		var parts []string
		plate.Find(selector).Each(func(i int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	}
}

// Digits strips digit-group separators from the wrapped strategy's value.
func Digits(inner Strategy) Strategy {
	return func(plate *goquery.Selection) (string, bool) {
		v, ok := inner(plate)
		if !ok {
			return "", false
		}
		return strings.ReplaceAll(v, ",", ""), true
	}
}

func first(strategies []Strategy, plate *goquery.Selection) string {
	for _, st := range strategies {
		if v, ok := st(plate); ok {
			return v
		}
	}
	return models.NotAvailable
}

type Parser struct {
	classifier *classifier.Classifier
	layout     Layout
}

func New() *Parser { return NewWithLayout(classifier.New(), DefaultLayout()) }

func NewWithLayout(cl *classifier.Classifier, layout Layout) *Parser {
	return &Parser{classifier: cl, layout: layout}
}

func (p *Parser) Extract(r io.Reader, contentType string) (models.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: read body: %w", ErrMalformedDocument, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Page{}, fmt.Errorf("%w: empty body", ErrMalformedDocument)
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return models.Page{}, fmt.Errorf("%w: decode: %w", ErrMalformedDocument, err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return p.ExtractDocument(doc), nil
}

// ExtractDocument reads every score plate of an already parsed page in
// document order. Plates that fault are dropped and counted in Skipped.
func (p *Parser) ExtractDocument(doc *goquery.Document) models.Page {
	class := p.classifier.Classify(doc)
	page := models.Page{State: class.State, Records: []models.Participant{}}
	if class.State != models.StatePopulated {
		return page
	}

	plates := doc.Find(classifier.PlateSelector)
	page.Plates = plates.Length()
	plates.Each(func(i int, s *goquery.Selection) {
		rec, err := p.plate(s)
		if err != nil {
			page.Skipped++
			slog.Debug("skipping score plate", "index", i, "error", err)
			return
		}
		page.Records = append(page.Records, rec)
	})
	return page
}

func (p *Parser) plate(s *goquery.Selection) (rec models.Participant, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPlateFault, r)
		}
	}()

	if s.Find(classifier.PlateSelector).Length() > 0 {
		return rec, fmt.Errorf("%w: nested score plate", errPlateFault)
	}

	return models.Participant{
		Rank:     first(p.layout.Rank, s),
		Name:     first(p.layout.Name, s),
		Distance: first(p.layout.Distance, s),
		Kills:    first(p.layout.Kills, s),
	}, nil
}
