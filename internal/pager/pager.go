
package pager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"thronebutt-scraper/internal/crawler"
	"thronebutt-scraper/internal/locator"
	"thronebutt-scraper/internal/models"
)

var tracer = otel.Tracer("thronebutt-scraper/internal/pager")

// ErrPageLimit stops an all-pages run that reached Options.MaxPages before
// the site signalled the end.
var ErrPageLimit = errors.New("page limit reached")

// PageError ties a per-page failure to the page it happened on.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }

func (e *PageError) Unwrap() error { return e.Err }

type Fetcher interface {
	Fetch(ctx context.Context, address string) (crawler.Response, error)
}

type Extractor interface {
	Extract(r io.Reader, contentType string) (models.Page, error)
}

type Options struct {
	// MaxPages caps all-pages runs; zero means no ceiling. The ceiling is
	// exclusive: a race with exactly MaxPages populated pages still ends in
	// ErrPageLimit, because page MaxPages+1 is never fetched to see the
	// terminal signal.
	MaxPages int
	// Limiter paces page fetches. Nil disables pacing.
	Limiter *rate.Limiter
	// Checkpoint runs before every page fetch of an all-pages run. A non-nil
	// error ends the run with the records collected so far. Checkpoint,
	// context and limiter errors are returned as is, never as a PageError.
	Checkpoint func(page int) error
	Observer   Observer
}

// Pager drives Locator, Fetcher and Extractor for one query at a time. It
// keeps no per-run state and can be shared between goroutines.
type Pager struct {
	locator   *locator.Locator
	fetcher   Fetcher
	extractor Extractor
	opts      Options
}

func New(l *locator.Locator, f Fetcher, e Extractor, opts Options) *Pager {
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &Pager{locator: l, fetcher: f, extractor: e, opts: opts}
}

// FetchRace returns one page of participants, or with allPages every page
// from 1 up to the first terminal page. When an all-pages run fails part
// way, the records from the pages before the failure are returned along
// with the error.
func (p *Pager) FetchRace(ctx context.Context, q models.RaceQuery, allPages bool) ([]models.Participant, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "FetchRace", trace.WithAttributes(
		attribute.String("race", q.String()),
		attribute.Bool("all_pages", allPages),
	))
	defer span.End()

	if !allPages {
		page, err := p.FetchPage(ctx, q)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "page failed")
			p.opts.Observer.RunFinished(q, 0, 0, err)
			return nil, err
		}
		p.opts.Observer.RunFinished(q, 1, len(page.Records), nil)
		return page.Records, nil
	}

	records := []models.Participant{}
	pages := 0
	for page, err := range p.Pages(ctx, q) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
			p.opts.Observer.RunFinished(q, pages, len(records), err)
			return records, err
		}
		if !page.Terminal() {
			pages++
		}
		records = append(records, page.Records...)
	}
	span.SetAttributes(attribute.Int("pages", pages), attribute.Int("records", len(records)))
	p.opts.Observer.RunFinished(q, pages, len(records), nil)
	return records, nil
}

// Pages yields the pages of a race from page 1 in ascending order,
// regardless of q.Page. The sequence ends after the first terminal page or
// after the first error, so it is always finite once the site runs out.
func (p *Pager) Pages(ctx context.Context, q models.RaceQuery) iter.Seq2[models.Page, error] {
	return func(yield func(models.Page, error) bool) {
		for n := 1; ; n++ {
			if err := p.checkpoint(ctx, n); err != nil {
				yield(models.Page{Number: n}, err)
				return
			}
			page, err := p.FetchPage(ctx, q.WithPage(n))
			if err != nil {
				yield(page, err)
				return
			}
			if !yield(page, nil) || page.Terminal() {
				return
			}
		}
	}
}

func (p *Pager) checkpoint(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.opts.MaxPages > 0 && n > p.opts.MaxPages {
		return ErrPageLimit
	}
	if p.opts.Checkpoint != nil {
		if err := p.opts.Checkpoint(n); err != nil {
			return err
		}
	}
	if p.opts.Limiter != nil {
		return p.opts.Limiter.Wait(ctx)
	}
	return nil
}

// FetchPage retrieves and parses exactly the page q points at.
func (p *Pager) FetchPage(ctx context.Context, q models.RaceQuery) (models.Page, error) {
	page := models.Page{Number: q.Page}
	address, err := p.locator.Build(q)
	if err != nil {
		return page, err
	}
	p.opts.Observer.AddressBuilt(q, address)

	ctx, span := tracer.Start(ctx, "FetchPage", trace.WithAttributes(
		attribute.String("address", address),
		attribute.Int("page", q.Page),
	))
	defer span.End()

	res, err := p.fetcher.Fetch(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return page, &PageError{Page: q.Page, Err: err}
	}
	p.opts.Observer.PageFetched(q, address, res)

	parsed, err := p.extractor.Extract(bytes.NewReader(res.Body), res.ContentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return page, &PageError{Page: q.Page, Err: err}
	}
	parsed.Number = q.Page
	span.SetAttributes(
		attribute.String("state", string(parsed.State)),
		attribute.Int("plates", parsed.Plates),
		attribute.Int("records", len(parsed.Records)),
	)

	p.opts.Observer.PageParsed(q, parsed)
	for _, rec := range parsed.Records {
		p.opts.Observer.RecordExtracted(q, rec)
	}
	return parsed, nil
}
