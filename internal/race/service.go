package race

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"thronebutt-scraper/internal/config"
	"thronebutt-scraper/internal/crawler"
	"thronebutt-scraper/internal/locator"
	"thronebutt-scraper/internal/metrics"
	"thronebutt-scraper/internal/models"
	"thronebutt-scraper/internal/pager"
	"thronebutt-scraper/internal/parser"
)

type Service struct {
	pager       *pager.Pager
	concurrency int
}

// New wires the production pager: resty fetcher, default layout, slog and
// Prometheus observers, and a page rate limiter when cfg.PageRate > 0.
func New(cfg config.Config, extra ...pager.Observer) (*Service, error) {
	loc, err := locator.New(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	client := crawler.NewHTTPClient(cfg.FetchTimeout, cfg.DialTimeout, cfg.SizeCap).SetUserAgent(cfg.UserAgent)

	opts := pager.Options{
		MaxPages: cfg.MaxPages,
		Observer: append(pager.Observers{pager.SlogObserver{}, metrics.Observer{}}, extra...),
	}
	if cfg.PageRate > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.PageRate), 1)
	}
	return NewWithPager(pager.New(loc, client, parser.New(), opts), cfg.BatchConcurrency), nil
}

func NewWithPager(p *pager.Pager, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{pager: p, concurrency: concurrency}
}

func (s *Service) Pager() *pager.Pager { return s.pager }

// Fetch runs one request. The result always carries whatever participants
// were collected, even when err is non-nil.
func (s *Service) Fetch(ctx context.Context, params models.RaceParams) (models.RaceResult, error) {
	res := models.RaceResult{AllPages: params.AllPages, Participants: []models.Participant{}}
	q, err := params.Query()
	res.Query = q
	if err != nil {
		res.Error = err.Error()
		return res, err
	}

	recs, err := s.pager.FetchRace(ctx, q, params.AllPages)
	if recs != nil {
		res.Participants = recs
	}
	if err != nil {
		res.Error = err.Error()
		var pe *pager.PageError
		if errors.As(err, &pe) {
			res.FailedPage = pe.Page
		}
	}
	return res, err
}

// Batch runs every request with bounded concurrency. Each request gets its
// own run; a failing request does not stop the others.
func (s *Service) Batch(ctx context.Context, params []models.RaceParams) []models.RaceResult {
	results := make([]models.RaceResult, len(params))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range params {
		g.Go(func() error {
			res, err := s.Fetch(gCtx, p)
			if err != nil {
				slog.Warn("race request failed", "index", i, "race", res.Query.String(), "error", err)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
