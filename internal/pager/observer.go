
package pager

import (
	"log/slog"

	"thronebutt-scraper/internal/crawler"
	"thronebutt-scraper/internal/models"
)

// Observer is told about each step of a run. Calls happen on the goroutine
// running the query.
type Observer interface {
	AddressBuilt(q models.RaceQuery, address string)
	PageFetched(q models.RaceQuery, address string, res crawler.Response)
	PageParsed(q models.RaceQuery, page models.Page)
	RecordExtracted(q models.RaceQuery, rec models.Participant)
	RunFinished(q models.RaceQuery, pages, records int, err error)
}

type NopObserver struct{}

func (NopObserver) AddressBuilt(models.RaceQuery, string) {}
func (NopObserver) PageFetched(models.RaceQuery, string, crawler.Response) {}
func (NopObserver) PageParsed(models.RaceQuery, models.Page) {}
func (NopObserver) RecordExtracted(models.RaceQuery, models.Participant) {}
func (NopObserver) RunFinished(models.RaceQuery, int, int, error) {}

// Observers fans every call out to each observer in turn.
type Observers []Observer

func (o Observers) AddressBuilt(q models.RaceQuery, address string) {
	for _, ob := range o {
		ob.AddressBuilt(q, address)
	}
}

func (o Observers) PageFetched(q models.RaceQuery, address string, res crawler.Response) {
	for _, ob := range o {
		ob.PageFetched(q, address, res)
	}
}

func (o Observers) PageParsed(q models.RaceQuery, page models.Page) {
	for _, ob := range o {
		ob.PageParsed(q, page)
	}
}

func (o Observers) RecordExtracted(q models.RaceQuery, rec models.Participant) {
	for _, ob := range o {
		ob.RecordExtracted(q, rec)
	}
}

func (o Observers) RunFinished(q models.RaceQuery, pages, records int, err error) {
	for _, ob := range o {
		ob.RunFinished(q, pages, records, err)
	}
}

// SlogObserver traces a run through a slog.Logger. Step details go out at
// debug level, the run summary at info (or error).
type SlogObserver struct {
	Logger *slog.Logger
}

func (s SlogObserver) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s SlogObserver) AddressBuilt(q models.RaceQuery, address string) {
	s.logger().Debug("address built", "race", q.String(), "url", address)
}

func (s SlogObserver) PageFetched(q models.RaceQuery, address string, res crawler.Response) {
	s.logger().Debug("page fetched",
		"race", q.String(),
		"url", res.FinalURL,
		"bytes", len(res.Body),
		"fetch_ms", res.Elapsed.Milliseconds(),
	)
}

func (s SlogObserver) PageParsed(q models.RaceQuery, page models.Page) {
	s.logger().Debug("page parsed",
		"race", q.String(),
		"state", page.State,
		"plates", page.Plates,
		"skipped", page.Skipped,
		"records", len(page.Records),
	)
}

func (s SlogObserver) RecordExtracted(q models.RaceQuery, rec models.Participant) {
	s.logger().Debug("participant",
		"page", q.Page,
		"rank", rec.Rank,
		"name", rec.Name,
		"distance", rec.Distance,
		"kills", rec.Kills,
	)
}

func (s SlogObserver) RunFinished(q models.RaceQuery, pages, records int, err error) {
	if err != nil {
		s.logger().Error("race fetch failed", "race", q.String(), "pages", pages, "records", records, "error", err)
		return
	}
	s.logger().Info("race fetched", "race", q.String(), "pages", pages, "records", records)
}
