package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"thronebutt-scraper/internal/crawler"
	"thronebutt-scraper/internal/metrics"
	"thronebutt-scraper/internal/models"
	"thronebutt-scraper/internal/pager"
	"thronebutt-scraper/internal/parser"
	"thronebutt-scraper/internal/race"
)

const maxBatch = 50

type batchReq struct {
	Queries []models.RaceParams `json:"queries"`
}

type errorResp struct {
	Error        string               `json:"error"`
	Page         int                  `json:"page,omitempty"`
	Participants []models.Participant `json:"participants,omitempty"`
}

func newMux(svc *race.Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API works"})
	})

	mux.Handle("/metrics", metrics.Handler())

	// POST /parse  {"race_type": "daily", "year": "2024", "identifier": "03/07", "page": "1", "all_pages": false}
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid payload"})
			return
		}
		params, err := models.DecodeParams(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
			return
		}

		res, err := svc.Fetch(r.Context(), params)
		if err != nil {
			writeJSON(w, statusFor(err), errorResp{
				Error:        err.Error(),
				Page:         res.FailedPage,
				Participants: res.Participants,
			})
			return
		}
		writeJSON(w, http.StatusOK, res.Participants)
	})

	// POST /parse/batch  {"queries": [{...}, {...}]}
	mux.HandleFunc("/parse/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
			return
		}
		var req batchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Queries) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid payload"})
			return
		}
		if len(req.Queries) > maxBatch {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "too many queries"})
			return
		}
		writeJSON(w, http.StatusOK, svc.Batch(r.Context(), req.Queries))
	})

	return mux
}

func statusFor(err error) int {
	var te *crawler.TransportError
	switch {
	case errors.Is(err, models.ErrInvalidQuery):
		return http.StatusBadRequest
	// checked before TransportError, which can wrap either
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, pager.ErrPageLimit):
		return http.StatusGatewayTimeout
	case errors.As(err, &te):
		return http.StatusBadGateway
	case errors.Is(err, parser.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
