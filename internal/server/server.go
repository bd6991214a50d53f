// Package server serves the browser report and its JSON API from the most
// recent stored snapshot.
package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/boreal-data/transfers-cli/internal/model"
	"github.com/boreal-data/transfers-cli/internal/monitoring"
	"github.com/boreal-data/transfers-cli/internal/report"
	"github.com/boreal-data/transfers-cli/internal/store"
	"github.com/boreal-data/transfers-cli/internal/transform"
)

//go:embed report.html
var templateFS embed.FS

// Server exposes the report page and JSON API.
type Server struct {
	store     store.Store
	collector *monitoring.Collector
	sourceURL string
	tmpl      *template.Template
}

// New creates a report server reading from the given store.
func New(st store.Store, collector *monitoring.Collector, sourceURL string) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "report.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     st,
		collector: collector,
		sourceURL: sourceURL,
		tmpl:      tmpl,
	}, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/api/meta", s.handleMeta)
	r.Get("/api/transfers", s.handleTransfers)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type indexData struct {
	Title string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, indexData{
		Title: "Federal Transfers Breakdown by Province/Territory",
	}); err != nil {
		zap.L().Error("render report page", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status collection failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"dataset": status,
	})
}

// metaResponse lists what the latest snapshot offers, in catalog order.
type metaResponse struct {
	HasSnapshot   bool     `json:"has_snapshot"`
	ScrapedAt     string   `json:"scraped_at,omitempty"`
	FiscalYears   []string `json:"fiscal_years"`
	Components    []string `json:"components"`
	Jurisdictions []string `json:"jurisdictions"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	snap, records, err := s.latestRecords(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	resp := metaResponse{
		FiscalYears:   []string{},
		Components:    []string{},
		Jurisdictions: []string{},
	}
	if snap != nil {
		resp.HasSnapshot = true
		resp.ScrapedAt = snap.ScrapedAt.Format(time.RFC3339)
	}

	seenYear := make(map[string]bool)
	seenComp := make(map[string]bool)
	seenJur := make(map[string]bool)
	for _, rec := range records {
		if !seenYear[rec.FiscalYear] {
			seenYear[rec.FiscalYear] = true
			resp.FiscalYears = append(resp.FiscalYears, rec.FiscalYear)
		}
		if !seenComp[rec.Component] {
			seenComp[rec.Component] = true
			resp.Components = append(resp.Components, rec.Component)
		}
		if !seenJur[rec.Jurisdiction] {
			seenJur[rec.Jurisdiction] = true
			resp.Jurisdictions = append(resp.Jurisdictions, rec.Jurisdiction)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	year, err := transform.NormalizeFiscalYear(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must look like 2024-25")
		return
	}

	opts := report.Options{IncludeAggregate: true}
	if v := r.URL.Query().Get("include_aggregate"); v == "false" || v == "0" {
		opts.IncludeAggregate = false
	}
	// An absent components param means all components; a present-but-empty
	// one means the user unchecked every box and wants an empty chart.
	if vals, ok := r.URL.Query()["components"]; ok {
		opts.Components = []string{}
		for _, v := range vals {
			for _, c := range strings.Split(v, ",") {
				if c = strings.TrimSpace(c); c != "" {
					opts.Components = append(opts.Components, c)
				}
			}
		}
	}

	_, records, err := s.latestRecords(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	payload := report.Chart(records, year, opts)
	if payload.Jurisdictions == nil {
		payload.Jurisdictions = []string{}
	}
	if payload.Series == nil {
		payload.Series = []model.ChartSeries{}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) latestRecords(r *http.Request) (*model.Snapshot, []model.TransferRecord, error) {
	ctx := r.Context()
	snap, err := s.store.LatestSnapshot(ctx, s.sourceURL)
	if err != nil {
		zap.L().Error("load latest snapshot", zap.Error(err))
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, nil
	}
	records, err := s.store.Transfers(ctx, snap.ID)
	if err != nil {
		zap.L().Error("load transfers", zap.String("snapshot_id", snap.ID), zap.Error(err))
		return nil, nil, err
	}
	return snap, records, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
