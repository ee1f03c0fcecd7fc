package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/analytics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/export"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
)

// ExportFilename is the download name of a CSV export.
const ExportFilename = "filtered_feedback_data.csv"

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(corsOptions(s.cfg.CORSOrigins)))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/feedback", s.handleFeedback)
		r.Get("/stats", s.handleStats)
		r.Get("/options", s.handleOptions)
		r.Get("/export", s.handleExport)
		r.Get("/progress", s.handleProgress)
		r.Post("/reload", s.handleReload)
		r.Post("/reset", s.handleReset)
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// parseFilters reads the repeatable category, product, severity and region
// query parameters.
func parseFilters(r *http.Request) analytics.Filters {
	q := r.URL.Query()
	return analytics.Filters{
		Categories: q["category"],
		Products:   q["product"],
		Severities: q["severity"],
		Regions:    q["region"],
	}
}

// published returns the current records, or nil when nothing is published.
func (s *Server) published() (*Snapshot, []model.Enriched) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, nil
	}
	return snap, snap.Records
}

type healthResponse struct {
	Status    string                   `json:"status"`
	Live      bool                     `json:"live"`
	Published bool                     `json:"published"`
	Circuit   *resilience.CircuitStats `json:"circuit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Live:      s.pipeline.Live(),
		Published: s.snapshot.Load() != nil,
		Circuit:   s.pipeline.Circuit(),
	})
}

type feedbackResponse struct {
	RunID   string            `json:"run_id,omitempty"`
	Mode    string            `json:"mode,omitempty"`
	Filters analytics.Filters `json:"filters"`
	Count   int               `json:"count"`
	Records []model.Enriched  `json:"records"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	f := parseFilters(r)
	snap, records := s.published()
	rows := analytics.Filter(records, f)

	resp := feedbackResponse{Filters: f, Count: len(rows), Records: rows}
	if snap != nil {
		resp.RunID = snap.RunID
		resp.Mode = string(snap.Mode)
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	analytics.Stats
	Categories []analytics.Count      `json:"categories"`
	Severities []analytics.Count      `json:"severities"`
	Scores     []analytics.ScoreCount `json:"scores"`
	Agreement  analytics.Agreement    `json:"agreement"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	_, records := s.published()
	rows := analytics.Filter(records, parseFilters(r))
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:      analytics.Summarize(rows),
		Categories: analytics.CategoryCounts(rows),
		Severities: analytics.SeverityCounts(rows),
		Scores:     analytics.ScoreCounts(rows),
		Agreement:  analytics.HumanAgreement(rows),
	})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	_, records := s.published()
	writeJSON(w, http.StatusOK, analytics.Options(records))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, records := s.published()
	rows := analytics.Filter(records, parseFilters(r))

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
		if err := export.WriteCSV(w, rows); err != nil {
			zap.L().Error("dashboard: export csv", zap.Error(err))
		}
	case "json":
		writeJSON(w, http.StatusOK, rows)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	s.Reload()
	writeJSON(w, http.StatusAccepted, s.Status())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.Reset()
	writeJSON(w, http.StatusOK, s.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("dashboard: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
