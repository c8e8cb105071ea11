// Package transport wires the HTTP surface: run control, results, the
// progress websocket, health, and Prometheus metrics.
package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"esgcli/internal/config"
	apierrors "esgcli/internal/errors"
	"esgcli/internal/infrastructure"
	"esgcli/internal/services"
	"esgcli/internal/websocket"
)

// Handler carries the dependencies of the HTTP surface.
type Handler struct {
	service *services.AnalysisService
	hub     *websocket.Hub
	wsCfg   config.WebSocketConfig
	logger  *slog.Logger
}

// NewRouter builds the chi router for the server.
func NewRouter(service *services.AnalysisService, hub *websocket.Hub, wsCfg config.WebSocketConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, hub: hub, wsCfg: wsCfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(traceMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/analysis", h.startAnalysis)
		r.Get("/analysis/{id}", h.getAnalysis)
		r.Get("/results/{id}", h.getResults)
		r.Get("/healthz", h.health)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", websocket.ServeWS(hub, wsCfg, logger))

	return r
}

// traceMiddleware stamps every request context with a trace ID the logging
// handler picks up.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := infrastructure.WithTraceID(r.Context(), infrastructure.NewTraceID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) startAnalysis(w http.ResponseWriter, r *http.Request) {
	var req services.StartRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Render(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	run, err := h.service.Start(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRunActive):
			render.Render(w, r, apierrors.ErrRunInProgress)
		default:
			render.Render(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, run)
}

func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, apierrors.NotFoundWithMessage("unknown analysis run"))
		return
	}
	render.JSON(w, r, run)
}

// resultsResponse publishes the classified table under the contract column
// names plus run metadata.
type resultsResponse struct {
	RunID      string           `json:"run_id"`
	Source     string           `json:"source"`
	Median     float64          `json:"median_ratio"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	MergedRows int              `json:"merged_rows"`
}

func (h *Handler) getResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.service.Get(id)
	if err != nil {
		render.Render(w, r, apierrors.NotFoundWithMessage("unknown analysis run"))
		return
	}
	if run.Status == services.StatusFailed {
		render.Render(w, r, apierrors.UnprocessableWithError(errors.New(run.Error)))
		return
	}
	result, err := h.service.Result(id)
	if err != nil {
		render.Render(w, r, apierrors.NotFoundWithMessage("run has no result yet"))
		return
	}

	render.JSON(w, r, resultsResponse{
		RunID:      id,
		Source:     result.Source,
		Median:     result.Table.Median,
		Columns:    result.Table.Columns(),
		Rows:       result.Table.TabularRows(),
		MergedRows: result.MergedRows,
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":     "ok",
		"ws_clients": h.hub.ClientCount(),
	})
}
