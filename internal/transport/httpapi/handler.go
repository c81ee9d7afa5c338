// Package httpapi serves analyses and their history over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fradiumofficial/fradium-sub002/internal/history"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/workflow"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// Handler routes the API. It is safe for concurrent use.
type Handler struct {
	analyzer Analyzer
	history  History
	logger   *zap.Logger
	next     http.Handler
}

// NewHandler builds the API handler. allowedOrigins configures CORS; empty
// allows any origin.
func NewHandler(analyzer Analyzer, hist History, metrics Metrics, allowedOrigins []string, logger *zap.Logger) (*Handler, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if hist == nil {
		return nil, errors.New("history is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	h := &Handler{
		analyzer: analyzer,
		history:  hist,
		logger:   logger.Named("httpapi"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /v1/analyses", h.createAnalysis)
	mux.HandleFunc("GET /v1/analyses/{id}", h.getAnalysis)
	mux.HandleFunc("DELETE /v1/analyses/{id}", h.deleteAnalysis)
	mux.HandleFunc("GET /v1/history", h.listHistory)
	mux.HandleFunc("DELETE /v1/history", h.clearHistory)
	mux.HandleFunc("GET /v1/history/stats", h.historyStats)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	h.next = recoverer(observe(c.Handler(mux), metrics, h.logger), h.logger)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createAnalysis answers 202 with the run id for async requests, otherwise it
// waits for the run and answers 200 with the finalized item, failed or not.
func (h *Handler) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "decode request: "+err.Error())
		return
	}
	address := strings.TrimSpace(req.Address)

	if req.Async {
		run, err := h.analyzer.Start(r.Context(), address)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, acceptedResponse{ID: run.ID(), State: run.State().String()})
		return
	}

	item, err := h.analyzer.Analyze(r.Context(), address)
	var runErr *workflow.Error
	if err != nil && !errors.As(err, &runErr) {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{AnalysisHistoryItem: item})
}

func (h *Handler) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := analysisResponse{AnalysisHistoryItem: item}
	if run, ok := h.analyzer.Lookup(id); ok {
		resp.State = run.State().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// deleteAnalysis cancels an active run, or deletes a finished item.
func (h *Handler) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.analyzer.Cancel(id) {
		writeJSON(w, http.StatusAccepted, acceptedResponse{ID: id, State: "cancelling"})
		return
	}
	if err := h.history.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.history.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if items == nil {
		items = []model.AnalysisHistoryItem{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Items: items})
}

func (h *Handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) historyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, category := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, category, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidAddress):
		return http.StatusBadRequest, string(model.CategoryInvalidAddress)
	case errors.Is(err, model.ErrUnsupportedChain):
		return http.StatusUnprocessableEntity, "unsupported_chain"
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, workflow.ErrShuttingDown):
		return http.StatusServiceUnavailable, string(model.CategoryServiceUnavailable)
	default:
		return http.StatusInternalServerError, "internal"
	}
}
