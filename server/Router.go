package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/orchestrator"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// Orchestrator is the store contract the API exposes.
type Orchestrator interface {
	RunScan(ctx context.Context, request core.ScanRequest) (core.ScanResult, error)
	History() []core.ScanResult
	CurrentScan() (core.ScanResult, bool)
	Find(id string) (core.ScanResult, bool)
	Loading() bool
	ClearHistory()
	DeleteResult(id string)
}

type StateResponse struct {
	Loading      bool             `json:"loading"`
	CurrentScan  *core.ScanResult `json:"currentScan"`
	HistoryCount int              `json:"historyCount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	orchestrator Orchestrator
}

func NewRouter(o Orchestrator) chi.Router {
	h := handlers{orchestrator: o}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/state", h.state)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.listHistory)
		r.Delete("/", h.clearHistory)
		r.Get("/{id}", h.getResult)
		r.Delete("/{id}", h.deleteResult)
	})
	r.Post("/scans", h.runScan)

	return r
}

func NewServer(addr string, o Orchestrator) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(o),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
}

func (h handlers) state(w http.ResponseWriter, r *http.Request) {
	response := StateResponse{
		Loading:      h.orchestrator.Loading(),
		HistoryCount: len(h.orchestrator.History()),
	}
	if current, ok := h.orchestrator.CurrentScan(); ok {
		response.CurrentScan = &current
	}
	render.JSON(w, r, response)
}

func (h handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.orchestrator.History())
}

func (h handlers) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := h.orchestrator.Find(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "scan result not found")
		return
	}
	render.JSON(w, r, result)
}

func (h handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.ClearHistory()
	render.NoContent(w, r)
}

func (h handlers) deleteResult(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.DeleteResult(chi.URLParam(r, "id"))
	render.NoContent(w, r)
}

func (h handlers) runScan(w http.ResponseWriter, r *http.Request) {
	var request core.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	request.Repository = strings.TrimSpace(request.Repository)
	if request.Repository == "" {
		writeError(w, r, http.StatusBadRequest, "repository is required")
		return
	}
	if len(request.FileTypes) > 0 {
		patterns, err := utils.ParseFileTypes(strings.Join(request.FileTypes, ","))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		request.FileTypes = patterns
	}

	result, err := h.orchestrator.RunScan(r.Context(), request)
	if errors.Is(err, orchestrator.ErrScanInProgress) {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, result)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
			"request":  middleware.GetReqID(r.Context()),
		}).Info("Handled request")
	})
}
