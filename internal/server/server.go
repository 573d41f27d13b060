package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/voyagen/vidstate/internal/avs"
	"github.com/voyagen/vidstate/internal/config"
	"github.com/voyagen/vidstate/internal/log"
	"github.com/voyagen/vidstate/internal/models"
	"github.com/voyagen/vidstate/internal/service"
	"github.com/voyagen/vidstate/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	store     store.Store
	commander service.Commander // nil when REDIS_URL is not set
	cfg       *config.Config
	router    chi.Router
	logger    zerolog.Logger
}

// New creates a Server and registers routes.
// commander may be nil; video state commands then answer 503.
func New(s store.Store, cfg *config.Config, commander service.Commander) *Server {
	srv := &Server{
		store:     s,
		commander: commander,
		cfg:       cfg,
		router:    chi.NewRouter(),
		logger:    log.WithComponent("http"),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := s.router
	r.Use(withCORS, s.withLogging)

	r.Get("/api/health", s.handleHealth)

	r.Get("/api/video-states", s.handleListVideoStates)
	r.Get("/api/video-states/{code}", s.handleVideoStateByCode)

	r.Post("/api/events", s.handleEngineEvent)
	r.Get("/api/events/{id}", s.handleGetEvent)

	r.Route("/api/conversations/{convID}/video", func(r chi.Router) {
		r.Get("/", s.handleLatestVideoStates)
		r.Put("/", s.handleRequestVideoState)
		r.Get("/events", s.handleListEvents)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/docs", handleSwaggerUI)
	r.Get("/api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListVideoStates(w http.ResponseWriter, _ *http.Request) {
	states := models.VideoStates()
	out := make([]models.VideoStateCode, 0, len(states))
	for _, st := range states {
		out = append(out, models.VideoStateCode{Name: st, Code: st.Code()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVideoStateByCode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "code")
	code, err := strconv.Atoi(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid code: %s", raw))
		return
	}
	st, err := models.VideoStateFromCode(code)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, models.VideoStateCode{Name: st, Code: code})
}

func (s *Server) handleEngineEvent(w http.ResponseWriter, r *http.Request) {
	var ev avs.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	rec, err := service.HandleEvent(r.Context(), s.store, ev)
	switch {
	case errors.Is(err, avs.ErrInvalidEvent):
		writeErr(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, models.ErrInvalidState):
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid id: %s", raw))
		return
	}
	ev, err := s.store.GetVideoStateEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("event %s not found", id))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleLatestVideoStates(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "convID")
	events, err := s.store.LatestVideoStates(r.Context(), convID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []models.VideoStateEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := store.EventFilter{
		ConvID: chi.URLParam(r, "convID"),
		UserID: r.URL.Query().Get("user_id"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		filter.Limit = n
	}

	events, err := s.store.ListVideoStateEvents(r.Context(), filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []models.VideoStateEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

type requestVideoStateRequest struct {
	State string `json:"state"`
}

func (s *Server) handleRequestVideoState(w http.ResponseWriter, r *http.Request) {
	if s.commander == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("engine commands not configured (REDIS_URL not set)"))
		return
	}
	var req requestVideoStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	st, err := models.ParseVideoState(req.State)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err)
		return
	}

	cmd, err := service.RequestVideoState(r.Context(), s.commander, chi.URLParam(r, "convID"), st)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"conv_id": cmd.ConvID,
		"state":   st,
		"code":    cmd.State,
	})
}
