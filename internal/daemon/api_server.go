package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"studiorouter/internal/api"
	"studiorouter/internal/config"
	"studiorouter/internal/logging"
	"studiorouter/internal/studio"
)

const maxRequestBody = 1 << 16

type apiServer struct {
	bind          string
	shutdownGrace time.Duration
	logger        *slog.Logger
	daemon        *Daemon
	studioSvc     *api.StudioService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, svc *api.StudioService, logger *slog.Logger) *apiServer {
	if cfg == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:          bind,
		shutdownGrace: time.Duration(cfg.API.ShutdownGraceSeconds) * time.Second,
		logger:        logger,
		daemon:        d,
		studioSvc:     svc,
	}
	srv.server = &http.Server{
		Handler:           srv.handler(cfg.API.Token),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) handler(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/studios", s.handleStudios)
	mux.HandleFunc("GET /api/studios/{id}", s.handleStudio)
	mux.HandleFunc("GET /api/studios/{id}/mappings", s.handleMappings)
	mux.HandleFunc("GET /api/studios/{id}/routes", s.handleRoutes)
	mux.HandleFunc("GET /api/studios/{id}/explain", s.handleExplain)
	mux.HandleFunc("POST /api/studios/{id}/routesets/{routeSetID}", s.handleRouteSetActivation)
	return s.withRequestID(authMiddleware(token, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.shutdown()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) shutdown() {
	if s.server == nil {
		return
	}
	grace := s.shutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with a correlation ID, echoes it in the
// X-Request-ID header, and logs the outcome.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		logging.WithContext(ctx, s.log()).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
		)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Bind:         status.Bind,
		Studios:      status.Studios,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStudios(w http.ResponseWriter, r *http.Request) {
	studios, err := s.studioSvc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if studios == nil {
		studios = []api.StudioSummary{}
	}
	s.writeJSON(w, http.StatusOK, api.StudioListResponse{Studios: studios})
}

func (s *apiServer) handleStudio(w http.ResponseWriter, r *http.Request) {
	st, err := s.studioSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if st == nil {
		s.writeError(w, http.StatusNotFound, "studio not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.StudioResponse{Studio: *st})
}

func (s *apiServer) handleMappings(w http.ResponseWriter, r *http.Request) {
	base := false
	if value := strings.TrimSpace(r.URL.Query().Get("base")); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid base flag")
			return
		}
		base = parsed
	}
	resp, err := s.studioSvc.EffectiveMappings(r.Context(), r.PathValue("id"), base)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRoutes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.studioSvc.ActiveRoutes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleExplain(w http.ResponseWriter, r *http.Request) {
	resp, err := s.studioSvc.Explain(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRouteSetActivation(w http.ResponseWriter, r *http.Request) {
	var req api.RouteSetActivationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	studioID := r.PathValue("id")
	routeSetID := r.PathValue("routeSetID")
	st, err := s.studioSvc.SetRouteSetActive(r.Context(), studioID, routeSetID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ctx := logging.WithStudioID(r.Context(), studioID)
	logging.WithContext(ctx, s.log()).Info("route set switched",
		logging.String(logging.FieldRouteSetID, routeSetID),
		logging.Bool("active", req.Active),
		logging.Bool("force", req.Force),
		logging.String("mappings_hash", st.MappingsHash),
	)
	s.writeJSON(w, http.StatusOK, api.StudioResponse{Studio: *st})
}

// statusForError maps store errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, studio.ErrNotFound), errors.Is(err, studio.ErrRouteSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrActivateOnly):
		return http.StatusConflict
	case errors.Is(err, studio.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		if studioID := r.PathValue("id"); studioID != "" {
			ctx = logging.WithStudioID(ctx, studioID)
		}
		logging.WithContext(ctx, s.log()).Error("api request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
