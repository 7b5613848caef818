package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/secondthought/internal/analyzer"
	"github.com/MikeSquared-Agency/secondthought/internal/assessment"
	"github.com/MikeSquared-Agency/secondthought/internal/chat"
	"github.com/MikeSquared-Agency/secondthought/internal/metrics"
	"github.com/MikeSquared-Agency/secondthought/internal/recovery"
	"github.com/MikeSquared-Agency/secondthought/internal/store"
)

const maxBodyBytes = 5 << 20

type Recoverer interface {
	RecoverResult(ctx context.Context, url string) (recovery.Recovered, error)
}

type AssessmentStore interface {
	SaveAssessment(ctx context.Context, rec store.AssessmentRecord) (store.AssessmentRecord, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (store.AssessmentRecord, error)
}

// Pinger reports whether a backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ChatService interface {
	CreateConversation(ctx context.Context, title string) (chat.Conversation, error)
	Conversation(ctx context.Context, id uuid.UUID) (chat.View, error)
	SendMessage(ctx context.Context, id uuid.UUID, text string) (chat.Turn, error)
}

// Deps are the collaborators the handlers call. Assessments, Database and
// Metrics may be nil.
type Deps struct {
	Analyzer    analyzer.Analyzer
	Recovery    Recoverer
	Chat        ChatService
	Assessments AssessmentStore
	Database    Pinger
	Metrics     *metrics.Metrics
	Provider    string
	Mode        assessment.Path
	Storage     string
	Logger      *slog.Logger
}

type Server struct {
	router *chi.Mux
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, apiToken string, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router: router,
		deps:   deps,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", deps.Metrics.Handler())

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/status", s.status)
		r.Get("/platforms", s.platforms)
		r.Post("/analyze", s.analyze)
		r.Get("/assessments/{id}", s.getAssessment)
		r.Post("/recover", s.recoverURL)
		r.Post("/analyze-url", s.analyzeURL)
		r.Post("/conversations", s.createConversation)
		r.Get("/conversations/{id}", s.getConversation)
		r.Post("/conversations/{id}/messages", s.sendMessage)
	})

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// BearerAuthMiddleware requires "Authorization: Bearer <token>". An empty
// token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Database.Ping(ctx); err != nil {
			s.logger.Warn("health check: database unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "secondthought",
		"provider": s.deps.Provider,
		"mode":     s.deps.Mode,
		"storage":  s.deps.Storage,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

// writeRecoveryError maps err to a status. Errors that are not
// *recovery.Error become 500s.
func (s *Server) writeRecoveryError(w http.ResponseWriter, err error) {
	var rerr *recovery.Error
	if errors.As(err, &rerr) {
		writeError(w, rerr.HTTPStatus(), string(rerr.Kind), rerr.Error())
		return
	}
	s.logger.Error("transcript recovery failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
