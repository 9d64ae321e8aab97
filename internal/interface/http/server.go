// Package http exposes the enrollment and examination core over a JSON
// REST API. Authentication happens upstream; the gateway forwards the
// authenticated caller in the X-Actor-ID header and this layer only
// enforces role checks through the commands it calls.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/roastery-academy/training-hub/internal/application/command"
	"github.com/roastery-academy/training-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Commands bundles the write-side handlers the API depends on.
type Commands struct {
	EnrollTrainee    *command.EnrollTraineeHandler
	CancelEnrollment *command.CancelEnrollmentHandler
	Queue            *command.QueueManager
	ScheduleSession  *command.ScheduleSessionHandler
	CancelSession    *command.CancelSessionHandler
	StartExam        *command.StartExamHandler
	SubmitExam       *command.SubmitExamHandler
	RecordAnswers    *command.RecordAnswersHandler
	ResetAttempt     *command.ResetAttemptHandler
	RevokeCert       *command.RevokeCertificateHandler
}

// Queries bundles the read-side handlers the API depends on.
type Queries struct {
	GetAttempt         *query.GetAttemptHandler
	ListAttempts       *query.ListAttemptsHandler
	GetQueueStatus     *query.GetQueueStatusHandler
	ListTraineeQueues  *query.ListTraineeQueuesHandler
	GetRoster          *query.GetRosterHandler
	ListEnrollments    *query.ListTraineeEnrollmentsHandler
	ListCertificates   *query.ListCertificatesHandler
	VerifyCertificate  *query.VerifyCertificateHandler
}

// Pinger reports backing-store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Logger       *slog.Logger
}

// Server is the HTTP interface of the training hub core.
type Server struct {
	httpServer *http.Server
	commands   Commands
	queries    Queries
	db         Pinger
	logger     *slog.Logger
}

// NewServer creates a new Server and wires all routes.
func NewServer(config ServerConfig, commands Commands, queries Queries, db Pinger) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Server{
		commands: commands,
		queries:  queries,
		db:       db,
		logger:   config.Logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// routes registers all API endpoints.
func (s *Server) routes(mux *http.ServeMux) {
	// Sessions
	mux.HandleFunc("POST /api/v1/sessions", s.handleScheduleSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleCancelSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/roster", s.handleGetRoster)

	// Enrollment & waitlist
	mux.HandleFunc("POST /api/v1/sessions/{id}/enrollments", s.handleEnroll)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/enrollments/{traineeID}", s.handleCancelEnrollment)
	mux.HandleFunc("GET /api/v1/sessions/{id}/queue/{traineeID}", s.handleGetQueueStatus)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/queue/{traineeID}", s.handleWithdraw)

	// Trainee views
	mux.HandleFunc("GET /api/v1/trainees/{id}/enrollments", s.handleListEnrollments)
	mux.HandleFunc("GET /api/v1/trainees/{id}/queues", s.handleListQueues)
	mux.HandleFunc("GET /api/v1/trainees/{id}/attempts", s.handleListAttempts)
	mux.HandleFunc("GET /api/v1/trainees/{id}/certificates", s.handleListCertificates)

	// Exam attempts
	mux.HandleFunc("POST /api/v1/exams/{id}/attempts", s.handleStartExam)
	mux.HandleFunc("GET /api/v1/exams/{id}/attempts/{traineeID}", s.handleGetAttempt)
	mux.HandleFunc("PUT /api/v1/exams/{id}/attempts/{traineeID}/answers", s.handleRecordAnswers)
	mux.HandleFunc("POST /api/v1/exams/{id}/attempts/{traineeID}/submit", s.handleSubmitExam)
	mux.HandleFunc("DELETE /api/v1/exams/{id}/attempts/{traineeID}", s.handleResetAttempt)

	// Certificates
	mux.HandleFunc("GET /api/v1/certificates/verify", s.handleVerifyCertificate)
	mux.HandleFunc("POST /api/v1/certificates/{number}/revoke", s.handleRevokeCertificate)

	// Operational
	mux.HandleFunc("GET /health", s.handleHealth)
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// ──────────────────────────────────────────────────────────────────────────────
// Middleware
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return s.recoverPanics(s.logRequests(next))
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// recoverPanics converts handler panics into 500 responses.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("http handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth reports liveness of the server and its database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]string{"status": status})
}
