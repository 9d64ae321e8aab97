package http

import (
	"net/http"
	"time"

	"github.com/roastery-academy/training-hub/internal/application/command"
	"github.com/roastery-academy/training-hub/internal/application/query"
	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type scheduleSessionRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ProgramID       string    `json:"program_id"`
	TrainerID       string    `json:"trainer_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	MaxCapacity     int       `json:"max_capacity"`
}

type sessionResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ProgramID       string    `json:"program_id,omitempty"`
	TrainerID       string    `json:"trainer_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"`
	MaxCapacity     int       `json:"max_capacity"`
	EnrolledCount   int       `json:"enrolled_count"`
	RemainingSlots  int       `json:"remaining_slots"`
	Status          string    `json:"status"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		ProgramID:       s.ProgramID,
		TrainerID:       s.TrainerID,
		ScheduledAt:     s.ScheduledAt,
		DurationMinutes: s.DurationMinutes,
		Location:        s.Location,
		MaxCapacity:     int(s.MaxCapacity),
		EnrolledCount:   s.EnrolledCount,
		RemainingSlots:  s.RemainingSlots(),
		Status:          string(s.Status),
	}
}

func (s *Server) handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	var req scheduleSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.commands.ScheduleSession.Handle(r.Context(), command.ScheduleSessionCommand{
		ActorID:         actorID(r, ""),
		Title:           req.Title,
		Description:     req.Description,
		ProgramID:       req.ProgramID,
		TrainerID:       req.TrainerID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		MaxCapacity:     req.MaxCapacity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	err := s.commands.CancelSession.Handle(r.Context(), command.CancelSessionCommand{
		ActorID:   actorID(r, ""),
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type rosterResponse struct {
	Session         sessionResponse      `json:"session"`
	Enrollments     []enrollmentResponse `json:"enrollments"`
	RegisteredCount int                  `json:"registered_count"`
	WaitingCount    int                  `json:"waiting_count"`
}

func (s *Server) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.queries.GetRoster.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := rosterResponse{
		Session:         toSessionResponse(roster.Session),
		Enrollments:     make([]enrollmentResponse, 0, len(roster.Enrollments)),
		RegisteredCount: roster.RegisteredCount,
		WaitingCount:    roster.WaitingCount,
	}
	for _, e := range roster.Enrollments {
		resp.Enrollments = append(resp.Enrollments, toEnrollmentResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT & QUEUE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type enrollRequest struct {
	TraineeID string `json:"trainee_id"`
}

type enrollmentResponse struct {
	ID         string    `json:"id"`
	TraineeID  string    `json:"trainee_id"`
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	Promoted   bool      `json:"promoted"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func toEnrollmentResponse(e *enrollment.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:         e.ID,
		TraineeID:  e.TraineeID,
		SessionID:  e.SessionID,
		Status:     string(e.Status),
		Promoted:   e.Promoted,
		EnrolledAt: e.EnrolledAt,
	}
}

type enrollResponse struct {
	Admitted   bool                `json:"admitted"`
	Queued     bool                `json:"queued"`
	Position   int                 `json:"position,omitempty"`
	Enrollment *enrollmentResponse `json:"enrollment,omitempty"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.commands.EnrollTrainee.Handle(r.Context(), command.EnrollTraineeCommand{
		TraineeID: req.TraineeID,
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := enrollResponse{
		Admitted: result.Admitted,
		Queued:   result.Queued,
		Position: result.Position,
	}
	if result.Enrollment != nil {
		er := toEnrollmentResponse(result.Enrollment)
		resp.Enrollment = &er
	}

	// 201 for an admission, 202 for a waitlist placement.
	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleCancelEnrollment(w http.ResponseWriter, r *http.Request) {
	traineeID := r.PathValue("traineeID")

	result, err := s.commands.CancelEnrollment.Handle(r.Context(), command.CancelEnrollmentCommand{
		ActorID:   actorID(r, traineeID),
		TraineeID: traineeID,
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]interface{}{
		"status":     "cancelled",
		"slot_freed": result.SlotFreed,
	}
	if result.Promoted != nil {
		resp["promoted_trainee_id"] = result.Promoted.TraineeID
	}

	writeJSON(w, http.StatusOK, resp)
}

type queueStatusResponse struct {
	SessionID    string    `json:"session_id"`
	Position     int       `json:"position"`
	Rank         int       `json:"rank"`
	TotalWaiting int       `json:"total_waiting"`
	JoinedAt     time.Time `json:"joined_at"`
}

func (s *Server) handleGetQueueStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.queries.GetQueueStatus.Handle(r.Context(), r.PathValue("traineeID"), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queueStatusResponse{
		SessionID:    view.Entry.SessionID,
		Position:     view.Entry.Position,
		Rank:         view.Rank,
		TotalWaiting: view.TotalWaiting,
		JoinedAt:     view.Entry.JoinedAt,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	err := s.commands.Queue.Withdraw(r.Context(), r.PathValue("traineeID"), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := s.queries.ListEnrollments.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		resp = append(resp, toEnrollmentResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

type queueEntryResponse struct {
	SessionID string    `json:"session_id"`
	Position  int       `json:"position"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	entries, err := s.queries.ListTraineeQueues.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]queueEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, queueEntryResponse{
			SessionID: e.SessionID,
			Position:  e.Position,
			JoinedAt:  e.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM ATTEMPT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type startExamRequest struct {
	TraineeID string `json:"trainee_id"`
}

type attemptResponse struct {
	ID              string            `json:"id"`
	TraineeID       string            `json:"trainee_id"`
	ExamID          string            `json:"exam_id"`
	SessionID       string            `json:"session_id"`
	Status          string            `json:"status"`
	StartedAt       time.Time         `json:"started_at"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	Answers         map[string]string `json:"answers,omitempty"`
	Score           int               `json:"score"`
	TotalPoints     int               `json:"total_points"`
	PercentageScore float64           `json:"percentage_score"`
	Passed          bool              `json:"passed"`
}

func toAttemptResponse(a *exam.Attempt) attemptResponse {
	return attemptResponse{
		ID:              a.ID,
		TraineeID:       a.TraineeID,
		ExamID:          a.ExamID,
		SessionID:       a.SessionID,
		Status:          string(a.Status),
		StartedAt:       a.StartedAt,
		SubmittedAt:     a.SubmittedAt,
		Answers:         a.Answers,
		Score:           a.Score,
		TotalPoints:     a.TotalPoints,
		PercentageScore: a.PercentageScore,
		Passed:          a.Passed,
	}
}

type startExamResponse struct {
	Attempt         attemptResponse `json:"attempt"`
	DurationMinutes int             `json:"duration_minutes"`
}

func (s *Server) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req startExamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.commands.StartExam.Handle(r.Context(), command.StartExamCommand{
		TraineeID: req.TraineeID,
		ExamID:    r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, startExamResponse{
		Attempt:         toAttemptResponse(result.Attempt),
		DurationMinutes: result.DurationMinutes,
	})
}

type attemptViewResponse struct {
	Attempt          attemptResponse `json:"attempt"`
	DurationMinutes  int             `json:"duration_minutes"`
	PassingScore     float64         `json:"passing_score"`
	RemainingSeconds int             `json:"remaining_seconds"`
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := s.queries.GetAttempt.Handle(r.Context(), query.GetAttemptQuery{
		TraineeID: r.PathValue("traineeID"),
		ExamID:    r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attemptViewResponse{
		Attempt:          toAttemptResponse(view.Attempt),
		DurationMinutes:  view.DurationMinutes,
		PassingScore:     view.PassingScore,
		RemainingSeconds: view.RemainingSeconds,
	})
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

func (s *Server) handleRecordAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.commands.RecordAnswers.Handle(r.Context(), command.RecordAnswersCommand{
		TraineeID: r.PathValue("traineeID"),
		ExamID:    r.PathValue("id"),
		Answers:   req.Answers,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	attempt, err := s.commands.SubmitExam.Handle(r.Context(), command.SubmitExamCommand{
		TraineeID: r.PathValue("traineeID"),
		ExamID:    r.PathValue("id"),
		Answers:   req.Answers,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAttemptResponse(attempt))
}

func (s *Server) handleResetAttempt(w http.ResponseWriter, r *http.Request) {
	err := s.commands.ResetAttempt.Handle(r.Context(), command.ResetAttemptCommand{
		ActorID:   actorID(r, ""),
		TraineeID: r.PathValue("traineeID"),
		ExamID:    r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.queries.ListAttempts.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, toAttemptResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type certificateResponse struct {
	ID               string    `json:"id"`
	Number           string    `json:"number"`
	TraineeID        string    `json:"trainee_id"`
	SessionID        string    `json:"session_id"`
	VerificationCode string    `json:"verification_code"`
	Status           string    `json:"status"`
	IssuedAt         time.Time `json:"issued_at"`
}

func toCertificateResponse(c *certificate.Certificate) certificateResponse {
	return certificateResponse{
		ID:               c.ID,
		Number:           c.Number,
		TraineeID:        c.TraineeID,
		SessionID:        c.SessionID,
		VerificationCode: c.VerificationCode,
		Status:           string(c.Status),
		IssuedAt:         c.IssuedAt,
	}
}

func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	certs, err := s.queries.ListCertificates.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]certificateResponse, 0, len(certs))
	for _, c := range certs {
		resp = append(resp, toCertificateResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Number    string `json:"number"`
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  string `json:"issued_at,omitempty"`
}

func (s *Server) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	code := r.URL.Query().Get("code")

	result, err := s.queries.VerifyCertificate.Handle(r.Context(), number, code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Valid:     result.Valid,
		Number:    result.Certificate.Number,
		Status:    string(result.Certificate.Status),
		SessionID: result.Certificate.SessionID,
		IssuedAt:  result.Certificate.IssuedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	err := s.commands.RevokeCert.Handle(r.Context(), command.RevokeCertificateCommand{
		ActorID: actorID(r, ""),
		Number:  r.PathValue("number"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
