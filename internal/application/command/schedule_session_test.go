package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
)

// staffDirectory is a shared.Directory stub: the listed IDs are admins,
// everyone else resolves to a plain trainee.
type staffDirectory []string

func (d staffDirectory) GetUser(ctx context.Context, id string) (shared.User, error) {
	for _, staffID := range d {
		if staffID == id {
			return shared.User{ID: id, Role: shared.RoleAdmin, Status: "active"}, nil
		}
	}
	return shared.User{ID: id, Role: shared.RoleTrainee, Status: "active"}, nil
}

func scheduleCommand(trainerID string, at time.Time) ScheduleSessionCommand {
	return ScheduleSessionCommand{
		ActorID:         "admin-1",
		Title:           "Roasting Profiles",
		TrainerID:       trainerID,
		ScheduledAt:     at,
		DurationMinutes: 120,
		MaxCapacity:     12,
	}
}

func TestScheduleSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sessionRepo := memory.NewSessionRepository(store)
	handler := NewScheduleSessionHandler(sessionRepo, staffDirectory{"admin-1"}, nil, &seqIDs{})

	sess, err := handler.Handle(ctx, scheduleCommand("trainer-1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, session.StatusScheduled, sess.Status)
	assert.Equal(t, 0, sess.EnrolledCount)
	assert.Equal(t, 12, int(sess.MaxCapacity))

	stored, err := sessionRepo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roasting Profiles", stored.Title)
}

func TestScheduleSession_RequiresStaffRole(t *testing.T) {
	ctx := context.Background()
	handler := NewScheduleSessionHandler(memory.NewSessionRepository(memory.NewStore()), staffDirectory{"admin-1"}, nil, &seqIDs{})

	cmd := scheduleCommand("trainer-1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	cmd.ActorID = "trainee-1"

	_, err := handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestScheduleSession_TrainerConflict(t *testing.T) {
	ctx := context.Background()
	handler := NewScheduleSessionHandler(memory.NewSessionRepository(memory.NewStore()), staffDirectory{"admin-1"}, nil, &seqIDs{})

	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err := handler.Handle(ctx, scheduleCommand("trainer-1", at))
	require.NoError(t, err)

	_, err = handler.Handle(ctx, scheduleCommand("trainer-1", at))
	assert.ErrorIs(t, err, shared.ErrTrainerConflict)

	// A different time or a different trainer is fine.
	_, err = handler.Handle(ctx, scheduleCommand("trainer-1", at.Add(3*time.Hour)))
	require.NoError(t, err)

	_, err = handler.Handle(ctx, scheduleCommand("trainer-2", at))
	require.NoError(t, err)
}

func TestScheduleSession_Validation(t *testing.T) {
	ctx := context.Background()
	handler := NewScheduleSessionHandler(memory.NewSessionRepository(memory.NewStore()), staffDirectory{"admin-1"}, nil, &seqIDs{})

	cmd := scheduleCommand("trainer-1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	cmd.MaxCapacity = 0

	_, err := handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCancelSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sessionRepo := memory.NewSessionRepository(store)
	enrollRepo := memory.NewEnrollmentRepository(store)
	queueRepo := memory.NewQueueRepository(store)
	directory := staffDirectory{"admin-1"}

	schedule := NewScheduleSessionHandler(sessionRepo, directory, nil, &seqIDs{})
	cancel := NewCancelSessionHandler(sessionRepo, enrollRepo, queueRepo, directory, nil)

	sess, err := schedule.Handle(ctx, scheduleCommand("trainer-1", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, cancel.Handle(ctx, CancelSessionCommand{ActorID: "admin-1", SessionID: sess.ID}))

	stored, err := sessionRepo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCancelled, stored.Status)

	// Cancelling twice hits the terminal-state guard.
	err = cancel.Handle(ctx, CancelSessionCommand{ActorID: "admin-1", SessionID: sess.ID})
	assert.Error(t, err)
}
