// Package postgres implements the PostgreSQL persistence layer for Training Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create training sessions table
-- Version: 001

-- Training sessions. enrolled_count is the capacity ledger: it is only
-- ever changed by conditional single-statement updates, and the CHECK
-- constraint is the last line of defense against overbooking.
CREATE TABLE IF NOT EXISTS training_sessions (
    id UUID PRIMARY KEY,
    program_id VARCHAR(100) NOT NULL,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location VARCHAR(255) NOT NULL DEFAULT '',
    trainer_id VARCHAR(100) NOT NULL DEFAULT '',
    starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
    duration_minutes INTEGER NOT NULL,
    max_capacity INTEGER NOT NULL,
    enrolled_count INTEGER NOT NULL DEFAULT 0,
    next_queue_position INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_session_status CHECK (status IN ('scheduled', 'in_progress', 'completed', 'cancelled')),
    CONSTRAINT valid_capacity CHECK (max_capacity > 0),
    CONSTRAINT valid_duration CHECK (duration_minutes > 0),
    CONSTRAINT enrolled_within_capacity CHECK (enrolled_count >= 0 AND enrolled_count <= max_capacity)
);

CREATE INDEX IF NOT EXISTS idx_sessions_trainer ON training_sessions(trainer_id);
CREATE INDEX IF NOT EXISTS idx_sessions_program ON training_sessions(program_id);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON training_sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_starts_at ON training_sessions(starts_at);

-- Composite index for trainer conflict checks
CREATE INDEX IF NOT EXISTS idx_sessions_trainer_window ON training_sessions(trainer_id, starts_at) WHERE status IN ('scheduled', 'in_progress');

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_sessions_updated_at ON training_sessions;
CREATE TRIGGER update_sessions_updated_at
    BEFORE UPDATE ON training_sessions
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_sessions_updated_at ON training_sessions;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS training_sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ENROLLMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create enrollment and queue tables
-- Version: 002

CREATE TABLE IF NOT EXISTS session_enrollments (
    id UUID PRIMARY KEY,
    trainee_id UUID NOT NULL,
    session_id UUID NOT NULL REFERENCES training_sessions(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'registered',
    promoted BOOLEAN NOT NULL DEFAULT FALSE,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_enrollment_status CHECK (status IN ('registered', 'cancelled', 'attended', 'no_show'))
);

-- One active enrollment per trainee per session. Cancelled rows stay for
-- history and do not block re-enrollment.
CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active_unique
    ON session_enrollments(trainee_id, session_id)
    WHERE status = 'registered';

CREATE INDEX IF NOT EXISTS idx_enrollments_session ON session_enrollments(session_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_trainee ON session_enrollments(trainee_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_status ON session_enrollments(status);

-- Waitlist entries. Positions are allocated from the session's
-- next_queue_position counter and never reused, so ordering survives
-- withdrawals anywhere in the queue.
CREATE TABLE IF NOT EXISTS queue_entries (
    id UUID PRIMARY KEY,
    trainee_id UUID NOT NULL,
    session_id UUID NOT NULL REFERENCES training_sessions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'waiting',
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_queue_status CHECK (status IN ('waiting', 'promoted', 'withdrawn')),
    CONSTRAINT valid_position CHECK (position > 0),
    UNIQUE(session_id, position)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_waiting_unique
    ON queue_entries(trainee_id, session_id)
    WHERE status = 'waiting';

CREATE INDEX IF NOT EXISTS idx_queue_session_waiting ON queue_entries(session_id, position) WHERE status = 'waiting';
CREATE INDEX IF NOT EXISTS idx_queue_trainee ON queue_entries(trainee_id);

DROP TRIGGER IF EXISTS update_enrollments_updated_at ON session_enrollments;
CREATE TRIGGER update_enrollments_updated_at
    BEFORE UPDATE ON session_enrollments
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();

DROP TRIGGER IF EXISTS update_queue_entries_updated_at ON queue_entries;
CREATE TRIGGER update_queue_entries_updated_at
    BEFORE UPDATE ON queue_entries
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration002Down = `
DROP TRIGGER IF EXISTS update_queue_entries_updated_at ON queue_entries;
DROP TRIGGER IF EXISTS update_enrollments_updated_at ON session_enrollments;
DROP TABLE IF EXISTS queue_entries;
DROP TABLE IF EXISTS session_enrollments;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE EXAM ATTEMPTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create exam attempts table
-- Version: 003

CREATE TABLE IF NOT EXISTS exam_attempts (
    id UUID PRIMARY KEY,
    trainee_id UUID NOT NULL,
    exam_id VARCHAR(100) NOT NULL,
    session_id UUID NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE,
    answers JSONB NOT NULL DEFAULT '{}'::jsonb,
    score INTEGER NOT NULL DEFAULT 0,
    total_points INTEGER NOT NULL DEFAULT 0,
    percentage_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    passed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_attempt_status CHECK (status IN ('in_progress', 'submitted', 'expired')),

    -- Single-attempt policy: one attempt per trainee per exam, ever.
    UNIQUE(trainee_id, exam_id)
);

CREATE INDEX IF NOT EXISTS idx_attempts_trainee ON exam_attempts(trainee_id);
CREATE INDEX IF NOT EXISTS idx_attempts_exam ON exam_attempts(exam_id);
CREATE INDEX IF NOT EXISTS idx_attempts_session ON exam_attempts(session_id);
CREATE INDEX IF NOT EXISTS idx_attempts_in_progress ON exam_attempts(started_at) WHERE status = 'in_progress';

DROP TRIGGER IF EXISTS update_attempts_updated_at ON exam_attempts;
CREATE TRIGGER update_attempts_updated_at
    BEFORE UPDATE ON exam_attempts
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration003Down = `
DROP TRIGGER IF EXISTS update_attempts_updated_at ON exam_attempts;
DROP TABLE IF EXISTS exam_attempts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE CERTIFICATES
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create certificates table
-- Version: 004

CREATE TABLE IF NOT EXISTS certificates (
    id UUID PRIMARY KEY,
    number VARCHAR(50) NOT NULL UNIQUE,
    trainee_id UUID NOT NULL,
    session_id UUID NOT NULL,
    verification_code VARCHAR(32) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'issued',
    issued_at TIMESTAMP WITH TIME ZONE NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_certificate_status CHECK (status IN ('issued', 'revoked', 'expired')),

    -- Idempotency anchor for the certification gate: at most one
    -- certificate per finalized attempt, no matter how many times the
    -- finalization event is delivered.
    attempt_id UUID NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_certificates_trainee ON certificates(trainee_id);
CREATE INDEX IF NOT EXISTS idx_certificates_session ON certificates(session_id);
CREATE INDEX IF NOT EXISTS idx_certificates_issued_at ON certificates(issued_at DESC);

DROP TRIGGER IF EXISTS update_certificates_updated_at ON certificates;
CREATE TRIGGER update_certificates_updated_at
    BEFORE UPDATE ON certificates
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration004Down = `
DROP TRIGGER IF EXISTS update_certificates_updated_at ON certificates;
DROP TABLE IF EXISTS certificates;
`
