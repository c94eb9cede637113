package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("iconic.internal.booking")

// recordAttempts bounds the retry loop for the persistence call. The insert
// is idempotent by booking ID, so retrying a possibly-committed write is safe.
const recordAttempts = 3

// Recorder accepts one finalized booking record. Implementations must be
// idempotent by Record.ID.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// execer is the subset of pgxpool.Pool the repository needs; tests inject a
// pgxmock pool through it.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists confirmed bookings to PostgreSQL.
type Repository struct {
	db     execer
	logger *logging.Logger
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool, logger *logging.Logger) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return newRepository(pool, logger)
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db execer, logger *logging.Logger) *Repository {
	return newRepository(db, logger)
}

func newRepository(db execer, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger}
}

const insertBookingSQL = `
	INSERT INTO bookings (
		id, user_id, name, phone, email, procedure,
		scheduled_date, scheduled_time, confirmed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
`

// Record inserts a confirmed booking row, retrying transient failures.
func (r *Repository) Record(ctx context.Context, rec Record) error {
	ctx, span := bookingTracer.Start(ctx, "booking.record")
	defer span.End()
	span.SetAttributes(attribute.String("iconic.booking_id", rec.ID.String()))

	var lastErr error
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		_, err := r.db.Exec(ctx, insertBookingSQL,
			rec.ID, rec.UserID, rec.Name, rec.Phone, rec.Email, rec.Procedure,
			rec.Date, rec.TimeSlot, rec.ConfirmedAt,
		)
		if err == nil {
			r.logger.Info("booking recorded", "booking_id", rec.ID, "procedure", rec.Procedure)
			return nil
		}
		lastErr = err
		r.logger.Warn("booking insert failed", "booking_id", rec.ID, "attempt", attempt, "error", err)
		if attempt < recordAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
	}
	span.RecordError(lastErr)
	return fmt.Errorf("booking: record %s: %w", rec.ID, lastErr)
}

// MemoryRecorder collects records in memory for tests and DB-less runs.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the booking, skipping IDs already seen.
func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.ID == rec.ID {
			return nil
		}
	}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
