package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusconnect/events-api/internal/model"
)

const eventColumns = `id, title, description, venue, category, date,
	registration_deadline, max_participants, created_by, is_active,
	created_at, updated_at`

var (
	_ EventStore        = (*EventRepository)(nil)
	_ RegistrationStore = (*RegistrationRepository)(nil)
)

// EventRepository is the Postgres-backed EventStore.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event, assigning a generated UUID and timestamps.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()
	event.ID = uuid.New().String()
	event.IsActive = true
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, venue, category, date,
		     registration_deadline, max_participants, created_by, is_active,
		     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.ID, event.Title, event.Description, event.Venue, event.Category,
		event.Date, event.RegistrationDeadline, event.MaxParticipants,
		event.CreatedBy, event.IsActive, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an existing event.
func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, venue = $4, category = $5,
		     date = $6, registration_deadline = $7, max_participants = $8,
		     updated_at = $9
		 WHERE id = $1`,
		event.ID, event.Title, event.Description, event.Venue, event.Category,
		event.Date, event.RegistrationDeadline, event.MaxParticipants,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes an event. Deactivating an already-inactive
// event is a no-op.
func (r *EventRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET is_active = FALSE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("deactivate event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single event, inactive ones included, or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	).Scan(
		&e.ID, &e.Title, &e.Description, &e.Venue, &e.Category, &e.Date,
		&e.RegistrationDeadline, &e.MaxParticipants, &e.CreatedBy, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// GetWithCount returns an event together with its active registration
// count. The count is computed from the registrations table on every
// read; it is never stored on the event row.
func (r *EventRepository) GetWithCount(ctx context.Context, id string) (*model.EventWithCount, error) {
	var e model.EventWithCount
	err := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+`,
		     (SELECT COUNT(*) FROM registrations r
		      WHERE r.event_id = events.id AND r.status = 'registered')
		 FROM events WHERE id = $1`,
		id,
	).Scan(
		&e.ID, &e.Title, &e.Description, &e.Venue, &e.Category, &e.Date,
		&e.RegistrationDeadline, &e.MaxParticipants, &e.CreatedBy, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt, &e.RegistrationCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event with count: %w", err)
	}
	return &e, nil
}

// ListActive returns all active events ordered by ascending date.
func (r *EventRepository) ListActive(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE is_active ORDER BY date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Venue, &e.Category, &e.Date,
			&e.RegistrationDeadline, &e.MaxParticipants, &e.CreatedBy,
			&e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListByOwner returns the owner's active events with registration counts,
// newest first.
func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.EventWithCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`,
		     (SELECT COUNT(*) FROM registrations r
		      WHERE r.event_id = events.id AND r.status = 'registered')
		 FROM events
		 WHERE created_by = $1 AND is_active
		 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by owner: %w", err)
	}
	defer rows.Close()

	var events []model.EventWithCount
	for rows.Next() {
		var e model.EventWithCount
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Venue, &e.Category, &e.Date,
			&e.RegistrationDeadline, &e.MaxParticipants, &e.CreatedBy,
			&e.IsActive, &e.CreatedAt, &e.UpdatedAt, &e.RegistrationCount,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RegistrationRepository is the Postgres-backed RegistrationStore.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register performs the admission check-then-insert inside a single
// transaction.
//
// Two concurrent attempts against the same event must never both observe
// the last free slot, so the event row is locked up front with
// SELECT ... FOR UPDATE. Every later check (deadline, duplicate,
// capacity) runs under that row lock, which serialises admission per
// event while leaving other events uncontended. A partial unique index
// on (event_id, student_id) WHERE status = 'registered' backstops the
// duplicate check at the storage layer.
func (r *RegistrationRepository) Register(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row. Concurrent Register calls for the same event
	// block here until we commit or roll back.
	var (
		isActive        bool
		deadline        time.Time
		maxParticipants int
	)
	err = tx.QueryRow(ctx,
		`SELECT is_active, registration_deadline, max_participants
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		reg.EventID,
	).Scan(&isActive, &deadline, &maxParticipants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	if !isActive {
		err = ErrNotFound
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(deadline) {
		err = ErrRegistrationClosed
		return nil, err
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND student_id = $2 AND status = 'registered'`,
		reg.EventID, reg.StudentID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = ErrAlreadyRegistered
		return nil, err
	}

	var activeCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status = 'registered'`,
		reg.EventID,
	).Scan(&activeCount)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if activeCount >= maxParticipants {
		err = ErrEventFull
		return nil, err
	}

	reg.ID = uuid.New().String()
	reg.Status = model.StatusRegistered
	reg.CreatedAt = now
	reg.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, student_id, name, email,
		     phone, department, roll_number, year, status, created_at,
		     updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reg.ID, reg.EventID, reg.StudentID, reg.Name, reg.Email, reg.Phone,
		reg.Department, reg.RollNumber, reg.Year, reg.Status, reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = ErrAlreadyRegistered
			return nil, err
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// Cancel transitions the student's registration to cancelled. Cancelling
// an already-cancelled registration is a no-op; the end state is the
// same either way.
func (r *RegistrationRepository) Cancel(ctx context.Context, registrationID, studentID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations
		 SET status = 'cancelled', updated_at = $3
		 WHERE id = $1 AND student_id = $2`,
		registrationID, studentID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStudent returns the student's active registrations, newest first,
// each with a summary of its event.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]model.RegistrationWithEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.event_id, r.student_id, r.name, r.email, r.phone,
		     r.department, r.roll_number, r.year, r.status, r.created_at,
		     r.updated_at,
		     e.title, e.description, e.date, e.venue, e.category
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.student_id = $1 AND r.status = 'registered'
		 ORDER BY r.created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations by student: %w", err)
	}
	defer rows.Close()

	var regs []model.RegistrationWithEvent
	for rows.Next() {
		var rw model.RegistrationWithEvent
		if err := rows.Scan(
			&rw.ID, &rw.EventID, &rw.StudentID, &rw.Name, &rw.Email, &rw.Phone,
			&rw.Department, &rw.RollNumber, &rw.Year, &rw.Status, &rw.CreatedAt,
			&rw.UpdatedAt,
			&rw.Event.Title, &rw.Event.Description, &rw.Event.Date,
			&rw.Event.Venue, &rw.Event.Category,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, rw)
	}
	return regs, rows.Err()
}

// ListByEvent returns the event's active registrations, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, student_id, name, email, phone, department,
		     roll_number, year, status, created_at, updated_at
		 FROM registrations
		 WHERE event_id = $1 AND status = 'registered'
		 ORDER BY created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations by event: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.StudentID, &reg.Name, &reg.Email,
			&reg.Phone, &reg.Department, &reg.RollNumber, &reg.Year,
			&reg.Status, &reg.CreatedAt, &reg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountActive returns the event's active registration count.
func (r *RegistrationRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status = 'registered'`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}
