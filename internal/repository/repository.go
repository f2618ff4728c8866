// Package repository implements persistence for events and registrations.
// The Postgres implementation uses pgx directly (no ORM); an in-memory
// implementation backs the test suite.
package repository

import (
	"context"
	"errors"

	"github.com/campusconnect/events-api/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist or is
// not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is full")

// ErrAlreadyRegistered is returned when the student already holds an
// active registration for the event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrRegistrationClosed is returned when the registration deadline has
// passed.
var ErrRegistrationClosed = errors.New("registration deadline has passed")

// EventStore is the durable collection of events.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetWithCount(ctx context.Context, id string) (*model.EventWithCount, error)
	ListActive(ctx context.Context) ([]model.Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.EventWithCount, error)
}

// RegistrationStore is the durable collection of registrations. Register
// performs the full admission check-then-insert atomically with respect
// to concurrent attempts for the same event.
type RegistrationStore interface {
	Register(ctx context.Context, reg *model.Registration) (*model.Registration, error)
	Cancel(ctx context.Context, registrationID, studentID string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	CountActive(ctx context.Context, eventID string) (int, error)
}
