// Package model defines the core domain types for the campus events platform.
package model

import "time"

// Category classifies an event. The set is closed; anything else is
// rejected at validation time.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryCultural  Category = "cultural"
	CategorySports    Category = "sports"
	CategoryAcademic  Category = "academic"
	CategoryOther     Category = "other"
)

// ParseCategory returns the Category for s, reporting whether s is a
// recognized value.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryTechnical, CategoryCultural, CategorySports, CategoryAcademic, CategoryOther:
		return Category(s), true
	}
	return "", false
}

// DefaultMaxParticipants applies when an event is created without an
// explicit capacity.
const DefaultMaxParticipants = 100

// MaxParticipantsLimit is the policy ceiling on event capacity.
const MaxParticipantsLimit = 1000

// Event represents a scheduled campus activity with a capacity and a
// registration window.
type Event struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Venue                string    `json:"venue"`
	Category             Category  `json:"category"`
	Date                 time.Time `json:"date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	MaxParticipants      int       `json:"max_participants"`
	CreatedBy            string    `json:"created_by"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RegistrationOpen reports whether now is within the registration window.
// The deadline itself is inclusive.
func (e *Event) RegistrationOpen(now time.Time) bool {
	return !now.After(e.RegistrationDeadline)
}

// RegistrationStatus is the lifecycle state of a registration. The only
// transition is registered → cancelled.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Registration represents a student's claim on one of an event's capacity
// slots. The contact fields are a snapshot of the submitted form, not a
// live join to the student profile.
type Registration struct {
	ID         string             `json:"id"`
	EventID    string             `json:"event_id"`
	StudentID  string             `json:"student_id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	Department string             `json:"department"`
	RollNumber string             `json:"roll_number"`
	Year       string             `json:"year"`
	Status     RegistrationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// EventWithCount is the read model for detail and coordinator views. The
// count is derived from the registration store, never stored on the event.
type EventWithCount struct {
	Event
	RegistrationCount int `json:"registration_count"`
}

// EventSummary is the slice of event fields denormalized onto a student's
// registration listing.
type EventSummary struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue"`
	Category    Category  `json:"category"`
}

// RegistrationWithEvent pairs a registration with a summary of its event.
type RegistrationWithEvent struct {
	Registration
	Event EventSummary `json:"event"`
}

// CreateEventRequest is the payload for creating a new event.
// MaxParticipants of zero means "use the default".
type CreateEventRequest struct {
	Title                string    `json:"title" validate:"required"`
	Description          string    `json:"description" validate:"required"`
	Venue                string    `json:"venue" validate:"required"`
	Category             string    `json:"category" validate:"required"`
	Date                 time.Time `json:"date" validate:"required"`
	RegistrationDeadline time.Time `json:"registration_deadline" validate:"required"`
	MaxParticipants      int       `json:"max_participants" validate:"omitempty,min=1,max=1000"`
}

// UpdateEventRequest carries a partial field set; nil fields keep their
// current value. The merged result is revalidated as on creation.
type UpdateEventRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Venue                *string    `json:"venue"`
	Category             *string    `json:"category"`
	Date                 *time.Time `json:"date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	MaxParticipants      *int       `json:"max_participants" validate:"omitempty,min=1,max=1000"`
}

// RegisterRequest is the payload for registering for an event. All contact
// fields are snapshotted onto the registration verbatim.
type RegisterRequest struct {
	EventID    string `json:"event_id" validate:"required,uuid4"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Department string `json:"department" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
	Year       string `json:"year" validate:"required"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
