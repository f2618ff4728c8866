package service

import (
	"context"
	"strings"
	"time"

	"github.com/campusconnect/events-api/internal/model"
	"github.com/campusconnect/events-api/internal/repository"
)

// EventService implements the event lifecycle: creation, update,
// soft-deletion, and the listing/detail reads.
type EventService struct {
	events repository.EventStore

	// now is the clock used for date validation; tests pin it.
	now func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(events repository.EventStore) *EventService {
	return &EventService{events: events, now: time.Now}
}

// CreateEvent validates the fields and persists a new active event owned
// by the caller.
func (s *EventService) CreateEvent(ctx context.Context, owner model.Principal, req model.CreateEventRequest) (*model.Event, error) {
	if owner.Role != model.RoleCoordinator {
		return nil, ErrForbidden
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Venue = strings.TrimSpace(req.Venue)
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	category, ok := model.ParseCategory(req.Category)
	if !ok {
		return nil, &ValidationError{Field: "category", Message: "must be one of technical, cultural, sports, academic, other"}
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = model.DefaultMaxParticipants
	}

	if err := s.checkSchedule(req.Date, req.RegistrationDeadline); err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:                req.Title,
		Description:          req.Description,
		Venue:                req.Venue,
		Category:             category,
		Date:                 req.Date,
		RegistrationDeadline: req.RegistrationDeadline,
		MaxParticipants:      maxParticipants,
		CreatedBy:            owner.ID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent merges the submitted fields over the stored event,
// re-validates the result exactly as on creation, and persists it. Only
// the owning coordinator may update an event.
func (s *EventService) UpdateEvent(ctx context.Context, owner model.Principal, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	if owner.Role != model.RoleCoordinator {
		return nil, ErrForbidden
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != owner.ID {
		return nil, ErrForbidden
	}

	merged := model.CreateEventRequest{
		Title:                event.Title,
		Description:          event.Description,
		Venue:                event.Venue,
		Category:             string(event.Category),
		Date:                 event.Date,
		RegistrationDeadline: event.RegistrationDeadline,
		MaxParticipants:      event.MaxParticipants,
	}
	if req.Title != nil {
		merged.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		merged.Description = strings.TrimSpace(*req.Description)
	}
	if req.Venue != nil {
		merged.Venue = strings.TrimSpace(*req.Venue)
	}
	if req.Category != nil {
		merged.Category = *req.Category
	}
	if req.Date != nil {
		merged.Date = *req.Date
	}
	if req.RegistrationDeadline != nil {
		merged.RegistrationDeadline = *req.RegistrationDeadline
	}
	if req.MaxParticipants != nil {
		merged.MaxParticipants = *req.MaxParticipants
	}

	if err := checkStruct(merged); err != nil {
		return nil, err
	}
	category, ok := model.ParseCategory(merged.Category)
	if !ok {
		return nil, &ValidationError{Field: "category", Message: "must be one of technical, cultural, sports, academic, other"}
	}
	if merged.MaxParticipants < 1 || merged.MaxParticipants > model.MaxParticipantsLimit {
		return nil, &ValidationError{Field: "max_participants", Message: "must be between 1 and 1000"}
	}
	if err := s.checkSchedule(merged.Date, merged.RegistrationDeadline); err != nil {
		return nil, err
	}

	event.Title = merged.Title
	event.Description = merged.Description
	event.Venue = merged.Venue
	event.Category = category
	event.Date = merged.Date
	event.RegistrationDeadline = merged.RegistrationDeadline
	event.MaxParticipants = merged.MaxParticipants

	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeactivateEvent soft-deletes an event owned by the caller. Repeating
// the call on an already-inactive event succeeds.
func (s *EventService) DeactivateEvent(ctx context.Context, owner model.Principal, eventID string) error {
	if owner.Role != model.RoleCoordinator {
		return ErrForbidden
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatedBy != owner.ID {
		return ErrForbidden
	}
	return s.events.Deactivate(ctx, eventID)
}

// ListActiveEvents returns all active events ordered by ascending date.
func (s *EventService) ListActiveEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.ListActive(ctx)
}

// GetEvent returns a single event, inactive ones included, with its
// registration count.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.EventWithCount, error) {
	if eventID == "" {
		return nil, repository.ErrNotFound
	}
	return s.events.GetWithCount(ctx, eventID)
}

// ListEventsByOwner returns the coordinator's active events with counts,
// newest first.
func (s *EventService) ListEventsByOwner(ctx context.Context, owner model.Principal) ([]model.EventWithCount, error) {
	if owner.Role != model.RoleCoordinator {
		return nil, ErrForbidden
	}
	return s.events.ListByOwner(ctx, owner.ID)
}

// checkSchedule enforces that the event date is in the future and the
// registration deadline falls strictly between now and the date.
func (s *EventService) checkSchedule(date, deadline time.Time) error {
	now := s.now()
	if !date.After(now) {
		return &ValidationError{Field: "date", Message: "must be in the future"}
	}
	if !deadline.After(now) {
		return &ValidationError{Field: "registration_deadline", Message: "must be in the future"}
	}
	if !deadline.Before(date) {
		return &ValidationError{Field: "registration_deadline", Message: "must be before the event date"}
	}
	return nil
}
