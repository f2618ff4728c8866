package service

import (
	"context"
	"strings"

	"github.com/campusconnect/events-api/internal/model"
	"github.com/campusconnect/events-api/internal/repository"
)

// RegistrationService implements registration admission and cancellation.
// The race-sensitive check-then-insert lives in the store's Register; the
// service validates input and enforces role and ownership.
type RegistrationService struct {
	events repository.EventStore
	regs   repository.RegistrationStore
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(events repository.EventStore, regs repository.RegistrationStore) *RegistrationService {
	return &RegistrationService{events: events, regs: regs}
}

// Register admits the student to the event, or reports why not: the
// event is missing or inactive, the deadline has passed, the student is
// already registered, or the event is full. The contact fields are
// snapshotted onto the registration as submitted.
func (s *RegistrationService) Register(ctx context.Context, student model.Principal, req model.RegisterRequest) (*model.RegistrationWithEvent, error) {
	if student.Role != model.RoleStudent {
		return nil, ErrForbidden
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Department = strings.TrimSpace(req.Department)
	req.RollNumber = strings.TrimSpace(req.RollNumber)
	req.Year = strings.TrimSpace(req.Year)
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	reg := &model.Registration{
		EventID:    req.EventID,
		StudentID:  student.ID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		RollNumber: req.RollNumber,
		Year:       req.Year,
	}
	reg, err := s.regs.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	out := &model.RegistrationWithEvent{Registration: *reg}
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		out.Event = model.EventSummary{
			Title:       event.Title,
			Description: event.Description,
			Date:        event.Date,
			Venue:       event.Venue,
			Category:    event.Category,
		}
	}
	return out, nil
}

// Cancel transitions the student's registration to cancelled, freeing
// its capacity slot immediately. Cancelling twice succeeds; the end
// state is the same.
func (s *RegistrationService) Cancel(ctx context.Context, student model.Principal, registrationID string) error {
	if student.Role != model.RoleStudent {
		return ErrForbidden
	}
	if registrationID == "" {
		return repository.ErrNotFound
	}
	return s.regs.Cancel(ctx, registrationID, student.ID)
}

// ListMyRegistrations returns the student's active registrations, newest
// first, each with a summary of its event. Registrations for deactivated
// events are still listed.
func (s *RegistrationService) ListMyRegistrations(ctx context.Context, student model.Principal) ([]model.RegistrationWithEvent, error) {
	if student.Role != model.RoleStudent {
		return nil, ErrForbidden
	}
	return s.regs.ListByStudent(ctx, student.ID)
}

// ListEventRegistrations returns the event's active registrations for
// its owning coordinator, newest first.
func (s *RegistrationService) ListEventRegistrations(ctx context.Context, owner model.Principal, eventID string) ([]model.Registration, error) {
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
	return s.regs.ListByEvent(ctx, eventID)
}
