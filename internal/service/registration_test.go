package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/events-api/internal/model"
	"github.com/campusconnect/events-api/internal/repository"
)

func validRegisterRequest(eventID string) model.RegisterRequest {
	return model.RegisterRequest{
		EventID:    eventID,
		Name:       "Asha Nair",
		Email:      "asha.nair@college.edu",
		Phone:      "9876543210",
		Department: "CSE",
		RollNumber: "CS21B042",
		Year:       "3",
	}
}

func (f *fixture) createEvent(t *testing.T, owner model.Principal, capacity int) *model.Event {
	t.Helper()
	req := f.validCreateRequest()
	req.MaxParticipants = capacity
	event, err := f.events.CreateEvent(context.Background(), owner, req)
	require.NoError(t, err)
	return event
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)
	s := student()

	reg, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)

	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, event.ID, reg.EventID)
	assert.Equal(t, s.ID, reg.StudentID)
	assert.Equal(t, model.StatusRegistered, reg.Status)
	// Snapshot fields are copied verbatim from the form.
	assert.Equal(t, "Asha Nair", reg.Name)
	assert.Equal(t, "asha.nair@college.edu", reg.Email)
	assert.Equal(t, "CS21B042", reg.RollNumber)
	// The response carries the event summary.
	assert.Equal(t, event.Title, reg.Event.Title)
	assert.Equal(t, event.Venue, reg.Event.Venue)

	count, err := f.store.CountActive(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)

	tests := []struct {
		name   string
		mutate func(*model.RegisterRequest)
		field  string
	}{
		{"missing_event", func(r *model.RegisterRequest) { r.EventID = "" }, "event_id"},
		{"malformed_event_id", func(r *model.RegisterRequest) { r.EventID = "42" }, "event_id"},
		{"missing_name", func(r *model.RegisterRequest) { r.Name = "  " }, "name"},
		{"bad_email", func(r *model.RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"missing_phone", func(r *model.RegisterRequest) { r.Phone = "" }, "phone"},
		{"missing_department", func(r *model.RegisterRequest) { r.Department = "" }, "department"},
		{"missing_roll_number", func(r *model.RegisterRequest) { r.RollNumber = "" }, "roll_number"},
		{"missing_year", func(r *model.RegisterRequest) { r.Year = "" }, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegisterRequest(event.ID)
			tt.mutate(&req)

			_, err := f.regs.Register(context.Background(), student(), req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRegister_EventNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(uuid.New().String()))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegister_InactiveEvent(t *testing.T) {
	f := newFixture(t)
	owner := coordinator()
	event := f.createEvent(t, owner, 10)
	require.NoError(t, f.events.DeactivateEvent(context.Background(), owner, event.ID))

	_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegister_DeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)

	// Exactly at the deadline the window is still open.
	f.now = event.RegistrationDeadline
	_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	assert.NoError(t, err)

	// One instant later it is closed.
	f.advances(time.Nanosecond)
	_, err = f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	assert.ErrorIs(t, err, repository.ErrRegistrationClosed)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)
	s := student()

	_, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)

	// A client retry of the same logical request is rejected, not
	// silently double-counted.
	_, err = f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)

	count, err := f.store.CountActive(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegister_CapacityExceeded(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 2)

	for range 2 {
		_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
		require.NoError(t, err)
	}

	_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	assert.ErrorIs(t, err, repository.ErrEventFull)
}

func TestRegister_RequiresStudent(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)

	_, err := f.regs.Register(context.Background(), coordinator(), validRegisterRequest(event.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancel_FreesCapacity(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 1)
	s := student()

	reg, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)

	// Full: the next student is turned away.
	_, err = f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	require.ErrorIs(t, err, repository.ErrEventFull)

	require.NoError(t, f.regs.Cancel(context.Background(), s, reg.ID))

	// The freed slot is visible immediately.
	_, err = f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	assert.NoError(t, err)
}

func TestCancel_Idempotent(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)
	s := student()

	reg, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)

	require.NoError(t, f.regs.Cancel(context.Background(), s, reg.ID))
	// The end state of a repeat cancel is identical, so it succeeds.
	assert.NoError(t, f.regs.Cancel(context.Background(), s, reg.ID))
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)
	s := student()

	reg, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)

	// Another student cannot cancel someone else's registration.
	assert.ErrorIs(t, f.regs.Cancel(context.Background(), student(), reg.ID), repository.ErrNotFound)
	assert.ErrorIs(t, f.regs.Cancel(context.Background(), s, uuid.New().String()), repository.ErrNotFound)
}

func TestReRegisterAfterCancel(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, coordinator(), 10)
	s := student()

	first, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)
	require.NoError(t, f.regs.Cancel(context.Background(), s, first.ID))

	second, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestListMyRegistrations(t *testing.T) {
	f := newFixture(t)
	owner := coordinator()
	s := student()

	first := f.createEvent(t, owner, 10)
	second := f.createEvent(t, owner, 10)

	_, err := f.regs.Register(context.Background(), s, validRegisterRequest(first.ID))
	require.NoError(t, err)
	f.advances(time.Minute)
	_, err = f.regs.Register(context.Background(), s, validRegisterRequest(second.ID))
	require.NoError(t, err)

	// Cancelled registrations are excluded.
	other := f.createEvent(t, owner, 10)
	cancelled, err := f.regs.Register(context.Background(), s, validRegisterRequest(other.ID))
	require.NoError(t, err)
	require.NoError(t, f.regs.Cancel(context.Background(), s, cancelled.ID))

	regs, err := f.regs.ListMyRegistrations(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	// Newest first, with the event summary attached.
	assert.Equal(t, second.ID, regs[0].EventID)
	assert.Equal(t, first.ID, regs[1].EventID)
	assert.Equal(t, second.Title, regs[0].Event.Title)
}

func TestListMyRegistrations_SurvivesDeactivation(t *testing.T) {
	f := newFixture(t)
	owner := coordinator()
	s := student()
	event := f.createEvent(t, owner, 10)

	_, err := f.regs.Register(context.Background(), s, validRegisterRequest(event.ID))
	require.NoError(t, err)
	require.NoError(t, f.events.DeactivateEvent(context.Background(), owner, event.ID))

	regs, err := f.regs.ListMyRegistrations(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, event.Title, regs[0].Event.Title)
	assert.Equal(t, event.Venue, regs[0].Event.Venue)
}

func TestListEventRegistrations(t *testing.T) {
	f := newFixture(t)
	owner := coordinator()
	event := f.createEvent(t, owner, 10)

	_, err := f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	require.NoError(t, err)
	f.advances(time.Minute)
	_, err = f.regs.Register(context.Background(), student(), validRegisterRequest(event.ID))
	require.NoError(t, err)

	regs, err := f.regs.ListEventRegistrations(context.Background(), owner, event.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.True(t, !regs[0].CreatedAt.Before(regs[1].CreatedAt))
}

func TestListEventRegistrations_Authorization(t *testing.T) {
	f := newFixture(t)
	owner := coordinator()
	event := f.createEvent(t, owner, 10)

	_, err := f.regs.ListEventRegistrations(context.Background(), coordinator(), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.regs.ListEventRegistrations(context.Background(), student(), event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.regs.ListEventRegistrations(context.Background(), owner, uuid.New().String())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
