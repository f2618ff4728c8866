package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/events-api/internal/model"
)

func seedEvent(t *testing.T, store *MemoryStore, capacity int) *model.Event {
	t.Helper()
	event := &model.Event{
		Title:                "Load Test Event",
		Description:          "capacity fixture",
		Venue:                "Auditorium",
		Category:             model.CategoryOther,
		Date:                 store.Now().Add(48 * time.Hour),
		RegistrationDeadline: store.Now().Add(24 * time.Hour),
		MaxParticipants:      capacity,
		CreatedBy:            uuid.New().String(),
	}
	require.NoError(t, store.Create(context.Background(), event))
	return event
}

func attempt(eventID, studentID string) *model.Registration {
	return &model.Registration{
		EventID:    eventID,
		StudentID:  studentID,
		Name:       "Student",
		Email:      "student@college.edu",
		Phone:      "9000000000",
		Department: "ECE",
		RollNumber: "EC22B001",
		Year:       "2",
	}
}

// Capacity N with N+5 concurrent distinct students must admit exactly N
// and turn the rest away, with the count settling at exactly N.
func TestConcurrentRegistrations(t *testing.T) {
	const capacity = 10
	const attempts = capacity + 5

	store := NewMemoryStore()
	event := seedEvent(t, store, capacity)

	var wg sync.WaitGroup
	var successCount, fullCount int64

	wg.Add(attempts)
	for range attempts {
		go func() {
			defer wg.Done()
			_, err := store.Register(context.Background(), attempt(event.ID, uuid.New().String()))
			switch err {
			case nil:
				atomic.AddInt64(&successCount, 1)
			case ErrEventFull:
				atomic.AddInt64(&fullCount, 1)
			default:
				t.Errorf("Register unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, capacity, successCount)
	assert.EqualValues(t, attempts-capacity, fullCount)

	count, err := store.CountActive(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, count)
}

// Two concurrent submissions by the same student must yield exactly one
// success and one duplicate rejection.
func TestConcurrentDuplicateSubmission(t *testing.T) {
	store := NewMemoryStore()
	event := seedEvent(t, store, 10)
	studentID := uuid.New().String()

	var wg sync.WaitGroup
	var successCount, dupCount int64

	wg.Add(2)
	for range 2 {
		go func() {
			defer wg.Done()
			_, err := store.Register(context.Background(), attempt(event.ID, studentID))
			switch err {
			case nil:
				atomic.AddInt64(&successCount, 1)
			case ErrAlreadyRegistered:
				atomic.AddInt64(&dupCount, 1)
			default:
				t.Errorf("Register unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successCount)
	assert.EqualValues(t, 1, dupCount)
}

// Registrations for different events must not serialise against each
// other; a full event does not block admission elsewhere.
func TestRegistrationAcrossEventsIndependent(t *testing.T) {
	store := NewMemoryStore()
	full := seedEvent(t, store, 1)
	open := seedEvent(t, store, 100)

	_, err := store.Register(context.Background(), attempt(full.ID, uuid.New().String()))
	require.NoError(t, err)
	_, err = store.Register(context.Background(), attempt(full.ID, uuid.New().String()))
	require.ErrorIs(t, err, ErrEventFull)

	_, err = store.Register(context.Background(), attempt(open.ID, uuid.New().String()))
	assert.NoError(t, err)
}

// Admissions on distinct events must overlap in time, not merely both
// succeed. Both goroutines rendezvous inside the clock read, which sits
// in the middle of the admission sequence; if one event's admission held
// a lock that the other's needs, neither would reach the barrier and the
// test would time out.
func TestAdmissionsForDistinctEventsOverlap(t *testing.T) {
	store := NewMemoryStore()
	first := seedEvent(t, store, 10)
	second := seedEvent(t, store, 10)

	base := store.Now()
	var entered sync.WaitGroup
	entered.Add(2)
	store.Now = func() time.Time {
		entered.Done()
		entered.Wait()
		return base
	}

	done := make(chan error, 2)
	go func() {
		_, err := store.Register(context.Background(), attempt(first.ID, uuid.New().String()))
		done <- err
	}()
	go func() {
		_, err := store.Register(context.Background(), attempt(second.ID, uuid.New().String()))
		done <- err
	}()

	for range 2 {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("admissions for different events did not overlap")
		}
	}
}

func TestRegisterDeadlineInclusive(t *testing.T) {
	store := NewMemoryStore()
	event := seedEvent(t, store, 10)

	// Pin the clock to the exact deadline: still admitted.
	store.Now = func() time.Time { return event.RegistrationDeadline }
	_, err := store.Register(context.Background(), attempt(event.ID, uuid.New().String()))
	assert.NoError(t, err)

	store.Now = func() time.Time { return event.RegistrationDeadline.Add(time.Nanosecond) }
	_, err = store.Register(context.Background(), attempt(event.ID, uuid.New().String()))
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterUnknownEvent(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Register(context.Background(), attempt(uuid.New().String(), uuid.New().String()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelThenCountReflectsImmediately(t *testing.T) {
	store := NewMemoryStore()
	event := seedEvent(t, store, 5)
	studentID := uuid.New().String()

	reg, err := store.Register(context.Background(), attempt(event.ID, studentID))
	require.NoError(t, err)

	count, err := store.CountActive(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, store.Cancel(context.Background(), reg.ID, studentID))

	count, err = store.CountActive(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDeactivateMissingEvent(t *testing.T) {
	store := NewMemoryStore()
	assert.ErrorIs(t, store.Deactivate(context.Background(), uuid.New().String()), ErrNotFound)
}
