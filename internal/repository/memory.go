package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/events-api/internal/model"
)

// MemoryStore is an in-memory EventStore and RegistrationStore. It backs
// the test suite and local development without Postgres.
//
// Admission is serialised with a mutex per event id covering the whole
// check-then-insert sequence. mu guards the maps and is held only for
// short reads and writes, never across an admission, so registrations
// for different events can proceed concurrently. Writers of the event
// row (Update, Deactivate) take the same per-event lock, mirroring how
// the Postgres row lock blocks them against an in-flight admission.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*model.Event
	regs   map[string]*model.Registration

	lockMu     sync.Mutex
	eventLocks map[string]*sync.Mutex

	// Now is the clock used for deadline checks and timestamps.
	// Tests override it to pin time.
	Now func() time.Time
}

var (
	_ EventStore        = (*MemoryStore)(nil)
	_ RegistrationStore = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     make(map[string]*model.Event),
		regs:       make(map[string]*model.Registration),
		eventLocks: make(map[string]*sync.Mutex),
		Now:        time.Now,
	}
}

func (m *MemoryStore) eventLock(eventID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l, ok := m.eventLocks[eventID]
	if !ok {
		l = &sync.Mutex{}
		m.eventLocks[eventID] = l
	}
	return l
}

// Create inserts a new event, assigning a generated UUID and timestamps.
func (m *MemoryStore) Create(ctx context.Context, event *model.Event) error {
	now := m.Now().UTC()
	event.ID = uuid.New().String()
	event.IsActive = true
	event.CreatedAt = now
	event.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

// Update persists the mutable fields of an existing event. It holds the
// event's admission lock so an in-flight Register sees the row before or
// after the update, never mid-write.
func (m *MemoryStore) Update(ctx context.Context, event *model.Event) error {
	lock := m.eventLock(event.ID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	event.IsActive = cur.IsActive
	event.CreatedAt = cur.CreatedAt
	event.CreatedBy = cur.CreatedBy
	event.UpdatedAt = m.Now().UTC()
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

// Deactivate soft-deletes an event; already-inactive events are a no-op.
// Holds the admission lock for the same reason as Update.
func (m *MemoryStore) Deactivate(ctx context.Context, id string) error {
	lock := m.eventLock(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.IsActive = false
	ev.UpdatedAt = m.Now().UTC()
	return nil
}

// GetByID returns a single event, inactive ones included.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ev
	return &out, nil
}

// GetWithCount returns an event with its active registration count.
func (m *MemoryStore) GetWithCount(ctx context.Context, id string) (*model.EventWithCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &model.EventWithCount{
		Event:             *ev,
		RegistrationCount: m.countActiveLocked(id),
	}, nil
}

// ListActive returns active events ordered by ascending date.
func (m *MemoryStore) ListActive(ctx context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []model.Event
	for _, ev := range m.events {
		if ev.IsActive {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

// ListByOwner returns the owner's active events with counts, newest first.
func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]model.EventWithCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []model.EventWithCount
	for _, ev := range m.events {
		if ev.IsActive && ev.CreatedBy == ownerID {
			events = append(events, model.EventWithCount{
				Event:             *ev,
				RegistrationCount: m.countActiveLocked(ev.ID),
			})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return strings.Compare(events[i].ID, events[j].ID) < 0
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// Register performs the admission check-then-insert under the event's
// admission lock. The check order matches the Postgres implementation:
// existence/active, deadline, duplicate, capacity. mu is taken only for
// the map accesses, so admissions for other events overlap freely.
func (m *MemoryStore) Register(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	lock := m.eventLock(reg.EventID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	ev, ok := m.events[reg.EventID]
	var event model.Event
	if ok {
		event = *ev
	}
	m.mu.RUnlock()
	if !ok || !event.IsActive {
		return nil, ErrNotFound
	}

	now := m.Now().UTC()
	if !event.RegistrationOpen(now) {
		return nil, ErrRegistrationClosed
	}

	m.mu.RLock()
	duplicate := false
	active := 0
	for _, existing := range m.regs {
		if existing.EventID != reg.EventID || existing.Status != model.StatusRegistered {
			continue
		}
		active++
		if existing.StudentID == reg.StudentID {
			duplicate = true
		}
	}
	m.mu.RUnlock()
	if duplicate {
		return nil, ErrAlreadyRegistered
	}
	// An interleaved Cancel can only free capacity, and no competing
	// admission for this event can run while we hold its lock, so the
	// count cannot go stale in the overselling direction.
	if active >= event.MaxParticipants {
		return nil, ErrEventFull
	}

	reg.ID = uuid.New().String()
	reg.Status = model.StatusRegistered
	reg.CreatedAt = now
	reg.UpdatedAt = now
	stored := *reg

	m.mu.Lock()
	m.regs[reg.ID] = &stored
	m.mu.Unlock()
	return reg, nil
}

// Cancel transitions the student's registration to cancelled; repeat
// cancellation is a no-op.
func (m *MemoryStore) Cancel(ctx context.Context, registrationID, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[registrationID]
	if !ok || reg.StudentID != studentID {
		return ErrNotFound
	}
	if reg.Status == model.StatusCancelled {
		return nil
	}
	reg.Status = model.StatusCancelled
	reg.UpdatedAt = m.Now().UTC()
	return nil
}

// ListByStudent returns the student's active registrations, newest first,
// each with its event summary.
func (m *MemoryStore) ListByStudent(ctx context.Context, studentID string) ([]model.RegistrationWithEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var regs []model.RegistrationWithEvent
	for _, reg := range m.regs {
		if reg.StudentID != studentID || reg.Status != model.StatusRegistered {
			continue
		}
		rw := model.RegistrationWithEvent{Registration: *reg}
		if ev, ok := m.events[reg.EventID]; ok {
			rw.Event = model.EventSummary{
				Title:       ev.Title,
				Description: ev.Description,
				Date:        ev.Date,
				Venue:       ev.Venue,
				Category:    ev.Category,
			}
		}
		regs = append(regs, rw)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return strings.Compare(regs[i].ID, regs[j].ID) < 0
		}
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
	return regs, nil
}

// ListByEvent returns the event's active registrations, newest first.
func (m *MemoryStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var regs []model.Registration
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.Status == model.StatusRegistered {
			regs = append(regs, *reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return strings.Compare(regs[i].ID, regs[j].ID) < 0
		}
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
	return regs, nil
}

// CountActive returns the event's active registration count.
func (m *MemoryStore) CountActive(ctx context.Context, eventID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countActiveLocked(eventID), nil
}

func (m *MemoryStore) countActiveLocked(eventID string) int {
	count := 0
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.Status == model.StatusRegistered {
			count++
		}
	}
	return count
}
