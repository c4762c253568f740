package app_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// fakeRouter records every delivery instead of touching a socket.
type fakeRouter struct {
	mu        sync.Mutex
	broadcast []routedEvent
	unicast   []routedEvent
}

type routedEvent struct {
	Room domain.RoomID
	User domain.UserID
	Ev   core.Event
}

func (f *fakeRouter) BroadcastRoom(roomID domain.RoomID, ev core.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, routedEvent{Room: roomID, Ev: ev})
}

func (f *fakeRouter) Unicast(uid domain.UserID, ev core.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unicast = append(f.unicast, routedEvent{User: uid, Ev: ev})
}

func (f *fakeRouter) unicasts() []routedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]routedEvent, len(f.unicast))
	copy(out, f.unicast)
	return out
}

func (f *fakeRouter) broadcasts() []routedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]routedEvent, len(f.broadcast))
	copy(out, f.broadcast)
	return out
}

func (f *fakeRouter) broadcastTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.broadcast))
	for _, e := range f.broadcast {
		out = append(out, e.Ev.Type)
	}
	return out
}

// fakeDirectory resolves courses and enrollment from fixed maps.
type fakeDirectory struct {
	instructors map[domain.CourseID]domain.UserID
	enrolled    map[domain.CourseID]map[domain.UserID]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		instructors: make(map[domain.CourseID]domain.UserID),
		enrolled:    make(map[domain.CourseID]map[domain.UserID]bool),
	}
}

func (f *fakeDirectory) addCourse(id domain.CourseID, instructor domain.UserID) {
	f.instructors[id] = instructor
}

func (f *fakeDirectory) enroll(id domain.CourseID, uid domain.UserID) {
	if f.enrolled[id] == nil {
		f.enrolled[id] = make(map[domain.UserID]bool)
	}
	f.enrolled[id][uid] = true
}

func (f *fakeDirectory) Course(_ context.Context, id domain.CourseID) (*domain.Course, error) {
	instructor, ok := f.instructors[id]
	if !ok {
		return nil, fmt.Errorf("course %s: %w", id, core.ErrNotFound)
	}
	return &domain.Course{ID: id, InstructorID: instructor}, nil
}

func (f *fakeDirectory) IsEnrolled(_ context.Context, id domain.CourseID, uid domain.UserID) (bool, error) {
	return f.enrolled[id][uid], nil
}

// fakeQueue captures snapshots handed off for durable persistence.
type fakeQueue struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
	err   error
}

func (f *fakeQueue) EnqueuePersist(_ context.Context, snap domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.snaps = append(f.snaps, snap)
	return nil
}

func student(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), DisplayName: id, Role: domain.RoleStudent}
}

func instructor(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), DisplayName: id, Role: domain.RoleInstructor}
}

func admin(id string) *domain.User {
	return &domain.User{ID: domain.UserID(id), DisplayName: id, Role: domain.RoleAdmin}
}
