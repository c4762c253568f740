package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/config"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

const testJWTSecret = "test-secret"

type fakeDir struct {
	courses  map[domain.CourseID]domain.UserID
	enrolled map[domain.CourseID]map[domain.UserID]bool
}

func (f *fakeDir) Course(_ context.Context, id domain.CourseID) (*domain.Course, error) {
	instructor, ok := f.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %s: %w", id, core.ErrNotFound)
	}
	return &domain.Course{ID: id, InstructorID: instructor}, nil
}

func (f *fakeDir) IsEnrolled(_ context.Context, id domain.CourseID, uid domain.UserID) (bool, error) {
	return f.enrolled[id][uid], nil
}

type fakeStore struct {
	snaps map[domain.RoomID][]domain.Snapshot
}

func (f *fakeStore) Save(_ context.Context, snap *domain.Snapshot) error {
	if f.snaps == nil {
		f.snaps = make(map[domain.RoomID][]domain.Snapshot)
	}
	f.snaps[snap.RoomID] = append(f.snaps[snap.RoomID], *snap)
	return nil
}

func (f *fakeStore) Latest(_ context.Context, roomID domain.RoomID) (*domain.Snapshot, error) {
	list := f.snaps[roomID]
	if len(list) == 0 {
		return nil, fmt.Errorf("no snapshot for room %s: %w", roomID, core.ErrNotFound)
	}
	out := list[len(list)-1]
	return &out, nil
}

func (f *fakeStore) ListByRoom(_ context.Context, roomID domain.RoomID, _ int) ([]domain.Snapshot, error) {
	return f.snaps[roomID], nil
}

type fakePresence struct{}

func (fakePresence) Count(context.Context, domain.RoomID) int64 { return 3 }

func newAPI(t *testing.T) (*gin.Engine, *app.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := &fakeDir{
		courses: map[domain.CourseID]domain.UserID{"room7": "prof"},
		enrolled: map[domain.CourseID]map[domain.UserID]bool{
			"room7": {"s1": true},
		},
	}
	reg := app.NewRegistry()
	cfg := &config.Config{Mode: "release", Secret: "cookie-secret", JWTSecret: testJWTSecret}
	r := SetupRouter(context.Background(), cfg, Deps{
		Registry:  reg,
		Gate:      app.NewAccessGate(dir),
		Snapshots: &fakeStore{},
		Presence:  fakePresence{},
	})
	return r, reg
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	claims := collabClaims{
		DisplayName: sub,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSnapshotRoutesRequireMembership(t *testing.T) {
	r, _ := newAPI(t)

	w := do(t, r, http.MethodGet, "/api/rooms/room7/snapshots", signToken(t, "outsider", "student"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/room7/snapshots", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/room7/snapshots", signToken(t, "prof", "instructor"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms/no-such-room/snapshots/latest", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLatestSnapshotFallsBackToArchive(t *testing.T) {
	r, reg := newAPI(t)

	w := do(t, r, http.MethodGet, "/api/rooms/room7/snapshots/latest", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The durable row lags the queue; the in-memory archive serves it.
	reg.GetOrCreate("room7").AddSnapshot(domain.Snapshot{RoomID: "room7", Title: "in-flight"})
	w = do(t, r, http.MethodGet, "/api/rooms/room7/snapshots/latest", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "in-flight")
}

func TestRoomsListingIsAdminOnly(t *testing.T) {
	r, reg := newAPI(t)
	reg.GetOrCreate("room7")

	w := do(t, r, http.MethodGet, "/api/rooms", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/rooms", signToken(t, "root", "admin"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"room7"`)
	assert.Contains(t, w.Body.String(), `"connection_count":3`)
}

func TestAdminDropsRoom(t *testing.T) {
	r, reg := newAPI(t)
	reg.GetOrCreate("room7")

	w := do(t, r, http.MethodDelete, "/api/rooms/room7", signToken(t, "s1", "student"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, ok := reg.Get("room7")
	assert.True(t, ok, "a denied drop must not change the registry")

	w = do(t, r, http.MethodDelete, "/api/rooms/room7", signToken(t, "root", "admin"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok = reg.Get("room7")
	assert.False(t, ok)
}
