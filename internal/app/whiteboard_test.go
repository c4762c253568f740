package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

func newBoard(t *testing.T) (*app.WhiteboardManager, *fakeRouter, *fakeQueue) {
	t.Helper()
	dir := newFakeDirectory()
	dir.addCourse("room7", "prof")
	dir.enroll("room7", "s1")
	dir.enroll("room7", "s2")

	router := &fakeRouter{}
	queue := &fakeQueue{}
	reg := app.NewRegistry()
	m := app.NewWhiteboardManager(reg, app.NewAccessGate(dir), router, queue)
	return m, router, queue
}

var stroke = json.RawMessage(`{"tool":"pen","points":[[0,0],[4,4]]}`)

func TestWhiteboard_RecordActionAssignsSeq(t *testing.T) {
	m, router, _ := newBoard(t)
	ctx := context.Background()

	first, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
	require.NoError(t, err)
	second, err := m.RecordAction(ctx, "room7", student("s2"), stroke)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, domain.ActionDraw, first.Kind)
	assert.Equal(t, "s1", first.UserName)
	assert.False(t, first.At.IsZero())
	assert.Contains(t, router.broadcastTypes(), app.EvBoardAction)
}

func TestWhiteboard_RecordActionValidation(t *testing.T) {
	m, _, _ := newBoard(t)

	_, err := m.RecordAction(context.Background(), "room7", student("s1"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestWhiteboard_RecordActionRequiresMembership(t *testing.T) {
	m, _, _ := newBoard(t)

	_, err := m.RecordAction(context.Background(), "room7", student("outsider"), stroke)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestWhiteboard_ConcurrentActionsUniqueSeqs(t *testing.T) {
	m, _, _ := newBoard(t)
	ctx := context.Background()

	const n = 64
	seqs := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
			if err == nil {
				seqs <- a.Seq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	got := make([]uint64, 0, n)
	for s := range seqs {
		got = append(got, s)
	}
	require.Len(t, got, n)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, s := range got {
		assert.Equal(t, uint64(i+1), s, "seqs must be unique and gapless under contention")
	}
}

func TestWhiteboard_ClearTruncatesViewKeepsSeq(t *testing.T) {
	m, router, _ := newBoard(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
		require.NoError(t, err)
	}
	marker, err := m.Clear(ctx, "room7", instructor("prof"))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionClear, marker.Kind)
	assert.Equal(t, uint64(4), marker.Seq, "clear consumes a seq, the counter never resets")
	assert.Contains(t, router.broadcastTypes(), app.EvBoardCleared)

	view, err := m.GetState(ctx, "room7", student("s1"))
	require.NoError(t, err)
	require.Len(t, view.Actions, 1, "pre-clear actions must be gone")
	assert.Equal(t, domain.ActionClear, view.Actions[0].Kind)

	// The next action continues the sequence after the marker.
	next, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next.Seq)

	view, err = m.GetState(ctx, "room7", student("s1"))
	require.NoError(t, err)
	require.Len(t, view.Actions, 2)
	assert.Equal(t, domain.ActionClear, view.Actions[0].Kind)
	assert.Equal(t, next.Seq, view.Actions[1].Seq)
}

func TestWhiteboard_ClearRequiresPrivilege(t *testing.T) {
	m, _, _ := newBoard(t)

	_, err := m.Clear(context.Background(), "room7", student("s1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestWhiteboard_PermissionRevokeAndRegrant(t *testing.T) {
	m, _, _ := newBoard(t)
	ctx := context.Background()

	a, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
	require.NoError(t, err)
	lastSeq := a.Seq

	require.NoError(t, m.SetDrawPermission(ctx, "room7", instructor("prof"), "s1", false))
	assert.False(t, m.HasDrawPermission("room7", "s1"))

	_, err = m.RecordAction(ctx, "room7", student("s1"), stroke)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))

	// Other users are unaffected by s1's revocation.
	_, err = m.RecordAction(ctx, "room7", student("s2"), stroke)
	require.NoError(t, err)
	lastSeq++

	// An admin regrants; s1's next action continues the sequence.
	require.NoError(t, m.SetDrawPermission(ctx, "room7", admin("root"), "s1", true))
	assert.True(t, m.HasDrawPermission("room7", "s1"))

	next, err := m.RecordAction(ctx, "room7", student("s1"), stroke)
	require.NoError(t, err)
	assert.Equal(t, lastSeq+1, next.Seq)
}

func TestWhiteboard_PermissionDefaultsOpen(t *testing.T) {
	m, _, _ := newBoard(t)

	assert.True(t, m.HasDrawPermission("room7", "s1"))
	assert.True(t, m.HasDrawPermission("never-seen-room", "anyone"))
}

func TestWhiteboard_SetPermissionRequiresPrivilege(t *testing.T) {
	m, _, _ := newBoard(t)

	err := m.SetDrawPermission(context.Background(), "room7", student("s1"), "s2", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))
	assert.True(t, m.HasDrawPermission("room7", "s2"), "failed toggle must not change state")
}

func TestWhiteboard_GetStateRequiresMembership(t *testing.T) {
	m, _, _ := newBoard(t)

	_, err := m.GetState(context.Background(), "room7", student("outsider"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestWhiteboard_GetStateReportsOwnPermission(t *testing.T) {
	m, _, _ := newBoard(t)
	ctx := context.Background()

	require.NoError(t, m.SetDrawPermission(ctx, "room7", instructor("prof"), "s1", false))

	view, err := m.GetState(ctx, "room7", student("s1"))
	require.NoError(t, err)
	assert.False(t, view.CanDraw)

	view, err = m.GetState(ctx, "room7", student("s2"))
	require.NoError(t, err)
	assert.True(t, view.CanDraw)
}

func TestWhiteboard_SaveSnapshot(t *testing.T) {
	m, router, queue := newBoard(t)
	ctx := context.Background()

	snap, err := m.SaveSnapshot(ctx, "room7", instructor("prof"), "lecture 3", `{"strokes":[]}`)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("prof"), snap.SavedBy)
	assert.False(t, snap.SavedAt.IsZero())

	require.Len(t, queue.snaps, 1, "the durable write must be queued")
	assert.Equal(t, "lecture 3", queue.snaps[0].Title)
	assert.Contains(t, router.broadcastTypes(), app.EvBoardSnapshot)
}

func TestWhiteboard_SaveSnapshotValidation(t *testing.T) {
	m, _, queue := newBoard(t)

	_, err := m.SaveSnapshot(context.Background(), "room7", instructor("prof"), "", "data")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.Empty(t, queue.snaps)
}

func TestWhiteboard_SaveSnapshotRequiresPrivilege(t *testing.T) {
	m, _, queue := newBoard(t)

	_, err := m.SaveSnapshot(context.Background(), "room7", student("s1"), "t", "d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrForbidden))
	assert.Empty(t, queue.snaps)
}

func TestWhiteboard_SaveSnapshotSurvivesQueueFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.addCourse("room7", "prof")
	router := &fakeRouter{}
	queue := &fakeQueue{err: errors.New("redis down")}
	reg := app.NewRegistry()
	m := app.NewWhiteboardManager(reg, app.NewAccessGate(dir), router, queue)

	snap, err := m.SaveSnapshot(context.Background(), "room7", instructor("prof"), "t", "d")
	require.NoError(t, err, "a queue failure must not fail the command")
	assert.Equal(t, "t", snap.Title)
}
