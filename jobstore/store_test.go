package jobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobLifecycleHappyPath(t *testing.T) {
	s := New()
	id, jobCtx := s.CreateJob(context.Background(), "render_stem")
	require.NoError(t, jobCtx.Err())

	job, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, job.Status)
	require.Equal(t, "render_stem", job.Source)

	require.NoError(t, s.MarkRunning(id))
	require.NoError(t, s.SetProgress(id, 0.5))

	job, err = s.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.Progress)
	require.Equal(t, 0.5, *job.Progress)

	require.NoError(t, s.MarkComplete(id, []byte(`{"ok":true}`)))

	job, err = s.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, job.Status)
	require.NotNil(t, job.CompletedAt)
	require.JSONEq(t, `{"ok":true}`, string(job.Result))
}

func TestJobDAGRejectsTransitionsOutOfTerminalState(t *testing.T) {
	s := New()
	id, _ := s.CreateJob(context.Background(), "tool")
	require.NoError(t, s.MarkRunning(id))
	require.NoError(t, s.MarkFailed(id, "boom"))

	require.ErrorIs(t, s.MarkRunning(id), ErrInvalidTransition)
	require.ErrorIs(t, s.MarkComplete(id, nil), ErrInvalidTransition)
	require.ErrorIs(t, s.MarkCancelled(id), ErrInvalidTransition)
}

func TestPendingCanCancelDirectly(t *testing.T) {
	s := New()
	id, jobCtx := s.CreateJob(context.Background(), "tool")

	require.NoError(t, s.Cancel(id))
	job, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, job.Status)
	require.NotNil(t, job.CompletedAt)

	select {
	case <-jobCtx.Done():
	default:
		t.Fatal("expected job context to be cancelled")
	}
}

func TestMarkRunningRequiresPending(t *testing.T) {
	s := New()
	id, _ := s.CreateJob(context.Background(), "tool")
	require.NoError(t, s.MarkRunning(id))
	require.ErrorIs(t, s.MarkRunning(id), ErrInvalidTransition)
}

func TestGetUnknownJobReturnsNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(ID("does-not-exist"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	s := New()
	id1, _ := s.CreateJob(context.Background(), "a")
	id2, _ := s.CreateJob(context.Background(), "b")
	require.NoError(t, s.MarkRunning(id1))
	require.NoError(t, s.MarkComplete(id1, nil))

	running := StatusRunning
	all := s.List(nil)
	require.Len(t, all, 2)

	onlyRunning := s.List(&running)
	require.Empty(t, onlyRunning)

	pending := StatusPending
	onlyPending := s.List(&pending)
	require.Len(t, onlyPending, 1)
	require.Equal(t, id2, onlyPending[0].ID)
}

func TestStatsCountsEachBucket(t *testing.T) {
	s := New()
	a, _ := s.CreateJob(context.Background(), "a")
	b, _ := s.CreateJob(context.Background(), "b")
	c, _ := s.CreateJob(context.Background(), "c")

	require.NoError(t, s.MarkRunning(a))
	require.NoError(t, s.MarkRunning(b))
	require.NoError(t, s.MarkComplete(b, nil))
	require.NoError(t, s.Cancel(c))

	stats := s.Stats()
	require.Equal(t, Stats{Pending: 0, Running: 1, Complete: 1, Failed: 0, Cancelled: 1}, stats)
}

func TestStatusTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusRunning.Terminal())
	require.True(t, StatusComplete.Terminal())
	require.True(t, StatusFailed.Terminal())
	require.True(t, StatusCancelled.Terminal())
}
