package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	st := NewSessionStore(time.Minute)
	sess := st.Create()

	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestSessionStoreGetUnknownReturnsNotConnected(t *testing.T) {
	st := NewSessionStore(time.Minute)
	_, err := st.Get("nope")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSessionStoreDeleteClosesEventsChannel(t *testing.T) {
	st := NewSessionStore(time.Minute)
	sess := st.Create()
	require.NoError(t, st.Delete(sess.ID))

	_, ok := <-sess.Events()
	assert.False(t, ok)
}

func TestSessionStoreGCIdleRemovesStaleSessions(t *testing.T) {
	st := NewSessionStore(10 * time.Millisecond)
	sess := st.Create()

	removed := st.GCIdle(time.Now())
	assert.Equal(t, 0, removed)

	removed = st.GCIdle(time.Now().Add(time.Hour))
	assert.Equal(t, 1, removed)

	_, err := st.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotConnected)
}

// TestBroadcastFanOutToTwoSessions is seed scenario S6: two SSE clients
// both receive exactly one beat_tick event from a single publish.
func TestBroadcastFanOutToTwoSessions(t *testing.T) {
	st := NewSessionStore(time.Minute)
	s1 := st.Create()
	s2 := st.Create()

	body, _ := json.Marshal(map[string]interface{}{"beat": 4, "tempo_bpm": 120})
	st.Broadcast(BroadcastEvent{Type: EventBeatTick, Data: body})

	for _, s := range []*Session{s1, s2} {
		select {
		case ev := <-s.Events():
			assert.Equal(t, EventBeatTick, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out event")
		}
	}
}

func TestBroadcastContinuesToSurvivingSessionAfterDrop(t *testing.T) {
	st := NewSessionStore(time.Minute)
	s1 := st.Create()
	s2 := st.Create()
	require.NoError(t, st.Delete(s1.ID))

	st.Broadcast(BroadcastEvent{Type: EventBeatTick})

	select {
	case _, ok := <-s2.Events():
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("surviving session did not receive event")
	}
}

func TestSessionDeliverDropsOnFullChannelRatherThanBlocking(t *testing.T) {
	st := NewSessionStore(time.Minute)
	sess := st.Create()
	for i := 0; i < broadcastCap+10; i++ {
		sess.deliver(BroadcastEvent{Type: EventLog})
	}
	// No deadlock/panic: the lossy fan-out contract just drops overflow.
	assert.LessOrEqual(t, len(sess.events), broadcastCap)
}
