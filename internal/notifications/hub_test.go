package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	// Anonymous viewers share id 0 and are only bound by the global cap.
	for i := 0; i < maxConnsPerUser+1; i++ {
		_, err := hub.Register(0, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2*maxConnsPerUser+1, hub.Count())
}

func TestHub_BroadcastAllFansOut(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	anon, err := hub.Register(0, nil)
	require.NoError(t, err)

	hub.BroadcastAll("evt")
	for _, c := range []*Client{a, b, anon} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "evt", string(msg))
		default:
			t.Fatalf("client %d got nothing", c.UserID)
		}
	}
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.Count())

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)

	hub.Unregister(c)
	_, err = hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(6, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
}

func TestHub_StartWiringDeliversPublishedEvents(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	hub := NewHub()
	c, err := hub.Register(7, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	msg, err := Encode(EventPostDeleted, map[string]uint{"post_id": 9})
	require.NoError(t, err)
	require.NoError(t, n.PublishBroadcast(ctx, msg))

	select {
	case got := <-c.Send:
		assert.JSONEq(t, msg, string(got))
	case <-time.After(time.Second):
		t.Fatal("event never reached the hub")
	}
}
