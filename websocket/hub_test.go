package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func queued(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return frames
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// joined subscribes c to room and completes the join with an empty backlog.
func joined(r Registry, room string, c *Client) {
	r.Subscribe(room, c)
	r.Ready(room, c, nil, 0)
}

func isClosed(c *Client) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubPublishSkipsExceptedClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	a := newClient("a", nil, zap.NewNop())
	b := newClient("b", nil, zap.NewNop())
	outsider := newClient("c", nil, zap.NewNop())
	for _, c := range []*Client{a, b, outsider} {
		hub.Register(c)
	}
	joined(hub, "room-1", a)
	joined(hub, "room-1", b)
	joined(hub, "room-2", outsider)

	require.NoError(t, hub.Publish(context.Background(), "room-1", []byte(`{"type":"x"}`), "", 0))
	require.NoError(t, hub.Publish(context.Background(), "room-1", []byte(`{"type":"y"}`), "a", 0))

	assert.Equal(t, [][]byte{[]byte(`{"type":"x"}`)}, queued(a))
	assert.Equal(t, [][]byte{[]byte(`{"type":"x"}`), []byte(`{"type":"y"}`)}, queued(b))
	assert.Empty(t, queued(outsider))
}

func TestHubUnregisterLeavesAllRooms(t *testing.T) {
	hub := startHub(t)
	a := newClient("a", nil, zap.NewNop())
	hub.Register(a)
	hub.Subscribe("room-1", a)
	hub.Subscribe("room-2", a)
	require.Equal(t, 1, hub.RoomSize("room-1"))

	hub.Unregister(a)

	assert.Eventually(t, func() bool { return isClosed(a) }, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.RoomSize("room-1"))
	assert.Zero(t, hub.RoomSize("room-2"))

	// A late join from a closed connection must not resurrect it.
	hub.Subscribe("room-1", a)
	assert.Zero(t, hub.RoomSize("room-1"))
}

func TestHubEvictsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := newClient("slow", nil, zap.NewNop())
	fast := newClient("fast", nil, zap.NewNop())
	joined(hub, "room", slow)
	joined(hub, "room", fast)

	for i := 0; i < sendBuffer; i++ {
		require.True(t, slow.enqueue([]byte("backlog")))
	}
	require.NoError(t, hub.Publish(context.Background(), "room", []byte("live"), "", 0))

	assert.True(t, isClosed(slow))
	assert.False(t, isClosed(fast))
	assert.Equal(t, 1, hub.RoomSize("room"))
	assert.Equal(t, [][]byte{[]byte("live")}, queued(fast))
}

func TestHubStopClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	hub := NewHub(zap.NewNop())
	go hub.Run()

	a := newClient("a", nil, zap.NewNop())
	hub.Register(a)
	hub.Subscribe("room", a)
	hub.Stop()

	assert.True(t, isClosed(a))
	assert.Error(t, a.ctx.Err())

	// Calls after Stop must not block.
	b := newClient("b", nil, zap.NewNop())
	hub.Register(b)
	assert.True(t, isClosed(b))
}

func TestRedisRegistryFansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	newInstance := func() (*Hub, *RedisRegistry) {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		hub := startHub(t)
		reg, err := NewRedisRegistry(ctx, hub, rdb, "test:room:", zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { reg.Close() })
		return hub, reg
	}
	_, regA := newInstance()
	_, regB := newInstance()

	alice := newClient("alice", nil, zap.NewNop())
	bob := newClient("bob", nil, zap.NewNop())
	regA.Register(alice)
	regB.Register(bob)
	joined(regA, "group-1", alice)
	joined(regB, "group-1", bob)

	b := NewBroadcaster(regA)
	require.NoError(t, b.Publish(ctx, "group-1", EventUserTyping, TypingPayload{GroupID: "group-1", UserID: "alice"}, "alice"))
	require.NoError(t, b.Publish(ctx, "group-1", EventNewMessage, map[string]string{"content": "hi"}, ""))

	var bobFrames [][]byte
	require.Eventually(t, func() bool {
		bobFrames = append(bobFrames, queued(bob)...)
		return len(bobFrames) == 2
	}, 2*time.Second, 10*time.Millisecond)

	var first Message
	require.NoError(t, json.Unmarshal(bobFrames[0], &first))
	assert.Equal(t, EventUserTyping, first.Type)

	var aliceFrames [][]byte
	require.Eventually(t, func() bool {
		aliceFrames = append(aliceFrames, queued(alice)...)
		return len(aliceFrames) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var only Message
	require.NoError(t, json.Unmarshal(aliceFrames[0], &only))
	assert.Equal(t, EventNewMessage, only.Type)
}

func TestHubHoldsFramesUntilJoinCompletes(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()
	a := newClient("a", nil, zap.NewNop())
	hub.Register(a)

	hub.Subscribe("room", a)
	require.NoError(t, hub.Publish(ctx, "room", []byte("typing"), "", 0))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m3"), "", 3))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m4"), "", 4))
	assert.Empty(t, queued(a))

	// m3 is already part of the backlog.
	hub.Ready("room", a, []byte("backlog"), 3)

	assert.Equal(t, [][]byte{[]byte("backlog"), []byte("typing"), []byte("m4")}, queued(a))

	require.NoError(t, hub.Publish(ctx, "room", []byte("m4"), "", 4))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m5"), "", 5))
	assert.Equal(t, [][]byte{[]byte("m5")}, queued(a))
}

func TestHubDeliversSequencedFramesInOrder(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()
	a := newClient("a", nil, zap.NewNop())
	b := newClient("b", nil, zap.NewNop())
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe("room", a)
	hub.Ready("room", a, nil, 1)

	require.NoError(t, hub.Publish(ctx, "room", []byte("m3"), "", 3))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m4"), "", 4))
	assert.Empty(t, queued(a))

	// A member joining behind a gap skips what its backlog already holds.
	hub.Subscribe("room", b)
	hub.Ready("room", b, []byte("backlog"), 3)
	assert.Equal(t, [][]byte{[]byte("backlog")}, queued(b))

	require.NoError(t, hub.Publish(ctx, "room", []byte("m2"), "", 2))
	assert.Equal(t, [][]byte{[]byte("m2"), []byte("m3"), []byte("m4")}, queued(a))
	assert.Equal(t, [][]byte{[]byte("m4")}, queued(b))
}

func TestHubSkipsFramesThatNeverArrive(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.reorderWindow = 50 * time.Millisecond
	go hub.Run()
	t.Cleanup(hub.Stop)
	ctx := context.Background()

	a := newClient("a", nil, zap.NewNop())
	hub.Register(a)
	joined(hub, "room", a)

	require.NoError(t, hub.Publish(ctx, "room", []byte("m2"), "", 2))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m3"), "", 3))

	var got [][]byte
	require.Eventually(t, func() bool {
		got = append(got, queued(a)...)
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, [][]byte{[]byte("m2"), []byte("m3")}, got)

	// The missing frame showing up late is not replayed out of order.
	require.NoError(t, hub.Publish(ctx, "room", []byte("m1"), "", 1))
	require.NoError(t, hub.Publish(ctx, "room", []byte("m4"), "", 4))
	assert.Equal(t, [][]byte{[]byte("m4")}, queued(a))
}

func TestHubLeaveDropsMembership(t *testing.T) {
	hub := startHub(t)
	a := newClient("a", nil, zap.NewNop())
	hub.Register(a)

	hub.Subscribe("room", a)
	require.Equal(t, 1, hub.RoomSize("room"))
	hub.Leave("room", a)
	assert.Zero(t, hub.RoomSize("room"))
	assert.False(t, isClosed(a))

	// Ready after Leave has nothing to finish.
	hub.Ready("room", a, []byte("backlog"), 0)
	assert.Empty(t, queued(a))
}

func TestRedisRegistryKeepsCommitOrderAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	newInstance := func() *RedisRegistry {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		reg, err := NewRedisRegistry(ctx, startHub(t), rdb, "test:room:", zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { reg.Close() })
		return reg
	}
	regA := newInstance()
	regB := newInstance()

	watcher := newClient("watcher", nil, zap.NewNop())
	regB.Register(watcher)
	joined(regB, "group-1", watcher)

	// Instance A commits seq 1 but its publish is slower than B's seq 2.
	require.NoError(t, regB.Publish(ctx, "group-1", []byte(`"second"`), "", 2))
	require.NoError(t, regA.Publish(ctx, "group-1", []byte(`"first"`), "", 1))

	var got [][]byte
	require.Eventually(t, func() bool {
		got = append(got, queued(watcher)...)
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, [][]byte{[]byte(`"first"`), []byte(`"second"`)}, got)
}
