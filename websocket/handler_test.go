package websocket_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CUknot/tasksphere_backend/chat"
	"github.com/CUknot/tasksphere_backend/database"
	"github.com/CUknot/tasksphere_backend/database/dbtest"
	"github.com/CUknot/tasksphere_backend/models"
	"github.com/CUknot/tasksphere_backend/websocket"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type server struct {
	url   string
	hub   *websocket.Hub
	group models.Group
	alice models.User
	bob   models.User
	store *database.GormGroupStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	store := database.NewGroupStore(db)
	alice := dbtest.CreateUser(t, db, "alice")
	bob := dbtest.CreateUser(t, db, "bob")
	group := dbtest.CreateGroup(t, db, "Apollo Group", alice, bob)

	hub := websocket.NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	svc := chat.NewService(store, nil, websocket.NewBroadcaster(hub), zap.NewNop())
	router := gin.New()
	router.GET("/ws", websocket.NewHandler(hub, svc, zap.NewNop()).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &server{
		url:   "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		hub:   hub,
		group: group,
		alice: alice,
		bob:   bob,
		store: store,
	}
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorilla.Conn, event string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": event, "payload": payload}))
}

func read(t *testing.T, conn *gorilla.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readError(t *testing.T, conn *gorilla.Conn) string {
	t.Helper()
	f := read(t, conn)
	require.Equal(t, websocket.EventError, f.Type)
	var msg string
	require.NoError(t, json.Unmarshal(f.Payload, &msg))
	return msg
}

func join(t *testing.T, conn *gorilla.Conn, groupID string) []models.Message {
	t.Helper()
	send(t, conn, websocket.EventJoinGroup, groupID)
	f := read(t, conn)
	require.Equal(t, websocket.EventExistingMessages, f.Type)
	var backlog []models.Message
	require.NoError(t, json.Unmarshal(f.Payload, &backlog))
	return backlog
}

func TestChatRoundTrip(t *testing.T) {
	s := newServer(t)
	alice := dial(t, s.url)
	bob := dial(t, s.url)

	assert.Empty(t, join(t, alice, s.group.ID))
	assert.Empty(t, join(t, bob, s.group.ID))

	send(t, alice, websocket.EventSendMessage, map[string]string{
		"groupId":  s.group.ID,
		"senderId": s.alice.ID,
		"content":  "hello bob",
	})

	for _, conn := range []*gorilla.Conn{alice, bob} {
		f := read(t, conn)
		require.Equal(t, websocket.EventNewMessage, f.Type)
		var msg chat.NewMessage
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		assert.Equal(t, "hello bob", msg.Content)
		assert.Equal(t, s.group.ID, msg.GroupID)
		assert.Equal(t, "alice", msg.Sender.Name)
	}

	late := dial(t, s.url)
	backlog := join(t, late, s.group.ID)
	require.Len(t, backlog, 1)
	assert.Equal(t, "hello bob", backlog[0].Content)
	assert.Equal(t, "alice@example.com", backlog[0].Sender.Email)
}

func TestTypingReachesOthersOnly(t *testing.T) {
	s := newServer(t)
	alice := dial(t, s.url)
	bob := dial(t, s.url)
	join(t, alice, s.group.ID)
	join(t, bob, s.group.ID)

	send(t, bob, websocket.EventTyping, map[string]string{"groupId": s.group.ID})
	f := read(t, alice)
	require.Equal(t, websocket.EventUserTyping, f.Type)
	var typing websocket.TypingPayload
	require.NoError(t, json.Unmarshal(f.Payload, &typing))
	assert.Equal(t, s.group.ID, typing.GroupID)
	assert.NotEmpty(t, typing.UserID)

	send(t, bob, websocket.EventStopTyping, map[string]string{"groupId": s.group.ID})
	f = read(t, alice)
	assert.Equal(t, websocket.EventUserStoppedTyping, f.Type)

	// Bob's next frame is the reply to his own bad request, not an echo of
	// his typing events.
	send(t, bob, websocket.EventTyping, map[string]string{"groupId": "nope"})
	assert.Equal(t, "Invalid group ID", readError(t, bob))
}

func TestInvalidEventsKeepConnectionUsable(t *testing.T) {
	s := newServer(t)
	conn := dial(t, s.url)

	send(t, conn, websocket.EventJoinGroup, "not-an-id")
	assert.Equal(t, "Invalid group ID", readError(t, conn))

	unknown := models.NewID()
	send(t, conn, websocket.EventJoinGroup, unknown)
	assert.Equal(t, "Group not found", readError(t, conn))
	assert.Zero(t, s.hub.RoomSize(unknown))

	send(t, conn, "leaveGroup", s.group.ID)
	assert.Equal(t, "Unknown event type", readError(t, conn))

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("{not json")))
	assert.Equal(t, "Invalid message format", readError(t, conn))

	join(t, conn, s.group.ID)

	send(t, conn, websocket.EventSendMessage, map[string]string{
		"groupId":  s.group.ID,
		"senderId": s.alice.ID,
		"content":  "   ",
	})
	assert.Equal(t, "Message content cannot be empty", readError(t, conn))

	send(t, conn, websocket.EventSendMessage, map[string]string{
		"groupId":  s.group.ID,
		"senderId": "bogus",
		"content":  "hi",
	})
	assert.Equal(t, "Invalid sender ID", readError(t, conn))

	send(t, conn, websocket.EventSendMessage, map[string]interface{}{
		"groupId":  s.group.ID,
		"senderId": s.alice.ID,
		"content":  "look",
		"attachment": map[string]string{
			"fileName":           "x.pdf",
			"cloudinaryUrl":      "https://cdn.example.com/x.pdf",
			"cloudinaryPublicId": "tasksphere/x",
		},
	})
	assert.Equal(t, "Attachment not found in group files", readError(t, conn))

	send(t, conn, websocket.EventSendMessage, map[string]string{
		"groupId":  s.group.ID,
		"senderId": s.alice.ID,
		"content":  "still here",
	})
	f := read(t, conn)
	assert.Equal(t, websocket.EventNewMessage, f.Type)

	backlog, err := s.store.Backlog(context.Background(), s.group.ID)
	require.NoError(t, err)
	assert.Len(t, backlog, 1)
}

type delayedPublisher struct {
	chat.Publisher
	delay time.Duration
}

func (d delayedPublisher) Publish(ctx context.Context, room, event string, payload interface{}, exceptConnID string) error {
	time.Sleep(d.delay)
	return d.Publisher.Publish(ctx, room, event, payload, exceptConnID)
}

func TestMessagesFromTwoInstancesArriveInStoredOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	ctx := context.Background()

	db := dbtest.Open(t)
	store := database.NewGroupStore(db)
	alice := dbtest.CreateUser(t, db, "alice")
	bob := dbtest.CreateUser(t, db, "bob")
	group := dbtest.CreateGroup(t, db, "Apollo Group", alice, bob)

	newInstance := func(publishDelay time.Duration) (*chat.Service, *websocket.RedisRegistry) {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		hub := websocket.NewHub(zap.NewNop())
		go hub.Run()
		t.Cleanup(hub.Stop)
		reg, err := websocket.NewRedisRegistry(ctx, hub, rdb, "test:room:", zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { reg.Close() })

		var pub chat.Publisher = websocket.NewBroadcaster(reg)
		if publishDelay > 0 {
			pub = delayedPublisher{Publisher: pub, delay: publishDelay}
		}
		return chat.NewService(store, nil, pub, zap.NewNop()), reg
	}
	slow, _ := newInstance(200 * time.Millisecond)
	fast, fastRooms := newInstance(0)

	router := gin.New()
	router.GET("/ws", websocket.NewHandler(fastRooms, fast, zap.NewNop()).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	assert.Empty(t, join(t, conn, group.ID))

	done := make(chan error, 1)
	go func() {
		_, err := slow.SendMessage(ctx, chat.SendMessageInput{GroupID: group.ID, SenderID: alice.ID, Content: "first"})
		done <- err
	}()
	require.Eventually(t, func() bool {
		backlog, err := store.Backlog(ctx, group.ID)
		return err == nil && len(backlog) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err := fast.SendMessage(ctx, chat.SendMessageInput{GroupID: group.ID, SenderID: bob.ID, Content: "second"})
	require.NoError(t, err)
	require.NoError(t, <-done)

	var got []string
	for i := 0; i < 2; i++ {
		f := read(t, conn)
		require.Equal(t, websocket.EventNewMessage, f.Type)
		var msg chat.NewMessage
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		got = append(got, msg.Content)
	}
	assert.Equal(t, []string{"first", "second"}, got)
}
