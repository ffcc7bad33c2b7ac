package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/CUknot/tasksphere_backend/chat"
	"github.com/CUknot/tasksphere_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// ChatService is what the realtime layer needs from the message service.
type ChatService interface {
	Join(ctx context.Context, groupID string, m chat.Membership) error
	SendMessage(ctx context.Context, in chat.SendMessageInput) (models.Message, error)
}

// Handler upgrades connections and dispatches their events.
type Handler struct {
	registry  Registry
	broadcast *Broadcaster
	chat      ChatService
	log       *zap.Logger
}

func NewHandler(registry Registry, svc ChatService, log *zap.Logger) *Handler {
	return &Handler{
		registry:  registry,
		broadcast: NewBroadcaster(registry),
		chat:      svc,
		log:       log.Named("ws"),
	}
}

// HandleConnection handles websocket connections
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("error upgrading connection", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, h.log)
	h.registry.Register(client)
	client.log.Info("client connected", zap.String("remote_addr", c.ClientIP()))

	go client.writePump()
	go client.readPump(h.dispatch, func() {
		h.registry.Unregister(client)
		client.log.Info("client disconnected")
	})
}

func (h *Handler) dispatch(c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch msg.Type {
	case EventJoinGroup:
		h.joinGroup(c, decodeGroupID(msg.Payload))
	case EventSendMessage:
		var in chat.SendMessageInput
		if err := json.Unmarshal(msg.Payload, &in); err != nil {
			c.sendError("Invalid message format")
			return
		}
		h.sendMessage(c, in)
	case EventTyping:
		h.typing(c, decodeGroupID(msg.Payload), EventUserTyping)
	case EventStopTyping:
		h.typing(c, decodeGroupID(msg.Payload), EventUserStoppedTyping)
	default:
		c.sendError("Unknown event type")
	}
}

func (h *Handler) joinGroup(c *Client, groupID string) {
	if err := h.chat.Join(c.ctx, groupID, &roomJoin{registry: h.registry, room: groupID, client: c}); err != nil {
		c.sendError(apperr.PublicMessage(err, "Error fetching group messages"))
		return
	}
	c.log.Debug("joined group", zap.String("group_id", groupID))
}

// roomJoin puts a connection into a group's room for chat.Service.Join.
type roomJoin struct {
	registry Registry
	room     string
	client   *Client
}

func (j *roomJoin) Subscribe() { j.registry.Subscribe(j.room, j.client) }

func (j *roomJoin) Deliver(backlog []models.Message) {
	frame, err := encodeFrame(EventExistingMessages, backlog)
	if err != nil {
		j.client.log.Error("failed to encode backlog", zap.String("group_id", j.room), zap.Error(err))
		j.registry.Leave(j.room, j.client)
		return
	}
	var lastSeq int64
	if n := len(backlog); n > 0 {
		lastSeq = backlog[n-1].Seq
	}
	j.registry.Ready(j.room, j.client, frame, lastSeq)
}

func (j *roomJoin) Abandon() { j.registry.Leave(j.room, j.client) }

func (h *Handler) sendMessage(c *Client, in chat.SendMessageInput) {
	if _, err := h.chat.SendMessage(c.ctx, in); err != nil {
		c.sendError(apperr.PublicMessage(err, "Error sending message"))
	}
}

func (h *Handler) typing(c *Client, groupID, event string) {
	if !models.ValidID(groupID) {
		c.sendError("Invalid group ID")
		return
	}
	payload := TypingPayload{GroupID: groupID, UserID: c.id}
	if err := h.broadcast.Publish(c.ctx, groupID, event, payload, c.id); err != nil {
		c.log.Warn("failed to publish typing state", zap.String("group_id", groupID), zap.Error(err))
	}
}
