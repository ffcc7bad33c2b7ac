package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayFrame is what travels through a redis room channel.
type relayFrame struct {
	ExceptID string          `json:"exceptId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Frame    json.RawMessage `json:"frame"`
}

// RedisRegistry shares rooms between server instances. Connections stay in
// the local Hub; every publish goes through redis and each instance delivers
// it to its own members of the room. Instances publish in whatever order
// their requests finish, so the frame's seq travels along and each Hub puts
// the room's messages back in history order.
type RedisRegistry struct {
	hub    *Hub
	rdb    *redis.Client
	prefix string
	sub    *redis.PubSub
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewRedisRegistry subscribes to all room channels under prefix.
func NewRedisRegistry(ctx context.Context, hub *Hub, rdb *redis.Client, prefix string, log *zap.Logger) (*RedisRegistry, error) {
	sub := rdb.PSubscribe(ctx, prefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to room channels: %w", err)
	}

	r := &RedisRegistry{
		hub:    hub,
		rdb:    rdb,
		prefix: prefix,
		sub:    sub,
		log:    log.Named("redis_registry"),
	}
	r.wg.Add(1)
	go r.relay(sub.Channel())
	return r, nil
}

func (r *RedisRegistry) Register(c *Client) { r.hub.Register(c) }

func (r *RedisRegistry) Unregister(c *Client) { r.hub.Unregister(c) }

func (r *RedisRegistry) Subscribe(room string, c *Client) { r.hub.Subscribe(room, c) }

func (r *RedisRegistry) Ready(room string, c *Client, backlog []byte, lastSeq int64) {
	r.hub.Ready(room, c, backlog, lastSeq)
}

func (r *RedisRegistry) Leave(room string, c *Client) { r.hub.Leave(room, c) }

// Publish hands the frame to redis; local members receive it on the way
// back like everybody else.
func (r *RedisRegistry) Publish(ctx context.Context, room string, frame []byte, exceptID string, seq int64) error {
	data, err := json.Marshal(relayFrame{ExceptID: exceptID, Seq: seq, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode relay frame: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.prefix+room, data).Err(); err != nil {
		return fmt.Errorf("publish to room %s: %w", room, err)
	}
	return nil
}

// Close stops relaying. The hub and the redis client are left to the caller.
func (r *RedisRegistry) Close() error {
	err := r.sub.Close()
	r.wg.Wait()
	return err
}

func (r *RedisRegistry) relay(ch <-chan *redis.Message) {
	defer r.wg.Done()
	for msg := range ch {
		room := strings.TrimPrefix(msg.Channel, r.prefix)
		var f relayFrame
		if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
			r.log.Warn("dropping malformed relay frame", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		_ = r.hub.Publish(context.Background(), room, f.Frame, f.ExceptID, f.Seq)
	}
}
