package websocket

import (
	"context"
	"fmt"
)

// sequenced is implemented by payloads that hold a position in a room's
// history.
type sequenced interface {
	Sequence() int64
}

// Broadcaster encodes events into the {type, payload} envelope and publishes
// them through a Registry.
type Broadcaster struct {
	registry Registry
}

func NewBroadcaster(registry Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Publish sends event to room, skipping the connection exceptConnID.
func (b *Broadcaster) Publish(ctx context.Context, room, event string, payload interface{}, exceptConnID string) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	var seq int64
	if p, ok := payload.(sequenced); ok {
		seq = p.Sequence()
	}
	return b.registry.Publish(ctx, room, frame, exceptConnID, seq)
}
