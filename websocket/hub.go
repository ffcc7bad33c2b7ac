package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// reorderWindow is how long a room holds sequenced frames behind a gap
// before it gives up on the missing ones.
const reorderWindow = time.Second

// Registry tracks which connections are in which rooms and delivers frames
// to them.
type Registry interface {
	Register(c *Client)
	// Unregister closes the client and drops it from every room.
	Unregister(c *Client)
	// Subscribe adds c to room. Frames published to the room are held for c
	// until Ready.
	Subscribe(room string, c *Client)
	// Ready queues backlog for c, then the held frames newer than lastSeq.
	Ready(room string, c *Client, backlog []byte, lastSeq int64)
	// Leave drops c from room.
	Leave(room string, c *Client)
	// Publish delivers frame to every client in room except exceptID. A
	// non-zero seq is the frame's position in the room's history, and such
	// frames reach clients in seq order.
	Publish(ctx context.Context, room string, frame []byte, exceptID string, seq int64) error
}

type outbound struct {
	frame    []byte
	exceptID string
	seq      int64
}

type member struct {
	joining bool
	held    []outbound

	// seen is the last seq the client already has from its backlog.
	seen int64
}

type room struct {
	name    string
	members map[*Client]*member

	// next is the seq expected next, zero until a member's backlog sets it.
	next    int64
	pending map[int64]outbound
	timer   *time.Timer

	// timerGen tells a firing timer whether it is still the current one.
	timerGen int
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	mu sync.Mutex

	// Registered clients
	clients map[*Client]bool

	// Rooms by name
	rooms map[string]*room

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	reorderWindow time.Duration
	log           *zap.Logger
}

// NewHub creates a new hub instance
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		rooms:         make(map[string]*room),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		quit:          make(chan struct{}),
		stopped:       make(chan struct{}),
		reorderWindow: reorderWindow,
		log:           log.Named("hub"),
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Stop closes every client and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.stopped
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.close()
	}
}

// Unregister removes a client from the hub and all of its rooms.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
		c.close()
	}
}

// Subscribe adds a client to a room as joining. Closed clients are ignored.
func (h *Hub) Subscribe(name string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	h.clients[c] = true
	r, ok := h.rooms[name]
	if !ok {
		r = &room{
			name:    name,
			members: make(map[*Client]*member),
			pending: make(map[int64]outbound),
		}
		h.rooms[name] = r
	}
	r.members[c] = &member{joining: true}
	c.rooms[name] = true
}

// Ready finishes a join. The first member's backlog tells the room which seq
// comes next. A nil backlog queues nothing of its own.
func (h *Hub) Ready(name string, c *Client, backlog []byte, lastSeq int64) {
	h.mu.Lock()
	r := h.rooms[name]
	if r == nil || r.members[c] == nil || !r.members[c].joining {
		h.mu.Unlock()
		return
	}
	m := r.members[c]

	var slow []*Client
	if r.next == 0 {
		r.next = lastSeq + 1
		for seq := range r.pending {
			if seq < r.next {
				delete(r.pending, seq)
			}
		}
		slow = h.drain(r)
	}

	ok := backlog == nil || c.enqueue(backlog)
	for _, out := range m.held {
		if !ok {
			break
		}
		if out.seq != 0 && out.seq <= lastSeq {
			continue
		}
		ok = c.enqueue(out.frame)
	}
	m.joining, m.held, m.seen = false, nil, lastSeq
	if !ok {
		slow = append(slow, c)
	}
	h.mu.Unlock()

	h.evict(name, slow)
}

// Leave drops a client from one room.
func (h *Hub) Leave(name string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(name, c)
}

// Publish sends a frame to all clients in a room. Sequenced frames that
// arrive ahead of a gap wait for it up to the reorder window; frames behind
// the room's position are dropped. Clients whose buffer is full are evicted.
func (h *Hub) Publish(_ context.Context, name string, frame []byte, exceptID string, seq int64) error {
	h.mu.Lock()
	r := h.rooms[name]
	if r == nil {
		h.mu.Unlock()
		return nil
	}

	out := outbound{frame: frame, exceptID: exceptID, seq: seq}
	var slow []*Client
	switch {
	case seq == 0:
		slow = h.deliver(r, out)
	case r.next != 0 && seq < r.next:
		h.log.Debug("dropping stale frame", zap.String("room", name), zap.Int64("seq", seq), zap.Int64("next", r.next))
	default:
		r.pending[seq] = out
		slow = h.drain(r)
		if len(r.pending) > 0 && r.timer == nil {
			r.timerGen++
			gen := r.timerGen
			r.timer = time.AfterFunc(h.reorderWindow, func() { h.expire(r, gen) })
		}
	}
	h.mu.Unlock()

	h.evict(name, slow)
	return nil
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r := h.rooms[name]; r != nil {
		return len(r.members)
	}
	return 0
}

// drain delivers pending frames for as long as they follow on from r.next.
func (h *Hub) drain(r *room) []*Client {
	var slow []*Client
	for r.next != 0 {
		out, ok := r.pending[r.next]
		if !ok {
			break
		}
		delete(r.pending, r.next)
		r.next++
		slow = append(slow, h.deliver(r, out)...)
	}
	if len(r.pending) == 0 && r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	return slow
}

// expire flushes whatever is pending in seq order and moves the room past
// the frames that never came.
func (h *Hub) expire(r *room, gen int) {
	h.mu.Lock()
	if h.rooms[r.name] != r || r.timer == nil || r.timerGen != gen {
		h.mu.Unlock()
		return
	}
	r.timer = nil

	seqs := make([]int64, 0, len(r.pending))
	for seq := range r.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	var slow []*Client
	if len(seqs) > 0 {
		h.log.Warn("skipping missing frames",
			zap.String("room", r.name),
			zap.Int64("expected", r.next),
			zap.Int64("resume_at", seqs[0]))
	}
	for _, seq := range seqs {
		slow = append(slow, h.deliver(r, r.pending[seq])...)
		delete(r.pending, seq)
		r.next = seq + 1
	}
	h.mu.Unlock()

	h.evict(r.name, slow)
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(r *room, out outbound) []*Client {
	var slow []*Client
	for c, m := range r.members {
		if out.exceptID != "" && c.id == out.exceptID {
			continue
		}
		if m.joining {
			if len(m.held) >= sendBuffer {
				slow = append(slow, c)
				continue
			}
			m.held = append(m.held, out)
			continue
		}
		if out.seq != 0 && out.seq <= m.seen {
			continue
		}
		if !c.enqueue(out.frame) {
			slow = append(slow, c)
		}
	}
	return slow
}

func (h *Hub) evict(name string, slow []*Client) {
	for _, c := range slow {
		h.log.Warn("evicting slow client", zap.String("conn_id", c.id), zap.String("room", name))
		h.remove(c)
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		h.clients[c] = true
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
	for name := range c.rooms {
		h.leave(name, c)
	}
	c.close()
}

func (h *Hub) leave(name string, c *Client) {
	delete(c.rooms, name)
	r, ok := h.rooms[name]
	if !ok {
		return
	}
	delete(r.members, c)
	// Clean up empty rooms
	if len(r.members) == 0 {
		if r.timer != nil {
			r.timer.Stop()
		}
		delete(h.rooms, name)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
	}
	for _, r := range h.rooms {
		if r.timer != nil {
			r.timer.Stop()
		}
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]*room)
}
