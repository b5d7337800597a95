package chatgw

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	defaultRecentLimit = 500
	defaultBufferSize  = 256
)

type subscriber struct {
	ch        chan OutboundMessage
	channelID string
}

// Hub fans outbound messages out to websocket subscribers and keeps a short per-channel history for polling clients.
//
// Messages are assigned a strictly increasing sequence number; every subscriber sees them in that order. A subscriber
// whose buffer is full misses messages rather than stalling the dispatcher.
type Hub struct {
	RecentLimit int
	BufferSize  int

	lk          sync.Mutex
	seq         uint64
	recent      map[string][]OutboundMessage
	nextSubID   atomic.Uint64
	subscribers *xsync.MapOf[uint64, *subscriber]
}

func NewHub() *Hub {
	return &Hub{
		RecentLimit: defaultRecentLimit,
		BufferSize:  defaultBufferSize,
		recent:      make(map[string][]OutboundMessage),
		subscribers: xsync.NewMapOf[uint64, *subscriber](),
	}
}

// Publish appends text to channelID's outbox and returns the stored message.
func (h *Hub) Publish(channelID, text string) OutboundMessage {
	h.lk.Lock()
	defer h.lk.Unlock()

	h.seq++
	out := OutboundMessage{
		Seq:       h.seq,
		ChannelID: channelID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	limit := h.RecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	r := append(h.recent[channelID], out)
	if len(r) > limit {
		r = append([]OutboundMessage(nil), r[len(r)-limit:]...)
	}
	h.recent[channelID] = r

	// fan-out happens under the lock so that sequence order is delivery order
	h.subscribers.Range(func(id uint64, sub *subscriber) bool {
		if sub.channelID != "" && sub.channelID != channelID {
			return true
		}
		select {
		case sub.ch <- out:
		default:
			outboxDropped.Inc()
		}
		return true
	})
	outboxPublished.Inc()
	return out
}

// Since returns the retained messages for channelID with a sequence number greater than seq, oldest first.
func (h *Hub) Since(channelID string, seq uint64) []OutboundMessage {
	h.lk.Lock()
	defer h.lk.Unlock()
	var out []OutboundMessage
	for _, m := range h.recent[channelID] {
		if m.Seq > seq {
			out = append(out, m)
		}
	}
	return out
}

// Subscribe registers a subscriber for one channel, or every channel when channelID is empty. The returned cancel
// function must be called to release it.
func (h *Hub) Subscribe(channelID string) (<-chan OutboundMessage, func()) {
	size := h.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	id := h.nextSubID.Add(1)
	sub := &subscriber{
		ch:        make(chan OutboundMessage, size),
		channelID: channelID,
	}
	h.subscribers.Store(id, sub)
	outboxSubscribers.Inc()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.subscribers.Delete(id)
			outboxSubscribers.Dec()
		})
	}
}

func (h *Hub) SubscriberCount() int {
	return h.subscribers.Size()
}
