package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/wire"
)

const subscriberBuffer = 16

// Subscription is one live push-channel observer of a room. C is closed when
// the broker drops the subscriber.
type Subscription struct {
	ID   string
	Room string
	C    <-chan []byte

	ch chan []byte
}

// Broker is an in-process pub/sub of room snapshots, keyed by room code. It
// implements rooms.Publisher: every snapshot is encoded once and the same
// bytes go to every subscriber of the room.
type Broker struct {
	labels wire.LabelResolver
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[string]*Subscription
}

func NewBroker(labels wire.LabelResolver, logger *slog.Logger) *Broker {
	return &Broker{
		labels: labels,
		logger: logger,
		subs:   make(map[string]map[string]*Subscription),
	}
}

// Subscribe registers a new observer of the room. It never blocks on other
// subscribers.
func (b *Broker) Subscribe(code string) *Subscription {
	ch := make(chan []byte, subscriberBuffer)
	sub := &Subscription{ID: uuid.NewString(), Room: code, C: ch, ch: ch}

	b.mu.Lock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[string]*Subscription)
	}
	b.subs[code][sub.ID] = sub
	n := len(b.subs[code])
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "room", code, "subscriber", sub.ID, "subscribers", n)
	return sub
}

// Unsubscribe removes the observer. Calling it after the broker already
// dropped the subscriber is a no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	removed := b.remove(sub)
	b.mu.Unlock()

	if removed {
		b.logger.Debug("subscriber removed", "room", sub.Room, "subscriber", sub.ID)
	}
}

// Publish pushes an update event to every subscriber of the snapshot's room.
// A subscriber whose buffer is full is dropped; it resyncs from the full
// snapshot it receives on reconnect.
func (b *Broker) Publish(snap rooms.Snapshot) {
	data, err := json.Marshal(wire.Update(wire.FromSnapshot(snap, b.labels)))
	if err != nil {
		b.logger.Error("encoding snapshot", "room", snap.Code, "error", err)
		return
	}

	b.mu.RLock()
	var slow []*Subscription
	for _, sub := range b.subs[snap.Code] {
		select {
		case sub.ch <- data:
		default:
			slow = append(slow, sub)
		}
	}
	b.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	b.mu.Lock()
	for _, sub := range slow {
		if b.remove(sub) {
			b.logger.Info("slow subscriber pruned", "room", sub.Room, "subscriber", sub.ID)
		}
	}
	b.mu.Unlock()
}

// CloseRoom drops every subscriber of a room that no longer exists.
func (b *Broker) CloseRoom(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[code] {
		b.remove(sub)
	}
}

// Subscribers returns the number of live subscribers of a room.
func (b *Broker) Subscribers(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[code])
}

// remove must be called with b.mu held. The subscriber's channel is closed
// exactly once, by whoever takes it out of the map.
func (b *Broker) remove(sub *Subscription) bool {
	room := b.subs[sub.Room]
	if _, ok := room[sub.ID]; !ok {
		return false
	}
	delete(room, sub.ID)
	if len(room) == 0 {
		delete(b.subs, sub.Room)
	}
	close(sub.ch)
	return true
}
