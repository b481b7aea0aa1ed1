// Package bus implements the per-room event fan-out registry (spec.md
// §4.3): a room-keyed set of bounded, non-blocking broadcast channels.
// Grounded on the teacher's match-loop serialization idea
// (_examples/LarryBui-ThirteenV4/Server/internal/ports/nakama/match_handler.go),
// replacing its fixed-tick poll with a channel-per-subscriber fan-out that
// gives the same single-writer guarantee without a tick granularity.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"bigtwo/internal/events"
)

// Capacity is the design value from spec.md §4.3: each subscriber's inbox
// holds up to 100 undelivered events before publishing to it starts
// dropping.
const Capacity = 100

// Bus is a per-process registry mapping room id to a set of subscriber
// channels. The zero value is not usable; construct with New.
type Bus struct {
	logger *log.Logger

	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu       sync.RWMutex
	subs     []chan events.Event
	overflow uint64
}

// New builds a Bus that logs subscriber overflow at warn level through
// logger (nil is permitted; overflow is then silently counted only).
func New(logger *log.Logger) *Bus {
	return &Bus{logger: logger, rooms: make(map[string]*room)}
}

func (b *Bus) getOrCreateRoom(roomID string) *room {
	b.mu.RLock()
	r, ok := b.rooms[roomID]
	b.mu.RUnlock()
	if ok {
		return r
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok = b.rooms[roomID]; ok {
		return r
	}
	r = &room{}
	b.rooms[roomID] = r
	return r
}

// Subscribe registers a new independent subscriber against roomID and
// returns its inbox. Events emitted before this call are never delivered
// on the returned channel — there is no replay (spec.md §4.3).
func (b *Bus) Subscribe(roomID string) <-chan events.Event {
	r := b.getOrCreateRoom(roomID)
	ch := make(chan events.Event, Capacity)

	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

// Publish delivers event to every subscriber currently registered for
// roomID, in the order Publish is called (FIFO per room). A subscriber
// whose inbox is full has this event dropped for it alone; every other
// subscriber still receives it (spec.md §4.3, error kind BusError/
// SubscriberOverflow in spec.md §7).
func (b *Bus) Publish(roomID string, event events.Event) {
	r := b.getOrCreateRoom(roomID)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
			atomic.AddUint64(&r.overflow, 1)
			if b.logger != nil {
				b.logger.Warn("bus subscriber overflow", "room", roomID, "kind", event.Kind)
			}
		}
	}
}

// DeleteRoom closes every subscriber channel for roomID and forgets the
// room. Outstanding receivers observe a closed channel and exit their
// loops (spec.md §4.3, §5 cancellation).
func (b *Bus) DeleteRoom(roomID string) {
	b.mu.Lock()
	r, ok := b.rooms[roomID]
	if ok {
		delete(b.rooms, roomID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		close(ch)
	}
}

// Overflow reports how many events have been dropped for roomID due to a
// full subscriber inbox, summed across all of that room's subscribers.
func (b *Bus) Overflow(roomID string) uint64 {
	b.mu.RLock()
	r, ok := b.rooms[roomID]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&r.overflow)
}
