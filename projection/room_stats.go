// Package projection builds read models from observed diagnostic events.
// Does not emit events or touch rooms directly.
package projection

import (
	"cmp"
	"context"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/domain/event"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var _ contract.EventSink = (*RoomStats)(nil)

// RoomStat counts what happened in one room.
type RoomStat struct {
	Room     domain.RoomID
	Joins    int
	Rejected int
	Leaves   int
	Posted   map[domain.Kind]int
	Notified int
	Removed  bool
}

// RoomStats is a per-room counter projection, plus process-wide failure counts.
type RoomStats struct {
	mu               sync.Mutex
	rooms            map[domain.RoomID]*RoomStat
	deliveryFailures int
	closeFailures    int
}

func NewRoomStats() *RoomStats {
	return &RoomStats{rooms: make(map[domain.RoomID]*RoomStat)}
}

func (p *RoomStats) Consume(_ context.Context, e event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch evt := e.(type) {
	case event.RoomCreated:
		p.room(evt.Room).Removed = false
	case event.RoomRemoved:
		p.room(evt.Room).Removed = true
	case event.MemberJoined:
		p.room(evt.Room).Joins++
	case event.JoinRejected:
		p.room(evt.Room).Rejected++
	case event.MemberLeft:
		p.room(evt.Room).Leaves++
	case event.MessagePosted:
		stat := p.room(evt.Room)
		stat.Posted[evt.Message.Kind]++
		stat.Notified += evt.Recipients
	case event.DeliveryFailed:
		p.deliveryFailures++
	case event.CloseFailed:
		p.closeFailures++
	}
	return nil
}

func (p *RoomStats) room(id domain.RoomID) *RoomStat {
	stat, ok := p.rooms[id]
	if !ok {
		stat = &RoomStat{Room: id, Posted: make(map[domain.Kind]int)}
		p.rooms[id] = stat
	}
	return stat
}

// Snapshot copies the counters, sorted by room.
func (p *RoomStats) Snapshot() []RoomStat {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := lo.Map(lo.Values(p.rooms), func(s *RoomStat, _ int) RoomStat {
		c := *s
		c.Posted = lo.Assign(s.Posted)
		return c
	})
	slices.SortFunc(stats, func(a, b RoomStat) int { return cmp.Compare(a.Room, b.Room) })
	return stats
}

func (p *RoomStats) Failures() (delivery, closing int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deliveryFailures, p.closeFailures
}
