package runtime

import (
	"log/slog"
	"roomhub/contract"
	"roomhub/domain/event"
	"sync/atomic"
)

var (
	_ contract.Diagnostics = (*Diagnostics)(nil)
	_ contract.Diagnostics = NopDiagnostics{}
)

// Diagnostics buffers operational events for the fanout worker.
// Report never blocks: when the buffer is full the event is dropped and counted.
type Diagnostics struct {
	log     *slog.Logger
	events  chan event.DomainEvent
	dropped atomic.Int64
}

func NewDiagnostics(log *slog.Logger, bufferSize int) *Diagnostics {
	return &Diagnostics{log: log, events: make(chan event.DomainEvent, bufferSize)}
}

func (d *Diagnostics) Report(e event.DomainEvent) {
	select {
	case d.events <- e:
	default:
		d.dropped.Add(1)
		d.log.Debug("Diagnostics buffer full, event lost", "event", e.Name())
	}
}

// Events is the channel consumed by the fanout worker.
func (d *Diagnostics) Events() <-chan event.DomainEvent {
	return d.events
}

func (d *Diagnostics) Dropped() int64 {
	return d.dropped.Load()
}

type NopDiagnostics struct{}

func (NopDiagnostics) Report(event.DomainEvent) {}
