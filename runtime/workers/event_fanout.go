package workers

import (
	"context"
	"log/slog"
	"roomhub/contract"
	"roomhub/domain/event"
	"sync"
	"time"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts diagnostic events to every registered sink.
//
// It provides best-effort fan-out with no guarantees regarding ordering or
// retries. Each sink gets its own goroutine and sinkTimeout to consume an
// event, a slow sink never holds the others. When its context ends, Run
// hands over the events already queued and waits for the sinks before
// returning, so nothing is consumed after the worker stopped.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
	wg          sync.WaitGroup
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	defer w.wg.Wait()
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Diagnostics channel closed")
				return nil
			}
			w.Fanout(evt)
		case <-ctx.Done():
			drained := w.drain()
			w.log.Debug("Context done, stopping event fanout", "drained", drained)
			return nil
		}
	}
}

// drain fans out what is already queued without waiting for more.
func (w *EventFanout) drain() int {
	drained := 0
	for {
		select {
		case evt, ok := <-w.events:
			if !ok {
				return drained
			}
			w.Fanout(evt)
			drained++
		default:
			return drained
		}
	}
}

// Fanout One goroutine per sink for each event
func (w *EventFanout) Fanout(evt event.DomainEvent) {
	for _, sink := range w.sinks {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(ctx, evt); err != nil {
				w.log.Warn("Sink failed to consume event", "event", evt.Name(), "error", err)
			}
		}()
	}
}

// Wait blocks until every sink call started so far has returned.
func (w *EventFanout) Wait() {
	w.wg.Wait()
}
