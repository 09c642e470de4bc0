package workers

import (
	"log/slog"
	"roomhub/contract"
	"sync"
	"sync/atomic"
)

var _ contract.Dispatcher = (*Dispatcher)(nil)

// Dispatcher launches one goroutine per notification task.
// It is unbounded and gives no completion guarantee to whoever submits:
// Go returns as soon as the goroutine is started.
// A panicking task is recovered and logged, other tasks are unaffected.
type Dispatcher struct {
	log      *slog.Logger
	wg       sync.WaitGroup
	inFlight atomic.Int64
	panics   atomic.Int64
}

func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

func (d *Dispatcher) Go(task func()) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.panics.Add(1)
				d.log.Error("Notification task panicked", "panic", r)
			}
			d.inFlight.Add(-1)
			d.wg.Done()
		}()
		task()
	}()
}

// Wait blocks until every task submitted so far has returned.
// Only process shutdown and tests use it, rooms never do.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

func (d *Dispatcher) Panics() int64 {
	return d.panics.Load()
}
