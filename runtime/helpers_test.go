package runtime

import (
	"log/slog"
	"roomhub/domain/event"
	"roomhub/runtime/workers"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
)

// recorder is a Notifiable that keeps what it receives.
type recorder struct {
	name        string
	mu          sync.Mutex
	payloads    [][]byte
	disconnects int
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) DisplayName() string { return r.name }

func (r *recorder) Notify(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
}

func (r *recorder) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects++
}

func (r *recorder) received() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *recorder) disconnected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnects
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = nil
}

// capturedEvents is a Diagnostics keeping every reported event.
type capturedEvents struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (c *capturedEvents) Report(e event.DomainEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *capturedEvents) ofType(t event.Type) []event.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []event.DomainEvent
	for _, e := range c.events {
		if e.Name() == t {
			res = append(res, e)
		}
	}
	return res
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func newTestRoom(t *testing.T) (*Room, *workers.Dispatcher, *capturedEvents) {
	t.Helper()
	log := testLogger()
	dispatcher := workers.NewDispatcher(log)
	diagnostics := &capturedEvents{}
	return NewRoom("Room123", log, dispatcher, diagnostics), dispatcher, diagnostics
}
