//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"roomhub/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Endpoint is the transport-side delivery capability bound to a session.
// The engine never looks inside payloads nor at how they travel.
type Endpoint interface {
	SendToTarget(ctx context.Context, targetID string, payload []byte) error
	CloseTarget(targetID string) error
}

// Notifiable is what a room keeps for each member.
// Notify and Disconnect must swallow their own failures.
type Notifiable interface {
	DisplayName() string
	Notify(payload []byte)
	Disconnect()
}

// Dispatcher runs notification tasks without the caller waiting on them.
type Dispatcher interface {
	Go(task func())
}

// Diagnostics receives operational events. Report must never block.
type Diagnostics interface {
	Report(e event.DomainEvent)
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}
