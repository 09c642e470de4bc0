package event

import (
	"time"
)

const (
	DeliveryFailedType      Type = "DELIVERY_FAILED"
	CloseFailedType         Type = "CLOSE_FAILED"
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
)

type DeliveryFailed struct {
	SessionID string
	Member    string
	Err       error
	At        time.Time
}

func (e DeliveryFailed) Name() Type            { return DeliveryFailedType }
func (e DeliveryFailed) OccurredAt() time.Time { return e.At }

type CloseFailed struct {
	SessionID string
	Member    string
	Err       error
	At        time.Time
}

func (e CloseFailed) Name() Type            { return CloseFailedType }
func (e CloseFailed) OccurredAt() time.Time { return e.At }

type WorkerRestartedAfterPanic struct {
	WorkerName string
	At         time.Time
}

func (e WorkerRestartedAfterPanic) Name() Type            { return RestartedAfterPanicType }
func (e WorkerRestartedAfterPanic) OccurredAt() time.Time { return e.At }
