package sink

import (
	"context"
	"log/slog"
	"roomhub/contract"
	"roomhub/domain/event"
)

var _ contract.EventSink = LogSink{}

// LogSink writes every diagnostic event as one structured log record.
// Failures are logged at warning level, the rest at debug.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log.With("sink", "diagnostics")}
}

func (s LogSink) Consume(ctx context.Context, e event.DomainEvent) error {
	level, attrs := describe(e)
	s.log.Log(ctx, level, string(e.Name()), append(attrs, "at", e.OccurredAt())...)
	return nil
}

func describe(e event.DomainEvent) (slog.Level, []any) {
	switch evt := e.(type) {
	case event.RoomCreated:
		return slog.LevelDebug, []any{"room", evt.Room}
	case event.RoomRemoved:
		return slog.LevelDebug, []any{"room", evt.Room}
	case event.MemberJoined:
		return slog.LevelDebug, []any{"room", evt.Room, "member", evt.Member}
	case event.MemberLeft:
		return slog.LevelDebug, []any{"room", evt.Room, "member", evt.Member}
	case event.JoinRejected:
		return slog.LevelWarn, []any{"room", evt.Room, "member", evt.Member, "error", evt.Reason}
	case event.MessagePosted:
		return slog.LevelDebug, []any{"room", evt.Room, "seq", evt.Seq, "kind", evt.Message.Kind, "recipients", evt.Recipients}
	case event.DeliveryFailed:
		return slog.LevelWarn, []any{"session", evt.SessionID, "member", evt.Member, "error", evt.Err}
	case event.CloseFailed:
		return slog.LevelWarn, []any{"session", evt.SessionID, "member", evt.Member, "error", evt.Err}
	case event.WorkerRestartedAfterPanic:
		return slog.LevelWarn, []any{"worker", evt.WorkerName}
	default:
		return slog.LevelDebug, nil
	}
}
