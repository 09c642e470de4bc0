package workers

import (
	"context"
	"log/slog"
	"reflect"
	"roomhub/contract"
	"roomhub/projection"
	"time"
)

var _ contract.Worker = (*ReporterWorker)(nil)

type NamedChannel struct {
	Name    string
	Channel any
}

type ChannelLoad struct {
	Name     string
	Length   int
	Capacity int
}

// ReporterWorker periodically logs the engine load: buffered channels,
// notifications in flight and per-room counters.
// Reading len(channel) and cap(channel) is non-blocking, so this won't interfere
// with other goroutines.
type ReporterWorker struct {
	log      *slog.Logger
	interval time.Duration
	channels []NamedChannel
	inFlight func() int64
	stats    *projection.RoomStats
}

func NewReporterWorker(log *slog.Logger, interval time.Duration, channels []NamedChannel,
	inFlight func() int64, stats *projection.RoomStats) *ReporterWorker {
	return &ReporterWorker{log: log, interval: interval, channels: channels, inFlight: inFlight, stats: stats}
}

// Run reports every interval until context cancellation, then reports once more.
func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			w.log.Debug("Context done, reporter stopped")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() {
	for _, load := range w.ChannelLoads() {
		w.log.Info("Channel load", "name", load.Name, "length", load.Length, "capacity", load.Capacity)
	}
	if w.inFlight != nil {
		w.log.Info("Notifications in flight", "count", w.inFlight())
	}
	if w.stats == nil {
		return
	}
	for _, stat := range w.stats.Snapshot() {
		w.log.Info("Room activity", "room", stat.Room, "joins", stat.Joins, "rejected", stat.Rejected,
			"leaves", stat.Leaves, "notified", stat.Notified, "removed", stat.Removed)
	}
}

// ChannelLoads samples every named channel, skipping what isn't one.
func (w *ReporterWorker) ChannelLoads() []ChannelLoad {
	var loads []ChannelLoad
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		loads = append(loads, ChannelLoad{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()})
	}
	return loads
}
