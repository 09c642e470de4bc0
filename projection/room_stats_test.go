package projection

import (
	"context"
	"errors"
	"roomhub/domain"
	"roomhub/domain/event"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomStats_Consume(t *testing.T) {
	req := require.New(t)
	stats := NewRoomStats()
	ctx := context.Background()
	room := domain.RoomID("Room123")

	events := []event.DomainEvent{
		event.RoomCreated{Room: room},
		event.MemberJoined{Room: room, Member: "Alice"},
		event.MemberJoined{Room: room, Member: "Bob"},
		event.JoinRejected{Room: room, Member: "Bob"},
		event.MessagePosted{Room: room, Seq: 1, Message: domain.NewPublicMessage("Alice", "hi"), Recipients: 2},
		event.MessagePosted{Room: room, Seq: 2, Message: domain.NewPrivateMessage("Alice", "Bob", "psst"), Recipients: 2},
		event.MemberLeft{Room: room, Member: "Bob"},
		event.DeliveryFailed{Member: "Bob", Err: errors.New("broken pipe")},
		event.RoomCreated{Room: "other"},
		event.RoomRemoved{Room: "other"},
	}
	for _, e := range events {
		req.NoError(stats.Consume(ctx, e))
	}

	snapshot := stats.Snapshot()
	req.Len(snapshot, 2)
	req.Equal(domain.RoomID("Room123"), snapshot[0].Room)
	req.Equal(2, snapshot[0].Joins)
	req.Equal(1, snapshot[0].Rejected)
	req.Equal(1, snapshot[0].Leaves)
	req.Equal(1, snapshot[0].Posted[domain.KindPublic])
	req.Equal(1, snapshot[0].Posted[domain.KindPrivate])
	req.Equal(4, snapshot[0].Notified)
	req.True(snapshot[1].Removed)

	delivery, closing := stats.Failures()
	req.Equal(1, delivery)
	req.Equal(0, closing)
}

func TestRoomStats_Snapshot_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	stats := NewRoomStats()
	ctx := context.Background()
	msg := domain.NewPublicMessage("Alice", "hi")

	req.NoError(stats.Consume(ctx, event.MessagePosted{Room: "r", Message: msg}))
	snapshot := stats.Snapshot()
	req.NoError(stats.Consume(ctx, event.MessagePosted{Room: "r", Message: msg}))

	req.Equal(1, snapshot[0].Posted[domain.KindPublic])
	req.Equal(2, stats.Snapshot()[0].Posted[domain.KindPublic])
}
