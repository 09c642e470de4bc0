package event

import (
	"roomhub/domain"
	"time"
)

type Type string

const (
	RoomCreatedType   Type = "ROOM_CREATED"
	RoomRemovedType   Type = "ROOM_REMOVED"
	MemberJoinedType  Type = "MEMBER_JOINED"
	JoinRejectedType  Type = "JOIN_REJECTED"
	MemberLeftType    Type = "MEMBER_LEFT"
	MessagePostedType Type = "MESSAGE_POSTED"
)

// DomainEvent is an operational fact reported by the room engine.
// Events are informative only, nothing in the engine reads them back.
type DomainEvent interface {
	Name() Type
	OccurredAt() time.Time
}

type RoomCreated struct {
	Room domain.RoomID
	At   time.Time
}

func (e RoomCreated) Name() Type            { return RoomCreatedType }
func (e RoomCreated) OccurredAt() time.Time { return e.At }

type RoomRemoved struct {
	Room domain.RoomID
	At   time.Time
}

func (e RoomRemoved) Name() Type            { return RoomRemovedType }
func (e RoomRemoved) OccurredAt() time.Time { return e.At }

type MemberJoined struct {
	Room   domain.RoomID
	Member string
	At     time.Time
}

func (e MemberJoined) Name() Type            { return MemberJoinedType }
func (e MemberJoined) OccurredAt() time.Time { return e.At }

// JoinRejected is reported when the display name is already taken.
type JoinRejected struct {
	Room   domain.RoomID
	Member string
	Reason error
	At     time.Time
}

func (e JoinRejected) Name() Type            { return JoinRejectedType }
func (e JoinRejected) OccurredAt() time.Time { return e.At }

type MemberLeft struct {
	Room   domain.RoomID
	Member string
	At     time.Time
}

func (e MemberLeft) Name() Type            { return MemberLeftType }
func (e MemberLeft) OccurredAt() time.Time { return e.At }

// MessagePosted carries the message as appended to the room history,
// its 1-based position there and the number of notifications submitted for it.
// Epoch identifies the room lifecycle: positions restart when a room id is reused.
type MessagePosted struct {
	Room       domain.RoomID
	Epoch      int64
	Seq        int
	Message    domain.Message
	Recipients int
}

func (e MessagePosted) Name() Type            { return MessagePostedType }
func (e MessagePosted) OccurredAt() time.Time { return e.Message.CreatedAt }
