package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrDuplicateMember    = fmt.Errorf("display name already taken in room")
	ErrUnknownRoom        = fmt.Errorf("room doesn't exist")
	ErrRoomClosed         = fmt.Errorf("room is shut down")
	ErrUnknownMember      = fmt.Errorf("member doesn't exist")
	ErrMissingRecipient   = fmt.Errorf("private message requires a recipient")
	ErrInvalidDisplayName = fmt.Errorf("invalid display name")
	ErrInvalidMessage     = fmt.Errorf("invalid message")

	ErrDelivery       = fmt.Errorf("delivery failed")
	ErrClose          = fmt.Errorf("endpoint close failed")
	ErrEndpointClosed = fmt.Errorf("endpoint is closed")
	ErrEndpointFull   = fmt.Errorf("endpoint buffer is full")
)
