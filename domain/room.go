package domain

import "fmt"

type RoomID string

func (id RoomID) String() string {
	return string(id)
}

// JoinedContent and LeftContent are the bodies of the system messages
// announcing membership changes.
func JoinedContent(displayName string) string {
	return fmt.Sprintf("%s joined the room", displayName)
}

func LeftContent(displayName string) string {
	return fmt.Sprintf("%s left the room", displayName)
}
