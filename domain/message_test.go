package domain

import (
	"encoding/json"
	"roomhub/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_Constructors_Set_Kind_And_Recipient(t *testing.T) {
	req := require.New(t)

	public := NewPublicMessage("Alice", "Hello, everyone!")
	private := NewPrivateMessage("Alice", "Bob", "Hi Bob")
	system := NewSystemMessage(JoinedContent("Alice"))

	req.Equal(KindPublic, public.Kind)
	req.Empty(public.To)
	req.False(public.IsPrivate())

	req.Equal(KindPrivate, private.Kind)
	req.Equal("Bob", private.To)
	req.True(private.IsPrivate())

	req.Equal(KindSystem, system.Kind)
	req.Equal(SystemSender, system.From)
	req.Equal("Alice joined the room", system.Content)

	req.NotEqual(public.ID, private.ID)
	for _, msg := range []Message{public, private, system} {
		req.NoError(msg.Validate())
		req.False(msg.CreatedAt.IsZero())
	}
}

func TestMessage_Validate_Recipient_Only_On_Private(t *testing.T) {
	req := require.New(t)

	// Given a private message without recipient
	noRecipient := NewPrivateMessage("Alice", "", "Hi")
	// Given a public message carrying a recipient
	withRecipient := NewPublicMessage("Alice", "Hi")
	withRecipient.To = "Bob"
	// Given a message without sender
	noSender := NewPublicMessage("", "Hi")
	// Given an unknown kind
	unknownKind := NewPublicMessage("Alice", "Hi")
	unknownKind.Kind = "SHOUT"

	for _, msg := range []Message{noRecipient, withRecipient, noSender, unknownKind} {
		req.ErrorIs(msg.Validate(), errors.ErrInvalidMessage, msg.String())
	}
}

func TestMessage_Payload_Is_Json(t *testing.T) {
	req := require.New(t)
	msg := NewPrivateMessage("Alice", "Bob", "Hi Bob")

	payload, err := msg.Payload()
	req.NoError(err)

	var decoded map[string]any
	req.NoError(json.Unmarshal(payload, &decoded))
	req.Equal("Alice", decoded["from"])
	req.Equal("Bob", decoded["to"])
	req.Equal("PRIVATE", decoded["kind"])
	req.Equal(msg.ID.String(), decoded["id"])

	payload, err = NewPublicMessage("Alice", "Hello").Payload()
	req.NoError(err)
	req.NotContains(string(payload), `"to"`)
}

func TestMessage_String(t *testing.T) {
	req := require.New(t)
	req.Equal("[PUBLIC] Alice: Hello", NewPublicMessage("Alice", "Hello").String())
	req.Equal("[PRIVATE] Alice -> Bob: Hi", NewPrivateMessage("Alice", "Bob", "Hi").String())
	req.Equal("[SYSTEM] Bob left the room", NewSystemMessage(LeftContent("Bob")).String())
}

func TestValidateDisplayName(t *testing.T) {
	req := require.New(t)

	for _, name := range []string{"Alice", "Jean-Luc", "李", strings.Repeat("x", MaxDisplayNameLength)} {
		req.NoError(ValidateDisplayName(name), name)
	}
	for _, name := range []string{"", "  ", " Alice", "Alice\n", SystemSender, strings.Repeat("x", MaxDisplayNameLength+1)} {
		req.ErrorIs(ValidateDisplayName(name), errors.ErrInvalidDisplayName, name)
	}
}
