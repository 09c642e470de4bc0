// Package domain contains core concepts of the chat system.
// This file defines Message values and related rules.
// Messages are immutable once built by one of the constructors.
package domain

import (
	"encoding/json"
	"fmt"
	"roomhub/errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SystemSender is the reserved sender of room-generated messages.
const SystemSender = "SYSTEM"

type Kind string

const (
	KindPublic  Kind = "PUBLIC"
	KindPrivate Kind = "PRIVATE"
	KindSystem  Kind = "SYSTEM"
)

var validate = validator.New()

// Message represents an immutable chat event.
// To is only set for private messages.
type Message struct {
	ID        uuid.UUID `json:"id"`
	From      string    `json:"from" validate:"required"`
	To        string    `json:"to,omitempty" validate:"required_if=Kind PRIVATE"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind" validate:"oneof=PUBLIC PRIVATE SYSTEM"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPublicMessage(from, content string) Message {
	return newMessage(from, "", content, KindPublic)
}

func NewPrivateMessage(from, to, content string) Message {
	return newMessage(from, to, content, KindPrivate)
}

func NewSystemMessage(content string) Message {
	return newMessage(SystemSender, "", content, KindSystem)
}

func newMessage(from, to, content string, kind Kind) Message {
	return Message{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the recipient invariant: a message is private if and only if
// it names a recipient.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	if m.Kind != KindPrivate && m.To != "" {
		return fmt.Errorf("%w: %s message can't have a recipient", errors.ErrInvalidMessage, m.Kind)
	}
	return nil
}

func (m Message) IsPrivate() bool {
	return m.Kind == KindPrivate
}

// Payload is the notification body handed to endpoints.
func (m Message) Payload() ([]byte, error) {
	return json.Marshal(m)
}

func (m Message) String() string {
	switch m.Kind {
	case KindPrivate:
		return fmt.Sprintf("[%s] %s -> %s: %s", m.Kind, m.From, m.To, m.Content)
	case KindSystem:
		return fmt.Sprintf("[%s] %s", m.Kind, m.Content)
	default:
		return fmt.Sprintf("[%s] %s: %s", m.Kind, m.From, m.Content)
	}
}
