// Package endpoint provides in-process delivery endpoints.
package endpoint

import (
	"context"
	"roomhub/contract"
	"roomhub/errors"
	"sync"
)

var _ contract.Endpoint = (*ChannelEndpoint)(nil)

// ChannelEndpoint keeps one buffered inbox per target.
// Sending never blocks: a full inbox is reported as ErrEndpointFull.
type ChannelEndpoint struct {
	mu         sync.Mutex
	bufferSize int
	inboxes    map[string]chan []byte
	closed     map[string]bool
}

func NewChannelEndpoint(bufferSize int) *ChannelEndpoint {
	return &ChannelEndpoint{
		bufferSize: bufferSize,
		inboxes:    make(map[string]chan []byte),
		closed:     make(map[string]bool),
	}
}

// Inbox is where the owner of targetID reads its notifications.
// It is closed by CloseTarget.
func (c *ChannelEndpoint) Inbox(targetID string) <-chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inbox(targetID)
}

func (c *ChannelEndpoint) SendToTarget(ctx context.Context, targetID string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed[targetID] {
		return errors.ErrEndpointClosed
	}
	select {
	case c.inbox(targetID) <- payload:
		return nil
	default:
		return errors.ErrEndpointFull
	}
}

// CloseTarget closes the inbox of targetID, closing twice is harmless.
func (c *ChannelEndpoint) CloseTarget(targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed[targetID] {
		return nil
	}
	c.closed[targetID] = true
	close(c.inbox(targetID))
	return nil
}

func (c *ChannelEndpoint) IsClosed(targetID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed[targetID]
}

func (c *ChannelEndpoint) inbox(targetID string) chan []byte {
	inbox, ok := c.inboxes[targetID]
	if !ok {
		inbox = make(chan []byte, c.bufferSize)
		c.inboxes[targetID] = inbox
	}
	return inbox
}
