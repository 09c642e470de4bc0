package endpoint

import (
	"context"
	"fmt"
	"io"
	"roomhub/contract"
	"sync"

	"github.com/gookit/color"
)

var _ contract.Endpoint = (*ConsoleEndpoint)(nil)

// ConsoleEndpoint prints every notification on a writer, prefixed by the
// transport label it pretends to be (WebSocket, HTTP...).
type ConsoleEndpoint struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	style color.Style
}

func NewConsoleEndpoint(w io.Writer, label string, style color.Style) *ConsoleEndpoint {
	return &ConsoleEndpoint{w: w, label: label, style: style}
}

func (c *ConsoleEndpoint) SendToTarget(_ context.Context, targetID string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", c.style.Render(fmt.Sprintf("[%s -> %s]", c.label, targetID)), payload)
	return err
}

func (c *ConsoleEndpoint) CloseTarget(targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s\n", c.style.Render(fmt.Sprintf("[%s] closing %s", c.label, targetID)))
	return err
}
