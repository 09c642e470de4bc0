package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/domain/event"
	"roomhub/errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const defaultSendTimeout = 5 * time.Second

var _ contract.Notifiable = (*Session)(nil)

// Session binds a stable identity to a replaceable delivery endpoint.
// It owns no room state and only forwards what rooms hand to it.
type Session struct {
	id          string
	displayName string
	endpoint    atomic.Pointer[endpointRef]
	log         *slog.Logger
	diagnostics contract.Diagnostics
	sendTimeout time.Duration
}

// endpointRef boxes the interface so it can live behind an atomic.Pointer.
type endpointRef struct {
	contract.Endpoint
}

type SessionOption func(*Session)

func WithSendTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		if timeout > 0 {
			s.sendTimeout = timeout
		}
	}
}

func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSessionDiagnostics(diagnostics contract.Diagnostics) SessionOption {
	return func(s *Session) {
		if diagnostics != nil {
			s.diagnostics = diagnostics
		}
	}
}

func NewSession(displayName string, endpoint contract.Endpoint, opts ...SessionOption) (*Session, error) {
	if err := domain.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if endpoint == nil {
		return nil, fmt.Errorf("session %q needs an endpoint", displayName)
	}
	s := &Session{
		id:          uuid.NewString(),
		displayName: displayName,
		log:         slog.Default(),
		diagnostics: NopDiagnostics{},
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id, "member", displayName)
	s.endpoint.Store(&endpointRef{endpoint})
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) DisplayName() string { return s.displayName }

// Notify forwards the payload to the bound endpoint.
// Failures end here: they are logged and reported, never returned.
func (s *Session) Notify(payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	if err := s.current().SendToTarget(ctx, s.id, payload); err != nil {
		s.log.Error("Failed to notify session", "error", err)
		s.diagnostics.Report(event.DeliveryFailed{
			SessionID: s.id,
			Member:    s.displayName,
			Err:       fmt.Errorf("%w: %w", errors.ErrDelivery, err),
			At:        time.Now().UTC(),
		})
	}
}

// Rebind swaps the delivery endpoint, identity is untouched.
func (s *Session) Rebind(endpoint contract.Endpoint) {
	if endpoint == nil {
		return
	}
	s.endpoint.Store(&endpointRef{endpoint})
	s.log.Debug("Session rebound to a new endpoint")
}

// Disconnect asks the endpoint to release its resources.
func (s *Session) Disconnect() {
	if err := s.current().CloseTarget(s.id); err != nil {
		s.log.Warn("Error closing endpoint", "error", err)
		s.diagnostics.Report(event.CloseFailed{
			SessionID: s.id,
			Member:    s.displayName,
			Err:       fmt.Errorf("%w: %w", errors.ErrClose, err),
			At:        time.Now().UTC(),
		})
	}
}

func (s *Session) current() contract.Endpoint {
	return s.endpoint.Load().Endpoint
}
