package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/errors"
	"roomhub/runtime"
	"time"

	"github.com/gorilla/websocket"
)

// Inbound is what a client sends: no recipient means a public message.
type Inbound struct {
	To      string `json:"to,omitempty"`
	Content string `json:"content"`
}

type Config struct {
	MaxMessageSize int64
	SendBufferSize int
	SessionOptions []runtime.SessionOption
}

// Handler upgrades GET /ws?room=<id>&name=<displayName> and binds the
// connection to a session of that room for as long as it stays open.
type Handler struct {
	registry *runtime.Registry
	log      *slog.Logger
	config   Config
	upgrader websocket.Upgrader
}

func NewHandler(registry *runtime.Registry, log *slog.Logger, config Config) *Handler {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = 4096
	}
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	return &Handler{
		registry: registry,
		log:      log,
		config:   config,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}
	roomID := domain.RoomID(r.URL.Query().Get("room"))
	name := r.URL.Query().Get("name")
	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	if err := domain.ValidateDisplayName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.config.MaxMessageSize)

	log := h.log.With("room", roomID, "member", name, "addr", r.RemoteAddr)
	endpoint := NewEndpoint(conn, log, h.config.SendBufferSize)
	session, err := runtime.NewSession(name, endpoint, h.config.SessionOptions...)
	if err != nil {
		_ = conn.Close()
		log.Warn("Session refused", "error", err)
		return
	}
	go endpoint.WritePump()

	room, err := joinRoom(func() *runtime.Room { return h.registry.GetOrCreate(roomID) }, session)
	if err != nil {
		log.Info("Join refused", "error", err)
		endpoint.Reject(rejectReason(err, name, roomID))
		return
	}
	h.readPump(conn, room, session, log)
}

const joinAttempts = 3

// joinRoom joins the room returned by getRoom. A room shut down between the
// lookup and the join has left the registry, so the lookup is tried again.
func joinRoom(getRoom func() *runtime.Room, member contract.Notifiable) (*runtime.Room, error) {
	for range joinAttempts {
		room := getRoom()
		if room.Join(member) {
			return room, nil
		}
		if !room.Closed() {
			return nil, fmt.Errorf("%w: %q", errors.ErrDuplicateMember, member.DisplayName())
		}
	}
	return nil, errors.ErrRoomClosed
}

func rejectReason(err error, name string, roomID domain.RoomID) string {
	if err == errors.ErrRoomClosed {
		return fmt.Sprintf("%s is shutting down, try again", roomID)
	}
	return fmt.Sprintf("%s is already taken in %s", name, roomID)
}

// readPump publishes what the client sends until the connection ends,
// then takes the session out of the room.
func (h *Handler) readPump(conn *websocket.Conn, room *runtime.Room, session *runtime.Session, log *slog.Logger) {
	defer room.Detach(session)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("Connection lost", "error", err)
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Warn("Invalid message", "error", err)
			continue
		}
		if in.To == "" {
			room.PublishPublicMessage(session.DisplayName(), in.Content)
			continue
		}
		if err := room.PublishPrivateMessage(session.DisplayName(), in.To, in.Content); err != nil {
			log.Warn("Private message refused", "error", err)
		}
	}
}

// HealthHandler reports the number of live rooms.
func HealthHandler(registry *runtime.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "roomhub is running, %d rooms", len(registry.RoomIDs()))
	}
}

// SetupRoutes configures the ServeMux with the WebSocket and health routes.
func SetupRoutes(handler *Handler, registry *runtime.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	mux.HandleFunc("/health", HealthHandler(registry))
	return mux
}
