package runtime

import (
	"log/slog"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/domain/event"
	"roomhub/errors"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry owns the lifecycle of every room of the process.
// It is created by the entry point and handed to whoever needs rooms,
// there is no package-level instance.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[domain.RoomID]*Room
	log         *slog.Logger
	dispatcher  contract.Dispatcher
	diagnostics contract.Diagnostics
}

func NewRegistry(log *slog.Logger, dispatcher contract.Dispatcher, diagnostics contract.Diagnostics) *Registry {
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	return &Registry{
		rooms:       make(map[domain.RoomID]*Room),
		log:         log,
		dispatcher:  dispatcher,
		diagnostics: diagnostics,
	}
}

// GetOrCreate returns the room for roomID, creating it on first use.
// Concurrent callers always observe the same instance.
func (r *Registry) GetOrCreate(roomID domain.RoomID) *Room {
	if room, ok := r.Get(roomID); ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok {
		return room
	}
	room := NewRoom(roomID, r.log, r.dispatcher, r.diagnostics)
	r.rooms[roomID] = room
	r.log.Info("Creating room", "room", roomID)
	r.diagnostics.Report(event.RoomCreated{Room: roomID, At: time.Now().UTC()})
	return room
}

func (r *Registry) Get(roomID domain.RoomID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// Remove forgets the room and shuts it down. It reports whether the room existed.
func (r *Registry) Remove(roomID domain.RoomID) bool {
	r.mu.Lock()
	room, ok := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()

	if !ok {
		r.log.Debug("Remove ignored", "room", roomID, "error", errors.ErrUnknownRoom)
		return false
	}
	room.Shutdown()
	r.log.Info("Removed room", "room", roomID)
	r.diagnostics.Report(event.RoomRemoved{Room: roomID, At: time.Now().UTC()})
	return true
}

func (r *Registry) Exists(roomID domain.RoomID) bool {
	_, ok := r.Get(roomID)
	return ok
}

// RoomIDs lists the current rooms, sorted.
func (r *Registry) RoomIDs() []domain.RoomID {
	r.mu.RLock()
	ids := lo.Keys(r.rooms)
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Shutdown removes every room. Used when the process stops.
func (r *Registry) Shutdown() {
	for _, id := range r.RoomIDs() {
		r.Remove(id)
	}
}
