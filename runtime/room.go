package runtime

import (
	"fmt"
	"log/slog"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/domain/event"
	"roomhub/errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// Room is the single source of truth for one channel: who is in it,
// what was said and who gets notified.
//
// Members and history each have their own lock and the two are never held
// together. Publishing appends under the history lock, then snapshots the
// members and hands one task per target to the dispatcher. Delivery is
// fire-and-forget: publishers never wait on it and one failing member can't
// affect the others.
type Room struct {
	id          domain.RoomID
	epoch       int64
	log         *slog.Logger
	dispatcher  contract.Dispatcher
	diagnostics contract.Diagnostics

	membersMu sync.RWMutex
	members   map[string]contract.Notifiable

	historyMu sync.RWMutex
	history   []domain.Message

	closed atomic.Bool
}

func NewRoom(id domain.RoomID, log *slog.Logger, dispatcher contract.Dispatcher, diagnostics contract.Diagnostics) *Room {
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	return &Room{
		id:          id,
		epoch:       nextEpoch(),
		log:         log.With("room", id),
		dispatcher:  dispatcher,
		diagnostics: diagnostics,
		members:     make(map[string]contract.Notifiable),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// Epoch is the creation time of this room instance in unix nanoseconds.
// A room recreated under the same id gets a later epoch.
func (r *Room) Epoch() int64 { return r.epoch }

var lastEpoch atomic.Int64

// nextEpoch is the current time in unix nanoseconds, forced to grow strictly
// within the process.
func nextEpoch() int64 {
	for {
		last := lastEpoch.Load()
		next := max(time.Now().UnixNano(), last+1)
		if lastEpoch.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Join adds the member under its display name unless the name is taken.
// A taken name is a normal outcome reported as false, not an error.
func (r *Room) Join(member contract.Notifiable) bool {
	name := member.DisplayName()

	r.membersMu.Lock()
	if r.closed.Load() {
		r.membersMu.Unlock()
		r.log.Debug("Join on a shut down room ignored", "member", name)
		return false
	}
	if _, taken := r.members[name]; taken {
		r.membersMu.Unlock()
		r.log.Warn("Attempt to join with duplicate display name", "member", name)
		r.diagnostics.Report(event.JoinRejected{
			Room:   r.id,
			Member: name,
			Reason: fmt.Errorf("%w: %q", errors.ErrDuplicateMember, name),
			At:     time.Now().UTC(),
		})
		return false
	}
	r.members[name] = member
	r.membersMu.Unlock()

	r.log.Info("Member joined", "member", name)
	r.diagnostics.Report(event.MemberJoined{Room: r.id, Member: name, At: time.Now().UTC()})
	r.broadcastSystem(domain.JoinedContent(name))
	return true
}

// Leave removes the member, disconnects it and announces the departure.
// Unknown names are ignored.
func (r *Room) Leave(displayName string) {
	r.leave(displayName, nil)
}

// Detach is Leave restricted to this very member: if the name now belongs
// to someone else, nothing happens.
func (r *Room) Detach(member contract.Notifiable) {
	r.leave(member.DisplayName(), member)
}

func (r *Room) leave(displayName string, expected contract.Notifiable) {
	r.membersMu.Lock()
	member, ok := r.members[displayName]
	if !ok || (expected != nil && member != expected) {
		r.membersMu.Unlock()
		r.log.Debug("Leave ignored", "member", displayName, "error", errors.ErrUnknownMember)
		return
	}
	delete(r.members, displayName)
	r.membersMu.Unlock()

	member.Disconnect()
	r.log.Info("Member left", "member", displayName)
	r.diagnostics.Report(event.MemberLeft{Room: r.id, Member: displayName, At: time.Now().UTC()})
	r.broadcastSystem(domain.LeftContent(displayName))
}

// Closed reports whether Shutdown was called.
func (r *Room) Closed() bool {
	return r.closed.Load()
}

// ActiveUsers is a sorted snapshot of the member names at call time.
func (r *Room) ActiveUsers() []string {
	r.membersMu.RLock()
	names := lo.Keys(r.members)
	r.membersMu.RUnlock()

	slices.Sort(names)
	return names
}

func (r *Room) MemberCount() int {
	r.membersMu.RLock()
	defer r.membersMu.RUnlock()
	return len(r.members)
}

// History returns at most maxMessages of the latest messages, oldest first.
func (r *Room) History(maxMessages int) []domain.Message {
	if maxMessages <= 0 {
		return []domain.Message{}
	}
	r.historyMu.RLock()
	defer r.historyMu.RUnlock()

	from := max(0, len(r.history)-maxMessages)
	return slices.Clone(r.history[from:])
}

// PublishPublicMessage records the message and notifies every member.
// An invalid message is logged and dropped.
func (r *Room) PublishPublicMessage(from, content string) {
	_ = r.publish(domain.NewPublicMessage(from, content), r.everyone)
}

// PublishPrivateMessage records the message in the shared history but only
// notifies the recipient and the sender, each of them if still a member.
// A missing recipient or an invalid message is returned and nothing is recorded.
func (r *Room) PublishPrivateMessage(from, to, content string) error {
	if to == "" {
		return fmt.Errorf("%w: sent by %q", errors.ErrMissingRecipient, from)
	}
	return r.publish(domain.NewPrivateMessage(from, to, content), func() []contract.Notifiable {
		return r.lookup(to, from)
	})
}

// Shutdown disconnects every member and clears the membership.
// Only the first call does anything.
func (r *Room) Shutdown() {
	r.membersMu.Lock()
	if !r.closed.CompareAndSwap(false, true) {
		r.membersMu.Unlock()
		return
	}
	members := lo.Values(r.members)
	clear(r.members)
	r.membersMu.Unlock()

	for _, member := range members {
		member.Disconnect()
	}
	r.log.Info("Room shut down", "disconnected", len(members))
}

func (r *Room) broadcastSystem(content string) {
	_ = r.publish(domain.NewSystemMessage(content), r.everyone)
}

// publish returns validation and encoding failures. A shut down room
// ignores the message without error.
func (r *Room) publish(msg domain.Message, targets func() []contract.Notifiable) error {
	if r.closed.Load() {
		r.log.Debug("Publish on a shut down room ignored", "kind", msg.Kind, "from", msg.From)
		return nil
	}
	if err := msg.Validate(); err != nil {
		r.log.Warn("Message rejected", "error", err)
		return err
	}
	payload, err := msg.Payload()
	if err != nil {
		r.log.Error("Message can't be encoded", "id", msg.ID, "error", err)
		return err
	}

	r.historyMu.Lock()
	r.history = append(r.history, msg)
	seq := len(r.history)
	r.historyMu.Unlock()

	// Whoever joins after this snapshot misses this message.
	recipients := targets()
	for _, member := range recipients {
		r.dispatcher.Go(func() { member.Notify(payload) })
	}
	r.diagnostics.Report(event.MessagePosted{Room: r.id, Epoch: r.epoch, Seq: seq, Message: msg, Recipients: len(recipients)})
	return nil
}

func (r *Room) everyone() []contract.Notifiable {
	r.membersMu.RLock()
	defer r.membersMu.RUnlock()
	return lo.Values(r.members)
}

// lookup resolves the names still present, each at most once.
func (r *Room) lookup(names ...string) []contract.Notifiable {
	r.membersMu.RLock()
	defer r.membersMu.RUnlock()

	var found []contract.Notifiable
	for _, name := range lo.Uniq(names) {
		if member, ok := r.members[name]; ok {
			found = append(found, member)
		}
	}
	return found
}
