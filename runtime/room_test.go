package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"roomhub/domain"
	"roomhub/domain/event"
	"roomhub/errors"
	"roomhub/mocks"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRoom_Scenario_History(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)

	// Given Alice, Bob and Charlie joined
	for _, name := range []string{"Alice", "Bob", "Charlie"} {
		req.True(room.Join(newRecorder(name)))
	}
	req.Equal([]string{"Alice", "Bob", "Charlie"}, room.ActiveUsers())

	// When a public then a private message are published
	room.PublishPublicMessage("Alice", "Hello, everyone!")
	req.NoError(room.PublishPrivateMessage("Charlie", "Alice", "Hey Alice..."))
	dispatcher.Wait()

	// Then the history holds five entries in order
	history := room.History(50)
	req.Len(history, 5)
	req.Equal("Alice joined the room", history[0].Content)
	req.Equal("Bob joined the room", history[1].Content)
	req.Equal("Charlie joined the room", history[2].Content)
	for _, m := range history[:3] {
		req.Equal(domain.KindSystem, m.Kind)
		req.Equal(domain.SystemSender, m.From)
		req.Empty(m.To)
	}
	req.Equal(domain.KindPublic, history[3].Kind)
	req.Equal("Alice", history[3].From)
	req.Equal("Hello, everyone!", history[3].Content)
	req.Equal(domain.KindPrivate, history[4].Kind)
	req.Equal("Charlie", history[4].From)
	req.Equal("Alice", history[4].To)
	req.Equal("Hey Alice...", history[4].Content)
}

func TestRoom_Concurrent_Joins_With_Distinct_Names(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var accepted []string
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("user-%02d", i)
			if room.Join(newRecorder(name)) {
				mu.Lock()
				accepted = append(accepted, name)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	dispatcher.Wait()

	req.Len(accepted, 50)
	req.ElementsMatch(accepted, room.ActiveUsers())
	req.Equal(50, room.MemberCount())
	req.Len(room.History(100), 50)
}

func TestRoom_Concurrent_Joins_With_Same_Name(t *testing.T) {
	req := require.New(t)
	room, dispatcher, diagnostics := newTestRoom(t)

	var wg sync.WaitGroup
	results := make([]bool, 30)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = room.Join(newRecorder("Alice"))
		}()
	}
	wg.Wait()
	dispatcher.Wait()

	req.Equal(1, lo.Count(results, true))
	req.Equal([]string{"Alice"}, room.ActiveUsers())
	req.Len(diagnostics.ofType(event.JoinRejectedType), 29)
	rejected := diagnostics.ofType(event.JoinRejectedType)[0].(event.JoinRejected)
	req.ErrorIs(rejected.Reason, errors.ErrDuplicateMember)
}

func TestRoom_History_Window(t *testing.T) {
	req := require.New(t)
	room, _, _ := newTestRoom(t)
	for i := 0; i < 10; i++ {
		room.PublishPublicMessage("Alice", fmt.Sprintf("msg-%d", i))
	}

	last := room.History(3)
	req.Len(last, 3)
	req.Equal([]string{"msg-7", "msg-8", "msg-9"}, lo.Map(last, func(m domain.Message, _ int) string { return m.Content }))

	req.Len(room.History(100), 10)
	req.NotNil(room.History(0))
	req.Empty(room.History(0))
	req.Empty(room.History(-5))

	// The returned slice is a copy
	last[0].Content = "tampered"
	req.Equal("msg-7", room.History(3)[0].Content)
}

func TestRoom_Public_Message_Round_Trip(t *testing.T) {
	req := require.New(t)
	room, dispatcher, diagnostics := newTestRoom(t)
	alice := newRecorder("Alice")
	req.True(room.Join(alice))
	dispatcher.Wait()
	alice.reset()

	room.PublishPublicMessage("Alice", "Hello")
	dispatcher.Wait()

	last := room.History(1)[0]
	req.Equal("Alice", last.From)
	req.Equal("Hello", last.Content)
	req.Equal(domain.KindPublic, last.Kind)
	req.Empty(last.To)
	req.NoError(last.Validate())

	// And the member got the JSON payload of that very message
	req.Equal(1, alice.received())
	var delivered domain.Message
	req.NoError(json.Unmarshal(alice.payloads[0], &delivered))
	req.Equal(last.ID, delivered.ID)

	posted := diagnostics.ofType(event.MessagePostedType)
	req.Equal(2, posted[len(posted)-1].(event.MessagePosted).Seq)
	req.Equal(room.Epoch(), posted[len(posted)-1].(event.MessagePosted).Epoch)
}

func TestRoom_Private_Message_Isolation(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	alice, bob, charlie := newRecorder("A"), newRecorder("B"), newRecorder("C")
	for _, r := range []*recorder{alice, bob, charlie} {
		req.True(room.Join(r))
	}
	dispatcher.Wait()
	for _, r := range []*recorder{alice, bob, charlie} {
		r.reset()
	}

	req.NoError(room.PublishPrivateMessage("A", "B", "msg"))
	dispatcher.Wait()

	req.Equal(1, alice.received())
	req.Equal(1, bob.received())
	req.Equal(0, charlie.received())
	last := room.History(1)[0]
	req.Equal(domain.KindPrivate, last.Kind)
	req.Len(room.History(100), 4)
}

func TestRoom_Private_Message_When_Recipient_Left(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	alice, bob := newRecorder("Alice"), newRecorder("Bob")
	req.True(room.Join(alice))
	req.True(room.Join(bob))
	room.Leave("Bob")
	dispatcher.Wait()
	alice.reset()
	bob.reset()

	// When Alice writes to Bob who is gone
	req.NoError(room.PublishPrivateMessage("Alice", "Bob", "still there?"))
	dispatcher.Wait()

	// Then it is recorded, Alice gets her copy, Bob nothing
	req.Equal("still there?", room.History(1)[0].Content)
	req.Equal(1, alice.received())
	req.Equal(0, bob.received())
}

func TestRoom_Private_Message_To_Self_Is_Delivered_Once(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	alice := newRecorder("Alice")
	req.True(room.Join(alice))
	dispatcher.Wait()
	alice.reset()

	req.NoError(room.PublishPrivateMessage("Alice", "Alice", "note to self"))
	dispatcher.Wait()

	req.Equal(1, alice.received())
}

func TestRoom_Private_Message_Without_Recipient(t *testing.T) {
	req := require.New(t)
	room, _, _ := newTestRoom(t)

	err := room.PublishPrivateMessage("Alice", "", "lost")

	req.ErrorIs(err, errors.ErrMissingRecipient)
	req.Empty(room.History(10))
}

func TestRoom_Private_Message_Without_Sender(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	bob := newRecorder("Bob")
	req.True(room.Join(bob))
	dispatcher.Wait()
	bob.reset()

	// When the sender is empty
	err := room.PublishPrivateMessage("", "Bob", "who am I")
	dispatcher.Wait()

	// Then the caller is told and nothing is recorded nor delivered
	req.ErrorIs(err, errors.ErrInvalidMessage)
	req.Len(room.History(10), 1)
	req.Zero(bob.received())

	// And a public message from nobody is dropped the same way
	room.PublishPublicMessage("", "who am I")
	dispatcher.Wait()
	req.Len(room.History(10), 1)
	req.Zero(bob.received())
}

func TestRoom_Leave_Then_Publish(t *testing.T) {
	req := require.New(t)
	room, dispatcher, diagnostics := newTestRoom(t)
	alice, bob := newRecorder("Alice"), newRecorder("Bob")
	req.True(room.Join(alice))
	req.True(room.Join(bob))

	room.Leave("Bob")
	dispatcher.Wait()
	bob.reset()

	room.PublishPublicMessage("Alice", "Bye Bob")
	dispatcher.Wait()

	req.Equal(0, bob.received())
	req.Equal(1, bob.disconnected())
	req.Equal([]string{"Alice"}, room.ActiveUsers())
	req.True(lo.ContainsBy(room.History(50), func(m domain.Message) bool {
		return m.Kind == domain.KindSystem && m.Content == "Bob left the room"
	}))
	req.Len(diagnostics.ofType(event.MemberLeftType), 1)

	// Leaving twice or with an unknown name changes nothing
	room.Leave("Bob")
	room.Leave("Nobody")
	req.Equal(1, bob.disconnected())
	req.Len(room.History(50), 4)
}

func TestRoom_Detach_Ignores_A_Newer_Member(t *testing.T) {
	req := require.New(t)
	room, _, _ := newTestRoom(t)
	stale, fresh := newRecorder("Alice"), newRecorder("Alice")
	req.True(room.Join(stale))
	room.Leave("Alice")
	req.True(room.Join(fresh))

	// When the stale connection detaches late
	room.Detach(stale)

	// Then the fresh one stays
	req.Equal([]string{"Alice"}, room.ActiveUsers())
	req.Equal(0, fresh.disconnected())

	room.Detach(fresh)
	req.Empty(room.ActiveUsers())
	req.Equal(1, fresh.disconnected())
}

func TestRoom_Shutdown(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	alice, bob := newRecorder("Alice"), newRecorder("Bob")
	req.True(room.Join(alice))
	req.True(room.Join(bob))
	dispatcher.Wait()

	room.Shutdown()
	room.Shutdown()

	req.Empty(room.ActiveUsers())
	req.Equal(1, alice.disconnected())
	req.Equal(1, bob.disconnected())

	// A shut down room accepts nothing anymore
	req.False(room.Join(newRecorder("Charlie")))
	room.PublishPublicMessage("Alice", "anyone?")
	req.Len(room.History(50), 2)
}

func TestRoom_Delivery_Failure_Is_Contained(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	room, dispatcher, diagnostics := newTestRoom(t)
	broken := mocks.NewMockEndpoint(ctrl)

	// Given an endpoint failing every send
	broken.EXPECT().SendToTarget(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("broken pipe")).AnyTimes()
	failing, err := NewSession("Bob", broken, WithSessionLogger(testLogger()), WithSessionDiagnostics(diagnostics))
	req.NoError(err)
	alice := newRecorder("Alice")
	req.True(room.Join(failing))
	req.True(room.Join(alice))
	dispatcher.Wait()
	alice.reset()

	// When a message is published
	room.PublishPublicMessage("Alice", "Hello")
	dispatcher.Wait()

	// Then Alice still gets it and Bob stays a member
	req.Equal(1, alice.received())
	req.Equal([]string{"Alice", "Bob"}, room.ActiveUsers())
	failures := diagnostics.ofType(event.DeliveryFailedType)
	req.NotEmpty(failures)
	req.ErrorIs(failures[0].(event.DeliveryFailed).Err, errors.ErrDelivery)
}

// blockingMember holds every Notify until released.
type blockingMember struct {
	*recorder
	release chan struct{}
}

func (b blockingMember) Notify(payload []byte) {
	<-b.release
	b.recorder.Notify(payload)
}

func TestRoom_Publish_Does_Not_Wait_For_Delivery(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)
	slow := blockingMember{recorder: newRecorder("Slow"), release: make(chan struct{})}
	fast := newRecorder("Fast")
	req.True(room.Join(slow))
	req.True(room.Join(fast))

	done := make(chan struct{})
	go func() {
		room.PublishPublicMessage("Fast", "ping")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Publish blocked on a slow member")
	}
	req.Eventually(func() bool { return fast.received() == 2 }, time.Second, 5*time.Millisecond)
	req.Equal(0, slow.received())

	close(slow.release)
	dispatcher.Wait()
	req.Equal(3, slow.received())
}

func TestRoom_Concurrent_Publishes_Share_One_Order(t *testing.T) {
	req := require.New(t)
	room, dispatcher, _ := newTestRoom(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				room.PublishPublicMessage(fmt.Sprintf("user-%d", i), fmt.Sprintf("%d", j))
			}
		}()
	}
	wg.Wait()
	dispatcher.Wait()

	history := room.History(1000)
	req.Len(history, 200)
	req.Equal(history, room.History(1000))
	req.Len(lo.UniqBy(history, func(m domain.Message) string { return m.ID.String() }), 200)
}

func TestSession_Used_As_Member_Delivers_Through_Endpoint(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	room, dispatcher, _ := newTestRoom(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	session, err := NewSession("Alice", endpoint)
	req.NoError(err)

	received := make(chan []byte, 1)
	endpoint.EXPECT().SendToTarget(gomock.Any(), session.ID(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			received <- payload
			return nil
		}).Times(1)
	endpoint.EXPECT().CloseTarget(session.ID()).Return(nil).Times(1)

	req.True(room.Join(session))
	dispatcher.Wait()
	req.Contains(string(<-received), "Alice joined the room")

	room.Leave("Alice")
	dispatcher.Wait()
}
