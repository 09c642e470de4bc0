//go:generate go run go.uber.org/mock/mockgen -source=transcript.go -destination=../mocks/mock_transcript_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"roomhub/domain"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

type ITranscriptRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room domain.RoomID, limit int) ([]DiskMessage, error)
}

// TranscriptRepository keeps an audit copy of every message posted in a room.
// Rooms never read it back, it only serves inspection.
type TranscriptRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger) TranscriptRepository {
	return TranscriptRepository{db: db, log: log}
}

// DiskMessage is the stored form of a message, Seq being its position
// in the history of the room instance identified by Epoch.
type DiskMessage struct {
	ID      uuid.UUID
	Room    domain.RoomID
	Epoch   int64
	Seq     int
	From    string
	To      string
	Content string
	Kind    domain.Kind
	At      time.Time
}

type cborMessage struct {
	ID      string `cbor:"1,keyasint"`
	Room    string `cbor:"2,keyasint"`
	Seq     int    `cbor:"3,keyasint"`
	From    string `cbor:"4,keyasint"`
	To      string `cbor:"5,keyasint,omitempty"`
	Content string `cbor:"6,keyasint"`
	Kind    string `cbor:"7,keyasint"`
	At      int64  `cbor:"8,keyasint"`
	Epoch   int64  `cbor:"9,keyasint"`
}

// roomPrefix carries the length of the room id so that a room named "a"
// never matches the keys of a room named "a:b".
func roomPrefix(room domain.RoomID) string {
	return fmt.Sprintf("msg:%d:%s:", len(room), room)
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{len}:{room_id}:{epoch_padded}:{seq_padded}:{uuid}"
// so that a prefix scan returns the lifecycles of a room oldest first and each
// of them in history order (19-digit zero padding keeps the lexicographical
// order numeric).
func (t TranscriptRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("%s%019d:%019d:%s", roomPrefix(message.Room), message.Epoch, message.Seq, message.ID)
	bytes, err := cbor.Marshal(fromDiskMessage(message))
	if err != nil {
		return err
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns the newest limit messages of a room, oldest first.
// A limit <= 0 returns the whole transcript.
func (t TranscriptRepository) GetMessages(room domain.RoomID, limit int) ([]DiskMessage, error) {
	var diskMessages []DiskMessage
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix(room))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Walk backwards from the newest key of the room
		for it.Seek(append(slices.Clone(prefix), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(diskMessages) == limit {
				t.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var stored cborMessage
				if err := cbor.Unmarshal(value, &stored); err != nil {
					return err
				}
				message, err := toDiskMessage(stored)
				if err != nil {
					return err
				}
				diskMessages = append(diskMessages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(diskMessages)
	return diskMessages, nil
}

func fromDiskMessage(message DiskMessage) cborMessage {
	return cborMessage{
		ID:      message.ID.String(),
		Room:    string(message.Room),
		Epoch:   message.Epoch,
		Seq:     message.Seq,
		From:    message.From,
		To:      message.To,
		Content: message.Content,
		Kind:    string(message.Kind),
		At:      message.At.UnixNano(),
	}
}

func toDiskMessage(stored cborMessage) (DiskMessage, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:      parsedID,
		Room:    domain.RoomID(stored.Room),
		Epoch:   stored.Epoch,
		Seq:     stored.Seq,
		From:    stored.From,
		To:      stored.To,
		Content: stored.Content,
		Kind:    domain.Kind(stored.Kind),
		At:      time.Unix(0, stored.At).UTC(),
	}, nil
}
