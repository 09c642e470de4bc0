package sink

import (
	"context"
	"roomhub/contract"
	"roomhub/domain/event"
	"roomhub/repositories"
)

var _ contract.EventSink = TranscriptSink{}

// TranscriptSink records posted messages, other events are ignored.
type TranscriptSink struct {
	repository repositories.ITranscriptRepository
}

func NewTranscriptSink(repository repositories.ITranscriptRepository) TranscriptSink {
	return TranscriptSink{repository: repository}
}

func (d TranscriptSink) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.repository.StoreMessage(toDiskMessage(evt))
}

func toDiskMessage(evt event.MessagePosted) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:      evt.Message.ID,
		Room:    evt.Room,
		Epoch:   evt.Epoch,
		Seq:     evt.Seq,
		From:    evt.Message.From,
		To:      evt.Message.To,
		Content: evt.Message.Content,
		Kind:    evt.Message.Kind,
		At:      evt.Message.CreatedAt,
	}
}
