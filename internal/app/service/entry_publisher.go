package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerRead/internal/app/model"
)

// EntryPublisher publishes entry events to NATS JetStream. The event name is
// used as the subject.
type EntryPublisher struct {
	js nats.JetStreamContext
}

// NewEntryPublisher creates a new entry event publisher.
func NewEntryPublisher(js nats.JetStreamContext) *EntryPublisher {
	return &EntryPublisher{js: js}
}

// Publish sends one event. The event id doubles as the JetStream message id so
// retried publishes are deduplicated by the server.
func (p *EntryPublisher) Publish(ctx context.Context, name string, entry *model.Entry) error {
	event := newEntryEvent(name, entry)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(name, data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}

func newEntryEvent(name string, entry *model.Entry) model.EntryEvent {
	return model.EntryEvent{
		ID:        uuid.New().String(),
		Name:      name,
		EntryID:   entry.ID,
		UserID:    entry.UserID,
		URL:       entry.URL,
		Title:     entry.Title,
		Timestamp: time.Now().UTC(),
	}
}
