package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"go.uber.org/zap"
)

const auditFetchBatch = 10

// EntryAuditConsumer stores every entry event from JetStream as an audit row.
type EntryAuditConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   repository.AuditRepository
}

// NewEntryAuditConsumer creates a new entry audit consumer.
func NewEntryAuditConsumer(js nats.JetStreamContext, logger *zap.Logger, repo repository.AuditRepository) *EntryAuditConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryAuditConsumer{js: js, logger: logger, repo: repo}
}

// EnsureStream creates the entry stream when it does not exist yet.
func EnsureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(model.EntryStreamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     model.EntryStreamName,
		Subjects: []string{model.EntryStreamSubjects},
		MaxBytes: model.EntryStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Start ensures the stream and durable consumer exist, then consumes until ctx is done.
func (c *EntryAuditConsumer) Start(ctx context.Context) error {
	if err := EnsureStream(c.js); err != nil {
		return err
	}

	if _, err := c.js.ConsumerInfo(model.EntryStreamName, model.EntryAuditConsumer); err != nil {
		_, err = c.js.AddConsumer(model.EntryStreamName, &nats.ConsumerConfig{
			Durable:       model.EntryAuditConsumer,
			AckPolicy:     nats.AckExplicitPolicy,
			FilterSubject: model.EntryStreamSubjects,
		})
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.EntryStreamSubjects, model.EntryAuditConsumer, nats.Bind(model.EntryStreamName, model.EntryAuditConsumer))
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go c.consume(ctx, sub)
	return nil
}

func (c *EntryAuditConsumer) consume(ctx context.Context, sub *nats.Subscription) {
	defer func() { _ = sub.Unsubscribe() }()
	for {
		if ctx.Err() != nil {
			c.logger.Info("entry audit consumer stopped")
			return
		}

		msgs, err := sub.Fetch(auditFetchBatch, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("failed to fetch entry events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.handle(ctx, msg.Data); err != nil {
				c.logger.Error("failed to store entry event", zap.String("subject", msg.Subject), zap.Error(err))
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}
}

func (c *EntryAuditConsumer) handle(ctx context.Context, data []byte) error {
	var event model.EntryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode entry event: %w", err)
	}
	if event.ID == "" || event.Name == "" {
		return fmt.Errorf("decode entry event: missing id or name")
	}

	audit := &model.EntryAudit{
		ID:         event.ID,
		Event:      event.Name,
		EntryID:    event.EntryID,
		UserID:     event.UserID,
		URL:        event.URL,
		Title:      event.Title,
		OccurredAt: event.Timestamp,
	}
	if err := c.repo.Create(ctx, audit); err != nil {
		return err
	}

	c.logger.Debug("entry event stored",
		zap.String("id", event.ID),
		zap.String("event", event.Name),
		zap.Uint("entry_id", event.EntryID),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
