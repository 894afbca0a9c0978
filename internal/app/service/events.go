package service

import (
	"context"
	"time"

	"github.com/sifan077/PowerRead/internal/app/model"
)

// EventBus publishes entry lifecycle events. Delivery is at least once.
type EventBus interface {
	Publish(ctx context.Context, name string, entry *model.Entry) error
}

// Locker serialises work under a key across processes. The returned func
// releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Recorder receives operational counters.
type Recorder interface {
	FetchCompleted(outcome string)
	TagsSwept(count int64)
	EventPublished(name string, err error)
}

type nopEventBus struct{}

func (nopEventBus) Publish(context.Context, string, *model.Entry) error { return nil }

type nopRecorder struct{}

func (nopRecorder) FetchCompleted(string)        {}
func (nopRecorder) TagsSwept(int64)              {}
func (nopRecorder) EventPublished(string, error) {}
