package utils

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"tablejack/models"
)

// EventStore is the durable sink the recorder writes to.
type EventStore interface {
	SaveEvent(ctx context.Context, ev models.GameEvent) error
}

// Recorder persists game events off the gameplay path. Writes go through a
// bounded worker pool; failures are logged and swallowed so a storage outage
// never blocks a table.
type Recorder struct {
	store EventStore
	pool  *ants.Pool
	log   *zap.Logger
}

// NewRecorder builds a recorder with the given number of persistence workers.
func NewRecorder(store EventStore, workers int, log *zap.Logger) (*Recorder, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Recorder{store: store, pool: pool, log: log}, nil
}

// Record queues one event for persistence. Round 0 is normalized to 1: the
// first bet of a brand-new game fires before the round counter advances.
func (r *Recorder) Record(ev models.GameEvent) {
	if ev.Round == 0 {
		ev.Round = 1
	}
	ev.CreatedAt = time.Now()

	err := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.SaveEvent(ctx, ev); err != nil {
			r.log.Error("failed to persist game event",
				zap.String("user_id", ev.UserID),
				zap.String("action", ev.Action),
				zap.Error(err))
		}
	})
	if err != nil {
		r.log.Error("failed to queue game event", zap.String("action", ev.Action), zap.Error(err))
	}
}

// Close drains the worker pool.
func (r *Recorder) Close() {
	r.pool.Release()
}
