package game

import (
	"context"

	"tablejack/models"
	"tablejack/protocol"
)

// Notifier delivers typed payloads to sockets. The transport layer provides
// the implementation; the engines only ever see this interface.
type Notifier interface {
	// Send delivers to one player. Unroutable users are silently skipped.
	Send(userID string, msg protocol.Outbound)
	// SendMany delivers to each listed player.
	SendMany(userIDs []string, msg protocol.Outbound)
	// Broadcast delivers to every connected session.
	Broadcast(msg protocol.Outbound)
}

// EventSink is the durable action log, write-only and fire-and-forget.
type EventSink interface {
	Record(ev models.GameEvent)
}

// CreditStore is the durable account storage the engine syncs credits and
// statistics to.
type CreditStore interface {
	RetrieveCredits(ctx context.Context, userID, name string) (int64, error)
	UpdateCredits(ctx context.Context, userID string, credits int64) error
	UpdateStatistics(ctx context.Context, userID string, earnings, losses int64) error
}
