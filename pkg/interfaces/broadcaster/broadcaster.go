package broadcaster

import (
	"context"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
)

// Topics emitted by the delivery core.
const (
	TopicNotificationCreated = "notification.created"
)

// Event carries a published notification destined for real-time transports.
type Event struct {
	Topic        string
	Notification *domain.Notification
}

// Broadcaster pushes events to WebSocket/SSE/webhook transports. Errors are
// treated as best-effort by the delivery hub: logged, never surfaced to the
// publisher.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Nop broadcaster discards events.
type Nop struct{}

var _ Broadcaster = (*Nop)(nil)

func (n *Nop) Broadcast(ctx context.Context, event Event) error { return nil }
