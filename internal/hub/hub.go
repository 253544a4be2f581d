package hub

import (
	"context"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
)

const defaultSubscriberBuffer = 16

// Options configure the delivery hub.
type Options struct {
	// SubscriberBuffer sizes each subscription channel. A full buffer causes
	// publishes to drop for that subscriber instead of blocking.
	SubscriberBuffer int
	// MaxSubscribersPerUser caps concurrent subscriptions per user (0 = unbounded).
	MaxSubscribersPerUser int
	// Sink optionally mirrors every published notification to external
	// transports (WebSocket bridges, webhooks). Best-effort.
	Sink   broadcaster.Broadcaster
	Logger logger.Logger
}

// Hub bridges "a notification was created" to every live subscriber currently
// registered for the target user.
type Hub struct {
	registry *Registry
	buffer   int
	sink     broadcaster.Broadcaster
	logger   logger.Logger
}

// New constructs the hub and its registry.
func New(opts Options) *Hub {
	buffer := opts.SubscriberBuffer
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sink := opts.Sink
	if sink == nil {
		sink = &broadcaster.Nop{}
	}
	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Hub{
		registry: NewRegistry(opts.MaxSubscribersPerUser),
		buffer:   buffer,
		sink:     sink,
		logger:   lgr,
	}
}

// Publish offers the notification to every live subscriber for its user and
// returns once all channels have been offered the item. A slow or stalled
// subscriber gets the item dropped; the creation path is never delayed.
func (h *Hub) Publish(ctx context.Context, item *domain.Notification) {
	if item == nil {
		return
	}

	delivered := 0
	channels := h.registry.SnapshotFor(item.UserID)
	for _, ch := range channels {
		select {
		case ch <- item:
			delivered++
		default:
			h.logger.Debug("subscriber buffer full, dropping push",
				logger.Field{Key: "user_id", Value: item.UserID},
				logger.Field{Key: "notification_id", Value: item.ID.String()})
		}
	}

	if err := h.sink.Broadcast(ctx, broadcaster.Event{
		Topic:        broadcaster.TopicNotificationCreated,
		Notification: item,
	}); err != nil {
		h.logger.Warn("broadcast notification failed",
			logger.Field{Key: "user_id", Value: item.UserID},
			logger.Field{Key: "error", Value: err})
	}

	h.logger.Debug("published notification",
		logger.Field{Key: "user_id", Value: item.UserID},
		logger.Field{Key: "subscribers", Value: len(channels)},
		logger.Field{Key: "delivered", Value: delivered})
}

// Subscribe registers a new live subscription for the user. The returned
// channel receives every notification published for userID from this call
// onward; there is no historical backlog. Callers needing history list from
// the store first and de-duplicate by ID.
func (h *Hub) Subscribe(userID string) (<-chan *domain.Notification, *SubscriptionHandle, error) {
	ch := make(chan *domain.Notification, h.buffer)
	handle, err := h.registry.Register(userID, ch)
	if err != nil {
		return nil, nil, err
	}
	return ch, handle, nil
}

// Unsubscribe removes the subscription. Idempotent. The channel is left open
// for the consuming session to drain; it is reclaimed once unreferenced.
func (h *Hub) Unsubscribe(handle *SubscriptionHandle) {
	h.registry.Deregister(handle)
}

// Subscribers reports the live subscription count for a user.
func (h *Hub) Subscribers(userID string) int {
	return h.registry.Count(userID)
}
