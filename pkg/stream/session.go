package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-inbox-relay/internal/hub"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
)

const defaultKeepAliveInterval = 30 * time.Second

// ErrSessionClosed is returned when Run is invoked on a finished session.
var ErrSessionClosed = errors.New("stream: session closed")

// FrameWriter owns the wire encoding of delivered events. The session
// guarantees one WriteEvent per delivered notification, in hub order, plus
// periodic keep-alive frames while idle.
type FrameWriter interface {
	WriteEvent(item *domain.Notification) error
	WriteKeepAlive() error
}

// Subscriber is the hub surface a session needs. *hub.Hub satisfies it.
type Subscriber interface {
	Subscribe(userID string) (<-chan *domain.Notification, *hub.SubscriptionHandle, error)
	Unsubscribe(handle *hub.SubscriptionHandle)
}

// Options configure a session.
type Options struct {
	// KeepAliveInterval bounds idle time between frames so intermediaries do
	// not terminate the connection. Keep-alives are not notifications.
	KeepAliveInterval time.Duration
	Logger            logger.Logger
}

// Session owns one live connection's lifecycle from subscribe to teardown.
// It consumes its subscription channel and converts hub pushes into framed
// events on the writer. A session runs once; after Run returns, the
// subscription is deregistered and the session is closed for good.
type Session struct {
	subscriber Subscriber
	userID     string
	writer     FrameWriter
	interval   time.Duration
	logger     logger.Logger
	closed     atomic.Bool
}

// NewSession binds one subscriber channel to one outbound frame writer.
func NewSession(subscriber Subscriber, userID string, writer FrameWriter, opts Options) *Session {
	interval := opts.KeepAliveInterval
	if interval <= 0 {
		interval = defaultKeepAliveInterval
	}
	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &Session{
		subscriber: subscriber,
		userID:     userID,
		writer:     writer,
		interval:   interval,
		logger:     lgr,
	}
}

// Run subscribes and pumps events until the context is cancelled or a write
// fails. Cancellation is the normal ending and returns nil; a transport write
// failure is returned to the caller but ends only this session. Deregistration
// happens on every exit path, exactly once.
func (s *Session) Run(ctx context.Context) error {
	if s.closed.Swap(true) {
		return ErrSessionClosed
	}

	ch, handle, err := s.subscriber.Subscribe(s.userID)
	if err != nil {
		return err
	}
	defer s.subscriber.Unsubscribe(handle)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("stream session cancelled",
				logger.Field{Key: "user_id", Value: s.userID})
			return nil

		case item := <-ch:
			if item == nil {
				continue
			}
			if err := s.writer.WriteEvent(item); err != nil {
				s.logger.Warn("stream write failed, closing session",
					logger.Field{Key: "user_id", Value: s.userID},
					logger.Field{Key: "error", Value: err})
				return err
			}
			ticker.Reset(s.interval)

		case <-ticker.C:
			if err := s.writer.WriteKeepAlive(); err != nil {
				s.logger.Warn("keep-alive write failed, closing session",
					logger.Field{Key: "user_id", Value: s.userID},
					logger.Field{Key: "error", Value: err})
				return err
			}
		}
	}
}
