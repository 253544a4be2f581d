package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-inbox-relay/internal/hub"
	internalnotifications "github.com/goliatone/go-inbox-relay/internal/notifications"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	"github.com/google/uuid"
)

// Re-export commonly used types so callers don't depend on the internal package.
type (
	CreateInput     = internalnotifications.CreateInput
	ValidationError = internalnotifications.ValidationError
	StorageError    = internalnotifications.StorageError
)

// ErrNotFound mirrors the internal sentinel for callers matching with errors.Is.
var ErrNotFound = internalnotifications.ErrNotFound

// IsValidation reports whether err is caller-input related.
func IsValidation(err error) bool {
	return internalnotifications.IsValidation(err)
}

// Service exposes the notification delivery core to consumers.
type Service struct {
	internal *internalnotifications.Service
}

// Dependencies wire the store repository and delivery hub.
type Dependencies struct {
	Repository     store.NotificationRepository
	Hub            *hub.Hub
	Logger         logger.Logger
	MaxListResults int
}

var errServiceNotInitialised = errors.New("notifications: service not initialised")

// New constructs the façade.
func New(deps Dependencies) (*Service, error) {
	internalSvc, err := internalnotifications.NewService(internalnotifications.Dependencies{
		Repository:     deps.Repository,
		Hub:            deps.Hub,
		Logger:         deps.Logger,
		MaxListResults: deps.MaxListResults,
	})
	if err != nil {
		return nil, err
	}
	return &Service{internal: internalSvc}, nil
}

// Hub exposes the underlying delivery hub for transports managing their own
// stream sessions.
func (s *Service) Hub() *hub.Hub {
	if s == nil || s.internal == nil {
		return nil
	}
	return s.internal.Hub()
}

// Create appends a notification and pushes it to live subscribers.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Notification, error) {
	if s == nil || s.internal == nil {
		return nil, errServiceNotInitialised
	}
	return s.internal.Create(ctx, input)
}

// List enumerates the user's notifications, most recent first.
func (s *Service) List(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Notification], error) {
	if s == nil || s.internal == nil {
		return store.ListResult[domain.Notification]{}, errServiceNotInitialised
	}
	return s.internal.List(ctx, userID, opts)
}

// MarkRead stamps one notification read, verifying ownership.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if s == nil || s.internal == nil {
		return errServiceNotInitialised
	}
	itemID, err := parseID(id)
	if err != nil {
		return err
	}
	return s.internal.MarkRead(ctx, userID, itemID)
}

// MarkAllRead stamps every unread notification owned by the user.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if s == nil || s.internal == nil {
		return 0, errServiceNotInitialised
	}
	return s.internal.MarkAllRead(ctx, userID)
}

// UnreadCount returns the unread badge count for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s == nil || s.internal == nil {
		return 0, errServiceNotInitialised
	}
	return s.internal.UnreadCount(ctx, userID)
}

// OpenStream subscribes to live notifications for the user. See the internal
// service for delivery and replay semantics.
func (s *Service) OpenStream(ctx context.Context, userID string) (<-chan *domain.Notification, func(), error) {
	if s == nil || s.internal == nil {
		return nil, nil, errServiceNotInitialised
	}
	return s.internal.OpenStream(ctx, userID)
}

func parseID(id string) (uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return uuid.Nil, ValidationError{Field: "notification_id", Reason: "required"}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ValidationError{Field: "notification_id", Reason: "malformed"}
	}
	return parsed, nil
}
