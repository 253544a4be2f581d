package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-inbox-relay/internal/hub"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	"github.com/google/uuid"
)

// CreateInput captures the fields required to append a new notification.
type CreateInput struct {
	UserID  string
	Title   string
	Message string
	Type    string
	Data    domain.JSONMap
}

// Dependencies wires the store and the delivery hub into the service.
type Dependencies struct {
	Repository store.NotificationRepository
	Hub        *hub.Hub
	Logger     logger.Logger
	// MaxListResults caps List result sets when the caller passes no explicit
	// limit. Zero disables the cap.
	MaxListResults int
}

// Service composes the durable store and the delivery hub: creation appends
// then publishes, listing and read-state go straight to the store, and
// subscriptions go straight to the hub.
type Service struct {
	repo           store.NotificationRepository
	hub            *hub.Hub
	logger         logger.Logger
	maxListResults int
}

var errRepositoryRequired = errors.New("notifications: repository is required")

// NewService constructs the notification service.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Repository == nil {
		return nil, errRepositoryRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Hub == nil {
		deps.Hub = hub.New(hub.Options{Logger: deps.Logger})
	}
	return &Service{
		repo:           deps.Repository,
		hub:            deps.Hub,
		logger:         deps.Logger,
		maxListResults: deps.MaxListResults,
	}, nil
}

// Hub exposes the delivery hub for transports that manage their own sessions.
func (s *Service) Hub() *hub.Hub {
	return s.hub
}

// Create appends the notification to the store, then publishes the stored
// record to every live subscriber for the user. Publish is best-effort and
// never fails the call; a store failure prevents the publish entirely so no
// live notification exists without durable backing.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Notification, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	item := &domain.Notification{
		UserID:  strings.TrimSpace(input.UserID),
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
		Data:    cloneJSON(input.Data),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, StorageError{Op: "create", Err: err}
	}

	s.hub.Publish(ctx, item)
	s.logger.Debug("notification created",
		logger.Field{Key: "user_id", Value: item.UserID},
		logger.Field{Key: "notification_id", Value: item.ID.String()})
	return item, nil
}

// List returns the user's notifications ordered most recent first.
func (s *Service) List(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Notification], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return store.ListResult[domain.Notification]{}, ValidationError{Field: "user_id", Reason: "required"}
	}
	if opts.Limit == 0 && s.maxListResults > 0 {
		opts.Limit = s.maxListResults
	}
	result, err := s.repo.ListByUser(ctx, userID, opts)
	if err != nil {
		return store.ListResult[domain.Notification]{}, StorageError{Op: "list", Err: err}
	}
	return result, nil
}

// MarkRead stamps the notification read after verifying ownership. A
// notification owned by another user reports ErrNotFound, the same as a
// nonexistent id. Marking an already-read notification is a no-op success.
func (s *Service) MarkRead(ctx context.Context, userID string, id uuid.UUID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ValidationError{Field: "user_id", Reason: "required"}
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return StorageError{Op: "get", Err: err}
	}
	if item.UserID != userID {
		return ErrNotFound
	}
	if _, err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return StorageError{Op: "mark_read", Err: err}
	}
	return nil
}

// MarkAllRead stamps every currently-unread notification owned by the user
// and returns the number of rows changed. Already-read rows are untouched.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ValidationError{Field: "user_id", Reason: "required"}
	}
	changed, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, StorageError{Op: "mark_all_read", Err: err}
	}
	return changed, nil
}

// UnreadCount returns the user's unread badge count.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ValidationError{Field: "user_id", Reason: "required"}
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, StorageError{Op: "count_unread", Err: err}
	}
	return count, nil
}

// OpenStream subscribes the caller to every notification published for the
// user from this call onward. No backlog is replayed; callers needing history
// list first and de-duplicate by ID. The stream ends only through the cancel
// function or the context; cancel is idempotent and guarantees
// deregistration.
func (s *Service) OpenStream(ctx context.Context, userID string) (<-chan *domain.Notification, func(), error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, ValidationError{Field: "user_id", Reason: "required"}
	}
	ch, handle, err := s.hub.Subscribe(userID)
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			s.hub.Unsubscribe(handle)
			close(done)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		// The watcher must not outlive the stream: an explicit cancel
		// releases it even when the parent context runs for the process
		// lifetime.
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}
	return ch, cancel, nil
}

func validateCreateInput(input CreateInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return ValidationError{Field: "user_id", Reason: "required"}
	}
	if strings.TrimSpace(input.Title) == "" {
		return ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(input.Message) == "" {
		return ValidationError{Field: "message", Reason: "required"}
	}
	return nil
}

func cloneJSON(src domain.JSONMap) domain.JSONMap {
	if len(src) == 0 {
		return nil
	}
	out := make(domain.JSONMap, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
