package memory

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	"github.com/google/uuid"
)

type NotificationRepository struct {
	base baseMemoryRepo[domain.Notification]
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		base: newBaseMemoryRepo("notification", func(n *domain.Notification) *domain.RecordMeta { return &n.RecordMeta }),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, item *domain.Notification) error {
	return r.base.create(ctx, item)
}

func (r *NotificationRepository) Update(ctx context.Context, item *domain.Notification) error {
	return r.base.update(ctx, item)
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *NotificationRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.Notification], error) {
	return r.base.list(ctx, opts)
}

func (r *NotificationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

// ListByUser returns the user's notifications ordered most recent first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Notification], error) {
	r.base.mu.RLock()
	var matched []domain.Notification
	for _, item := range r.base.records {
		if item.UserID != userID {
			continue
		}
		if !opts.IncludeSoftDeleted && !item.DeletedAt.IsZero() {
			continue
		}
		if opts.UnreadOnly && !item.Unread() {
			continue
		}
		if !opts.Since.IsZero() && item.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && item.CreatedAt.After(opts.Until) {
			continue
		}
		matched = append(matched, item)
	}
	r.base.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return store.ListResult[domain.Notification]{Items: matched[start:end], Total: total}, nil
}

// MarkRead stamps ReadAt once; repeat calls report no change. The check and
// the write happen under one lock so exactly one of any concurrent callers
// observes the transition, matching the SQL guard semantics.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	r.base.mu.Lock()
	defer r.base.mu.Unlock()

	item, ok := r.base.records[id]
	if !ok || !item.DeletedAt.IsZero() {
		return false, store.ErrNotFound
	}
	if !item.Unread() {
		return false, nil
	}
	now := time.Now().UTC()
	item.ReadAt = now
	item.UpdatedAt = now
	r.base.records[id] = item
	return true, nil
}

// MarkAllRead stamps ReadAt on every unread row owned by the user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.base.mu.Lock()
	defer r.base.mu.Unlock()

	now := time.Now().UTC()
	changed := 0
	for id, item := range r.base.records {
		if item.UserID != userID || !item.Unread() || !item.DeletedAt.IsZero() {
			continue
		}
		item.ReadAt = now
		item.UpdatedAt = now
		r.base.records[id] = item
		changed++
	}
	return changed, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	r.base.mu.RLock()
	defer r.base.mu.RUnlock()

	count := 0
	for _, item := range r.base.records {
		if item.UserID == userID && item.Unread() && item.DeletedAt.IsZero() {
			count++
		}
	}
	return count, nil
}
