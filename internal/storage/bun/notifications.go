package bunrepo

import (
	"context"
	"time"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type NotificationRepository struct {
	base baseRepository[domain.Notification]
}

func NewNotificationRepository(db *bun.DB) *NotificationRepository {
	handlers := repository.ModelHandlers[*domain.Notification]{
		NewRecord:          func() *domain.Notification { return &domain.Notification{} },
		GetID:              func(n *domain.Notification) uuid.UUID { return n.ID },
		SetID:              func(n *domain.Notification, id uuid.UUID) { n.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(n *domain.Notification) string { return n.ID.String() },
	}
	return &NotificationRepository{
		base: newBaseRepository[domain.Notification](db, handlers, func(n *domain.Notification) *domain.RecordMeta { return &n.RecordMeta }),
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

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, opts store.ListOptions) (store.ListResult[domain.Notification], error) {
	criteria := []repository.SelectCriteria{
		withUser(userID),
		withInboxOrder(opts),
	}
	records, total, err := r.base.repo.List(ctx, criteria...)
	if err != nil {
		return store.ListResult[domain.Notification]{}, mapError(err)
	}
	items := make([]domain.Notification, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.Notification]{Items: items, Total: total}, nil
}

// MarkRead stamps read_at once. The read_at IS NULL guard keeps the write
// monotonic; a repeat call changes zero rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.base.db.
		NewUpdate().
		Model((*domain.Notification)(nil)).
		Set("read_at = ?", time.Now().UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("read_at IS NULL").
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, mapError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	now := time.Now().UTC()
	res, err := r.base.db.
		NewUpdate().
		Model((*domain.Notification)(nil)).
		Set("read_at = ?", now).
		Set("updated_at = ?", now).
		Where("user_id = ?", userID).
		Where("read_at IS NULL").
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := r.base.db.
		NewSelect().
		Model((*domain.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("read_at IS NULL").
		Where("deleted_at IS NULL").
		Count(ctx)
	return count, mapError(err)
}
