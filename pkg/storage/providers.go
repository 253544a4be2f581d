package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/goliatone/go-inbox-relay/internal/storage/bun"
	"github.com/goliatone/go-inbox-relay/internal/storage/memory"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// Providers exposes the repositories needed by the delivery core.
type Providers struct {
	Notifications store.NotificationRepository
	Transaction   store.TransactionManager
}

type Option func(*Providers)

// WithNotificationRepository swaps the notification store implementation.
func WithNotificationRepository(repo store.NotificationRepository) Option {
	return func(p *Providers) {
		p.Notifications = repo
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		Notifications: memory.NewNotificationRepository(),
		Transaction:   &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.Notification)(nil),
	)

	providers := Providers{
		Notifications: bunrepo.NewNotificationRepository(db),
		Transaction:   &bunTxManager{db: db},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
