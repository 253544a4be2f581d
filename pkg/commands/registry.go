package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-inbox-relay/internal/commands"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/notifications"
)

// Re-export request types so consumers need not import internal packages.
type (
	CreateNotification = internalcommands.CreateNotification
	MarkRead           = internalcommands.MarkRead
	MarkAllRead        = internalcommands.MarkAllRead
)

// Registry exposes go-command compatible handlers backed by the module services.
type Registry struct {
	Catalog            *internalcommands.Catalog
	CreateNotification command.Commander[CreateNotification]
	MarkRead           command.Commander[MarkRead]
	MarkAllRead        command.Commander[MarkAllRead]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Notifications *notifications.Service
	Logger        logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	catalog, err := internalcommands.NewCatalog(internalcommands.Dependencies{
		Notifications: deps.Notifications,
		Logger:        deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:            catalog,
		CreateNotification: catalog.CreateNotification,
		MarkRead:           catalog.MarkRead,
		MarkAllRead:        catalog.MarkAllRead,
	}, nil
}
