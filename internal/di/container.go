package di

import (
	"reflect"

	"github.com/goliatone/go-inbox-relay/internal/hub"
	"github.com/goliatone/go-inbox-relay/pkg/commands"
	"github.com/goliatone/go-inbox-relay/pkg/config"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/notifications"
	"github.com/goliatone/go-inbox-relay/pkg/storage"
)

// Options configure the DI container.
type Options struct {
	Config      config.Config
	Storage     storage.Providers
	Logger      logger.Logger
	Broadcaster broadcaster.Broadcaster
}

// Container wires repositories, hub, service façade, and command registry.
type Container struct {
	Config        config.Config
	Storage       storage.Providers
	Hub           *hub.Hub
	Notifications *notifications.Service
	Commands      *commands.Registry
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := opts.Storage
	if providers.Notifications == nil {
		providers = storage.NewMemoryProviders()
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	sink := opts.Broadcaster
	if sink == nil {
		sink = &broadcaster.Nop{}
	}

	deliveryHub := hub.New(hub.Options{
		SubscriberBuffer:      cfg.Hub.SubscriberBuffer,
		MaxSubscribersPerUser: cfg.Hub.MaxSubscribersPerUser,
		Sink:                  sink,
		Logger:                lgr,
	})

	svc, err := notifications.New(notifications.Dependencies{
		Repository:     providers.Notifications,
		Hub:            deliveryHub,
		Logger:         lgr,
		MaxListResults: cfg.Inbox.MaxListResults,
	})
	if err != nil {
		return nil, err
	}

	cmdRegistry, err := commands.New(commands.Dependencies{
		Notifications: svc,
		Logger:        lgr,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:        cfg,
		Storage:       providers,
		Hub:           deliveryHub,
		Notifications: svc,
		Commands:      cmdRegistry,
	}, nil
}
