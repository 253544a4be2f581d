package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Feature packages (hub,
// stream, notifications) pull from these nested structs.
type Config struct {
	Hub         HubConfig         `mapstructure:"hub" json:"hub"`
	Stream      StreamConfig      `mapstructure:"stream" json:"stream"`
	Inbox       InboxConfig       `mapstructure:"inbox" json:"inbox"`
	Persistence PersistenceConfig `mapstructure:"persistence" json:"persistence"`
}

// HubConfig bounds the subscriber registry and per-subscription buffering.
type HubConfig struct {
	// SubscriberBuffer sizes each subscription channel; a full buffer drops
	// pushes for that subscriber instead of blocking the publisher.
	SubscriberBuffer int `mapstructure:"subscriber_buffer" json:"subscriber_buffer"`
	// MaxSubscribersPerUser caps concurrent subscriptions per user, 0 = unbounded.
	MaxSubscribersPerUser int `mapstructure:"max_subscribers_per_user" json:"max_subscribers_per_user"`
}

// StreamConfig controls session behavior.
type StreamConfig struct {
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval" json:"keep_alive_interval"`
}

// InboxConfig scopes listing behavior.
type InboxConfig struct {
	// MaxListResults caps list result sets when callers pass no explicit
	// limit; 0 disables the cap.
	MaxListResults int `mapstructure:"max_list_results" json:"max_list_results"`
}

// PersistenceConfig selects the durable store.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Hub: HubConfig{
			SubscriberBuffer:      16,
			MaxSubscribersPerUser: 0,
		},
		Stream: StreamConfig{
			KeepAliveInterval: 30 * time.Second,
		},
		Inbox: InboxConfig{
			MaxListResults: 50,
		},
		Persistence: PersistenceConfig{
			Driver: "sqlite",
			DSN:    "file:inbox_relay.db",
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Hub.SubscriberBuffer <= 0 {
		return errors.New("hub.subscriber_buffer must be > 0")
	}
	if c.Hub.MaxSubscribersPerUser < 0 {
		return fmt.Errorf("hub.max_subscribers_per_user must be >= 0")
	}
	if c.Stream.KeepAliveInterval <= 0 {
		return fmt.Errorf("stream.keep_alive_interval must be > 0")
	}
	if c.Inbox.MaxListResults < 0 {
		return fmt.Errorf("inbox.max_list_results must be >= 0")
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful. Once cfgx is fully implemented we
// can drop the fallback.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Hub.SubscriberBuffer == 0 {
		c.Hub.SubscriberBuffer = defaults.Hub.SubscriberBuffer
	}
	if c.Stream.KeepAliveInterval == 0 {
		c.Stream.KeepAliveInterval = defaults.Stream.KeepAliveInterval
	}
	if c.Inbox.MaxListResults == 0 {
		c.Inbox.MaxListResults = defaults.Inbox.MaxListResults
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = defaults.Persistence.Driver
	}
	if c.Persistence.DSN == "" {
		c.Persistence.DSN = defaults.Persistence.DSN
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
