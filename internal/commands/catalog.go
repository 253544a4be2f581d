package commands

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-inbox-relay/pkg/notifications"
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	CreateNotification command.Commander[CreateNotification]
	MarkRead           command.Commander[MarkRead]
	MarkAllRead        command.Commander[MarkAllRead]
}

type notificationService interface {
	Create(ctx context.Context, input notifications.CreateInput) (*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// Dependencies wires the notification service into the command catalog.
type Dependencies struct {
	Notifications notificationService
	Logger        logger.Logger
}

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Notifications == nil {
		return nil, errors.New("commands: notification service is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	return &Catalog{
		CreateNotification: createNotificationCommand{svc: deps.Notifications},
		MarkRead:           markReadCommand{svc: deps.Notifications},
		MarkAllRead:        markAllReadCommand{svc: deps.Notifications},
	}, nil
}

// CreateNotification is the payload for appending and fanning out a notification.
type CreateNotification struct {
	UserID  string         `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
}

type createNotificationCommand struct {
	svc notificationService
}

func (c createNotificationCommand) Execute(ctx context.Context, msg CreateNotification) error {
	_, err := c.svc.Create(ctx, notifications.CreateInput{
		UserID:  msg.UserID,
		Title:   msg.Title,
		Message: msg.Message,
		Type:    msg.Type,
		Data:    domain.JSONMap(msg.Data),
	})
	return err
}

// MarkRead request payload.
type MarkRead struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

type markReadCommand struct {
	svc notificationService
}

func (c markReadCommand) Execute(ctx context.Context, msg MarkRead) error {
	return c.svc.MarkRead(ctx, msg.UserID, msg.ID)
}

// MarkAllRead request payload.
type MarkAllRead struct {
	UserID string `json:"user_id"`
}

type markAllReadCommand struct {
	svc notificationService
}

func (c markAllReadCommand) Execute(ctx context.Context, msg MarkAllRead) error {
	_, err := c.svc.MarkAllRead(ctx, msg.UserID)
	return err
}
