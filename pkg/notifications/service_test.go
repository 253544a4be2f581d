package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-inbox-relay/internal/storage/memory"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
)

func newFacade(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Dependencies{Repository: memory.NewNotificationRepository()})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	return svc
}

func TestFacadeCreateListMarkRead(t *testing.T) {
	svc := newFacade(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateInput{
		UserID:  "user-1",
		Title:   "Welcome",
		Message: "Hello there",
		Type:    "system",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := svc.List(ctx, "user-1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 1 || result.Items[0].ID != item.ID {
		t.Fatalf("unexpected listing %+v", result)
	}

	if err := svc.MarkRead(ctx, "user-1", item.ID.String()); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	count, err := svc.UnreadCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero unread, got %d", count)
	}
}

func TestFacadeMarkReadIDValidation(t *testing.T) {
	svc := newFacade(t)
	ctx := context.Background()

	if err := svc.MarkRead(ctx, "user-1", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if err := svc.MarkRead(ctx, "user-1", "not-a-uuid"); !IsValidation(err) {
		t.Fatalf("expected validation error for malformed id, got %v", err)
	}
}

func TestFacadeMarkReadNotFound(t *testing.T) {
	svc := newFacade(t)
	ctx := context.Background()

	err := svc.MarkRead(ctx, "user-1", "5f0c54f8-8979-4ad6-a2c0-72f77f02f5a1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFacadeStream(t *testing.T) {
	svc := newFacade(t)
	ctx := context.Background()

	ch, cancel, err := svc.OpenStream(ctx, "user-1")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer cancel()

	item, err := svc.Create(ctx, CreateInput{UserID: "user-1", Title: "Live", Message: "event"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case got := <-ch:
		if got.ID != item.ID {
			t.Fatalf("expected %s, got %s", item.ID, got.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected live delivery")
	}
}

func TestFacadeNilGuards(t *testing.T) {
	var svc *Service

	if _, err := svc.Create(context.Background(), CreateInput{}); err == nil {
		t.Fatalf("expected not-initialised error")
	}
	if _, _, err := svc.OpenStream(context.Background(), "u"); err == nil {
		t.Fatalf("expected not-initialised error")
	}
}
