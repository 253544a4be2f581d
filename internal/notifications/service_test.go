package notifications

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/goliatone/go-inbox-relay/internal/hub"
	"github.com/goliatone/go-inbox-relay/internal/storage/memory"
	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/goliatone/go-inbox-relay/pkg/interfaces/store"
	"github.com/google/uuid"
)

func newTestService(t *testing.T) (*Service, *memory.NotificationRepository) {
	t.Helper()
	repo := memory.NewNotificationRepository()
	svc, err := NewService(Dependencies{Repository: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func create(t *testing.T, svc *Service, userID, title string) *domain.Notification {
	t.Helper()
	item, err := svc.Create(context.Background(), CreateInput{
		UserID:  userID,
		Title:   title,
		Message: "body",
		Type:    "system",
	})
	if err != nil {
		t.Fatalf("create %s: %v", title, err)
	}
	time.Sleep(time.Millisecond)
	return item
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing user", CreateInput{Title: "t", Message: "m"}},
		{"missing title", CreateInput{UserID: "u", Message: "m"}},
		{"missing message", CreateInput{UserID: "u", Title: "t"}},
		{"blank user", CreateInput{UserID: "   ", Title: "t", Message: "m"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	svc, _ := newTestService(t)

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 10; i++ {
		item := create(t, svc, "user-1", "n")
		if seen[item.ID] {
			t.Fatalf("duplicate id %s", item.ID)
		}
		seen[item.ID] = true
	}
	other := create(t, svc, "user-2", "n")
	if seen[other.ID] {
		t.Fatalf("id collision across users: %s", other.ID)
	}
}

func TestListOrdering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	create(t, svc, "u1", "A")
	create(t, svc, "u1", "B")
	create(t, svc, "u1", "C")

	result, err := svc.List(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	got := []string{result.Items[0].Title, result.Items[1].Title, result.Items[2].Title}
	if got[0] != "C" || got[1] != "B" || got[2] != "A" {
		t.Fatalf("expected C,B,A got %v", got)
	}

	if _, err := svc.List(ctx, "", store.ListOptions{}); !IsValidation(err) {
		t.Fatalf("expected validation error for empty user, got %v", err)
	}
}

func TestListAppliesConfiguredCap(t *testing.T) {
	repo := memory.NewNotificationRepository()
	svc, err := NewService(Dependencies{Repository: repo, MaxListResults: 2})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	create(t, svc, "u1", "A")
	create(t, svc, "u1", "B")
	create(t, svc, "u1", "C")

	result, err := svc.List(context.Background(), "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected capped result of 2, got %d", len(result.Items))
	}
	// Explicit limits override the default cap.
	result, err = svc.List(context.Background(), "u1", store.ListOptions{Limit: 3})
	if err != nil {
		t.Fatalf("list explicit: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected explicit limit of 3, got %d", len(result.Items))
	}
}

func TestMarkReadOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	item := create(t, svc, "owner", "mine")

	// Another user's attempt reads as nonexistent.
	if err := svc.MarkRead(ctx, "intruder", item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign notification, got %v", err)
	}
	// Identical shape for a genuinely missing id.
	if err := svc.MarkRead(ctx, "owner", uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}

	if err := svc.MarkRead(ctx, "owner", item.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Already read: no-op success, read_at untouched.
	if err := svc.MarkRead(ctx, "owner", item.ID); err != nil {
		t.Fatalf("repeat mark read: %v", err)
	}
}

func TestMarkAllReadIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	create(t, svc, "u1", "one")
	create(t, svc, "u1", "two")
	read := create(t, svc, "u1", "three")
	if err := svc.MarkRead(ctx, "u1", read.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	before, _ := repo.GetByID(ctx, read.ID)

	changed, err := svc.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 changed, got %d", changed)
	}

	after, _ := repo.GetByID(ctx, read.ID)
	if !after.ReadAt.Equal(before.ReadAt) {
		t.Fatalf("already-read notification was touched")
	}

	result, err := svc.List(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range result.Items {
		if item.Unread() {
			t.Fatalf("expected all read, %s still unread", item.Title)
		}
	}

	changed, err = svc.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatalf("repeat mark all read: %v", err)
	}
	if changed != 0 {
		t.Fatalf("expected second call to change nothing, got %d", changed)
	}
}

func TestUnreadCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	create(t, svc, "u1", "one")
	create(t, svc, "u1", "two")

	count, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}
}

func TestOpenStreamReceivesOnlyNewNotifications(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	create(t, svc, "u1", "A")
	create(t, svc, "u1", "B")
	create(t, svc, "u1", "C")

	listed, err := svc.List(ctx, "u1", store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := []string{listed.Items[0].Title, listed.Items[1].Title, listed.Items[2].Title}; got[0] != "C" || got[1] != "B" || got[2] != "A" {
		t.Fatalf("expected C,B,A got %v", got)
	}

	ch, cancel, err := svc.OpenStream(ctx, "u1")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer cancel()

	d := create(t, svc, "u1", "D")

	select {
	case got := <-ch:
		if got.ID != d.ID {
			t.Fatalf("expected D, got %s", got.Title)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected live delivery of D")
	}
	select {
	case got := <-ch:
		t.Fatalf("expected no backlog replay, got %s", got.Title)
	default:
	}
}

func TestOpenStreamCancelDeregisters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, cancel, err := svc.OpenStream(ctx, "u1")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if got := svc.Hub().Subscribers("u1"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	cancel()
	cancel() // idempotent
	if got := svc.Hub().Subscribers("u1"); got != 0 {
		t.Fatalf("expected deregistration, got %d", got)
	}
}

func TestOpenStreamContextCancellation(t *testing.T) {
	svc, _ := newTestService(t)
	streamCtx, cancelCtx := context.WithCancel(context.Background())

	_, _, err := svc.OpenStream(streamCtx, "u1")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	cancelCtx()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.Hub().Subscribers("u1") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected context cancellation to deregister the stream")
}

func TestOpenStreamCancelReleasesWatcher(t *testing.T) {
	svc, _ := newTestService(t)
	parent, stop := context.WithCancel(context.Background())
	defer stop()

	before := runtime.NumGoroutine()

	cancels := make([]func(), 0, 20)
	for i := 0; i < 20; i++ {
		_, cancel, err := svc.OpenStream(parent, "u1")
		if err != nil {
			t.Fatalf("open stream: %v", err)
		}
		cancels = append(cancels, cancel)
	}
	for _, cancel := range cancels {
		cancel()
	}

	// The parent context is still live; only cancel may release the watchers.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if runtime.NumGoroutine() <= before+2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected watcher goroutines to exit after cancel, %d still running over baseline %d",
		runtime.NumGoroutine()-before, before)
}

func TestCreateFailurePreventsPublish(t *testing.T) {
	repo := &failingRepo{}
	h := hub.New(hub.Options{})
	svc, err := NewService(Dependencies{Repository: repo, Hub: h})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ch, cancel, err := svc.OpenStream(context.Background(), "u1")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer cancel()

	_, err = svc.Create(context.Background(), CreateInput{UserID: "u1", Title: "t", Message: "m"})
	var se StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	select {
	case got := <-ch:
		t.Fatalf("expected no phantom live notification, got %s", got.Title)
	default:
	}
}

// failingRepo rejects every write so storage failure paths can be exercised.
type failingRepo struct {
	memory.NotificationRepository
}

func (r *failingRepo) Create(ctx context.Context, item *domain.Notification) error {
	return errors.New("disk full")
}
