package hub

import (
	"sync"
	"testing"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
)

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	r := NewRegistry(0)

	ch1 := make(chan *domain.Notification, 1)
	ch2 := make(chan *domain.Notification, 1)

	h1, err := r.Register("user-1", ch1)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := r.Register("user-1", ch2); err != nil {
		t.Fatalf("register second: %v", err)
	}

	if got := len(r.SnapshotFor("user-1")); got != 2 {
		t.Fatalf("expected 2 channels, got %d", got)
	}
	if got := r.SnapshotFor("user-2"); got != nil {
		t.Fatalf("expected nil snapshot for unknown user, got %v", got)
	}

	r.Deregister(h1)
	snapshot := r.SnapshotFor("user-1")
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 channel after deregister, got %d", len(snapshot))
	}
	// The surviving entry must be ch2, not "the last one added minus one".
	snapshot[0] <- &domain.Notification{UserID: "user-1"}
	select {
	case <-ch2:
	default:
		t.Fatalf("expected ch2 to survive h1 deregistration")
	}
}

func TestRegistryDeregisterIdempotent(t *testing.T) {
	r := NewRegistry(0)

	ch := make(chan *domain.Notification, 1)
	h, err := r.Register("user-1", ch)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	r.Deregister(h)
	r.Deregister(h)
	r.Deregister(nil)

	if got := r.Count("user-1"); got != 0 {
		t.Fatalf("expected empty bucket, got %d", got)
	}
}

func TestRegistrySubscriberLimit(t *testing.T) {
	r := NewRegistry(1)

	if _, err := r.Register("user-1", make(chan *domain.Notification, 1)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := r.Register("user-1", make(chan *domain.Notification, 1)); err != ErrSubscriberLimit {
		t.Fatalf("expected ErrSubscriberLimit, got %v", err)
	}
	// Other users keep registering.
	if _, err := r.Register("user-2", make(chan *domain.Notification, 1)); err != nil {
		t.Fatalf("register other user: %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := make(chan *domain.Notification, 1)
			h, err := r.Register("user-1", ch)
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			_ = r.SnapshotFor("user-1")
			r.Deregister(h)
		}()
	}
	wg.Wait()

	if got := r.Count("user-1"); got != 0 {
		t.Fatalf("expected all entries deregistered, got %d", got)
	}
}

func TestRegistryRegisterDuringFinalDeregister(t *testing.T) {
	r := NewRegistry(0)

	for i := 0; i < 2000; i++ {
		h1, err := r.Register("user-1", make(chan *domain.Notification, 1))
		if err != nil {
			t.Fatalf("seed register: %v", err)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			<-start
			r.Deregister(h1)
		}()

		var h2 *SubscriptionHandle
		go func() {
			defer wg.Done()
			<-start
			var regErr error
			h2, regErr = r.Register("user-1", make(chan *domain.Notification, 1))
			if regErr != nil {
				t.Errorf("register: %v", regErr)
			}
		}()

		close(start)
		wg.Wait()

		if h2 == nil {
			t.Fatalf("iteration %d: no handle returned", i)
		}
		if got := r.Count("user-1"); got != 1 {
			t.Fatalf("iteration %d: registered entry not visible, count = %d", i, got)
		}
		if got := len(r.SnapshotFor("user-1")); got != 1 {
			t.Fatalf("iteration %d: snapshot missed registered channel, got %d", i, got)
		}
		r.Deregister(h2)
	}
}
