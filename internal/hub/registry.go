package hub

import (
	"errors"
	"sync"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
	"github.com/google/uuid"
)

// ErrSubscriberLimit is returned when a user already holds the configured
// maximum number of live subscriptions. Only the registering caller sees it.
var ErrSubscriberLimit = errors.New("hub: subscriber limit reached")

// SubscriptionHandle identifies exactly one registry entry. Deregistering a
// handle removes that entry and nothing else, regardless of how many
// subscriptions the same user holds.
type SubscriptionHandle struct {
	id     uuid.UUID
	userID string
}

// UserID reports the user the subscription listens for.
func (h *SubscriptionHandle) UserID() string {
	if h == nil {
		return ""
	}
	return h.userID
}

type bucket struct {
	mu sync.RWMutex
	// dead is set when the bucket has been removed from the registry map.
	// A registration that raced the removal must not land here.
	dead    bool
	entries map[uuid.UUID]chan *domain.Notification
}

// Registry maintains the per-user sets of live subscriber channels. Buckets
// are synchronized independently so contention on one user's subscriber set
// never stalls another user's register, deregister, or snapshot.
type Registry struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	maxPerUser int
}

// NewRegistry builds an empty registry. maxPerUser bounds concurrent
// subscriptions per user; zero means unbounded.
func NewRegistry(maxPerUser int) *Registry {
	return &Registry{
		buckets:    make(map[string]*bucket),
		maxPerUser: maxPerUser,
	}
}

// Register adds the channel under the user's bucket and returns the handle
// used to deregister exactly this entry. A concurrent deregistration of the
// user's last entry can drop the bucket between lookup and lock; retrying on
// the dead flag guarantees the entry lands in a bucket the registry still
// holds, so snapshots see it.
func (r *Registry) Register(userID string, ch chan *domain.Notification) (*SubscriptionHandle, error) {
	for {
		b := r.bucketFor(userID)

		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}
		if r.maxPerUser > 0 && len(b.entries) >= r.maxPerUser {
			b.mu.Unlock()
			return nil, ErrSubscriberLimit
		}
		handle := &SubscriptionHandle{id: uuid.New(), userID: userID}
		b.entries[handle.id] = ch
		b.mu.Unlock()
		return handle, nil
	}
}

// Deregister removes the handle's entry. Idempotent: deregistering twice, or
// a handle whose bucket is already gone, is a no-op.
func (r *Registry) Deregister(handle *SubscriptionHandle) {
	if handle == nil {
		return
	}
	r.mu.RLock()
	b := r.buckets[handle.userID]
	r.mu.RUnlock()
	if b == nil {
		return
	}

	b.mu.Lock()
	delete(b.entries, handle.id)
	empty := len(b.entries) == 0
	b.mu.Unlock()

	if empty {
		r.dropIfEmpty(handle.userID)
	}
}

// SnapshotFor returns a copy of the user's current channels. Broadcast
// iterates the copy, so a subscriber disconnecting mid-broadcast cannot
// corrupt the iteration.
func (r *Registry) SnapshotFor(userID string) []chan *domain.Notification {
	r.mu.RLock()
	b := r.buckets[userID]
	r.mu.RUnlock()
	if b == nil {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.entries) == 0 {
		return nil
	}
	channels := make([]chan *domain.Notification, 0, len(b.entries))
	for _, ch := range b.entries {
		channels = append(channels, ch)
	}
	return channels
}

// Count reports the number of live subscriptions for the user.
func (r *Registry) Count(userID string) int {
	r.mu.RLock()
	b := r.buckets[userID]
	r.mu.RUnlock()
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (r *Registry) bucketFor(userID string) *bucket {
	r.mu.RLock()
	b := r.buckets[userID]
	r.mu.RUnlock()
	if b != nil {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b = r.buckets[userID]; b == nil {
		b = &bucket{entries: make(map[uuid.UUID]chan *domain.Notification)}
		r.buckets[userID] = b
	}
	return b
}

func (r *Registry) dropIfEmpty(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.buckets[userID]
	if b == nil {
		return
	}
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.dead = true
		delete(r.buckets, userID)
	}
	b.mu.Unlock()
}
