package orchestrator

import (
	"sort"
	"sync"

	"hls-session/internal/playlist"
)

// Repository defines the concurrency-safe contract for looking up and
// registering playlist sessions.
type Repository interface {
	// Create registers a new empty session. It returns ErrSessionExists if
	// the id is taken.
	Create(id string, overrides playlist.SessionConfig) (*playlist.Session, error)

	// Get returns the session registered under id.
	Get(id string) (*playlist.Session, bool)

	// Put registers sess, replacing any session with the same id. It is used
	// to resume sessions restored from a state object.
	Put(sess *playlist.Session)

	// IDs returns the registered session ids in sorted order.
	IDs() []string

	// ActiveSessionCount returns the number of sessions that are not finished.
	// Used for metrics.
	ActiveSessionCount() int
}

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
// Useful for testing or for plugging in a different persistence backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Create implements Repository.Create.
func (r *InMemoryRepository) Create(id string, overrides playlist.SessionConfig) (*playlist.Session, error) {
	sess, err := playlist.NewSession(id, overrides)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(id); exists {
		return nil, ErrSessionExists
	}
	r.store.SetSession(sess)
	return sess, nil
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id string) (*playlist.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// Put implements Repository.Put.
func (r *InMemoryRepository) Put(sess *playlist.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetSession(sess)
}

// IDs implements Repository.IDs.
func (r *InMemoryRepository) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListSessionIDs()
	sort.Strings(ids)
	return ids
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, id := range r.store.ListSessionIDs() {
		if sess, ok := r.store.GetSession(id); ok && !sess.Meta().IsFinished {
			n++
		}
	}
	return n
}
