package person

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrNotFound        = errors.New("person not found")
	ErrConflict        = errors.New("person was modified concurrently")
	ErrDuplicatePIN    = errors.New("person with this pin already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)

type Repository interface {
	// Find returns every person matching f, ordered by id.
	Find(ctx context.Context, f Filter) ([]Person, error)
	GetByID(ctx context.Context, id int64) (Person, error)
	// Create assigns ID and the initial Version.
	Create(ctx context.Context, p Person) (Person, error)
	// Save persists p if p.Version still matches the stored version and returns
	// it with the incremented version. A mismatch yields ErrConflict.
	Save(ctx context.Context, p Person) (Person, error)
	Delete(ctx context.Context, id int64) error
}

// InMemoryRepository is a mutex-guarded Repository used by tests and cmd/api.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage map[int64]Person
	nextID  int64
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []Person) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make(map[int64]Person, len(seed)),
		nextID:  1,
	}

	var maxID int64
	for _, p := range seed {
		r.storage[p.ID] = p.clone()
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) Find(ctx context.Context, f Filter) ([]Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Person, 0, len(r.storage))
	for _, p := range r.storage {
		if f.Matches(p) {
			out = append(out, p.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.storage[id]
	if !ok {
		return Person{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p.clone(), nil
}

func (r *InMemoryRepository) Create(ctx context.Context, p Person) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.storage {
		if existing.PIN == p.PIN {
			return Person{}, fmt.Errorf("%w: %s", ErrDuplicatePIN, p.PIN)
		}
	}

	p = p.clone()
	p.ID = r.nextID
	p.Version = 0
	p.EmailAddresses = mergeSet(nil, p.EmailAddresses...)
	p.PhoneNumbers = mergeSet(nil, p.PhoneNumbers...)
	r.nextID++
	r.storage[p.ID] = p
	return p.clone(), nil
}

func (r *InMemoryRepository) Save(ctx context.Context, p Person) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.storage[p.ID]
	if !ok || stored.Version != p.Version {
		// a deleted row looks the same as a stale version to an optimistic writer
		return Person{}, fmt.Errorf("%w: id %d version %d", ErrConflict, p.ID, p.Version)
	}
	for id, existing := range r.storage {
		if id != p.ID && existing.PIN == p.PIN {
			return Person{}, fmt.Errorf("%w: %s", ErrDuplicatePIN, p.PIN)
		}
	}

	p = p.clone()
	p.Version = stored.Version + 1
	p.EmailAddresses = mergeSet(nil, p.EmailAddresses...)
	p.PhoneNumbers = mergeSet(nil, p.PhoneNumbers...)
	r.storage[p.ID] = p
	return p.clone(), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.storage[id]; !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	delete(r.storage, id)
	return nil
}
