package orchestrator

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// NotFoundError is returned when an id is absent from a registry scope.
type NotFoundError struct {
	Scope Scope
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Scope, e.ID)
}

// KindMismatchError is returned when an id names an object of another kind.
type KindMismatchError struct {
	ID       string
	Expected []string
	Actual   string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("object %q is %s, expected %s", e.ID, e.Actual, strings.Join(e.Expected, " or "))
}

// slot owns one registry entry. Its mutex serialises read-modify-write
// sequences on the object; removed is set once the entry leaves the store.
type slot struct {
	mu      sync.Mutex
	obj     Object
	removed atomic.Bool
}

// Registry is a bounded, concurrency-safe, least-recently-used object map.
//
// The registry mutex guards only the store and is never held while a caller
// works on an object. Update runs the caller's mutation under a per-entry
// lock instead, so get-mutate-put on one id never loses a write while other
// ids stay unblocked.
type Registry struct {
	scope   Scope
	mu      sync.Mutex
	store   Store[*slot]
	onEvict func(id string)
}

// NewRegistry returns an empty registry for scope holding at most capacity
// entries. If capacity <= 0, DefaultCapacity is used. onEvict may be nil.
func NewRegistry(scope Scope, capacity int, onEvict func(id string)) (*Registry, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Registry{scope: scope, onEvict: onEvict}
	store, err := NewLRUStore[*slot](capacity, r.evicted)
	if err != nil {
		return nil, fmt.Errorf("%s registry: %w", scope, err)
	}
	r.store = store
	return r, nil
}

// evicted runs with r.mu held, from inside store.Add.
func (r *Registry) evicted(id string, s *slot) {
	s.removed.Store(true)
	if r.onEvict != nil {
		r.onEvict(id)
	}
}

// Scope returns the scope the registry was created for.
func (r *Registry) Scope() Scope { return r.scope }

// Put stores obj under id as the most recently used entry. Replacing an
// existing id counts as a touch and never evicts.
func (r *Registry) Put(id string, obj Object) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.store.Peek(id); ok {
		old.removed.Store(true)
	}
	r.store.Add(id, &slot{obj: obj})
}

// Get returns the object under id and marks it most recently used.
func (r *Registry) Get(id string) (Object, error) {
	s, err := r.lookup(id, true)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obj, nil
}

// Peek is Get without the touch.
func (r *Registry) Peek(id string) (Object, error) {
	s, err := r.lookup(id, false)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obj, nil
}

// GetTyped is Get with a kind check. It fails with a KindMismatchError when
// the object's kind is none of kinds.
func (r *Registry) GetTyped(id string, kinds ...string) (Object, error) {
	obj, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if err := checkKind(id, obj, kinds); err != nil {
		return nil, err
	}
	return obj, nil
}

// Update runs fn on the object under id while holding that entry's lock, and
// touches the entry. If the entry is removed or evicted before the lock is
// acquired, Update reports NotFoundError.
func (r *Registry) Update(id string, fn func(Object) error) error {
	for {
		s, err := r.lookup(id, true)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.removed.Load() {
			// replaced by Put or dropped; look again
			s.mu.Unlock()
			continue
		}
		err = fn(s.obj)
		s.mu.Unlock()
		return err
	}
}

// View runs fn on the object under id while holding that entry's lock,
// without touching it. fn must not mutate the object.
func (r *Registry) View(id string, fn func(Object) error) error {
	for {
		s, err := r.lookup(id, false)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.removed.Load() {
			s.mu.Unlock()
			continue
		}
		err = fn(s.obj)
		s.mu.Unlock()
		return err
	}
}

// Remove deletes id. It fails with NotFoundError when id is absent.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.store.Peek(id)
	if !ok {
		return &NotFoundError{Scope: r.scope, ID: id}
	}
	s.removed.Store(true)
	r.store.Remove(id)
	return nil
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Len()
}

// Capacity returns the entry bound.
func (r *Registry) Capacity() int {
	return r.store.Cap()
}

// IDs returns the ids from least to most recently used.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Keys()
}

func (r *Registry) lookup(id string, touch bool) (*slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		s  *slot
		ok bool
	)
	if touch {
		s, ok = r.store.Get(id)
	} else {
		s, ok = r.store.Peek(id)
	}
	if !ok {
		return nil, &NotFoundError{Scope: r.scope, ID: id}
	}
	return s, nil
}

func checkKind(id string, obj Object, kinds []string) error {
	if len(kinds) == 0 {
		return nil
	}
	actual := obj.ObjectKind()
	for _, k := range kinds {
		if k == actual {
			return nil
		}
	}
	return &KindMismatchError{ID: id, Expected: kinds, Actual: actual}
}
