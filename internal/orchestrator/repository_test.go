package orchestrator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// testObject is a registry value with a mutable counter.
type testObject struct {
	kind string
	n    int
}

func (o *testObject) ObjectKind() string { return o.kind }

func newTestRegistry(t *testing.T, capacity int, onEvict func(string)) *Registry {
	t.Helper()
	r, err := NewRegistry(ScopeSegment, capacity, onEvict)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistry_default_capacity(t *testing.T) {
	r := newTestRegistry(t, 0, nil)
	if r.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", r.Capacity(), DefaultCapacity)
	}
}

func TestRegistry_PutGet(t *testing.T) {
	r := newTestRegistry(t, 4, nil)
	obj := &testObject{kind: "audio"}
	r.Put("a", obj)

	got, err := r.Get("a")
	if err != nil || got != obj {
		t.Fatalf("Get(a) = %v, %v", got, err)
	}

	_, err = r.Get("missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing" || nf.Scope != ScopeSegment {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestRegistry_GetTyped(t *testing.T) {
	r := newTestRegistry(t, 4, nil)
	r.Put("v", &testObject{kind: "video"})

	if _, err := r.GetTyped("v", "video"); err != nil {
		t.Errorf("GetTyped(video): %v", err)
	}
	if _, err := r.GetTyped("v", "audio", "video"); err != nil {
		t.Errorf("GetTyped(audio|video): %v", err)
	}

	_, err := r.GetTyped("v", "audio")
	var km *KindMismatchError
	if !errors.As(err, &km) {
		t.Fatalf("expected KindMismatchError, got %v", err)
	}
	if km.Actual != "video" || !reflect.DeepEqual(km.Expected, []string{"audio"}) {
		t.Errorf("mismatch %+v", km)
	}

	_, err = r.GetTyped("nope", "audio")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("missing id must be NotFoundError, got %v", err)
	}
}

func TestRegistry_LRU_law(t *testing.T) {
	const n = 3

	t.Run("n_plus_one_evicts_oldest", func(t *testing.T) {
		var evicted []string
		r := newTestRegistry(t, n, func(id string) { evicted = append(evicted, id) })
		for i := 0; i <= n; i++ {
			r.Put(fmt.Sprintf("e%d", i), &testObject{kind: "text"})
		}
		if !reflect.DeepEqual(evicted, []string{"e0"}) {
			t.Errorf("evicted %v, want [e0]", evicted)
		}
		if r.Len() != n {
			t.Errorf("Len() = %d", r.Len())
		}
		if _, err := r.Get("e0"); err == nil {
			t.Error("e0 should be gone")
		}
	})

	t.Run("get_protects_entry", func(t *testing.T) {
		r := newTestRegistry(t, n, nil)
		for i := 0; i < n; i++ {
			r.Put(fmt.Sprintf("e%d", i), &testObject{kind: "text"})
		}
		if _, err := r.Get("e0"); err != nil {
			t.Fatal(err)
		}
		r.Put("x", &testObject{kind: "text"})
		if _, err := r.Peek("e0"); err != nil {
			t.Error("touched e0 must survive one insertion")
		}
		if _, err := r.Peek("e1"); err == nil {
			t.Error("e1 was least recently touched and should be evicted")
		}
	})

	t.Run("touched_entry_falls_out_after_n_inserts", func(t *testing.T) {
		r := newTestRegistry(t, n, nil)
		for i := 0; i < n; i++ {
			r.Put(fmt.Sprintf("e%d", i), &testObject{kind: "text"})
		}
		if _, err := r.Get("e0"); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < n; i++ {
			r.Put(fmt.Sprintf("new%d", i), &testObject{kind: "text"})
		}
		if _, err := r.Peek("e0"); err == nil {
			t.Error("e0 was older than every new entry and should be evicted")
		}
	})

	t.Run("put_existing_touches", func(t *testing.T) {
		r := newTestRegistry(t, n, nil)
		for i := 0; i < n; i++ {
			r.Put(fmt.Sprintf("e%d", i), &testObject{kind: "text"})
		}
		r.Put("e0", &testObject{kind: "text", n: 1})
		want := []string{"e1", "e2", "e0"}
		if got := r.IDs(); !reflect.DeepEqual(got, want) {
			t.Errorf("IDs() = %v, want %v", got, want)
		}
	})

	t.Run("update_touches_peek_does_not", func(t *testing.T) {
		r := newTestRegistry(t, n, nil)
		for i := 0; i < n; i++ {
			r.Put(fmt.Sprintf("e%d", i), &testObject{kind: "text"})
		}
		_ = r.View("e0", func(Object) error { return nil })
		_ = r.Update("e1", func(Object) error { return nil })
		want := []string{"e0", "e2", "e1"}
		if got := r.IDs(); !reflect.DeepEqual(got, want) {
			t.Errorf("IDs() = %v, want %v", got, want)
		}
	})
}

func TestRegistry_Update_serialises_mutations(t *testing.T) {
	r := newTestRegistry(t, 8, nil)
	r.Put("a", &testObject{kind: "audio"})
	r.Put("b", &testObject{kind: "audio"})

	const workers, rounds = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := "a"
			if w%2 == 1 {
				id = "b"
			}
			for i := 0; i < rounds; i++ {
				err := r.Update(id, func(obj Object) error {
					obj.(*testObject).n++
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for _, id := range []string{"a", "b"} {
		obj, _ := r.Get(id)
		if got := obj.(*testObject).n; got != workers/2*rounds {
			t.Errorf("%s: n = %d, want %d", id, got, workers/2*rounds)
		}
	}
}

func TestRegistry_Update_after_remove(t *testing.T) {
	r := newTestRegistry(t, 2, nil)
	r.Put("a", &testObject{kind: "audio"})

	err := r.Update("a", func(Object) error {
		return r.Remove("a")
	})
	if err != nil {
		t.Fatalf("remove inside Update: %v", err)
	}

	err = r.Update("a", func(Object) error {
		t.Error("callback must not run for a removed id")
		return nil
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if err := r.Remove("a"); !errors.As(err, &nf) {
		t.Errorf("second Remove: expected NotFoundError, got %v", err)
	}
}

func TestRegistry_Update_returns_callback_error(t *testing.T) {
	r := newTestRegistry(t, 2, nil)
	r.Put("a", &testObject{kind: "audio"})
	boom := errors.New("boom")
	if err := r.Update("a", func(Object) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
