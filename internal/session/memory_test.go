package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_GetPut(t *testing.T) {
	store := NewMemoryStore[string]()
	ctx := context.Background()

	if err := store.Put(ctx, "s1", "draft"); err != nil {
		t.Fatalf("Unexpected error on Put: %v", err)
	}

	got, ok, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Unexpected error on Get: %v", err)
	}
	if !ok {
		t.Error("Expected value to exist")
	}
	if got != "draft" {
		t.Errorf("Expected value 'draft', got '%s'", got)
	}

	_, ok, err = store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Unexpected error on Get: %v", err)
	}
	if ok {
		t.Error("Expected value to not exist")
	}
}

type counter struct{ n int }

func TestMemoryStore_UpdateSerializes(t *testing.T) {
	store := NewMemoryStore[*counter]()
	ctx := context.Background()
	if err := store.Put(ctx, "s1", &counter{}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(ctx, "s1", func(c *counter) error {
				c.n++
				return nil
			})
			if err != nil {
				t.Errorf("Error in concurrent Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _, _ := store.Get(ctx, "s1")
	if got.n != 50 {
		t.Errorf("Expected 50 increments, got %d", got.n)
	}
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	store := NewMemoryStore[*counter]()
	err := store.Update(context.Background(), "nope", func(*counter) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_UpdatePropagatesError(t *testing.T) {
	store := NewMemoryStore[*counter]()
	ctx := context.Background()
	_ = store.Put(ctx, "s1", &counter{})

	boom := errors.New("boom")
	if err := store.Update(ctx, "s1", func(*counter) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected fn error, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()
	_ = store.Put(ctx, "s1", 1)

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Unexpected error on Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "s1"); ok {
		t.Error("Expected session to be gone")
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Errorf("Deleting twice should be a no-op, got %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore[string]()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Put(ctx, "old", "a")
	now = now.Add(time.Hour)
	_ = store.Put(ctx, "fresh", "b")
	now = now.Add(10 * time.Minute)

	removed := store.Sweep(30 * time.Minute)
	if len(removed) != 1 || removed[0] != "a" {
		t.Errorf("Expected only 'a' to be swept, got %v", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 live session, got %d", store.Len())
	}
	if _, ok, _ := store.Get(ctx, "fresh"); !ok {
		t.Error("Expected fresh session to survive")
	}
}

func TestMemoryStore_NewID(t *testing.T) {
	store := NewMemoryStore[string]()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.NewID()
		if ids[id] {
			t.Errorf("Duplicate ID generated: %s", id)
		}
		ids[id] = true

		// Canonical UUID form.
		if len(id) != 36 {
			t.Errorf("Expected ID length 36, got %d", len(id))
		}
	}
}
