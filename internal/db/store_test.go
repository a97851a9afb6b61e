package db

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_InsertAndGet(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Insert("repairs/12가3456", []byte("value")); err != nil {
		t.Fatalf("insert value: %v", err)
	}

	got, err := store.Get("repairs/12가3456")
	if err != nil {
		t.Fatalf("get value: %v", err)
	}
	if string(got) != "value" {
		t.Errorf("expected value, got %s", got)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("repairs/nonexistent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_InsertOnlyIfAbsent(t *testing.T) {
	store := newTestStore(t)

	ok, err := store.Insert("k", []byte("v1"))
	if err != nil || !ok {
		t.Fatalf("first insert: ok=%v err=%v", ok, err)
	}

	ok, err = store.Insert("k", []byte("v2"))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if ok {
		t.Error("expected second insert to be rejected")
	}

	got, _ := store.Get("k")
	if string(got) != "v1" {
		t.Errorf("expected v1, got %s", got)
	}
}

func TestStore_ConcurrentInsertSingleWinner(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.Insert("same", []byte(fmt.Sprint(i)))
			if err != nil {
				t.Errorf("insert: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one insert to win, got %d", wins)
	}
}

func TestStore_Modify(t *testing.T) {
	store := newTestStore(t)
	store.Insert("k", []byte("a"))

	found, err := store.Modify("k", func(old []byte) ([]byte, error) {
		return append(old, 'b'), nil
	})
	if err != nil || !found {
		t.Fatalf("modify: found=%v err=%v", found, err)
	}

	got, _ := store.Get("k")
	if string(got) != "ab" {
		t.Errorf("expected ab, got %s", got)
	}

	found, err = store.Modify("missing", func(old []byte) ([]byte, error) {
		t.Error("fn must not be called for a missing key")
		return old, nil
	})
	if err != nil || found {
		t.Errorf("expected not found, got found=%v err=%v", found, err)
	}
}

func TestStore_ConcurrentModifyAlwaysCommits(t *testing.T) {
	store := newTestStore(t)
	store.Insert("counter", []byte("0"))

	const writers, rounds = 64, 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				found, err := store.Modify("counter", func(old []byte) ([]byte, error) {
					n, err := strconv.Atoi(string(old))
					if err != nil {
						return nil, err
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
				if err != nil || !found {
					t.Errorf("modify: found=%v err=%v", found, err)
				}
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get("counter")
	if want := strconv.Itoa(writers * rounds); string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	store.Insert("k", []byte("v"))

	found, err := store.Delete("k")
	if err != nil || !found {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}

	found, err = store.Delete("k")
	if err != nil || found {
		t.Errorf("expected second delete to report missing, got found=%v err=%v", found, err)
	}

	if _, err := store.Get("k"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestStore_ScanPrefixInKeyOrder(t *testing.T) {
	store := newTestStore(t)
	store.Insert("repairs/b", []byte("2"))
	store.Insert("repairs/a", []byte("1"))
	store.Insert("other/c", []byte("3"))

	var keys []string
	err := store.Scan("repairs/", func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(keys) != 2 || keys[0] != "repairs/a" || keys[1] != "repairs/b" {
		t.Errorf("unexpected keys: %v", keys)
	}

	n, err := store.Count("repairs/")
	if err != nil || n != 2 {
		t.Errorf("expected count 2, got %d (%v)", n, err)
	}
}
