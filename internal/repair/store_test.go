package repair

import (
	"fmt"
	"sync"
	"testing"

	"github.com/repairboard/kioskd/internal/db"
)

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewStore())
	})
	t.Run("badger", func(t *testing.T) {
		dbStore, err := db.NewStore()
		if err != nil {
			t.Fatalf("create db store: %v", err)
		}
		t.Cleanup(func() { dbStore.Close() })
		fn(t, NewKVStore(dbStore, nil))
	})
}

func sonata() Record {
	return Record{
		Plate:           "001가111",
		Model:           "Sonata",
		Status:          StatusInProgress,
		RequestedTime:   Clock(8, 30, 0),
		EstimatedFinish: Clock(10, 30, 0),
	}
}

func TestStore_AddAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		r := sonata()
		if !store.Add(r) {
			t.Fatal("expected add to succeed")
		}

		got, ok := store.Get(r.Plate)
		if !ok {
			t.Fatal("expected record to exist")
		}
		if got != r {
			t.Errorf("expected %+v, got %+v", r, got)
		}
	})
}

func TestStore_GetNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if _, ok := store.Get("nonexistent"); ok {
			t.Error("expected record not found")
		}
	})
}

func TestStore_AddDuplicateDoesNotMutate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())

		dup := sonata()
		dup.Model = "Avante"
		if store.Add(dup) {
			t.Fatal("expected duplicate add to fail")
		}

		got, _ := store.Get(dup.Plate)
		if got.Model != "Sonata" {
			t.Errorf("expected original model, got %s", got.Model)
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 record, got %d", store.Len())
		}
	})
}

func TestStore_AddInvalidRejected(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		if store.Add(Record{Plate: "", Status: StatusCompleted}) {
			t.Error("expected empty plate to be rejected")
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d", store.Len())
		}
	})
}

func TestStore_Remove(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())

		if !store.Remove("001가111") {
			t.Error("expected remove to succeed")
		}
		if store.Remove("001가111") {
			t.Error("expected second remove to fail")
		}
		if store.Len() != 0 {
			t.Errorf("expected empty store, got %d", store.Len())
		}
	})
}

func TestStore_UpdatePartial(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())

		status := StatusFinalInspection
		if !store.Update("001가111", Changes{Status: &status}) {
			t.Fatal("expected update to succeed")
		}

		got, _ := store.Get("001가111")
		if got.Status != StatusFinalInspection {
			t.Errorf("expected final inspection, got %s", got.Status)
		}
		if got.Model != "Sonata" || got.EstimatedFinish != Clock(10, 30, 0) {
			t.Errorf("unchanged fields were modified: %+v", got)
		}

		if store.Update("missing", Changes{Status: &status}) {
			t.Error("expected update of missing plate to fail")
		}
	})
}

func TestStore_ModifyReturnsStoredRecord(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())

		var cleared TimeOfDay
		got, ok := store.Modify("001가111", Changes{EstimatedFinish: &cleared})
		if !ok {
			t.Fatal("expected modify to succeed")
		}
		if got.Plate != "001가111" || got.Model != "Sonata" || got.EstimatedFinish.IsSet() {
			t.Errorf("unexpected record: %+v", got)
		}

		stored, _ := store.Get("001가111")
		if stored != got {
			t.Errorf("expected stored %+v, got %+v", got, stored)
		}

		store.Remove("001가111")
		if _, ok := store.Modify("001가111", Changes{EstimatedFinish: &cleared}); ok {
			t.Error("expected modify of removed plate to fail")
		}
	})
}

func TestStore_Replace(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())

		ok := store.Replace("001가111", Record{Plate: "ignored", Model: "K5", Status: StatusCompleted})
		if !ok {
			t.Fatal("expected replace to succeed")
		}

		got, ok := store.Get("001가111")
		if !ok {
			t.Fatal("plate must not change on replace")
		}
		want := Record{Plate: "001가111", Model: "K5", Status: StatusCompleted}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
		if _, ok := store.Get("ignored"); ok {
			t.Error("replace must not create a new plate")
		}
	})
}

func TestStore_SnapshotIsolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(sonata())
		snap := store.Snapshot()

		status := StatusCompleted
		store.Update("001가111", Changes{Status: &status})
		store.Add(Record{Plate: "002나222", Status: StatusInProgress})
		store.Remove("001가111")

		if len(snap) != 1 {
			t.Fatalf("expected snapshot of 1, got %d", len(snap))
		}
		if snap[0].Status != StatusInProgress {
			t.Errorf("snapshot changed retroactively: %+v", snap[0])
		}
	})
}

func TestMemStore_SnapshotInsertionOrder(t *testing.T) {
	store := NewStore()
	for _, p := range []string{"c", "a", "b"} {
		store.Add(Record{Plate: p, Status: StatusInProgress})
	}
	store.Remove("a")
	store.Add(Record{Plate: "a", Status: StatusInProgress})

	var got []string
	for _, r := range store.Snapshot() {
		got = append(got, r.Plate)
	}
	if fmt.Sprint(got) != "[c b a]" {
		t.Errorf("expected [c b a], got %v", got)
	}
}

func TestStore_ConcurrentAddUniqueness(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := map[string]int{}

		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				plate := fmt.Sprintf("plate-%d", i%8)
				if store.Add(Record{Plate: plate, Model: fmt.Sprint(i), Status: StatusInProgress}) {
					mu.Lock()
					wins[plate]++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if store.Len() != 8 {
			t.Errorf("expected 8 records, got %d", store.Len())
		}
		for plate, n := range wins {
			if n != 1 {
				t.Errorf("plate %s added %d times", plate, n)
			}
		}
	})
}

func TestStore_ConcurrentReplaceNeverMixesFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		store.Add(Record{Plate: "P", Model: "m0", Status: StatusInProgress})

		// Writer i always pairs model "m<i>" with finish time i minutes.
		var wg sync.WaitGroup
		for i := 1; i <= 64; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				finish, _ := At(i * 60)
				for j := 0; j < 20; j++ {
					if !store.Replace("P", Record{Model: fmt.Sprintf("m%d", i), Status: StatusFinalInspection, EstimatedFinish: finish}) {
						t.Errorf("writer %d: replace of existing plate reported not found", i)
						return
					}
				}
			}(i)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 200; j++ {
				checkConsistent(t, store)
			}
		}()

		wg.Wait()
		<-done
		checkConsistent(t, store)
	})
}

func checkConsistent(t *testing.T, store Store) {
	t.Helper()
	r, ok := store.Get("P")
	if !ok {
		t.Error("record disappeared")
		return
	}
	if r.Model == "m0" {
		return
	}
	secs, set := r.EstimatedFinish.Seconds()
	if !set || fmt.Sprintf("m%d", secs/60) != r.Model {
		t.Errorf("torn record: model=%s finish=%s", r.Model, r.EstimatedFinish)
	}
}
