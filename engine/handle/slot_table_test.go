package handle

import (
	"sync"
	"testing"
)

func TestAllocateProducesValidHandle(t *testing.T) {
	st := NewSlotTable[int](4)
	h := st.Allocate(42)
	if !h.IsValid() {
		t.Fatalf("expected allocated handle to be valid")
	}
	v := st.Get(h)
	if v == nil || *v != 42 {
		t.Fatalf("expected Get to return 42, got %v", v)
	}
}

func TestReleaseInvalidatesHandleABA(t *testing.T) {
	st := NewSlotTable[int](1)
	h1 := st.Allocate(1)
	if !st.Release(h1) {
		t.Fatalf("expected release to succeed")
	}
	if st.IsValid(h1) {
		t.Fatalf("expected h1 to be invalid after release")
	}

	h2 := st.Allocate(2)
	if !h2.IsValid() {
		t.Fatalf("expected reallocated handle to be valid")
	}
	if h2 == h1 {
		t.Fatalf("expected reused slot to produce a distinct handle")
	}
	if h2.Index != h1.Index {
		t.Fatalf("expected the same slot index to be reused, got %d vs %d", h2.Index, h1.Index)
	}
	if h2.Generation == h1.Generation {
		t.Fatalf("expected generation to differ between allocations of the same slot")
	}
	if st.IsValid(h1) {
		t.Fatalf("old handle should remain invalid after reuse")
	}
	if !st.IsValid(h2) {
		t.Fatalf("new handle should be valid")
	}
}

func TestDoubleReleaseIsIdempotent(t *testing.T) {
	st := NewSlotTable[int](1)
	h := st.Allocate(1)
	if !st.Release(h) {
		t.Fatalf("first release should succeed")
	}
	if st.Release(h) {
		t.Fatalf("second release of the same handle should report false")
	}
}

func TestCapacityInvariant(t *testing.T) {
	const n = 8
	st := NewSlotTable[int](n)
	handles := make([]Handle, 0, n)
	for i := 0; i < n; i++ {
		h := st.Allocate(i)
		if !h.IsValid() {
			t.Fatalf("allocate %d should succeed while capacity remains", i)
		}
		handles = append(handles, h)
	}
	if st.UsedSlots()+st.AvailableSlots() != n {
		t.Fatalf("used + available must equal capacity")
	}
	if !st.IsFull() {
		t.Fatalf("table should report full at capacity")
	}
	if h := st.Allocate(99); h.IsValid() {
		t.Fatalf("allocate past capacity should return the invalid handle")
	}

	st.Release(handles[0])
	if st.IsFull() {
		t.Fatalf("table should no longer be full after a release")
	}
}

func TestConcurrentAllocateProducesDistinctHandles(t *testing.T) {
	const workers = 8
	const perWorker = 50
	st := NewSlotTable[int](workers * perWorker)

	results := make(chan Handle, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results <- st.Allocate(base + i)
			}
		}(w * perWorker)
	}
	wg.Wait()
	close(results)

	seen := make(map[Handle]bool, workers*perWorker)
	for h := range results {
		if !h.IsValid() {
			t.Fatalf("expected all concurrent allocations to succeed")
		}
		if seen[h] {
			t.Fatalf("duplicate handle produced by concurrent allocate: %+v", h)
		}
		seen[h] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d distinct handles, got %d", workers*perWorker, len(seen))
	}
}

func TestIsEmptyAndGetOnStaleSlot(t *testing.T) {
	st := NewSlotTable[string](2)
	if !st.IsEmpty() {
		t.Fatalf("new table should be empty")
	}
	h := st.Allocate("hello")
	if st.IsEmpty() {
		t.Fatalf("table should not be empty after allocate")
	}
	st.Release(h)
	if st.Get(h) != nil {
		t.Fatalf("Get on a released handle must return nil")
	}
	if st.Get(Invalid) != nil {
		t.Fatalf("Get on the invalid sentinel must return nil")
	}
}
