package ring

import (
	"sync"
	"testing"
)

func TestBufferBelowCapacity(t *testing.T) {
	b := New[int](5)
	b.Add(1)
	b.Add(2)
	b.Add(3)

	if b.Len() != 3 {
		t.Errorf("expected 3 items, got %d", b.Len())
	}
	got := b.All()
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBufferOverwritesOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Add(i)
	}

	if b.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", b.Len())
	}
	got := b.All()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBufferLast(t *testing.T) {
	b := New[int](10)
	for i := 1; i <= 6; i++ {
		b.Add(i)
	}

	got := b.Last(2)
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Last(2) = %v, want [5 6]", got)
	}
	if len(b.Last(100)) != 6 {
		t.Errorf("Last beyond length should return everything")
	}
}

func TestBufferEmpty(t *testing.T) {
	b := New[string](4)
	if b.All() != nil {
		t.Errorf("empty buffer should return nil")
	}
	if b.Len() != 0 {
		t.Errorf("empty buffer Len = %d", b.Len())
	}
}

func TestBufferMinimumCapacity(t *testing.T) {
	b := New[int](0)
	b.Add(1)
	b.Add(2)
	if b.Cap() != 1 || b.Len() != 1 || b.All()[0] != 2 {
		t.Errorf("zero-capacity buffer should clamp to 1")
	}
}

func TestBufferConcurrentAdd(t *testing.T) {
	b := New[int](64)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Add(j)
				b.All()
			}
		}()
	}
	wg.Wait()
	if b.Len() != 64 {
		t.Errorf("expected full buffer, got %d", b.Len())
	}
}
