package containers

import (
	"errors"
	"testing"
)

func TestRingQueuePushDropsOldest(t *testing.T) {
	q := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	if q.Len() != 3 || !q.IsFull() {
		t.Fatalf("len = %d, want 3", q.Len())
	}
	var got []int
	q.Each(func(v int) { got = append(got, v) })
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Fatalf("Each visited %v, want [3 4 5]", got)
	}
	if v, _ := q.Peek(); v != 3 {
		t.Fatalf("Peek = %d, want 3", v)
	}
}

func TestRingQueueBounds(t *testing.T) {
	q := NewRingQueue[string](1)
	if _, err := q.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("Dequeue on empty = %v", err)
	}
	if err := q.Enqueue("a"); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue("b"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Enqueue on full = %v", err)
	}
	if v, err := q.Dequeue(); err != nil || v != "a" || !q.IsEmpty() {
		t.Fatalf("Dequeue = %q, %v", v, err)
	}

	// A zero-sized queue silently ignores pushes.
	z := NewRingQueue[int](0)
	z.Push(1)
	if z.Len() != 0 {
		t.Fatal("zero-sized queue stored a value")
	}
}
