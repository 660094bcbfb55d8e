package transport

import "testing"

func TestOutQueueEnqueueDrainFIFO(t *testing.T) {
	q := NewOutQueue(4)
	for i := 0; i < 3; i++ {
		if !q.Enqueue([]byte{byte(i)}) {
			t.Fatalf("enqueue %d should have been accepted", i)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}
	drained := q.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained items, got %d", len(drained))
	}
	for i, d := range drained {
		if d[0] != byte(i) {
			t.Fatalf("out of order: index %d got %v", i, d)
		}
	}
	if q.Len() != 0 {
		t.Fatal("queue should be empty after Drain")
	}
}

func TestOutQueueDropsWhenFull(t *testing.T) {
	q := NewOutQueue(2)
	if !q.Enqueue([]byte("a")) {
		t.Fatal("first enqueue should be accepted")
	}
	if !q.Enqueue([]byte("b")) {
		t.Fatal("second enqueue should be accepted")
	}
	if q.Enqueue([]byte("c")) {
		t.Fatal("third enqueue should be dropped once at capacity")
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2 after drop, got %d", q.Len())
	}
}
