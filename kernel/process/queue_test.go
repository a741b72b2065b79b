package process

import "testing"

func TestRingFIFOOrder(t *testing.T) {
	r := NewRing(3)
	r.PushTail(1)
	r.PushTail(2)
	r.PushTail(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := r.PopHead()
		if !ok || got != want {
			t.Errorf("PopHead got: (%d,%v) expected: (%d,true)", got, ok, want)
		}
	}
	if !r.Empty() {
		t.Errorf("ring should be empty")
	}
}

func TestRingWrapsAroundBuffer(t *testing.T) {
	r := NewRing(2)
	r.PushTail(10)
	r.PopHead()
	r.PushTail(20)
	r.PushTail(30) // wraps: head moved, tail wraps to index 0

	got, _ := r.PopHead()
	if got != 20 {
		t.Errorf("got: %d expected: %d", got, 20)
	}
	got, _ = r.PopHead()
	if got != 30 {
		t.Errorf("got: %d expected: %d", got, 30)
	}
}

func TestRingRemovePreservesOrder(t *testing.T) {
	r := NewRing(4)
	r.PushTail(1)
	r.PushTail(2)
	r.PushTail(3)

	if !r.Remove(2) {
		t.Fatalf("expected to remove 2")
	}
	var got []int
	for {
		v, ok := r.PopHead()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("got: %v expected: [1 3]", got)
	}
}

func TestRingRemoveMissing(t *testing.T) {
	r := NewRing(2)
	r.PushTail(1)
	if r.Remove(99) {
		t.Errorf("Remove should report false for a value not present")
	}
}
