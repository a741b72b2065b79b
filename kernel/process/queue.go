/*
 * maqsim - Ready queue ring buffer.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package process

// Ring is a fixed-capacity FIFO of table-slot indices, used by the
// Round-Robin scheduler for the ready queue (spec.md §4.4) and by the
// FIFO page-replacement policy for frame allocation order (§4.8).
// Capacity equals MAX_PROCESSES for the ready queue, and max_frames
// for the FIFO frame queue.
type Ring struct {
	buf        []int
	head, tail int
	count      int
}

// NewRing builds an empty ring of the given capacity.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]int, capacity)}
}

// Empty reports whether the ring holds no entries.
func (r *Ring) Empty() bool {
	return r.count == 0
}

// Len is the number of entries currently queued.
func (r *Ring) Len() int {
	return r.count
}

// PushTail enqueues at the tail. Panics if the ring is already at
// capacity — callers never push more entries than the ring was
// created to hold, since the ready queue and FIFO frame queue are
// both bounded by construction.
func (r *Ring) PushTail(v int) {
	if r.count == len(r.buf) {
		panic("process: ring buffer overflow")
	}
	r.buf[r.tail] = v
	r.tail = (r.tail + 1) % len(r.buf)
	r.count++
}

// PopHead dequeues the head entry. ok is false if the ring is empty.
func (r *Ring) PopHead() (v int, ok bool) {
	if r.count == 0 {
		return 0, false
	}
	v = r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return v, true
}

// PeekHead returns the head entry without dequeuing it.
func (r *Ring) PeekHead() (v int, ok bool) {
	if r.count == 0 {
		return 0, false
	}
	return r.buf[r.head], true
}

// Remove drops the first occurrence of v from the ring, preserving
// the relative order of the remaining entries. Used when a ready
// process is killed before its turn comes up.
func (r *Ring) Remove(v int) bool {
	found := false
	remaining := make([]int, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % len(r.buf)
		if !found && r.buf[idx] == v {
			found = true
			continue
		}
		remaining = append(remaining, r.buf[idx])
	}
	if !found {
		return false
	}
	r.head = 0
	r.tail = len(remaining) % len(r.buf)
	r.count = len(remaining)
	for i, v := range remaining {
		r.buf[i] = v
	}
	return true
}
