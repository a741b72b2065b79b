/*
 * maqsim - Round-Robin scheduling policy.
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

package sched

import "github.com/rcornwell/maqsim/kernel/process"

func init() {
	Register("RR", func(capacity int) Scheduler {
		return &roundRobin{ring: process.NewRing(capacity)}
	})
}

// roundRobin is the ready-queue policy of spec.md §4.4: a strict FIFO
// ring of ready table indices, capacity MAX_PROCESSES.
type roundRobin struct {
	ring *process.Ring
}

func (s *roundRobin) Name() string { return "RR" }

func (s *roundRobin) Enqueue(idx int) {
	s.ring.PushTail(idx)
}

func (s *roundRobin) Remove(idx int) {
	s.ring.Remove(idx)
}

func (s *roundRobin) PickNext(tbl *process.Table, running int, quantumLeft int) (int, bool, bool) {
	if running >= 0 && tbl.At(running).State == process.Ready {
		if quantumLeft > 0 {
			// Quantum not expired: the current process keeps the CPU,
			// no enqueue, no dequeue.
			return running, false, true
		}
		// Quantum expired: rotate to the tail before popping the head.
		s.ring.PushTail(running)
	}
	next, ok := s.ring.PopHead()
	return next, false, ok
}
