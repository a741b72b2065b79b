/*
 * maqsim - Priority scheduling policy.
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
	Register("PRIORITY", func(capacity int) Scheduler {
		return &priority{}
	})
}

// priority is the queueless policy of spec.md §4.4: it rescans the
// whole table each time, picking the READY PCB with the smallest
// priority value (lowest table index breaks ties). priority itself is
// updated at context-save (kernel package), not here.
type priority struct{}

func (s *priority) Name() string { return "PRIORITY" }

// Enqueue and Remove are no-ops: there is nothing to maintain between
// scans.
func (s *priority) Enqueue(int) {}
func (s *priority) Remove(int)  {}

func (s *priority) PickNext(tbl *process.Table, running int, _ int) (int, bool, bool) {
	best := -1
	for i := 0; i < tbl.Len(); i++ {
		p := tbl.At(i)
		if p.IsFree() || p.State != process.Ready {
			continue
		}
		if best < 0 || p.Priority < tbl.At(best).Priority {
			best = i
		}
	}
	if best < 0 {
		return 0, false, false
	}
	preempted := best != running && running >= 0 && !tbl.At(running).IsFree() && tbl.At(running).State == process.Ready
	return best, preempted, true
}
