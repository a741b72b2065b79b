/*
 * maqsim - LRU (software aging) page replacement.
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

package paging

import "github.com/rcornwell/maqsim/kernel/process"

func init() {
	Register("LRU", func() Replacement { return &lru{} })
}

// ageWidth is W in spec.md §4.8: the width of the aging counter.
const ageWidth = 32

// lru is the software aging approximation: each frame carries a
// shift register of recent reference history, aged once per CLOCK
// IRQ for the currently-running process's own frames only (scanning
// other processes would age stale reference-bit state, spec.md §4.8
// rationale).
type lru struct{}

func (l *lru) Name() string { return "LRU" }

func (l *lru) Init(*Allocator) {}

// OnInstall is a no-op: Allocator.Install already reset Age to zero.
func (l *lru) OnInstall(int) {}

// OnFree is a no-op: Victim already skips NoOwner/reservedOwner
// frames by Owner, which Allocator.Free has already set.
func (l *lru) OnFree(int) {}

func (l *lru) Victim(a *Allocator) int {
	victim := -1
	for i, f := range a.Frames {
		if f.Owner == NoOwner || f.Owner == reservedOwner {
			continue
		}
		if victim < 0 || f.Age < a.Frames[victim].Age {
			victim = i
		}
	}
	return victim
}

func (l *lru) Age(a *Allocator, tbl *process.Table, runningIdx int) {
	if runningIdx < 0 {
		return
	}
	pt := tbl.At(runningIdx).PageTable
	if pt == nil {
		return
	}
	for i := range a.Frames {
		f := &a.Frames[i]
		if f.Owner != runningIdx {
			continue
		}
		f.Age >>= 1
		if pt.Reference(f.VPage) {
			f.Age |= 1 << (ageWidth - 1)
			pt.ClearReference(f.VPage)
		}
	}
}
