/*
 * maqsim - Physical frame allocator and inverted frame table.
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

// Package paging implements demand-paged virtual memory: the frame
// allocator and inverted frame table, the two pluggable replacement
// algorithms (FIFO and LRU aging), and the page fault handler that
// ties them to the loader. Grounded on the teacher's flat
// byte-addressed memory (emu/memory.go), whose per-2K-page key byte
// already tracks access/modify bits the way this frame table tracks
// per-frame reference/dirty ownership.
package paging

// NoOwner marks a frame with no owner: never allocated yet, or
// released by Free. Reserved boot/ROM frames carry reservedOwner
// instead (spec.md §3: "every used frame is either reserved boot/ROM
// or owned by some live PCB").
const NoOwner = -1

// FrameMeta is one entry of the inverted frame table: which process
// owns this physical frame and which of its virtual pages is mapped
// there, plus the LRU aging counter (unused by FIFO).
type FrameMeta struct {
	Owner int // table index of owning PCB, or NoOwner
	VPage int
	Age   uint32
}

// Allocator owns the fixed set of physical frames, the
// sequential-allocation pointer used before replacement kicks in, and
// the pool of frames Free has released but a later Alloc has not yet
// handed back out.
type Allocator struct {
	Frames   []FrameMeta
	Reserved int // frames [0, Reserved) are boot/ROM, never assigned
	nextFree int
	used     int
	Replace  Replacement

	// freePool holds frames released by Free: killing a process can
	// make frames allocatable again well before the sequential pointer
	// runs out or a replacement victim would ever name them, so Alloc
	// checks here first.
	freePool []int
}

// NewAllocator builds an allocator of maxFrames total frames, the
// first `reserved` of which are pre-owned by boot ROM and never
// handed out.
func NewAllocator(maxFrames, reserved int, replace Replacement) *Allocator {
	frames := make([]FrameMeta, maxFrames)
	for i := range frames {
		frames[i].Owner = NoOwner
	}
	for i := 0; i < reserved; i++ {
		frames[i].Owner = reservedOwner
	}
	a := &Allocator{
		Frames:   frames,
		Reserved: reserved,
		nextFree: reserved,
		used:     reserved,
		Replace:  replace,
	}
	replace.Init(a)
	return a
}

// reservedOwner marks a frame permanently owned by boot ROM, distinct
// from NoOwner (free) so UsedCount and invariant checks can tell them
// apart.
const reservedOwner = -2

// MaxFrames is the total frame count (reserved + assignable).
func (a *Allocator) MaxFrames() int {
	return len(a.Frames)
}

// UsedCount is n_frames_used of spec.md §3: every frame that is
// either reserved or owned by a live process.
func (a *Allocator) UsedCount() int {
	return a.used
}

// HasFree reports whether a frame can be had without asking
// replacement to name a victim: one released by Free and not yet
// reassigned, or one never handed out at all.
func (a *Allocator) HasFree() bool {
	return len(a.freePool) > 0 || a.nextFree < len(a.Frames)
}

// Alloc takes a frame without evicting anything (spec.md §4.7 step 3,
// first branch): preferentially one Free released earlier, otherwise
// the next never-used sequential frame. Either way it installs
// owner/vpage into it.
func (a *Allocator) Alloc(owner, vpage int) int {
	var frame int
	if n := len(a.freePool); n > 0 {
		frame = a.freePool[n-1]
		a.freePool = a.freePool[:n-1]
	} else {
		frame = a.nextFree
		a.nextFree++
	}
	a.used++
	a.Install(frame, owner, vpage)
	return frame
}

// Install sets the inverted-table entry for frame: owner, vpage, and
// age reset to zero (spec.md §4.7 step 5). Used both for a fresh
// allocation and for a frame that just had its victim evicted.
func (a *Allocator) Install(frame, owner, vpage int) {
	a.Frames[frame].Owner = owner
	a.Frames[frame].VPage = vpage
	a.Frames[frame].Age = 0
	a.Replace.OnInstall(frame)
}

// Victim asks the active replacement policy for a frame to evict.
func (a *Allocator) Victim() (frame int, ok bool) {
	frame = a.Replace.Victim(a)
	if frame < 0 {
		return 0, false
	}
	return frame, true
}

// Free releases every frame owned by owner (kill_process cleanup,
// spec.md §4.6 MATA_PROC): each one is pulled out of the active
// replacement structure via OnFree (so FIFO's ring, in particular,
// never hands an orphaned entry to a later Victim) and pushed onto
// freePool, where Alloc will find it again before HasFree ever forces
// a Victim call.
func (a *Allocator) Free(owner int) {
	for i := range a.Frames {
		if a.Frames[i].Owner == owner {
			a.Frames[i].Owner = NoOwner
			a.used--
			a.Replace.OnFree(i)
			a.freePool = append(a.freePool, i)
		}
	}
}

// CountOwned recomputes n_frames_used from the inverted table
// directly, independent of the used counter, so the spec.md §8
// invariant that the two agree can be checked. Reserved frames count
// as owned, as they do in UsedCount.
func (a *Allocator) CountOwned() int {
	n := 0
	for _, f := range a.Frames {
		if f.Owner != NoOwner {
			n++
		}
	}
	return n
}
