/*
 * maqsim - Page replacement capability and build-time registry.
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

// Replacement picks eviction victims among owned, non-reserved
// frames (spec.md §4.8). Like sched.Scheduler, the two algorithms
// register themselves by name from their own init(), so selecting a
// policy never touches the allocator.
type Replacement interface {
	Name() string

	// Init runs once, right after the allocator is constructed, so a
	// policy can size any internal structures to the frame count.
	Init(a *Allocator)

	// OnInstall runs whenever a frame becomes newly in-use, whether by
	// a fresh sequential allocation or by reuse after eviction. FIFO
	// enqueues the frame at the tail of its ring; LRU does nothing (the
	// frame's Age was already reset to zero by Allocator.Install).
	OnInstall(frame int)

	// Victim picks a frame to evict among a's owned, non-reserved
	// frames.
	Victim(a *Allocator) int

	// OnFree runs when Allocator.Free releases a still-tracked frame
	// back to the allocator (its owning process was killed before the
	// frame ever came up as a victim). FIFO drops it from the ring so
	// a later Victim never hands out an unowned frame; LRU needs no
	// bookkeeping since Victim already skips NoOwner frames by Owner.
	OnFree(frame int)

	// Age runs on every CLOCK IRQ (spec.md §4.2/§4.8). LRU shifts the
	// age of every frame owned by runningIdx and sets its top bit if
	// the page's reference bit is set, then clears that bit. FIFO is a
	// no-op.
	Age(a *Allocator, tbl *process.Table, runningIdx int)
}

// ReplacementFactory builds a Replacement instance.
type ReplacementFactory func() Replacement

var registry = map[string]ReplacementFactory{}

// Register adds a named replacement policy to the build-time registry.
func Register(name string, f ReplacementFactory) {
	registry[name] = f
}

// New builds the named policy, or reports it unknown.
func New(name string) (Replacement, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names lists every registered replacement policy.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
