/*
 * maqsim - Fixed-capacity process table.
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

import "errors"

// ErrTableFull is returned by Create when every slot is occupied.
var ErrTableFull = errors.New("process table full")

// Table is the fixed-capacity table of PCB slots, indexed by table
// slot (an internal allocator concern) but addressed externally by
// PID (spec.md Design Notes).
type Table struct {
	slots  []*PCB
	nextID int

	// terminated archives a value copy of every PCB Kill has torn
	// down, in termination order, so its accumulated metrics and
	// TerminationTime survive the slot being freed for reuse — the
	// original's end-of-run report walks every process ever created,
	// including ones that finished long before the run ended.
	terminated []PCB
}

// NewTable builds a table with capacity MAX_PROCESSES slots, all free.
func NewTable(capacity int) *Table {
	t := &Table{
		slots:  make([]*PCB, capacity),
		nextID: 1,
	}
	for i := range t.slots {
		t.slots[i] = freePCB()
	}
	return t
}

// Len is the table capacity (MAX_PROCESSES).
func (t *Table) Len() int {
	return len(t.slots)
}

// At returns the PCB at the given table slot.
func (t *Table) At(idx int) *PCB {
	return t.slots[idx]
}

// Create allocates the first free slot, assigns the next PID (PID 0 is
// reserved by spec.md §3 for "self" and is never assigned to a real
// process; the first process created is PID 1), and returns the new
// PCB in state Ready.
func (t *Table) Create(now int64) (*PCB, error) {
	idx := t.findFree()
	if idx < 0 {
		return nil, ErrTableFull
	}
	pid := t.nextID
	t.nextID++
	return t.install(idx, pid, now), nil
}

// install places a fresh PCB with the given PID into slot idx.
func (t *Table) install(idx, pid int, now int64) *PCB {
	p := &PCB{
		PID:         pid,
		State:       Ready,
		BlockReason: NoReason,
		PIDWaited:   NoPID,
		Priority:    0.5,
		StateSince:  now,
	}
	p.Metrics.CreationTime = now
	p.Metrics.ReadyEntries = 1
	t.slots[idx] = p
	return p
}

// findFree returns the lowest-indexed free slot, or -1.
func (t *Table) findFree() int {
	for i, p := range t.slots {
		if p.IsFree() {
			return i
		}
	}
	return -1
}

// IndexOf returns the table slot holding pid, or -1.
func (t *Table) IndexOf(pid int) int {
	for i, p := range t.slots {
		if !p.IsFree() && p.PID == pid {
			return i
		}
	}
	return -1
}

// Find returns the live PCB for pid, or nil.
func (t *Table) Find(pid int) *PCB {
	idx := t.IndexOf(pid)
	if idx < 0 {
		return nil
	}
	return t.slots[idx]
}

// Running returns the single RUNNING PCB's table index, or -1 if the
// CPU is halted. Per spec.md §3, at most one PCB is RUNNING.
func (t *Table) Running() int {
	for i, p := range t.slots {
		if p.State == Running {
			return i
		}
	}
	return -1
}

// Kill tears a PCB down to the free representation, recording
// termination time, and archives a value copy of its final state into
// Terminated before the slot is handed back for reuse. Frame and
// page-table cleanup is the paging package's responsibility; Kill only
// resets the table slot.
func (t *Table) Kill(idx int, now int64) {
	p := t.slots[idx]
	p.Transition(Terminated, now)
	p.Metrics.TerminationTime = now
	t.terminated = append(t.terminated, *p)
	t.slots[idx] = freePCB()
}

// Created is the total number of processes ever created, live or
// since terminated (spec.md §8's processes-created count).
func (t *Table) Created() int {
	return t.nextID - 1
}

// Terminated returns every process Kill has torn down, in termination
// order, each a value copy taken at the moment of death so its
// metrics and TerminationTime remain inspectable after the table slot
// that held it has been recycled.
func (t *Table) Terminated() []PCB {
	return t.terminated
}

// Each calls fn for every live PCB in ascending table-index order —
// the tie-break rule spec.md §4.3 requires for the pending-event scan.
func (t *Table) Each(fn func(idx int, p *PCB)) {
	for i, p := range t.slots {
		if !p.IsFree() {
			fn(i, p)
		}
	}
}
