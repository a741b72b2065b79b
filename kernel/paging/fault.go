/*
 * maqsim - Page fault handler.
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

import (
	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
)

// Disk is the shared time-debt scalar of spec.md §4.7/§5: a single
// serialized device, modeled as one monotonic scalar rather than a
// queue object. Overlapping faults form an implicit FIFO through it.
type Disk struct {
	FreeTime int64
	Transfer int64 // DISK_TRANSFER, instruction cost of one page transfer
}

// schedule advances FreeTime past now, charges swapOutCost plus one
// transfer, and returns the resulting ETA. FreeTime never decreases.
func (d *Disk) schedule(now int64, swapOutCost int64) int64 {
	base := now
	if d.FreeTime > base {
		base = d.FreeTime
	}
	eta := base + swapOutCost + d.Transfer
	d.FreeTime = eta
	return eta
}

// Handler ties the frame allocator, the loader, and the disk time
// model together to service a page fault, spec.md §4.7.
type Handler struct {
	Alloc  *Allocator
	Disk   *Disk
	Loader ports.Loader
	MMU    ports.MMU

	PageSize int
}

// NewHandler builds a page fault handler over an already-constructed
// allocator and disk model.
func NewHandler(alloc *Allocator, disk *Disk, loader ports.Loader, mmu ports.MMU, pageSize int) *Handler {
	return &Handler{Alloc: alloc, Disk: disk, Loader: loader, MMU: mmu, PageSize: pageSize}
}

// Service runs the page fault handler for the running PCB at table
// index runningIdx, faulting on vaddr. now is the kernel's current
// instruction-count clock.
//
// Returns killed=true if the access was out of bounds (segmentation
// fault, spec.md §4.7 step 1) — the caller is responsible for calling
// process.Table.Kill; this function only decides the verdict.
func (h *Handler) Service(tbl *process.Table, runningIdx int, vaddr int, now int64) (killed bool) {
	p := tbl.At(runningIdx)

	if vaddr < 0 || vaddr >= p.MemSize {
		return true
	}

	p.Metrics.PageFaults++
	page := vaddr / h.PageSize

	var swapOutCost int64
	var frame int
	if h.Alloc.HasFree() {
		frame = h.Alloc.Alloc(runningIdx, page)
	} else {
		victim, ok := h.Alloc.Victim()
		if !ok {
			// No frame can ever be reclaimed: every frame is reserved.
			// Treat as a fatal configuration error by killing the
			// faulting process rather than wedging the kernel.
			return true
		}
		victimMeta := h.Alloc.Frames[victim]
		victimPT := tbl.At(victimMeta.Owner).PageTable
		if victimPT.Dirty(victimMeta.VPage) {
			swapOutCost = h.Disk.Transfer
		}
		victimPT.Invalidate(victimMeta.VPage)
		h.Alloc.Install(victim, runningIdx, page)
		frame = victim
	}

	h.MMU.DefineFrame(p.PageTable, page, frame)
	h.loadPage(p, page, frame)

	p.PageTable.Map(page, frame)

	eta := h.Disk.schedule(now, swapOutCost)
	p.DiskIOETA = eta
	p.Block(process.Paging, now)

	return false
}

// loadPage fills frame with PageSize bytes of p's executable image
// starting at page, zero-filling anything past MemSize (spec.md §4.7
// step 4: "pages that are BSS-like get zero-filled directly").
func (h *Handler) loadPage(p *process.PCB, page, frame int) {
	base := page * h.PageSize
	for i := 0; i < h.PageSize; i++ {
		vaddr := base + i
		var b byte
		if vaddr < p.MemSize {
			if v, err := h.Loader.ReadByte(p.ExeName, vaddr); err == nil {
				b = v
			}
		}
		h.MMU.WritePhysical(frame, i, b)
	}
}
