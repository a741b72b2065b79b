/*
 * maqsim - MMU and per-process page table.
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

// Package mmu implements the kernel's ports.MMU and ports.PageTable
// boundaries over a hw/memory.Store, the way emu/memory.go's GetKey
// exposes the access/modify bits a page-replacement policy consults —
// generalized here from a single flat address space to one page table
// per process.
package mmu

import (
	"errors"

	"github.com/rcornwell/maqsim/hw/memory"
	"github.com/rcornwell/maqsim/kernel/ports"
)

// ErrPageNotMapped is returned by ReadByteUser when the caller's page
// table has no frame for the requested address.
var ErrPageNotMapped = errors.New("mmu: page not mapped")

// PageTable is one process's virtual-page-to-frame map.
type PageTable struct {
	store    *memory.Store
	pages    map[int]int
	pageSize int
}

func newPageTable(store *memory.Store) *PageTable {
	return &PageTable{store: store, pages: map[int]int{}, pageSize: store.PageSize()}
}

func (t *PageTable) Lookup(page int) (int, bool) { f, ok := t.pages[page]; return f, ok }
func (t *PageTable) Map(page, frame int)          { t.pages[page] = frame }
func (t *PageTable) Invalidate(page int)          { delete(t.pages, page) }

func (t *PageTable) Reference(page int) bool {
	frame, ok := t.pages[page]
	return ok && t.store.Reference(frame)
}

func (t *PageTable) Dirty(page int) bool {
	frame, ok := t.pages[page]
	return ok && t.store.Dirty(frame)
}

func (t *PageTable) ClearReference(page int) {
	if frame, ok := t.pages[page]; ok {
		t.store.ClearReference(frame)
	}
}

// MMU binds a PageTable and performs byte-at-a-time user-mode access
// through it.
type MMU struct {
	store *memory.Store
	bound ports.PageTable
}

// New builds an MMU over store. A nil bound page table means
// kernel-only: no user translation is possible until Bind is called.
func New(store *memory.Store) *MMU {
	return &MMU{store: store}
}

func (m *MMU) Bind(pt ports.PageTable) { m.bound = pt }

func (m *MMU) NewPageTable() ports.PageTable { return newPageTable(m.store) }

func (m *MMU) ReadByteUser(addr int) (byte, error) {
	if m.bound == nil {
		return 0, ErrPageNotMapped
	}
	page := addr / m.store.PageSize()
	offset := addr % m.store.PageSize()
	frame, ok := m.bound.Lookup(page)
	if !ok {
		return 0, ErrPageNotMapped
	}
	return m.store.ReadByte(frame, offset), nil
}

// DefineFrame installs the page→frame mapping on pt and resets the
// frame's key bits, since a frame changing owners must not carry over
// the previous owner's reference/dirty history. The kernel's own page
// fault handler also calls pt.Map directly after loading a page; both
// paths converge on the same PageTable.Map, so this is never the only
// place a mapping is set — it exists so hardware-facing code can go
// through the MMU boundary instead of reaching into a PageTable.
func (m *MMU) DefineFrame(pt ports.PageTable, page, frame int) {
	m.store.ClearFrame(frame)
	pt.Map(page, frame)
}

func (m *MMU) WritePhysical(frame, offset int, b byte) {
	m.store.LoadByte(frame, offset, b)
}
