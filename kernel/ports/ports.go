/*
 * maqsim - External collaborator interfaces (CPU, MMU, I/O bus, loader).
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

// Package ports holds the interfaces the kernel core consumes from the
// simulated hardware it supervises: the CPU save area, the MMU, the
// four-terminal I/O bus, and the program loader. Every type here is a
// collaborator boundary (spec.md §6) — the kernel never reaches past
// these interfaces into how the hardware is actually simulated.
package ports

// Context is the CPU save area the trampoline exposes at fixed
// addresses: PC, A, ERR, COMPLEMENT, and X (register 59 in the source
// machine). SaveContext and Dispatch move a Context between a PCB and
// the CPU.
type Context struct {
	PC         int
	A          int
	X          int
	ERR        int
	Complement int
}

// Error codes surfaced through Context.ERR on a CPU_ERROR IRQ.
const (
	ErrNone         = 0
	ErrPageAbsent   = 1
	ErrBadAddress   = 2
	ErrIllegalInstr = 3
	ErrPrivileged   = 4
)

// CPU is the boundary the kernel reads and writes the save area
// through. Binding a nil PageTable means "kernel-only, no user
// translation" (used while halted).
type CPU interface {
	ReadContext() Context
	WriteContext(Context)
	SetTrapHandler(id int)
	SetTrapAddress(addr int)
}

// PageTable is the opaque per-process map from virtual page to
// physical frame, plus the reference/dirty predicates the replacement
// algorithms consult. The kernel treats it as a handle: it never
// iterates the map structure itself.
type PageTable interface {
	Lookup(page int) (frame int, ok bool)
	Map(page, frame int)
	Invalidate(page int)
	Reference(page int) bool
	Dirty(page int) bool
	ClearReference(page int)
}

// MMU is the boundary that binds a page table to the translation
// hardware and performs user-mode memory access (used by the
// cross-address-space string copy in CRIA_PROC, spec.md §4.6).
type MMU interface {
	Bind(pt PageTable)
	ReadByteUser(addr int) (byte, error)
	DefineFrame(pt PageTable, page, frame int)
	NewPageTable() PageTable

	// WritePhysical stores one byte at the given offset within frame,
	// used by the page fault handler to fill a freshly installed frame
	// from the loader (spec.md §4.7 step 4).
	WritePhysical(frame, offset int, b byte)
}

// Terminal is one of the four memory-mapped terminals (A-D) on the
// I/O bus: a keyboard register/ready-flag pair and a screen
// register/ready-flag pair.
type Terminal interface {
	KeyboardReady() bool
	ReadKeyboard() byte
	ScreenReady() bool
	WriteScreen(byte)
}

// IOBus is the boundary exposing the four terminals and the clock.
type IOBus interface {
	Terminal(id int) Terminal
	Now() int64 // monotonic instruction-count clock, spec.md §6
	ArmTimer(ticks int)
	ClearClockIRQ()
}

// Loader is the boundary that resolves a ".maq" executable image: its
// load address, total length, and byte-at-a-time random access used
// both at process creation (metadata) and at page-fault service (page
// fill), spec.md §6.
type Loader interface {
	Open(name string) (loadAddr, length int, err error)
	ReadByte(name string, vaddr int) (byte, error)
}
