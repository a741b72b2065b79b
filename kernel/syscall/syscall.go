/*
 * maqsim - Kernel syscall table.
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

// Package syscall implements the five calls a user program can trap
// into (spec.md §4.6): LE, ESCR, CRIA_PROC, MATA_PROC, ESPERA_PROC.
// Arguments and results travel through the caller's saved A and X
// registers, the way the teacher's command dispatcher routes an
// operator line to a handler by name (command/parser.go cmdList) —
// here the id is a small int read from A rather than a verb string.
package syscall

import (
	"errors"

	"github.com/rcornwell/maqsim/kernel/paging"
	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
)

// Syscall IDs, as deposited into the caller's A register before the
// trap.
const (
	IDLe = iota
	IDEscr
	IDCriaProc
	IDMataProc
	IDEsperaProc
)

// maxNameLen bounds the CRIA_PROC name copy so a missing NUL
// terminator in a misbehaving program can't run the kernel off the
// end of the caller's address space.
const maxNameLen = 255

var errNameTooLong = errors.New("syscall: program name exceeds maxNameLen with no terminator")

// Table is every collaborator the syscalls need: the process table to
// mutate, the scheduler to enqueue/remove ready indices from, and the
// three hardware boundaries (spec.md §6).
type Table struct {
	Procs     *process.Table
	Scheduler Scheduler
	MMU       ports.MMU
	IOBus     ports.IOBus
	Loader    ports.Loader
}

// Scheduler is the subset of sched.Scheduler the syscall layer needs;
// declared locally so this package doesn't import kernel/sched just to
// name a type.
type Scheduler interface {
	Enqueue(idx int)
	Remove(idx int)
}

// Dispatch reads id (already taken from the caller's A register by
// HandleIRQ) and routes to the matching handler. Reports false for an
// id with no matching call, which the caller latches as
// internal_error (spec.md §4.2).
func (t *Table) Dispatch(idx, id int, now int64, alloc *paging.Allocator) bool {
	switch id {
	case IDLe:
		t.le(idx, now)
	case IDEscr:
		t.escr(idx, now)
	case IDCriaProc:
		t.criaProc(idx, now)
	case IDMataProc:
		t.mataProc(idx, now, alloc)
	case IDEsperaProc:
		t.esperaProc(idx, now)
	default:
		return false
	}
	return true
}

func (t *Table) le(idx int, now int64) {
	p := t.Procs.At(idx)
	term := t.IOBus.Terminal(p.InDev)
	if term.KeyboardReady() {
		p.Context.A = int(term.ReadKeyboard())
		return
	}
	p.Block(process.ReadIO, now)
}

func (t *Table) escr(idx int, now int64) {
	p := t.Procs.At(idx)
	term := t.IOBus.Terminal(p.OutDev)
	if term.ScreenReady() {
		term.WriteScreen(byte(p.Context.X))
		p.Context.A = 0
		return
	}
	p.Block(process.WriteIO, now)
}

// criaProc copies the NUL-terminated name out of the caller's own
// address space, opens it through the loader to learn mem_size,
// allocates a PCB and a fresh page table (no pages resident — they
// fault in on first access), assigns the next round-robin terminal,
// and enqueues the child READY.
func (t *Table) criaProc(idx int, now int64) {
	p := t.Procs.At(idx)
	name, err := t.copyCallerString(p, p.Context.X)
	if err != nil {
		p.Context.A = -1
		return
	}
	_, length, err := t.Loader.Open(name)
	if err != nil {
		p.Context.A = -1
		return
	}
	child, err := t.Procs.Create(now)
	if err != nil {
		p.Context.A = -1
		return
	}
	childIdx := t.Procs.IndexOf(child.PID)
	child.PageTable = t.MMU.NewPageTable()
	child.ExeName = name
	child.MemSize = length
	child.InDev = (child.PID - 1) % 4
	child.OutDev = (child.PID - 1) % 4
	t.Scheduler.Enqueue(childIdx)
	p.Context.A = child.PID
}

// copyCallerString reads a string out of the running caller's own
// address space. Spec.md §4.6 describes this as a temporary rebind to
// the source PCB's page table; here the source is always the caller
// itself, whose code pages are resident because it is executing, so
// no rebind is needed before the read.
func (t *Table) copyCallerString(p *process.PCB, addr int) (string, error) {
	var buf []byte
	for i := 0; i < maxNameLen; i++ {
		b, err := t.MMU.ReadByteUser(addr + i)
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", errNameTooLong
}

// mataProc tears target down: frees its frames, destroys its page
// table by dropping the PCB's reference, unblocks every WAIT_PROC
// waiter with A=0, and kills the table slot.
func (t *Table) mataProc(idx int, now int64, alloc *paging.Allocator) {
	p := t.Procs.At(idx)
	target := p.Context.X
	if target == 0 {
		target = p.PID
	}
	targetIdx := t.Procs.IndexOf(target)
	if targetIdx < 0 {
		p.Context.A = -1
		return
	}

	alloc.Free(targetIdx)
	t.Scheduler.Remove(targetIdx)

	t.Procs.Each(func(i int, waiter *process.PCB) {
		if waiter.State == process.Blocked && waiter.BlockReason == process.WaitProc && waiter.PIDWaited == target {
			waiter.Context.A = 0
			waiter.Unblock(now)
			t.Scheduler.Enqueue(i)
		}
	})

	t.Procs.Kill(targetIdx, now)
	p.Context.A = 0
}

func (t *Table) esperaProc(idx int, now int64) {
	p := t.Procs.At(idx)
	target := p.Context.X
	if target == p.PID || t.Procs.Find(target) == nil {
		p.Context.A = -1
		return
	}
	p.PIDWaited = target
	p.Block(process.WaitProc, now)
}
