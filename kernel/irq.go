/*
 * maqsim - IRQ handlers.
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

package kernel

import (
	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
)

// saveContext is step 2 of spec.md §4.1: if a process is RUNNING, pull
// its registers back out of the CPU save area, update its exec-time
// and priority accounting, and transition it to READY so the
// scheduler never observes a stale RUNNING PCB.
func (k *Kernel) saveContext(now int64) {
	idx := k.Procs.Running()
	k.lastRunning = idx
	if idx < 0 {
		return
	}
	p := k.Procs.At(idx)
	p.Context = k.CPU.ReadContext()

	execRatio := float64(now-p.LastDispatchTime) / float64(int64(k.cfg.Quantum)*k.cfg.TickInterval)
	p.Priority = (p.Priority + execRatio) / 2

	p.Transition(process.Ready, now)
	// Deliberately no Scheduler.Enqueue here: HandleIRQ may still move
	// this PCB out of READY (block on a syscall, die on a CPU error).
	// If it survives as READY, RR's own PickNext re-enqueues it at the
	// tail (or keeps it running) when Schedule runs; Priority never
	// queues at all.
}

// handleIRQ is step 3, spec.md §4.2.
func (k *Kernel) handleIRQ(irq IRQ, now int64) {
	switch irq {
	case Reset:
		k.boot(now)
	case Syscall:
		k.handleSyscall(now)
	case CPUError:
		k.handleCPUError(now)
	case Clock:
		k.handleClock(now)
	default:
		k.log.Error("unknown IRQ kind")
		k.internalError = true
	}
}

// boot fires once: arms the clock, loads PID 1 from the configured
// init program with every page resident, and enqueues it READY.
func (k *Kernel) boot(now int64) {
	if k.booted {
		return
	}
	k.booted = true
	k.IOBus.ArmTimer(int(k.cfg.TickInterval))
	k.quantumLeft = k.cfg.Quantum

	p, err := k.Procs.Create(now)
	if err != nil {
		k.log.Error("boot: process table full before init loaded")
		k.internalError = true
		return
	}
	idx := k.Procs.IndexOf(p.PID)
	p.ExeName = k.cfg.InitProgram
	p.PageTable = k.MMU.NewPageTable()
	p.InDev, p.OutDev = 0, 0

	_, length, err := k.Loader.Open(k.cfg.InitProgram)
	if err != nil {
		k.log.Error("boot: failed to open init program", "name", k.cfg.InitProgram, "err", err)
		k.internalError = true
		return
	}
	p.MemSize = length
	k.preloadAll(p, idx)

	k.Scheduler.Enqueue(idx)
}

// preloadAll eagerly resolves every page of p's image, taking frames
// from the head of the free list (spec.md §4.2 RESET).
func (k *Kernel) preloadAll(p *process.PCB, idx int) {
	pages := (p.MemSize + k.cfg.PageSize - 1) / k.cfg.PageSize
	for page := 0; page < pages; page++ {
		var frame int
		if k.Alloc.HasFree() {
			frame = k.Alloc.Alloc(idx, page)
		} else {
			victim, ok := k.Alloc.Victim()
			if !ok {
				k.log.Error("boot: no frame available to preload init program")
				k.internalError = true
				return
			}
			k.Alloc.Install(victim, idx, page)
			frame = victim
		}
		k.MMU.DefineFrame(p.PageTable, page, frame)
		base := page * k.cfg.PageSize
		for i := 0; i < k.cfg.PageSize; i++ {
			vaddr := base + i
			var b byte
			if vaddr < p.MemSize {
				if v, err := k.Loader.ReadByte(p.ExeName, vaddr); err == nil {
					b = v
				}
			}
			k.MMU.WritePhysical(frame, i, b)
		}
		p.PageTable.Map(page, frame)
	}
}

// handleSyscall reads the syscall ID from A and dispatches it
// (spec.md §4.2 SYSCALL, §4.6).
func (k *Kernel) handleSyscall(now int64) {
	idx := k.lastRunning
	if idx < 0 {
		k.log.Error("syscall IRQ with no running process")
		k.internalError = true
		return
	}
	p := k.Procs.At(idx)
	id := p.Context.A
	if ok := k.Syscalls.Dispatch(idx, id, now, k.Alloc); !ok {
		k.log.Error("unknown syscall id", "id", id, "pid", p.PID)
		k.internalError = true
	}
}

// handleCPUError examines the trapped ERR code (spec.md §4.2
// CPU_ERROR).
func (k *Kernel) handleCPUError(now int64) {
	idx := k.lastRunning
	if idx < 0 {
		return
	}
	p := k.Procs.At(idx)
	switch p.Context.ERR {
	case ports.ErrPageAbsent:
		killed := k.Fault.Service(k.Procs, idx, p.Context.Complement, now)
		if killed {
			k.killProcess(idx, now)
		}
	default:
		k.log.Warn("fatal CPU error, killing process", "pid", p.PID, "err", p.Context.ERR)
		k.killProcess(idx, now)
	}
}

// handleClock clears the device flag, re-arms the timer, ages LRU
// pages if that policy is active, decrements quantum_left, and counts
// a preemption when it expires (spec.md §4.2 CLOCK).
func (k *Kernel) handleClock(now int64) {
	k.IOBus.ClearClockIRQ()
	k.IOBus.ArmTimer(int(k.cfg.TickInterval))

	idx := k.lastRunning
	if idx < 0 {
		k.idleTime += k.cfg.TickInterval
		return
	}

	k.Alloc.Replace.Age(k.Alloc, k.Procs, idx)

	k.quantumLeft--
	if k.quantumLeft <= 0 {
		k.Procs.At(idx).Metrics.PreemptionCount++
		k.preemptionCount++
	}
}
