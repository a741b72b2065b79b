/*
 * maqsim - Kernel entry loop.
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

// Package kernel wires the process table, the pluggable scheduler, and
// demand paging into the single-threaded interrupt loop of spec.md
// §4.1: SaveContext, HandleIRQ, ServicePending, Schedule, Dispatch.
// Nothing below this package spawns a goroutine — every IRQ is
// serviced to completion before the next one is considered, the way
// the teacher's emu/core.go steps one CPU cycle at a time rather than
// interleaving concurrent workers.
package kernel

import (
	"log/slog"
	"sync"

	"github.com/rcornwell/maqsim/kernel/paging"
	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
	"github.com/rcornwell/maqsim/kernel/sched"
	"github.com/rcornwell/maqsim/kernel/syscall"
)

// IRQ is one of the five kinds dispatched by HandleIRQ, spec.md §4.2.
type IRQ int

const (
	Reset IRQ = iota
	Syscall
	CPUError
	Clock
	Unknown
)

// Outcome is what on_interrupt returns to the trampoline.
type Outcome int

const (
	Halt Outcome = iota
	Resume
)

// Config is the set of build-time selectors spec.md §7 names.
type Config struct {
	SchedulerName   string
	ReplacementName string
	TickInterval    int64
	Quantum         int
	MaxProcesses    int
	MaxFrames       int
	ReservedFrames  int
	PageSize        int
	DiskTransfer    int64
	InitProgram     string
}

// Kernel holds every piece of state the loop steps of spec.md §4.1
// touch: the process table, the active scheduler and replacement
// policies, the frame allocator and disk time model, the syscall
// table, and the hardware collaborators.
type Kernel struct {
	// mu serializes every call into the kernel. OnInterrupt is the only
	// caller the interrupt loop itself makes (spec.md §5: strictly
	// single-threaded, cooperative), but the operator console runs on
	// its own goroutine and reads/mutates the same state (Kill, and the
	// Procs/Scheduler/Alloc fields ps/sched/mem inspect) — Lock/Unlock
	// give the console a way to do that safely without the kernel core
	// itself needing to know the console exists.
	mu sync.Mutex

	cfg Config
	log *slog.Logger

	Procs     *process.Table
	Scheduler sched.Scheduler
	Alloc     *paging.Allocator
	Disk      *paging.Disk
	Fault     *paging.Handler
	Syscalls  *syscall.Table

	CPU    ports.CPU
	MMU    ports.MMU
	IOBus  ports.IOBus
	Loader ports.Loader

	quantumLeft int

	// irqCounts is cont_interrupcoes[kind] from the original C report:
	// a complete per-kind tally, not just a total, surfaced read-only
	// through IRQCounts/Snapshot.
	irqCounts map[IRQ]uint64

	// preemptionCount is the global counterpart of each PCB's own
	// Metrics.PreemptionCount (the original's num_preempcoes_total
	// alongside the per-process count), incremented everywhere a PCB's
	// own count is: quantum expiry in handleClock and the Priority
	// scheduler's preempt-in-place branch in schedule.
	preemptionCount int64

	internalError bool
	idleTime      int64
	booted        bool

	// lastRunning is the table index SaveContext just moved out of
	// RUNNING this invocation, or -1. HandleIRQ's SYSCALL and
	// CPU_ERROR branches need to know which PCB trapped; CLOCK needs
	// to know which PCB to age — all three read this instead of
	// re-deriving it, since by the time they run SaveContext has
	// already transitioned that PCB to READY.
	lastRunning int

	// lastNow is the most recent instruction-count clock value seen by
	// OnInterrupt, exposed read-only via Now() for the operator console
	// (e.g. to timestamp an operator-initiated Kill) — nothing in the
	// interrupt loop itself reads it back.
	lastNow int64
}

// Now returns the clock value of the most recently handled interrupt.
func (k *Kernel) Now() int64 { return k.lastNow }

// IRQCounts returns a copy of the per-kind interrupt tally (RESET,
// SYSCALL, CPU_ERROR, CLOCK, UNKNOWN), spec.md §8's
// cont_interrupcoes[kind].
func (k *Kernel) IRQCounts() map[IRQ]uint64 {
	out := make(map[IRQ]uint64, len(k.irqCounts))
	for irq, n := range k.irqCounts {
		out[irq] = n
	}
	return out
}

// Lock and Unlock let a caller outside the interrupt loop (the
// operator console) hold the kernel's state consistent across more
// than one field read, or across a read followed by a mutation like
// Kill. OnInterrupt takes this same lock, so a console command never
// observes a half-stepped interrupt.
func (k *Kernel) Lock()   { k.mu.Lock() }
func (k *Kernel) Unlock() { k.mu.Unlock() }

// New builds a kernel from its collaborators and config. The
// scheduler and replacement policy are resolved from their
// self-registering build-time registries (kernel/sched,
// kernel/paging), mirroring config.RegisterModel in the teacher repo.
func New(cfg Config, cpu ports.CPU, mmu ports.MMU, iobus ports.IOBus, loader ports.Loader, log *slog.Logger) (*Kernel, error) {
	scheduler, ok := sched.New(cfg.SchedulerName, cfg.MaxProcesses)
	if !ok {
		return nil, &ErrUnknownPolicy{Kind: "scheduler", Name: cfg.SchedulerName}
	}
	replace, ok := paging.New(cfg.ReplacementName)
	if !ok {
		return nil, &ErrUnknownPolicy{Kind: "replacement", Name: cfg.ReplacementName}
	}

	procs := process.NewTable(cfg.MaxProcesses)
	alloc := paging.NewAllocator(cfg.MaxFrames, cfg.ReservedFrames, replace)
	disk := &paging.Disk{Transfer: cfg.DiskTransfer}
	fault := paging.NewHandler(alloc, disk, loader, mmu, cfg.PageSize)

	k := &Kernel{
		cfg:       cfg,
		log:       log,
		Procs:     procs,
		Scheduler: scheduler,
		Alloc:     alloc,
		Disk:      disk,
		Fault:     fault,
		CPU:       cpu,
		MMU:       mmu,
		IOBus:     iobus,
		Loader:    loader,
		irqCounts: make(map[IRQ]uint64, 5),
	}
	k.Syscalls = &syscall.Table{
		Procs:     procs,
		Scheduler: scheduler,
		MMU:       mmu,
		IOBus:     iobus,
		Loader:    loader,
	}
	return k, nil
}

// ErrUnknownPolicy is returned when a configured scheduler or
// replacement name has no matching registration.
type ErrUnknownPolicy struct {
	Kind string
	Name string
}

func (e *ErrUnknownPolicy) Error() string {
	return "kernel: unknown " + e.Kind + " policy " + e.Name
}

// OnInterrupt is the kernel's single entry point, spec.md §4.1. Every
// error condition folds into the latched internal_error flag rather
// than a panic or returned error — the contract promises it never
// throws.
func (k *Kernel) OnInterrupt(irq IRQ, now int64) Outcome {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.internalError {
		return Halt
	}

	k.irqCounts[irq]++
	k.lastNow = now

	k.saveContext(now)
	k.handleIRQ(irq, now)
	k.servicePending(now)

	return k.schedule(now)
}
