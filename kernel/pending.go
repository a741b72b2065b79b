/*
 * maqsim - Pending-event service, scheduling, and dispatch.
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

import "github.com/rcornwell/maqsim/kernel/process"

// servicePending is step 4, spec.md §4.3: an IRQ-independent pass over
// every BLOCKED PCB in ascending table-index order, so ties between
// processes waiting on the same device resolve first-fit rather than
// by wait time.
func (k *Kernel) servicePending(now int64) {
	k.Procs.Each(func(idx int, p *process.PCB) {
		if p.State != process.Blocked {
			return
		}
		switch p.BlockReason {
		case process.ReadIO:
			k.serviceReadIO(idx, p, now)
		case process.WriteIO:
			k.serviceWriteIO(idx, p, now)
		case process.WaitProc:
			k.serviceWaitProc(idx, p, now)
		case process.Paging:
			k.servicePaging(idx, p, now)
		}
	})
}

func (k *Kernel) serviceReadIO(idx int, p *process.PCB, now int64) {
	term := k.IOBus.Terminal(p.InDev)
	if !term.KeyboardReady() {
		return
	}
	p.Context.A = int(term.ReadKeyboard())
	p.Unblock(now)
	k.Scheduler.Enqueue(idx)
}

func (k *Kernel) serviceWriteIO(idx int, p *process.PCB, now int64) {
	term := k.IOBus.Terminal(p.OutDev)
	if !term.ScreenReady() {
		return
	}
	term.WriteScreen(byte(p.Context.X))
	p.Context.A = 0
	p.Unblock(now)
	k.Scheduler.Enqueue(idx)
}

func (k *Kernel) serviceWaitProc(idx int, p *process.PCB, now int64) {
	if k.Procs.Find(p.PIDWaited) != nil {
		return
	}
	p.Context.A = 0
	p.Unblock(now)
	k.Scheduler.Enqueue(idx)
}

func (k *Kernel) servicePaging(idx int, p *process.PCB, now int64) {
	if now < p.DiskIOETA {
		return
	}
	// PC was left pointing at the faulting instruction; re-execution
	// on resume finds the mapping the fault handler just installed.
	p.Unblock(now)
	k.Scheduler.Enqueue(idx)
}

// Kill is kill_process invoked from outside the interrupt loop, for
// the operator console's "kill <pid>" verb (spec.md has no such
// syscall — MATA_PROC is the process's own exit path — but an operator
// terminating a runaway process needs the identical cleanup).
func (k *Kernel) Kill(idx int, now int64) {
	k.killProcess(idx, now)
}

// killProcess is kill_process: free frames, drop the page table, wake
// every WAIT_PROC waiter, and tear down the table slot.
func (k *Kernel) killProcess(idx int, now int64) {
	p := k.Procs.At(idx)
	pid := p.PID

	k.Alloc.Free(idx)
	k.Scheduler.Remove(idx)

	k.Procs.Each(func(wi int, waiter *process.PCB) {
		if waiter.State == process.Blocked && waiter.BlockReason == process.WaitProc && waiter.PIDWaited == pid {
			waiter.Context.A = 0
			waiter.Unblock(now)
			k.Scheduler.Enqueue(wi)
		}
	})

	k.Procs.Kill(idx, now)
}

// schedule is steps 5 and 6: pick the next table index (if any) and
// dispatch it onto the CPU, spec.md §4.4/§4.5.
func (k *Kernel) schedule(now int64) Outcome {
	next, preempted, ok := k.Scheduler.PickNext(k.Procs, k.lastRunning, k.quantumLeft)
	if preempted {
		// preempted means the Priority policy chose someone else over
		// the still-READY process that just lost the CPU: that process
		// is the one being preempted, matching how the RR quantum-decay
		// path in handleClock credits the outgoing process.
		k.Procs.At(k.lastRunning).Metrics.PreemptionCount++
		k.preemptionCount++
	}
	if !ok {
		k.MMU.Bind(nil)
		return Halt
	}
	return k.dispatch(next, now)
}

// dispatch binds the chosen PCB's page table, restores its saved
// registers, and transitions it to RUNNING, spec.md §4.5.
func (k *Kernel) dispatch(idx int, now int64) Outcome {
	p := k.Procs.At(idx)

	if idx != k.lastRunning {
		k.quantumLeft = k.cfg.Quantum
	} else if k.quantumLeft <= 0 {
		k.quantumLeft = k.cfg.Quantum
	}

	k.MMU.Bind(p.PageTable)
	k.CPU.WriteContext(p.Context)

	if p.Metrics.LastUnblockTime > 0 {
		p.Metrics.ResponseTimeSum += now - p.Metrics.LastUnblockTime
		p.Metrics.ResponseTimeCount++
	}
	p.Transition(process.Running, now)
	p.LastDispatchTime = now

	return Resume
}
