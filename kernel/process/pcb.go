/*
 * maqsim - Process control block and state machine.
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

// Package process holds the process control block, its state machine,
// and the fixed-capacity process table the kernel schedules out of.
package process

import (
	"github.com/rcornwell/maqsim/kernel/ports"
)

// State is the PCB's place in the lifecycle, spec.md §3.
type State int

const (
	Ready State = iota
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// BlockReason is only meaningful while State == Blocked.
type BlockReason int

const (
	NoReason BlockReason = iota
	ReadIO
	WriteIO
	WaitProc
	Paging
)

// NoPID marks an unused wait target or "no such process".
const NoPID = -1

// Metrics accumulates the per-process counters spec.md §3 and §8 ask
// for: time spent in each state, preemption count, response time, and
// page faults.
type Metrics struct {
	CreationTime    int64
	TerminationTime int64

	ReadyTime   int64
	BlockedTime int64
	RunningTime int64

	ReadyEntries   int
	BlockedEntries int
	RunningEntries int

	PreemptionCount int
	PageFaults      int

	ResponseTimeSum   int64
	ResponseTimeCount int64

	LastUnblockTime int64
}

// PCB is one process control block. A free table slot is represented
// by State == Terminated && PID == NoPID.
type PCB struct {
	PID   int
	State State

	BlockReason BlockReason
	PIDWaited   int // valid only when BlockReason == WaitProc

	Context ports.Context

	InDev  int
	OutDev int

	Priority float64 // exponential average of quantum fraction consumed

	PageTable ports.PageTable
	ExeName   string
	MemSize   int // virtual-byte high-water mark
	DiskIOETA int64

	LastDispatchTime int64
	StateSince       int64 // instant the PCB last entered its current State

	Metrics Metrics
}

// freePCB returns a table slot to its vacant representation.
func freePCB() *PCB {
	return &PCB{
		PID:         NoPID,
		State:       Terminated,
		BlockReason: NoReason,
		PIDWaited:   NoPID,
		Priority:    0.5,
	}
}

// IsFree reports whether this slot holds no live process.
func (p *PCB) IsFree() bool {
	return p.State == Terminated && p.PID == NoPID
}

// Transition moves the PCB to newState at time now, crediting the
// elapsed time to the state it is leaving so that, for a terminated
// process, ready+blocked+running sums to termination-creation
// (spec.md §8).
func (p *PCB) Transition(newState State, now int64) {
	p.accrue(p.State, now-p.StateSince)
	p.State = newState
	p.StateSince = now
	switch newState {
	case Ready:
		p.Metrics.ReadyEntries++
	case Running:
		p.Metrics.RunningEntries++
	case Blocked:
		p.Metrics.BlockedEntries++
	}
}

// Block transitions a PCB to Blocked for the given reason, clearing
// invariants the spec requires (block_reason == NONE ⟺ state != BLOCKED).
func (p *PCB) Block(reason BlockReason, now int64) {
	p.Transition(Blocked, now)
	p.BlockReason = reason
}

// Unblock transitions a PCB back to Ready and records the unblock
// time used for the response-time accumulator at dispatch.
func (p *PCB) Unblock(now int64) {
	p.Transition(Ready, now)
	p.BlockReason = NoReason
	p.PIDWaited = NoPID
	p.Metrics.LastUnblockTime = now
}

// accrue adds elapsed time to whichever state the PCB is leaving.
func (p *PCB) accrue(state State, delta int64) {
	switch state {
	case Ready:
		p.Metrics.ReadyTime += delta
	case Blocked:
		p.Metrics.BlockedTime += delta
	case Running:
		p.Metrics.RunningTime += delta
	}
}
