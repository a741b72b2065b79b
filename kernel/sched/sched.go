/*
 * maqsim - Scheduler capability and build-time registry.
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

// Package sched implements the two pluggable scheduling policies
// (spec.md §4.4) behind one capability interface, the way the teacher
// repo's config package lets device models register themselves by
// name instead of hard-coding a model switch (config/configparser.go,
// RegisterModel). The kernel loop is identical for either policy.
package sched

import "github.com/rcornwell/maqsim/kernel/process"

// Scheduler selects the next runnable process. The kernel owns
// quantum_left and the priority-aging math (both shared regardless of
// policy, spec.md §4.1/§4.4); a Scheduler only decides which table
// index runs next and whether that pick preempted the previous
// occupant.
type Scheduler interface {
	Name() string

	// Enqueue makes idx available to be picked: under RR it is pushed
	// to the ready queue's tail; Priority has no queue and ignores it.
	Enqueue(idx int)

	// Remove purges idx from any internal queue, used when a ready
	// process is killed before its turn. No-op under Priority.
	Remove(idx int)

	// PickNext chooses the next table index to dispatch. running is
	// the table index the CPU just vacated (already transitioned out
	// of RUNNING by SaveContext), or -1 if the CPU was halted.
	// quantumLeft is the kernel's shared quantum counter, needed by RR
	// to decide whether the running process keeps the CPU. preempted
	// reports whether this pick counts as a preemption of running
	// (Priority only — RR's preemptions are counted on quantum decay,
	// spec.md §4.2).
	PickNext(tbl *process.Table, running int, quantumLeft int) (next int, preempted bool, ok bool)
}

// Factory builds a Scheduler given the process-table capacity.
type Factory func(capacity int) Scheduler

var registry = map[string]Factory{}

// Register adds a named scheduler policy to the build-time registry.
// Policies call this from their own init(), mirroring the teacher's
// config.RegisterModel self-registration.
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds the named policy, or reports it unknown.
func New(name string, capacity int) (Scheduler, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(capacity), true
}

// Names lists every registered policy.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
