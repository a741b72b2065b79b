/*
 * maqsim - CPU save-area trampoline.
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

// Package cpu implements the kernel's ports.CPU boundary: the fixed
// save-area registers (PC, A, X, ERR, COMPLEMENT) the trampoline
// exchanges with the kernel on every trap. Actual instruction
// execution is the simulated machine's job, grounded on the teacher's
// cpu_timer.go register-capture convention but reduced to exactly the
// fields the kernel's Context needs — the rest of emu/cpu.go's
// instruction set is out of scope for this boundary.
package cpu

import "github.com/rcornwell/maqsim/kernel/ports"

// CPU holds the save area and the trap vector the kernel installs at
// boot.
type CPU struct {
	ctx         ports.Context
	trapHandler int
	trapAddr    int
}

// New builds a CPU with a zeroed save area.
func New() *CPU {
	return &CPU{}
}

func (c *CPU) ReadContext() ports.Context    { return c.ctx }
func (c *CPU) WriteContext(ctx ports.Context) { c.ctx = ctx }

// SetTrapHandler and SetTrapAddress record where the trampoline should
// vector to on the next trap; the simulated fetch-execute loop (out of
// scope here) is what actually consults them.
func (c *CPU) SetTrapHandler(id int)   { c.trapHandler = id }
func (c *CPU) SetTrapAddress(addr int) { c.trapAddr = addr }

// TrapHandler and TrapAddress expose the installed vector for tests
// and for whatever fetch-execute loop is wired in front of this save
// area.
func (c *CPU) TrapHandler() int { return c.trapHandler }
func (c *CPU) TrapAddress() int { return c.trapAddr }
