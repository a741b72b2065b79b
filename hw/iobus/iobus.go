/*
 * maqsim - Four-terminal I/O bus and clock.
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

// Package iobus implements the kernel's ports.IOBus boundary: four
// memory-mapped terminals (A-D) and the clock. Grounded on the
// teacher's device.Device command/status model (emu/device/device.go)
// and emu/timer.go's periodic pulse, reduced to the ready-flag pair
// per terminal the kernel actually polls — real keystrokes arrive
// from whatever drives Terminal (a telnet connection, in the
// teacher's own telnet package), asynchronously, but the kernel only
// ever observes the ready flag at a poll point, never a callback.
package iobus

import (
	"sync"

	"github.com/rcornwell/maqsim/kernel/ports"
)

// Terminal is one memory-mapped console: a one-byte keyboard register
// with a ready flag, and a one-byte screen register with a ready
// flag. Safe for concurrent use since the telnet front end and the
// kernel's poll both touch it.
type Terminal struct {
	mu sync.Mutex

	keyReady bool
	keyByte  byte

	scrReady bool
	written  []byte
}

// NewTerminal builds a terminal with the screen always ready to
// accept output (no simulated flow control on the write side).
func NewTerminal() *Terminal {
	return &Terminal{scrReady: true}
}

// Deliver is called by the telnet front end when a keystroke arrives.
func (t *Terminal) Deliver(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyByte = b
	t.keyReady = true
}

func (t *Terminal) KeyboardReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keyReady
}

func (t *Terminal) ReadKeyboard() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyReady = false
	return t.keyByte
}

func (t *Terminal) ScreenReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrReady
}

// WriteScreen hands a byte to whatever consumes it; the telnet front
// end drains it to the client socket via DrainScreen.
func (t *Terminal) WriteScreen(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, b)
}

// DrainScreen atomically takes and clears pending screen output.
func (t *Terminal) DrainScreen() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.written
	t.written = nil
	return out
}

// Bus is the four-terminal I/O bus plus the clock arm/clear pair the
// kernel's CLOCK IRQ handler drives.
type Bus struct {
	terms   [4]*Terminal
	armed   int
	cleared bool
}

// New builds a bus with four fresh terminals.
func New() *Bus {
	b := &Bus{}
	for i := range b.terms {
		b.terms[i] = NewTerminal()
	}
	return b
}

func (b *Bus) Terminal(id int) ports.Terminal { return b.terms[id] }

// RawTerminal exposes the concrete *Terminal (rather than the
// ports.Terminal interface) so the telnet front end can call Deliver
// and DrainScreen, which aren't part of the kernel-facing interface.
func (b *Bus) RawTerminal(id int) *Terminal { return b.terms[id] }

// Now is a placeholder monotonic clock; the harness driving
// OnInterrupt supplies the authoritative instruction-count clock
// directly, so nothing in the kernel calls this today.
func (b *Bus) Now() int64 { return 0 }

func (b *Bus) ArmTimer(ticks int) { b.armed = ticks }
func (b *Bus) ClearClockIRQ()     { b.cleared = true }
