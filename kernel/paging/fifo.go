/*
 * maqsim - FIFO page replacement.
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

package paging

import "github.com/rcornwell/maqsim/kernel/process"

func init() {
	Register("FIFO", func() Replacement { return &fifo{} })
}

// fifo evicts frames in allocation order: victim = head of the ring.
// The ring is sized in Init, which NewAllocator runs, to the
// allocator's total frame count.
type fifo struct {
	ring *process.Ring
}

func (f *fifo) Name() string { return "FIFO" }

func (f *fifo) Init(a *Allocator) {
	f.ring = process.NewRing(a.MaxFrames())
}

func (f *fifo) OnInstall(frame int) {
	f.ring.PushTail(frame)
}

func (f *fifo) Victim(a *Allocator) int {
	frame, ok := f.ring.PopHead()
	if !ok {
		return -1
	}
	return frame
}

func (f *fifo) Age(*Allocator, *process.Table, int) {}

// OnFree drops frame from the ring wherever it sits, so a process
// killed before its turn at the head never leaves an orphaned entry
// behind for a later Victim to hand out.
func (f *fifo) OnFree(frame int) {
	f.ring.Remove(frame)
}
