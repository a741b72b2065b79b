/*
 * maqsim - Physical memory store.
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

// Package memory is the flat physical store behind every frame, one
// byte per simulated byte of RAM, plus a per-frame key byte holding
// the access and modify (reference/dirty) bits. Grounded on the
// teacher's emu/memory.go, whose GetKey/PutKey track the same two
// bits per 2K page; this store generalizes the page size to the
// simulator's configured PAGE_SIZE instead of a fixed 2K.
package memory

const (
	keyAccess uint8 = 0x4
	keyModify uint8 = 0x2
)

// Store is frames * pageSize bytes of physical RAM plus one key byte
// per frame.
type Store struct {
	bytes    []byte
	key      []uint8
	pageSize int
}

// NewStore allocates frames physical frames of pageSize bytes each.
func NewStore(frames, pageSize int) *Store {
	return &Store{
		bytes:    make([]byte, frames*pageSize),
		key:      make([]uint8, frames),
		pageSize: pageSize,
	}
}

// ReadByte reads one byte from frame at offset, setting the access
// bit (emu/memory.go GetWord: "Update Access bits").
func (s *Store) ReadByte(frame, offset int) byte {
	s.key[frame] |= keyAccess
	return s.bytes[frame*s.pageSize+offset]
}

// WriteByte writes one byte into frame at offset, setting both the
// access and modify bits (emu/memory.go PutWord: "Update Access and
// modify bits"). This is the runtime CPU write path — instruction
// execution is out of scope here, so nothing in this module calls it
// today, but a concrete CPU collaborator wired in later would.
func (s *Store) WriteByte(frame, offset int, b byte) {
	s.key[frame] |= keyAccess | keyModify
	s.bytes[frame*s.pageSize+offset] = b
}

// LoadByte writes one byte into frame at offset as part of filling a
// freshly installed frame from the executable image (spec.md §4.7
// step 4): it sets only the access bit, not modify, since loading a
// page from disk is not the same event as the process dirtying it.
func (s *Store) LoadByte(frame, offset int, b byte) {
	s.key[frame] |= keyAccess
	s.bytes[frame*s.pageSize+offset] = b
}

// Reference reports and Dirty reports the two key bits for frame.
func (s *Store) Reference(frame int) bool { return s.key[frame]&keyAccess != 0 }
func (s *Store) Dirty(frame int) bool     { return s.key[frame]&keyModify != 0 }

// ClearReference clears the access bit only, the way the software
// aging clock tick does (emu/memory.go's PutKey can clear both, but
// the simulator's replacement algorithm only ever clears reference).
func (s *Store) ClearReference(frame int) {
	s.key[frame] &^= keyAccess
}

// ClearFrame resets a frame's key bits to zero, done when a frame is
// handed to a new owner after eviction.
func (s *Store) ClearFrame(frame int) {
	s.key[frame] = 0
}

// PageSize is the configured frame size in bytes.
func (s *Store) PageSize() int { return s.pageSize }
