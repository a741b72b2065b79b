/*
 * maqsim - Executable image loader.
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

// Package loader implements the kernel's ports.Loader boundary: it
// resolves a ".maq" program name to bytes on disk. Grounded on the
// teacher's util/card package, which also turns a named file on disk
// into a byte stream the emulator core consumes one unit at a time;
// a program image here needs no deck encoding, just raw bytes, so
// this reduces to a directory lookup plus an in-memory cache.
package loader

import (
	"os"
	"path/filepath"
	"sync"
)

// Loader resolves program names under a single search directory.
type Loader struct {
	dir string

	mu     sync.Mutex
	images map[string][]byte
}

// New builds a loader that resolves names relative to dir.
func New(dir string) *Loader {
	return &Loader{dir: dir, images: map[string][]byte{}}
}

func (l *Loader) load(name string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.images[name]; ok {
		return img, nil
	}
	img, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, err
	}
	l.images[name] = img
	return img, nil
}

// Open reports the image's load address (always 0 — maqsim images
// have no relocation header) and its length, the mem_size high-water
// mark spec.md §3 defines.
func (l *Loader) Open(name string) (loadAddr, length int, err error) {
	img, err := l.load(name)
	if err != nil {
		return 0, 0, err
	}
	return 0, len(img), nil
}

// ReadByte returns the byte at vaddr in name's image, or an error if
// the name can't be resolved. A vaddr outside the image reads as 0
// with no error.
func (l *Loader) ReadByte(name string, vaddr int) (byte, error) {
	img, err := l.load(name)
	if err != nil {
		return 0, err
	}
	if vaddr < 0 || vaddr >= len(img) {
		return 0, nil
	}
	return img[vaddr], nil
}
