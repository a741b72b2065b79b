/*
 * maqsim - Kernel configuration file parser.
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

// Package kconfig loads the kernel's build-time selectors (spec.md
// §7: SCHEDULER, REPLACEMENT, TICK_INTERVAL, QUANTUM, MAX_PROCESSES,
// DISK_TRANSFER, PAGE_SIZE, MAX_FRAMES, RESERVED_FRAMES,
// INIT_PROGRAM, LOADER_DIR) from a flat "KEY VALUE" file, one per
// line. Grounded on the teacher's config/configparser.go: each known
// key registers its own setter from an init() the way
// RegisterOption/RegisterSwitch let a device model hook into the
// config line grammar, but the grammar itself is this package's own —
// the teacher's parser grammar (model/address/option-list) exists to
// describe device attachments, which this kernel has none of.
package kconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type setter func(value string) error

var registry = map[string]setter{}

// Register adds a config key to the build-time registry. This
// package's init() calls it once per known key, mirroring
// config.RegisterOption.
func Register(key string, fn setter) {
	registry[strings.ToUpper(key)] = fn
}

// Load reads path line by line: blank lines and lines starting with
// '#' are skipped, everything else must be "KEY VALUE".
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("kconfig: line %d: expected \"KEY VALUE\", got %q", lineNo, line)
		}
		key := strings.ToUpper(fields[0])
		fn, ok := registry[key]
		if !ok {
			return fmt.Errorf("kconfig: line %d: unknown key %q", lineNo, fields[0])
		}
		if err := fn(fields[1]); err != nil {
			return fmt.Errorf("kconfig: line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Values holds every setting Load populates. A single package-level
// instance mirrors the teacher's package-level models registry.
var Values = struct {
	Scheduler      string
	Replacement    string
	TickInterval   int64
	Quantum        int
	MaxProcesses   int
	MaxFrames      int
	ReservedFrames int
	PageSize       int
	DiskTransfer   int64
	InitProgram    string
	LoaderDir      string
}{
	Scheduler:      "RR",
	Replacement:    "FIFO",
	TickInterval:   1000,
	Quantum:        5,
	MaxProcesses:   10,
	MaxFrames:      16,
	ReservedFrames: 1,
	PageSize:       256,
	DiskTransfer:   500,
	InitProgram:    "init.maq",
	LoaderDir:      ".",
}

func init() {
	Register("SCHEDULER", func(v string) error { Values.Scheduler = strings.ToUpper(v); return nil })
	Register("REPLACEMENT", func(v string) error { Values.Replacement = strings.ToUpper(v); return nil })
	Register("TICK_INTERVAL", intSetter(&Values.TickInterval))
	Register("QUANTUM", func(v string) error {
		n, err := strconv.Atoi(v)
		Values.Quantum = n
		return err
	})
	Register("MAX_PROCESSES", func(v string) error {
		n, err := strconv.Atoi(v)
		Values.MaxProcesses = n
		return err
	})
	Register("MAX_FRAMES", func(v string) error {
		n, err := strconv.Atoi(v)
		Values.MaxFrames = n
		return err
	})
	Register("RESERVED_FRAMES", func(v string) error {
		n, err := strconv.Atoi(v)
		Values.ReservedFrames = n
		return err
	})
	Register("PAGE_SIZE", func(v string) error {
		n, err := strconv.Atoi(v)
		Values.PageSize = n
		return err
	})
	Register("DISK_TRANSFER", intSetter(&Values.DiskTransfer))
	Register("INIT_PROGRAM", func(v string) error { Values.InitProgram = v; return nil })
	Register("LOADER_DIR", func(v string) error { Values.LoaderDir = v; return nil })
}

func intSetter(dst *int64) setter {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}
