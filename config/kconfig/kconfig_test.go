/*
 * maqsim - Kernel configuration file parser test set.
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

package kconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "maqsim.cfg")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadSetsKnownKeys(t *testing.T) {
	path := writeTestConfig(t, "SCHEDULER PRIORITY\nREPLACEMENT LRU\nQUANTUM 8\nMAX_FRAMES 32\n")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Values.Scheduler != "PRIORITY" {
		t.Errorf("Scheduler got: %s expected: PRIORITY", Values.Scheduler)
	}
	if Values.Replacement != "LRU" {
		t.Errorf("Replacement got: %s expected: LRU", Values.Replacement)
	}
	if Values.Quantum != 8 {
		t.Errorf("Quantum got: %d expected: 8", Values.Quantum)
	}
	if Values.MaxFrames != 32 {
		t.Errorf("MaxFrames got: %d expected: 32", Values.MaxFrames)
	}
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	path := writeTestConfig(t, "# a comment\n\nTICK_INTERVAL 2000\n")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Values.TickInterval != 2000 {
		t.Errorf("TickInterval got: %d expected: 2000", Values.TickInterval)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeTestConfig(t, "NOT_A_KEY 1\n")
	if err := Load(path); err == nil {
		t.Errorf("Load accepted unknown key")
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	path := writeTestConfig(t, "SCHEDULER RR extra\n")
	if err := Load(path); err == nil {
		t.Errorf("Load accepted a three-field line")
	}
}

func TestLoadRejectsBadInteger(t *testing.T) {
	path := writeTestConfig(t, "QUANTUM not-a-number\n")
	if err := Load(path); err == nil {
		t.Errorf("Load accepted a non-numeric QUANTUM")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Errorf("Load succeeded against a missing file")
	}
}
