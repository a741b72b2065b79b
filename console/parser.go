/*
 * maqsim - Operator console command table.
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

// Package console is the operator's interactive front end onto a
// running kernel.Kernel: process listing, frame table inspection, and
// process termination. Grounded on command/parser/parser.go's
// table-driven cmdList with abbreviation matching ("k" matches "kill"
// once unique), reduced to the handful of verbs a kernel operator
// needs instead of the teacher's attach/detach/set/show device
// console, since this kernel has no attachable devices.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rcornwell/maqsim/kernel"
	"github.com/rcornwell/maqsim/kernel/process"
)

type cmd struct {
	name    string
	min     int
	process func(args []string, k *kernel.Kernel) (quit bool, err error)
}

var cmdList = []cmd{
	{name: "ps", min: 1, process: cmdPS},
	{name: "kill", min: 1, process: cmdKill},
	{name: "sched", min: 2, process: cmdSched},
	{name: "mem", min: 1, process: cmdMem},
	{name: "quit", min: 1, process: cmdQuit},
	{name: "exit", min: 1, process: cmdQuit},
	{name: "help", min: 1, process: cmdHelp},
}

// matchList returns every cmd whose name has args[0] as an
// abbreviation-matching prefix of at least its min length.
func matchList(name string) []cmd {
	var out []cmd
	for _, c := range cmdList {
		if len(name) < c.min || len(name) > len(c.name) {
			continue
		}
		if strings.HasPrefix(c.name, name) {
			out = append(out, c)
		}
	}
	return out
}

// ProcessCommand parses one operator line and runs the matching verb.
func ProcessCommand(line string, k *kernel.Kernel) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	match := matchList(strings.ToLower(fields[0]))
	switch len(match) {
	case 0:
		return false, errors.New("command not found: " + fields[0])
	case 1:
		return match[0].process(fields[1:], k)
	default:
		return false, errors.New("ambiguous command: " + fields[0])
	}
}

func cmdQuit([]string, *kernel.Kernel) (bool, error) { return true, nil }

func cmdHelp([]string, *kernel.Kernel) (bool, error) {
	fmt.Println("commands: ps, kill <pid>, sched, mem, help, quit")
	return false, nil
}

func cmdPS(_ []string, k *kernel.Kernel) (bool, error) {
	k.Lock()
	defer k.Unlock()
	fmt.Printf("%-6s %-4s %-10s %-10s %8s %8s\n", "IDX", "PID", "STATE", "REASON", "PRIO", "FAULTS")
	k.Procs.Each(func(idx int, p *process.PCB) {
		fmt.Printf("%-6d %-4d %-10s %-10s %8.3f %8d\n",
			idx, p.PID, p.State.String(), reasonString(p.BlockReason), p.Priority, p.Metrics.PageFaults)
	})
	return false, nil
}

func cmdKill(args []string, k *kernel.Kernel) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: kill <pid>")
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return false, fmt.Errorf("kill: %w", err)
	}
	k.Lock()
	defer k.Unlock()
	idx := k.Procs.IndexOf(pid)
	if idx < 0 {
		return false, fmt.Errorf("kill: no such pid %d", pid)
	}
	k.Kill(idx, k.Now())
	return false, nil
}

func cmdSched(_ []string, k *kernel.Kernel) (bool, error) {
	k.Lock()
	defer k.Unlock()
	fmt.Println("policy:", k.Scheduler.Name())
	return false, nil
}

func cmdMem(_ []string, k *kernel.Kernel) (bool, error) {
	k.Lock()
	defer k.Unlock()
	total := k.Alloc.MaxFrames()
	used := k.Alloc.UsedCount()
	fmt.Printf("frames: %d total, %d free, replacement=%s\n", total, total-used, k.Alloc.Replace.Name())
	return false, nil
}

func reasonString(r process.BlockReason) string {
	switch r {
	case process.ReadIO:
		return "READ_IO"
	case process.WriteIO:
		return "WRITE_IO"
	case process.WaitProc:
		return "WAIT_PROC"
	case process.Paging:
		return "PAGING"
	default:
		return "-"
	}
}
