/*
 * maqsim - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/maqsim/config/kconfig"
	"github.com/rcornwell/maqsim/console"
	"github.com/rcornwell/maqsim/hw/cpu"
	"github.com/rcornwell/maqsim/hw/iobus"
	"github.com/rcornwell/maqsim/hw/loader"
	"github.com/rcornwell/maqsim/hw/memory"
	"github.com/rcornwell/maqsim/hw/mmu"
	"github.com/rcornwell/maqsim/kernel"
	"github.com/rcornwell/maqsim/net/termserver"
	"github.com/rcornwell/maqsim/util/logger"
)

var Logger *slog.Logger

// terminalPorts are the four TCP ports the simulated terminals A-D
// listen on, mirroring the teacher's telnet/listener.go one-port-per-
// device layout.
var terminalPorts = [4]string{":2023", ":2024", ":2025", ":2026"}

func main() {
	optConfig := getopt.StringLong("config", 'c', "maqsim.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, new(bool)))
	slog.SetDefault(Logger)

	Logger.Info("maqsim started")

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		Logger.Error("configuration file not found", "path", *optConfig)
		os.Exit(1)
	}
	if err := kconfig.Load(*optConfig); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	store := memory.NewStore(kconfig.Values.MaxFrames, kconfig.Values.PageSize)
	theMMU := mmu.New(store)
	theCPU := cpu.New()
	bus := iobus.New()
	theLoader := loader.New(kconfig.Values.LoaderDir)

	cfg := kernel.Config{
		SchedulerName:   kconfig.Values.Scheduler,
		ReplacementName: kconfig.Values.Replacement,
		TickInterval:    kconfig.Values.TickInterval,
		Quantum:         kconfig.Values.Quantum,
		MaxProcesses:    kconfig.Values.MaxProcesses,
		MaxFrames:       kconfig.Values.MaxFrames,
		ReservedFrames:  kconfig.Values.ReservedFrames,
		PageSize:        kconfig.Values.PageSize,
		DiskTransfer:    kconfig.Values.DiskTransfer,
		InitProgram:     kconfig.Values.InitProgram,
	}
	k, err := kernel.New(cfg, theCPU, theMMU, bus, theLoader, Logger)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	var servers []*termserver.Server
	for i, addr := range terminalPorts {
		s, err := termserver.Listen(addr, bus.RawTerminal(i))
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		servers = append(servers, s)
		Logger.Info("terminal listening", "id", i, "addr", addr)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	driverDone := make(chan struct{})
	go runDriver(k, cfg.TickInterval, driverDone)

	go console.Run(k)

	<-sigChan
	fmt.Println("Got quit signal")

	close(driverDone)
	Logger.Info("shutting down terminals")
	for _, s := range servers {
		s.Stop()
	}
	Logger.Info("servers stopped")
}

// runDriver fires the RESET interrupt once, then steps the kernel's
// clock forever. CPU instruction execution is outside this system's
// boundary (kernel/ports.CPU only models the save-area trap contract),
// so CLOCK is the only recurring interrupt source: no SYSCALL or
// CPU_ERROR trap can originate without a fetch-execute loop driving
// the program counter.
func runDriver(k *kernel.Kernel, tick int64, done <-chan struct{}) {
	var now int64
	k.OnInterrupt(kernel.Reset, now)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			now += tick
			if k.OnInterrupt(kernel.Clock, now) == kernel.Halt {
				Logger.Info("kernel halted: no ready process", "now", now)
			}
		}
	}
}
