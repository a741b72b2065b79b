package kernel

import (
	"log/slog"
	"io"
	"testing"

	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
)

type fakeCPU struct{ ctx ports.Context }

func (c *fakeCPU) ReadContext() ports.Context   { return c.ctx }
func (c *fakeCPU) WriteContext(ctx ports.Context) { c.ctx = ctx }
func (c *fakeCPU) SetTrapHandler(int)           {}
func (c *fakeCPU) SetTrapAddress(int)           {}

type fakePT struct{ m map[int]int }

func newFakePT() *fakePT { return &fakePT{m: map[int]int{}} }

func (p *fakePT) Lookup(page int) (int, bool) { f, ok := p.m[page]; return f, ok }
func (p *fakePT) Map(page, frame int)         { p.m[page] = frame }
func (p *fakePT) Invalidate(page int)         { delete(p.m, page) }
func (p *fakePT) Reference(int) bool          { return false }
func (p *fakePT) Dirty(int) bool              { return false }
func (p *fakePT) ClearReference(int)          {}

type fakeMMU struct {
	bound ports.PageTable
	mem   map[int][]byte
}

func (m *fakeMMU) Bind(pt ports.PageTable)                  { m.bound = pt }
func (m *fakeMMU) ReadByteUser(addr int) (byte, error)       { return 0, nil }
func (m *fakeMMU) DefineFrame(pt ports.PageTable, page, frame int) {}
func (m *fakeMMU) NewPageTable() ports.PageTable             { return newFakePT() }
func (m *fakeMMU) WritePhysical(frame, offset int, b byte) {
	if m.mem[frame] == nil {
		m.mem[frame] = make([]byte, 64)
	}
	m.mem[frame][offset] = b
}

type fakeTerminal struct {
	keyReady bool
	key      byte
	scrReady bool
}

func (t *fakeTerminal) KeyboardReady() bool { return t.keyReady }
func (t *fakeTerminal) ReadKeyboard() byte  { t.keyReady = false; return t.key }
func (t *fakeTerminal) ScreenReady() bool   { return t.scrReady }
func (t *fakeTerminal) WriteScreen(byte)    {}

type fakeBus struct {
	terms [4]*fakeTerminal
	armed int
}

func newFakeBus() *fakeBus {
	b := &fakeBus{}
	for i := range b.terms {
		b.terms[i] = &fakeTerminal{}
	}
	return b
}

func (b *fakeBus) Terminal(id int) ports.Terminal { return b.terms[id] }
func (b *fakeBus) Now() int64                     { return 0 }
func (b *fakeBus) ArmTimer(ticks int)              { b.armed = ticks }
func (b *fakeBus) ClearClockIRQ()                  {}

type fakeLoader struct {
	images map[string][]byte
}

func (l *fakeLoader) Open(name string) (int, int, error) {
	return 0, len(l.images[name]), nil
}

func (l *fakeLoader) ReadByte(name string, vaddr int) (byte, error) {
	img := l.images[name]
	if vaddr < 0 || vaddr >= len(img) {
		return 0, nil
	}
	return img[vaddr], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		SchedulerName:   "RR",
		ReplacementName: "FIFO",
		TickInterval:    10,
		Quantum:         2,
		MaxProcesses:    3,
		MaxFrames:       4,
		ReservedFrames:  0,
		PageSize:        8,
		DiskTransfer:    100,
		InitProgram:     "init.maq",
	}
}

func newTestKernel(t *testing.T, images map[string][]byte) (*Kernel, *fakeBus, *fakeMMU) {
	t.Helper()
	cpu := &fakeCPU{}
	mmu := &fakeMMU{mem: map[int][]byte{}}
	bus := newFakeBus()
	loader := &fakeLoader{images: images}
	k, err := New(testConfig(), cpu, mmu, bus, loader, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k, bus, mmu
}

func TestBootLoadsInitEagerlyAndArmsTimer(t *testing.T) {
	k, bus, _ := newTestKernel(t, map[string][]byte{"init.maq": make([]byte, 16)})

	outcome := k.OnInterrupt(Reset, 0)
	if outcome != Resume {
		t.Fatalf("expected resume after boot, got %v", outcome)
	}
	if bus.armed != int(k.cfg.TickInterval) {
		t.Errorf("timer not armed with tick interval, got %d", bus.armed)
	}
	idx := k.Procs.Running()
	if idx < 0 || k.Procs.At(idx).PID != 1 {
		t.Fatalf("PID 1 should be RUNNING after boot, got idx=%d", idx)
	}
	if k.Procs.At(idx).MemSize != 16 {
		t.Errorf("got mem_size=%d want 16", k.Procs.At(idx).MemSize)
	}
}

func TestHaltsWhenNoReadyProcess(t *testing.T) {
	k, _, _ := newTestKernel(t, map[string][]byte{})
	outcome := k.OnInterrupt(Clock, 10)
	if outcome != Halt {
		t.Errorf("expected halt with no processes at all, got %v", outcome)
	}
}

func TestQuantumPreemptionUnderRR(t *testing.T) {
	k, _, _ := newTestKernel(t, map[string][]byte{"init.maq": make([]byte, 8)})
	k.OnInterrupt(Reset, 0)

	// Create a second process directly in the table to exercise RR
	// rotation (bypassing CRIA_PROC plumbing for test brevity).
	p2, _ := k.Procs.Create(0)
	p2.PageTable = newFakePT()
	p2.ExeName = "init.maq"
	p2.MemSize = 8
	idx2 := k.Procs.IndexOf(p2.PID)
	k.Scheduler.Enqueue(idx2)

	running := k.Procs.Running()
	firstPID := k.Procs.At(running).PID

	// Burn the quantum with CLOCK ticks.
	k.OnInterrupt(Clock, 10)
	k.OnInterrupt(Clock, 20)

	running = k.Procs.Running()
	if running < 0 {
		t.Fatalf("expected a RUNNING process after quantum rotation")
	}
	if k.Procs.At(running).PID == firstPID && k.Procs.Len() > 1 {
		// Acceptable only if there truly was nothing else ready; with
		// two ready processes RR must have rotated.
		t.Errorf("expected RR to rotate away from PID %d after quantum expiry", firstPID)
	}
}

func TestSyscallLEBlocksAndServicePendingWakes(t *testing.T) {
	k, bus, _ := newTestKernel(t, map[string][]byte{"init.maq": make([]byte, 8)})
	k.OnInterrupt(Reset, 0)

	idx := k.Procs.Running()
	p := k.Procs.At(idx)
	p.Context.A = 0 // IDLe

	k.CPU.WriteContext(p.Context)
	k.OnInterrupt(Syscall, 5)

	blockedIdx := k.Procs.IndexOf(p.PID)
	if k.Procs.At(blockedIdx).State != process.Blocked || k.Procs.At(blockedIdx).BlockReason != process.ReadIO {
		t.Fatalf("expected BLOCKED/READ_IO after LE on an unready device, got state=%v reason=%v",
			k.Procs.At(blockedIdx).State, k.Procs.At(blockedIdx).BlockReason)
	}

	bus.terms[0].keyReady = true
	bus.terms[0].key = 7
	k.OnInterrupt(Clock, 15)

	if k.Procs.At(blockedIdx).Context.A != 7 {
		t.Errorf("expected datum 7 delivered via A after device became ready, got %d", k.Procs.At(blockedIdx).Context.A)
	}
}

func TestSnapshotCountsIRQsAndSurvivesProcessKill(t *testing.T) {
	k, _, _ := newTestKernel(t, map[string][]byte{"init.maq": make([]byte, 8)})

	k.OnInterrupt(Reset, 0)
	k.OnInterrupt(Clock, 10)

	snap := k.Snapshot()
	if snap.IRQCounts[Reset] != 1 {
		t.Errorf("got IRQCounts[Reset]=%d want 1", snap.IRQCounts[Reset])
	}
	if snap.IRQCounts[Clock] != 1 {
		t.Errorf("got IRQCounts[Clock]=%d want 1", snap.IRQCounts[Clock])
	}
	if snap.ProcessesCreated != 1 {
		t.Errorf("got ProcessesCreated=%d want 1", snap.ProcessesCreated)
	}

	idx := k.Procs.Running()
	pid := k.Procs.At(idx).PID
	k.Kill(idx, 30)

	snap = k.Snapshot()
	var found *ProcessSnapshot
	for i := range snap.Processes {
		if snap.Processes[i].PID == pid {
			found = &snap.Processes[i]
		}
	}
	if found == nil {
		t.Fatalf("killed process %d missing from Snapshot().Processes", pid)
	}
	if found.State != process.Terminated {
		t.Errorf("got killed process state %v want TERMINATED", found.State)
	}
	if found.TerminationTime != 30 {
		t.Errorf("got TerminationTime=%d want 30", found.TerminationTime)
	}
	if found.CreationTime != 0 {
		t.Errorf("got CreationTime=%d want 0", found.CreationTime)
	}
}

func TestSnapshotGlobalPreemptionCountMatchesPerProcess(t *testing.T) {
	k, _, _ := newTestKernel(t, map[string][]byte{"init.maq": make([]byte, 8)})
	k.OnInterrupt(Reset, 0)

	p2, _ := k.Procs.Create(0)
	p2.PageTable = newFakePT()
	p2.ExeName = "init.maq"
	p2.MemSize = 8
	idx2 := k.Procs.IndexOf(p2.PID)
	k.Scheduler.Enqueue(idx2)

	k.OnInterrupt(Clock, 10)
	k.OnInterrupt(Clock, 20)

	snap := k.Snapshot()
	var totalPerProcess int
	for _, p := range snap.Processes {
		totalPerProcess += p.PreemptionCount
	}
	if snap.PreemptionCount == 0 {
		t.Fatalf("expected at least one preemption after two quantum-exhausting CLOCK ticks")
	}
	if int64(totalPerProcess) != snap.PreemptionCount {
		t.Errorf("global PreemptionCount=%d does not match sum of per-process counts=%d",
			snap.PreemptionCount, totalPerProcess)
	}
}
