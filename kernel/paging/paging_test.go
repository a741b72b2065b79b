package paging

import (
	"testing"

	"github.com/rcornwell/maqsim/kernel/ports"
	"github.com/rcornwell/maqsim/kernel/process"
)

// fakePageTable is a minimal in-memory ports.PageTable for tests.
type fakePageTable struct {
	frame map[int]int
	ref   map[int]bool
	dirty map[int]bool
}

func newFakePageTable() *fakePageTable {
	return &fakePageTable{frame: map[int]int{}, ref: map[int]bool{}, dirty: map[int]bool{}}
}

func (t *fakePageTable) Lookup(page int) (int, bool) { f, ok := t.frame[page]; return f, ok }
func (t *fakePageTable) Map(page, frame int)         { t.frame[page] = frame }
func (t *fakePageTable) Invalidate(page int)         { delete(t.frame, page) }
func (t *fakePageTable) Reference(page int) bool     { return t.ref[page] }
func (t *fakePageTable) Dirty(page int) bool         { return t.dirty[page] }
func (t *fakePageTable) ClearReference(page int)     { t.ref[page] = false }

// fakeMMU records what's written into each physical frame.
type fakeMMU struct {
	mem   map[int][]byte
	bound ports.PageTable
}

func newFakeMMU(frames, pageSize int) *fakeMMU {
	m := &fakeMMU{mem: map[int][]byte{}}
	for i := 0; i < frames; i++ {
		m.mem[i] = make([]byte, pageSize)
	}
	return m
}

func (m *fakeMMU) Bind(pt ports.PageTable)                     { m.bound = pt }
func (m *fakeMMU) ReadByteUser(addr int) (byte, error)          { return 0, nil }
func (m *fakeMMU) DefineFrame(pt ports.PageTable, page, frame int) {}
func (m *fakeMMU) NewPageTable() ports.PageTable                { return newFakePageTable() }
func (m *fakeMMU) WritePhysical(frame, offset int, b byte)      { m.mem[frame][offset] = b }

// fakeLoader serves bytes from an in-memory image keyed by name.
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

func TestFIFOEvictsInAllocationOrder(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(4, 0, repl)

	a.Alloc(10, 0)
	a.Alloc(10, 1)
	a.Alloc(10, 2)
	a.Alloc(10, 3)

	victim, ok := a.Victim()
	if !ok || victim != 0 {
		t.Fatalf("expected victim frame 0 (first allocated), got %d ok=%v", victim, ok)
	}
}

func TestFIFODoesNotReinsertUntilReallocated(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(2, 0, repl)
	a.Alloc(10, 0)
	a.Alloc(10, 1)

	v1, _ := a.Victim()
	a.Install(v1, 10, 2)

	v2, _ := a.Victim()
	if v2 == v1 {
		t.Errorf("frame %d was handed back before any other frame cycled through", v1)
	}
}

func TestFreeMakesFramesAllocatableAgain(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(2, 0, repl)
	a.Alloc(10, 0)
	a.Alloc(10, 1)

	if a.HasFree() {
		t.Fatalf("expected no free frames once both are allocated")
	}

	a.Free(10)

	if !a.HasFree() {
		t.Fatalf("expected HasFree to see frames Free just released")
	}
	frame := a.Alloc(20, 0)
	if a.Frames[frame].Owner != 20 {
		t.Errorf("reallocated frame not owned by new owner, got %d", a.Frames[frame].Owner)
	}
	if a.UsedCount() != 1 {
		t.Errorf("got used=%d want 1 after freeing 2 and reallocating 1", a.UsedCount())
	}
}

func TestFreeRemovesFIFOEntryAvoidingOrphanVictim(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(4, 0, repl)

	a.Alloc(1, 0) // frame 0
	a.Alloc(1, 1) // frame 1
	a.Alloc(2, 0) // frame 2
	a.Alloc(2, 1) // frame 3

	a.Free(1) // must also drop frames 0 and 1 from the FIFO ring

	victim, ok := a.Victim()
	if !ok {
		t.Fatalf("expected a victim among owner 2's frames")
	}
	if a.Frames[victim].Owner != 2 {
		t.Fatalf("victim frame %d has owner %d: an orphaned (NoOwner) frame leaked through",
			victim, a.Frames[victim].Owner)
	}
}

func TestLRUSkipsFreedFrames(t *testing.T) {
	repl, _ := New("LRU")
	a := NewAllocator(2, 0, repl)
	a.Alloc(1, 0)
	a.Alloc(2, 0)
	a.Frames[0].Age = 0 // lowest age: would win if still considered owned

	a.Free(1)

	victim, ok := a.Victim()
	if !ok || a.Frames[victim].Owner != 2 {
		t.Fatalf("expected the only remaining owned frame, got victim=%d ok=%v", victim, ok)
	}
}

func TestLRUVictimIsSmallestAge(t *testing.T) {
	repl, _ := New("LRU")
	a := NewAllocator(3, 0, repl)
	a.Alloc(10, 0)
	a.Alloc(10, 1)
	a.Alloc(10, 2)

	a.Frames[0].Age = 0x80000000
	a.Frames[1].Age = 0x40000000
	a.Frames[2].Age = 0x20000000

	victim, ok := a.Victim()
	if !ok || victim != 2 {
		t.Errorf("expected frame 2 (smallest age), got %d", victim)
	}
}

func TestLRUAgingShiftsAndSetsOnReference(t *testing.T) {
	repl, _ := New("LRU")
	a := NewAllocator(2, 0, repl)
	a.Alloc(0, 5) // frame 0, owned by table index 0, vpage 5
	a.Frames[0].Age = 0x0000FFFF

	tbl := process.NewTable(1)
	tbl.Create(0)
	pt := newFakePageTable()
	pt.ref[5] = true
	tbl.At(0).PageTable = pt

	repl.Age(a, tbl, 0)

	want := uint32(0x0000FFFF>>1) | (1 << 31)
	if a.Frames[0].Age != want {
		t.Errorf("got age %#x want %#x", a.Frames[0].Age, want)
	}
	if pt.ref[5] {
		t.Errorf("reference bit must be cleared after aging")
	}
}

func TestPageFaultOutOfBoundsKills(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(2, 0, repl)
	disk := &Disk{Transfer: 100}
	mmu := newFakeMMU(2, 8)
	loader := &fakeLoader{images: map[string][]byte{}}
	h := NewHandler(a, disk, loader, mmu, 8)

	tbl := process.NewTable(1)
	p, _ := tbl.Create(0)
	idx := tbl.IndexOf(p.PID)
	p.MemSize = 16
	p.PageTable = newFakePageTable()

	if killed := h.Service(tbl, idx, 1000, 0); !killed {
		t.Errorf("vaddr beyond mem_size must be a segmentation fault")
	}
}

func TestPageFaultServicesAndBlocksPaging(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(2, 0, repl)
	disk := &Disk{Transfer: 100}
	mmu := newFakeMMU(2, 8)
	loader := &fakeLoader{images: map[string][]byte{"p": {1, 2, 3, 4, 5, 6, 7, 8}}}
	h := NewHandler(a, disk, loader, mmu, 8)

	tbl := process.NewTable(1)
	p, _ := tbl.Create(0)
	idx := tbl.IndexOf(p.PID)
	p.MemSize = 8
	p.ExeName = "p"
	p.PageTable = newFakePageTable()

	if killed := h.Service(tbl, idx, 3, 50); killed {
		t.Fatalf("in-bounds fault must not kill")
	}

	if p.State != process.Blocked || p.BlockReason != process.Paging {
		t.Errorf("faulting process must block as PAGING, got state=%v reason=%v", p.State, p.BlockReason)
	}
	if p.DiskIOETA != 150 {
		t.Errorf("got disk_io_eta=%d want 150", p.DiskIOETA)
	}
	if disk.FreeTime != 150 {
		t.Errorf("got disk_free_time=%d want 150", disk.FreeTime)
	}
	frame, ok := p.PageTable.Lookup(0)
	if !ok || frame != 0 {
		t.Errorf("page 0 should map to first sequentially allocated frame, got %d ok=%v", frame, ok)
	}
	if mmu.mem[0][0] != 1 {
		t.Errorf("frame contents not loaded from executable image")
	}
}

func TestDiskFreeTimeMonotonicAcrossFaults(t *testing.T) {
	repl, _ := New("FIFO")
	a := NewAllocator(1, 0, repl)
	disk := &Disk{Transfer: 100}
	mmu := newFakeMMU(1, 8)
	loader := &fakeLoader{images: map[string][]byte{"p": make([]byte, 8)}}
	h := NewHandler(a, disk, loader, mmu, 8)

	tbl := process.NewTable(2)
	p1, _ := tbl.Create(0)
	p2, _ := tbl.Create(0)
	i1, i2 := tbl.IndexOf(p1.PID), tbl.IndexOf(p2.PID)
	for _, p := range []*process.PCB{p1, p2} {
		p.MemSize = 8
		p.ExeName = "p"
		p.PageTable = newFakePageTable()
	}

	h.Service(tbl, i1, 0, 10)
	before := disk.FreeTime

	h.Service(tbl, i2, 0, 5) // earlier wall time but must not move disk_free_time backward
	if disk.FreeTime < before {
		t.Errorf("disk_free_time went backward: %d -> %d", before, disk.FreeTime)
	}
}
