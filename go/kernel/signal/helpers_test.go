package signal

import (
	"encoding/binary"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

const (
	stackBase = 0x10000
	stackSize = 0x10000
	stackTop  = 0x1f000

	sigreturnAddr   = 0xffffe400
	rtSigreturnAddr = 0xffffe410
)

var testVdso = models.SymbolTable{
	{Name: "__kernel_sigreturn", Start: sigreturnAddr, End: sigreturnAddr + 8},
	{Name: "__kernel_rt_sigreturn", Start: rtSigreturnAddr, End: rtSigreturnAddr + 8},
}

func testArch() *models.Arch {
	a := &models.Arch{
		Name:  "i386",
		Bits:  32,
		Order: binary.LittleEndian,
		Regs: map[string]int{
			"eax": 1, "ebx": 2, "ecx": 3, "edx": 4, "esi": 5, "edi": 6,
			"ebp": 7, "esp": 8, "eip": 9, "eflags": 10, "cs": 11, "ss": 12,
		},
		PC: 9,
		SP: 8,
	}
	a.Cpu = &cpu.SimBuilder{Bits: a.Bits, Enums: a.Enums()}
	return a
}

type fakePids struct {
	sync.Mutex
	tasks map[int32]*Task
}

func (p *fakePids) Task(pid int32) *Task {
	return p.tasks[pid]
}

func (p *fakePids) ProcessGroup(pgid int32) ([]*Task, bool) {
	var ret []*Task
	for _, t := range p.tasks {
		if t.Group.Leader == t && t.Group.Pgid() == pgid {
			ret = append(ret, t)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Pid < ret[j].Pid })
	return ret, len(ret) > 0
}

type exitRecord struct {
	Pid int32
	Sig Signal
}

type harness struct {
	t    *testing.T
	arch *models.Arch
	sys  *System
	pids *fakePids

	mu    sync.Mutex
	exits []exitRecord
}

func newHarness(t *testing.T) *harness {
	log := logrus.New()
	log.Out = io.Discard
	h := &harness{t: t, arch: testArch(), pids: &fakePids{tasks: make(map[int32]*Task)}}
	h.sys = NewSystem(models.DefaultConfig(), log, h.pids, testVdso)
	h.sys.ExitGroup = func(t *Task, sig Signal) {
		h.mu.Lock()
		h.exits = append(h.exits, exitRecord{t.Pid, sig})
		h.mu.Unlock()
	}
	return h
}

func (h *harness) Exits() []exitRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]exitRecord(nil), h.exits...)
}

func (h *harness) newCpu() cpu.Cpu {
	c, err := h.arch.Cpu.New()
	if err != nil {
		h.t.Fatal(err)
	}
	if err := c.MemMapProt(stackBase, stackSize, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		h.t.Fatal(err)
	}
	c.RegWrite(h.arch.SP, stackTop)
	c.RegWrite(h.arch.PC, 0x1234)
	return c
}

func (h *harness) add(t *Task) *Task {
	h.pids.Lock()
	h.pids.tasks[t.Pid] = t
	h.pids.Unlock()
	return t
}

// spawn creates a process leader.
func (h *harness) spawn(pid int32) *Task {
	return h.add(h.sys.NewTask(pid, h.newCpu(), h.arch))
}

// fork creates a child process of parent.
func (h *harness) fork(parent *Task, pid int32) *Task {
	return h.add(parent.Clone(pid, 0, h.newCpu()))
}

// thread creates a thread in parent's group.
func (h *harness) thread(parent *Task, pid int32) *Task {
	return h.add(parent.Clone(pid, CLONE_SIGHAND|CLONE_THREAD, h.newCpu()))
}

func (h *harness) reg(t *Task, name string) uint32 {
	val, err := t.Cpu.RegRead(h.arch.Regs[name])
	if err != nil {
		h.t.Fatal(err)
	}
	return uint32(val)
}

func (h *harness) setReg(t *Task, name string, val uint32) {
	if err := t.Cpu.RegWrite(h.arch.Regs[name], uint64(val)); err != nil {
		h.t.Fatal(err)
	}
}

func (h *harness) handle(t *Task, sig Signal, act Action) {
	if _, err := t.Sigaction(sig, &act); err != nil {
		h.t.Fatal(err)
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// countInterrupts counts Interrupt calls.
type countInterrupts struct {
	mu sync.Mutex
	n  int
}

func (c *countInterrupts) Interrupt() error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

func (c *countInterrupts) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
