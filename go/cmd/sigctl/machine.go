package main

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/kernel/linux"
	"github.com/lunixbochs/sigcorn/go/kernel/pids"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

const (
	stackBase = 0x10000
	stackSize = 0x10000
	stackTop  = 0x1f000
	entryPC   = 0x1234

	altBase = 0x30000
	altSize = 0x4000

	vdsoBase = 0xffffe000
)

var simVdso = models.SymbolTable{
	{Name: "__kernel_sigreturn", Start: vdsoBase + 0x400, End: vdsoBase + 0x408},
	{Name: "__kernel_rt_sigreturn", Start: vdsoBase + 0x410, End: vdsoBase + 0x418},
}

// simArch is i386 on a Sim, which has no instruction engine and so no real
// register enums.
func simArch() *models.Arch {
	names := []string{
		"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp", "eip", "eflags",
		"cs", "ds", "es", "fs", "gs", "ss",
	}
	a := &models.Arch{Name: "i386", Bits: 32, Order: binary.LittleEndian, Regs: make(map[string]int)}
	for i, name := range names {
		a.Regs[name] = i + 1
	}
	a.PC, a.SP = a.Regs["eip"], a.Regs["esp"]
	a.Cpu = &cpu.SimBuilder{Bits: a.Bits, Enums: a.Enums()}
	return a
}

// machine is a pid space of Sim-backed tasks.
type machine struct {
	arch  *models.Arch
	sys   *signal.System
	table *pids.Table
	log   logrus.FieldLogger
}

func newMachine(config *models.Config) (*machine, error) {
	table, err := pids.New()
	if err != nil {
		return nil, err
	}
	log := config.Logger()
	m := &machine{arch: simArch(), table: table, log: log}
	m.sys = signal.NewSystem(config, log, table, simVdso)
	m.sys.ExitGroup = linux.ExitGroupHook(table)
	return m, nil
}

func (m *machine) newCpu() (cpu.Cpu, error) {
	c, err := m.arch.Cpu.New()
	if err != nil {
		return nil, err
	}
	for _, region := range [][2]uint64{{stackBase, stackSize}, {altBase, altSize}} {
		if err := c.MemMapProt(region[0], region[1], cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
			return nil, errors.Wrapf(err, "mapping 0x%x", region[0])
		}
	}
	c.RegWrite(m.arch.SP, stackTop)
	c.RegWrite(m.arch.PC, entryPC)
	return c, nil
}

func (m *machine) register(task *signal.Task) (*linux.LinuxKernel, error) {
	if err := m.table.Add(task); err != nil {
		return nil, err
	}
	return linux.NewKernel(task, m.table), nil
}

func (m *machine) spawn(pid int32) (*linux.LinuxKernel, error) {
	c, err := m.newCpu()
	if err != nil {
		return nil, err
	}
	return m.register(m.sys.NewTask(pid, c, m.arch))
}

func (m *machine) fork(parent *linux.LinuxKernel, pid int32) (*linux.LinuxKernel, error) {
	c, err := m.newCpu()
	if err != nil {
		return nil, err
	}
	return m.register(parent.Task.Clone(pid, 0, c))
}

func (m *machine) reg(k *linux.LinuxKernel, name string) uint32 {
	val, _ := k.Cpu.RegRead(m.arch.Regs[name])
	return uint32(val)
}
