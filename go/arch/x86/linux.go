package x86

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/cpu/unicorn"
	"github.com/lunixbochs/sigcorn/go/kernel/linux"
	"github.com/lunixbochs/sigcorn/go/kernel/pids"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
	"github.com/lunixbochs/sigcorn/go/native"
)

const (
	StackBase = 0x10000
	StackSize = 0x10000
)

// Machine is a set of i386 Linux processes sharing one pid space.
type Machine struct {
	Sys  *signal.System
	Pids *pids.Table
}

func NewMachine(config *models.Config, log logrus.FieldLogger) (*Machine, error) {
	table, err := pids.New()
	if err != nil {
		return nil, err
	}
	sys := signal.NewSystem(config, log, table, Vdso)
	sys.ExitGroup = linux.ExitGroupHook(table)
	return &Machine{Sys: sys, Pids: table}, nil
}

// Process is one guest task bound to a unicorn instance.
type Process struct {
	Kernel *linux.LinuxKernel
	Cpu    *unicorn.UnicornCpu
}

func (m *Machine) newCpu() (*unicorn.UnicornCpu, error) {
	c, err := Arch.Cpu.New()
	if err != nil {
		return nil, err
	}
	u := c.(*unicorn.UnicornCpu)
	if err := MapVdso(u); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "mapping vdso")
	}
	if err := u.MemMapProt(StackBase, StackSize, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "mapping stack")
	}
	if err := u.RegWrite(Arch.SP, StackBase+StackSize-0x1000); err != nil {
		u.Close()
		return nil, err
	}
	return u, nil
}

func (m *Machine) attach(task *signal.Task, u *unicorn.UnicornCpu) (*Process, error) {
	if err := m.Pids.Add(task); err != nil {
		return nil, err
	}
	k := linux.NewKernel(task, m.Pids)
	if _, err := u.OnInterrupt(k.Interrupt); err != nil {
		m.Pids.Remove(task)
		return nil, errors.Wrap(err, "hooking interrupts")
	}
	if _, err := u.MemoryFaults(func(access int, addr uint64, size int) bool {
		k.Log.WithFields(logrus.Fields{"addr": addr, "size": size, "access": access}).Debug("memory fault")
		task.TrapNo = 14
		task.Deliver(task, signal.SIGSEGV, signal.SigInfo{Code: signal.SI_KERNEL})
		return false
	}); err != nil {
		m.Pids.Remove(task)
		return nil, errors.Wrap(err, "hooking faults")
	}
	// a Stop that lands before the engine starts is dropped, so guest code
	// that never makes a syscall checks for signals on every block
	if _, err := u.OnBlock(func(uint64) bool {
		return task.Deliverable() != 0 || task.Zombie()
	}); err != nil {
		m.Pids.Remove(task)
		return nil, errors.Wrap(err, "hooking blocks")
	}
	return &Process{Kernel: k, Cpu: u}, nil
}

// Spawn creates a process leader with code mapped at addr.
func (m *Machine) Spawn(pid int32, addr uint64, code []byte) (*Process, error) {
	u, err := m.newCpu()
	if err != nil {
		return nil, err
	}
	size := (uint64(len(code)) + 0xfff) &^ 0xfff
	if err := u.MemMapProt(addr, size, cpu.PROT_ALL); err != nil {
		u.Close()
		return nil, errors.Wrap(err, "mapping code")
	}
	if err := u.MemWrite(addr, code); err != nil {
		u.Close()
		return nil, err
	}
	u.RegWrite(Arch.PC, addr)
	return m.attach(m.Sys.NewTask(pid, u, Arch), u)
}

// Run executes guest code on the calling goroutine until eip reaches until
// or the process dies. Signals sent by other goroutines stop the engine so
// they are received between instructions.
func (p *Process) Run(until uint64) error {
	task := p.Kernel.Task
	thread, release := native.CurrentThread()
	defer release()
	task.SetThread(signal.Interrupters{signal.CpuInterrupter{Cpu: p.Cpu}, thread})
	defer task.SetThread(nil)

	for {
		pc, err := p.Cpu.RegRead(Arch.PC)
		if err != nil {
			return err
		}
		if pc == until {
			return nil
		}
		if err := p.Cpu.Run(pc, until); err != nil {
			// a fault queued SIGSEGV, which normally ends the process here
			if cerr := p.Kernel.Checkpoint(); cerr != nil {
				return cerr
			}
			return err
		}
		if err := p.Kernel.Checkpoint(); err != nil {
			return err
		}
	}
}
