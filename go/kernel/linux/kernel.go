package linux

import (
	"github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/kernel/pids"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

// LinuxKernel is the i386 Linux syscall surface for one task.
type LinuxKernel struct {
	common.KernelBase

	Task *signal.Task
	Pids *pids.Table
	// ArgRegs are the syscall argument registers, in order.
	ArgRegs []int
}

func NewKernel(task *signal.Task, table *pids.Table) *LinuxKernel {
	sys := task.System()
	k := &LinuxKernel{Task: task, Pids: table}
	k.Cpu = task.Cpu
	k.Arch = task.Arch
	k.Config = sys.Config
	k.Log = sys.Log.WithField("pid", task.Pid)
	for _, name := range []string{"ebx", "ecx", "edx", "esi", "edi", "ebp"} {
		k.ArgRegs = append(k.ArgRegs, task.Arch.Regs[name])
	}
	common.Init(k)
	return k
}
