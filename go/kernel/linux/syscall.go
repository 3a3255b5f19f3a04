package linux

import (
	"github.com/lunixbochs/ghostrace/ghost/sys/num"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	co "github.com/lunixbochs/sigcorn/go/kernel/common"
)

// dispatch runs syscall number n with args from getArgs.
func (k *LinuxKernel) dispatch(n int, getArgs func(n int) ([]uint64, error)) uint64 {
	name, ok := num.Linux_x86[n]
	if !ok {
		k.Log.WithField("num", n).Debug("unknown syscall number")
		return co.ENOSYS.Ret()
	}
	sys := co.Lookup(k, name)
	if sys == nil {
		k.Log.WithField("syscall", name).Debug("unimplemented syscall")
		return co.ENOSYS.Ret()
	}
	args, err := getArgs(len(sys.In))
	if err != nil {
		k.Log.WithError(err).WithField("syscall", name).Warn("reading syscall args")
		return co.EFAULT.Ret()
	}
	return sys.CallTraced(args)
}

// Interrupt handles a software interrupt raised by guest code. Only int 0x80
// is a syscall gate; anything else is ignored. A non-nil error means the task
// can no longer run.
func (k *LinuxKernel) Interrupt(intno uint32) error {
	if intno != 0x80 {
		k.Log.WithField("intno", intno).Debug("ignoring interrupt")
		return k.Checkpoint()
	}
	eaxReg := k.Arch.Regs["eax"]
	eax, err := k.Cpu.RegRead(eaxReg)
	if err != nil {
		return errors.Wrap(err, "reading syscall number")
	}
	ret := k.dispatch(int(eax), co.RegArgs(k.Cpu, k.ArgRegs))
	if k.Task.Zombie() {
		return k.Checkpoint()
	}
	if err := k.Cpu.RegWrite(eaxReg, uint64(uint32(ret))); err != nil {
		return errors.Wrap(err, "writing syscall result")
	}
	return k.Checkpoint()
}

// Checkpoint is where a task yields to job control and takes its pending
// signals: after every syscall and whenever the emulator is interrupted.
func (k *LinuxKernel) Checkpoint() error {
	if k.Task.Zombie() {
		return errors.Errorf("pid %d exited", k.Task.Pid)
	}
	k.Task.WaitWhileStopped()
	delivered, err := k.Task.ReceiveSignals()
	if err != nil {
		return err
	}
	if delivered {
		k.Log.WithFields(logrus.Fields{"pending": k.Task.Pending()}).Debug("signal frame pushed")
	}
	return nil
}
