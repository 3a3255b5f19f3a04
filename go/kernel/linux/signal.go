package linux

import (
	co "github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

const sigsetSize = 8

func (k *LinuxKernel) RtSigaction(sig int32, act co.Buf, oldact co.Obuf, size co.Len) uint64 {
	if size != sigsetSize {
		return co.EINVAL.Ret()
	}
	var newAct *signal.Action
	if !act.Null() {
		newAct = &signal.Action{}
		if err := act.Unpack(newAct); err != nil {
			return co.ErrnoRet(err)
		}
	}
	old, err := k.Task.Sigaction(signal.Signal(sig), newAct)
	if err != nil {
		return co.ErrnoRet(err)
	}
	if !oldact.Null() {
		return co.ErrnoRet(oldact.Pack(&old))
	}
	return 0
}

// Sigaction is the legacy call with a 32-bit mask. Installing through it
// clears the upper half of the handler mask.
func (k *LinuxKernel) Sigaction(sig int32, act co.Buf, oldact co.Obuf) uint64 {
	var newAct *signal.Action
	if !act.Null() {
		var tmp signal.OldAction
		if err := act.Unpack(&tmp); err != nil {
			return co.ErrnoRet(err)
		}
		a := tmp.Action()
		newAct = &a
	}
	old, err := k.Task.Sigaction(signal.Signal(sig), newAct)
	if err != nil {
		return co.ErrnoRet(err)
	}
	if !oldact.Null() {
		legacy := old.Old()
		return co.ErrnoRet(oldact.Pack(&legacy))
	}
	return 0
}

func (k *LinuxKernel) RtSigprocmask(how int32, set co.Buf, oldset co.Obuf, size co.Len) uint64 {
	if size != sigsetSize {
		return co.EINVAL.Ret()
	}
	var mask *signal.SigSet
	if !set.Null() {
		mask = new(signal.SigSet)
		if err := set.Unpack(mask); err != nil {
			return co.ErrnoRet(err)
		}
	}
	if !oldset.Null() {
		old := k.Task.Blocked()
		if err := oldset.Pack(&old); err != nil {
			return co.ErrnoRet(err)
		}
	}
	_, err := k.Task.Sigprocmask(int(how), mask)
	return co.ErrnoRet(err)
}

func (k *LinuxKernel) RtSigpending(set co.Obuf, size co.Len) uint64 {
	if size != sigsetSize {
		return co.EINVAL.Ret()
	}
	pending := k.Task.Sigpending()
	return co.ErrnoRet(set.Pack(&pending))
}

func (k *LinuxKernel) Sigaltstack(ss co.Buf, oss co.Obuf) uint64 {
	var newStack *signal.StackT
	if !ss.Null() {
		newStack = &signal.StackT{}
		if err := ss.Unpack(newStack); err != nil {
			return co.ErrnoRet(err)
		}
	}
	var saveOld func(signal.StackT) error
	if !oss.Null() {
		saveOld = func(old signal.StackT) error {
			return oss.Pack(&old)
		}
	}
	return co.ErrnoRet(k.Task.SwapAltstack(newStack, saveOld))
}

func (k *LinuxKernel) RtSigsuspend(mask co.Buf, size co.Len) uint64 {
	if size != sigsetSize {
		return co.EINVAL.Ret()
	}
	var set signal.SigSet
	if err := mask.Unpack(&set); err != nil {
		return co.ErrnoRet(err)
	}
	return co.ErrnoRet(k.Task.Sigsuspend(set))
}

func (k *LinuxKernel) Pause() uint64 {
	return co.ErrnoRet(k.Task.Pause())
}

func (k *LinuxKernel) badFrame(err error) uint64 {
	k.Log.WithError(err).Warn("bad signal frame")
	if err := k.Task.Deliver(k.Task, signal.SIGSEGV, signal.SigInfo{Code: signal.SI_KERNEL}); err != nil {
		k.Log.WithError(err).Warn("queueing SIGSEGV")
	}
	return co.ErrnoRet(err)
}

func (k *LinuxKernel) Sigreturn() uint64 {
	eax, err := k.Task.Sigreturn()
	if err != nil {
		return k.badFrame(err)
	}
	return eax
}

func (k *LinuxKernel) RtSigreturn() uint64 {
	eax, err := k.Task.RtSigreturn()
	if err != nil {
		return k.badFrame(err)
	}
	return eax
}
