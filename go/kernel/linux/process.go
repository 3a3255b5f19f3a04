package linux

import (
	co "github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/kernel/pids"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

func (k *LinuxKernel) Kill(pid, sig int32) uint64 {
	return co.ErrnoRet(signal.Kill(k.Task, pid, signal.Signal(sig)))
}

func (k *LinuxKernel) Tgkill(tgid, tid, sig int32) uint64 {
	return co.ErrnoRet(signal.Tgkill(k.Task, tgid, tid, signal.Signal(sig)))
}

func (k *LinuxKernel) Tkill(tid, sig int32) uint64 {
	return co.ErrnoRet(signal.Tkill(k.Task, tid, signal.Signal(sig)))
}

func (k *LinuxKernel) Getpid() uint64 {
	return uint64(k.Task.Tgid)
}

func (k *LinuxKernel) Gettid() uint64 {
	return uint64(k.Task.Pid)
}

func (k *LinuxKernel) Getppid() uint64 {
	if k.Task.Parent == nil {
		return 0
	}
	return uint64(k.Task.Parent.Tgid)
}

func (k *LinuxKernel) Getpgid(pid int32) uint64 {
	task := k.Task
	if pid != 0 {
		if task = k.Pids.Task(pid); task == nil {
			return co.ESRCH.Ret()
		}
	}
	return uint64(task.Group.Pgid())
}

func (k *LinuxKernel) Getpgrp() uint64 {
	return uint64(k.Task.Group.Pgid())
}

// Setpgid moves pid (0 for the caller) into pgid (0 for pid's own id).
func (k *LinuxKernel) Setpgid(pid, pgid int32) uint64 {
	if pid < 0 || pgid < 0 {
		return co.EINVAL.Ret()
	}
	task := k.Task
	if pid != 0 {
		if task = k.Pids.Task(pid); task == nil {
			return co.ESRCH.Ret()
		}
	}
	if pgid == 0 {
		pgid = task.Tgid
	}
	return co.ErrnoRet(k.Pids.Setpgid(task, pgid))
}

func (k *LinuxKernel) ExitGroup(code int32) uint64 {
	k.Log.WithField("code", code).Debug("exit_group")
	Terminate(k.Pids, k.Task, 0)
	return 0
}

// Terminate ends t's process: every thread is reaped, unregistered and
// stopped, and the parent is told. sig is the fatal signal, or 0 for a
// normal exit.
func Terminate(table *pids.Table, t *signal.Task, sig signal.Signal) {
	for _, thread := range table.Threads(t.Tgid) {
		thread.Reap()
		table.Remove(thread)
		if thread.Cpu != nil {
			thread.Cpu.Stop()
		}
	}
	parent := t.Parent
	if parent == nil || parent.Zombie() {
		return
	}
	parent.Group.ChildExit.Notify()
	code := int32(signal.CLD_EXITED)
	if sig != 0 {
		code = signal.CLD_KILLED
	}
	info := signal.SigInfo{Code: code, Pid: t.Tgid, Uid: t.Uid, Status: int32(sig)}
	exitSignal := signal.SIGCHLD
	if leader := t.Group.Leader; leader != nil {
		exitSignal = leader.ExitSignal
	}
	signal.Send(t, parent, exitSignal, info)
}

// ExitGroupHook adapts Terminate for signal.System.ExitGroup.
func ExitGroupHook(table *pids.Table) func(*signal.Task, signal.Signal) {
	return func(t *signal.Task, sig signal.Signal) {
		Terminate(table, t, sig)
	}
}
