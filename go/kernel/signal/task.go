package signal

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// Task is one emulated thread.
type Task struct {
	Pid  int32
	Tgid int32
	Uid  uint32

	// ExitSignal is sent to the parent when this task's group stops.
	ExitSignal Signal

	Parent  *Task
	Group   *ThreadGroup
	Sighand *Sighand

	Cpu  cpu.Cpu
	Arch *models.Arch
	// TrapNo is the last trap taken, reported in signal frames.
	TrapNo uint32

	sys *System

	// written under Sighand.mu, read anywhere
	pending atomic.Uint64
	blocked atomic.Uint64
	// at most one entry per signal, in arrival order
	queue []SigInfo

	zombie atomic.Bool
	pause  Cond

	// guards the waiting slot and thread
	waitingMu   sync.Mutex
	waitingCond *Cond
	waitingLock *Lock
	thread      Interrupter
}

// SetThread installs the interrupter that kicks t out of whatever it is
// running and returns the previous one. nil removes it.
func (t *Task) SetThread(i Interrupter) Interrupter {
	t.waitingMu.Lock()
	defer t.waitingMu.Unlock()
	old := t.thread
	t.thread = i
	return old
}

func (t *Task) interrupter() Interrupter {
	t.waitingMu.Lock()
	defer t.waitingMu.Unlock()
	return t.thread
}

func (t *Task) System() *System {
	return t.sys
}

func (t *Task) Pending() SigSet {
	return SigSet(t.pending.Load())
}

func (t *Task) Blocked() SigSet {
	return SigSet(t.blocked.Load())
}

// Deliverable is the set of pending signals that are not blocked.
func (t *Task) Deliverable() SigSet {
	pending := t.Pending()
	return pending &^ (t.Blocked() &^ UnblockableMask)
}

func (t *Task) Zombie() bool {
	return t.zombie.Load()
}

// Queued returns a copy of the pending payloads in arrival order.
func (t *Task) Queued() []SigInfo {
	t.Sighand.mu.Lock(t)
	defer t.Sighand.mu.Unlock()
	return append([]SigInfo(nil), t.queue...)
}

func (t *Task) log() *logrus.Entry {
	return t.sys.Log.WithField("pid", t.Pid)
}

// event logs a signal event at Debug, or Info when signal tracing is on.
func (t *Task) event(entry *logrus.Entry, msg string) {
	if t.sys.Config.TraceSignals {
		entry.Info(msg)
	} else {
		entry.Debug(msg)
	}
}

type CloneFlags uint32

const (
	CLONE_SIGHAND CloneFlags = 0x00000800
	CLONE_THREAD  CloneFlags = 0x00010000
)

// Clone creates a child of t. CLONE_SIGHAND shares the handler set instead
// of copying it and CLONE_THREAD joins t's thread group. The child inherits
// the blocked mask but nothing pending.
func (t *Task) Clone(pid int32, flags CloneFlags, c cpu.Cpu) *Task {
	child := &Task{
		Pid:        pid,
		Uid:        t.Uid,
		ExitSignal: SIGCHLD,
		Cpu:        c,
		Arch:       t.Arch,
		sys:        t.sys,
	}
	if flags&CLONE_SIGHAND != 0 {
		child.Sighand = t.Sighand.Retain()
	} else {
		child.Sighand = t.Sighand.Copy()
	}
	if flags&CLONE_THREAD != 0 {
		child.Tgid = t.Tgid
		child.Group = t.Group
		child.Parent = t.Parent
	} else {
		child.Tgid = pid
		child.Group = NewThreadGroup(t.Group.Pgid())
		child.Group.Leader = child
		child.Parent = t
	}
	child.blocked.Store(t.blocked.Load())
	return child
}

// Reap marks the task dead. Signals sent to it afterwards are dropped.
func (t *Task) Reap() {
	if t.zombie.Swap(true) {
		return
	}
	t.Sighand.Release()
}
