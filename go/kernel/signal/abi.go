package signal

import (
	"fmt"
	"strings"
)

// Signal is a Linux signal number. 0 is the liveness probe, real signals
// are 1 through NSIG.
type Signal int32

const NSIG = 64

const (
	SIGHUP Signal = iota + 1
	SIGINT
	SIGQUIT
	SIGILL
	SIGTRAP
	SIGABRT
	SIGBUS
	SIGFPE
	SIGKILL
	SIGUSR1
	SIGSEGV
	SIGUSR2
	SIGPIPE
	SIGALRM
	SIGTERM
	SIGSTKFLT
	SIGCHLD
	SIGCONT
	SIGSTOP
	SIGTSTP
	SIGTTIN
	SIGTTOU
	SIGURG
	SIGXCPU
	SIGXFSZ
	SIGVTALRM
	SIGPROF
	SIGWINCH
	SIGIO
	SIGPWR
	SIGSYS
	SIGRTMIN
)

var signalNames = [...]string{
	"", "SIGHUP", "SIGINT", "SIGQUIT", "SIGILL", "SIGTRAP", "SIGABRT", "SIGBUS",
	"SIGFPE", "SIGKILL", "SIGUSR1", "SIGSEGV", "SIGUSR2", "SIGPIPE", "SIGALRM",
	"SIGTERM", "SIGSTKFLT", "SIGCHLD", "SIGCONT", "SIGSTOP", "SIGTSTP", "SIGTTIN",
	"SIGTTOU", "SIGURG", "SIGXCPU", "SIGXFSZ", "SIGVTALRM", "SIGPROF", "SIGWINCH",
	"SIGIO", "SIGPWR", "SIGSYS",
}

func (s Signal) String() string {
	switch {
	case s > 0 && int(s) < len(signalNames):
		return signalNames[s]
	case s >= SIGRTMIN && s <= NSIG:
		return fmt.Sprintf("SIGRTMIN+%d", s-SIGRTMIN)
	}
	return fmt.Sprintf("signal %d", int32(s))
}

func (s Signal) Valid() bool {
	return s > 0 && s <= NSIG
}

// Blockable is false for SIGKILL and SIGSTOP.
func (s Signal) Blockable() bool {
	return s != SIGKILL && s != SIGSTOP
}

func (s Signal) Mask() SigSet {
	return SigSet(1) << uint(s-1)
}

// SigSet is a guest sigset_t: signal s is bit s-1.
type SigSet uint64

const UnblockableMask = SigSet(1)<<(SIGKILL-1) | SigSet(1)<<(SIGSTOP-1)

func (m SigSet) Has(s Signal) bool {
	return s.Valid() && m&s.Mask() != 0
}

// First returns the lowest signal in m, or 0.
func (m SigSet) First() Signal {
	for s := Signal(1); s <= NSIG; s++ {
		if m.Has(s) {
			return s
		}
	}
	return 0
}

func (m SigSet) Signals() []Signal {
	var ret []Signal
	for s := Signal(1); s <= NSIG; s++ {
		if m.Has(s) {
			ret = append(ret, s)
		}
	}
	return ret
}

func (m SigSet) String() string {
	sigs := m.Signals()
	names := make([]string, len(sigs))
	for i, s := range sigs {
		names[i] = s.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// sigaction flags
const (
	SA_NOCLDSTOP = 0x00000001
	SA_NOCLDWAIT = 0x00000002
	SA_SIGINFO   = 0x00000004
	SA_RESTORER  = 0x04000000
	SA_ONSTACK   = 0x08000000
	SA_RESTART   = 0x10000000
	SA_NODEFER   = 0x40000000
	SA_RESETHAND = 0x80000000
)

// handler sentinels
const (
	SIG_DFL = 0
	SIG_IGN = 1
)

// sigprocmask how
const (
	SIG_BLOCK   = 0
	SIG_UNBLOCK = 1
	SIG_SETMASK = 2
)

// stack_t flags
const (
	SS_ONSTACK = 1
	SS_DISABLE = 2
)

// siginfo codes
const (
	SI_USER     = 0
	SI_KERNEL   = 0x80
	SI_TKILL    = -6
	CLD_EXITED  = 1
	CLD_KILLED  = 2
	CLD_STOPPED = 5
)

// Action is the i386 rt_sigaction struct.
type Action struct {
	Handler  uint32
	Flags    uint32
	Restorer uint32
	Mask     SigSet
}

// OldAction is the legacy sigaction struct with a 32-bit mask.
type OldAction struct {
	Handler  uint32
	Mask     uint32
	Flags    uint32
	Restorer uint32
}

func (o OldAction) Action() Action {
	return Action{Handler: o.Handler, Flags: o.Flags, Restorer: o.Restorer, Mask: SigSet(o.Mask)}
}

func (a Action) Old() OldAction {
	return OldAction{Handler: a.Handler, Mask: uint32(a.Mask), Flags: a.Flags, Restorer: a.Restorer}
}

type StackT struct {
	Sp    uint32
	Flags int32
	Size  uint32
}

// SigInfo is the guest siginfo_t. Only the kill/sigchld union members are
// modeled; the rest of the 128 bytes is padding.
type SigInfo struct {
	Signo  int32
	Errno  int32
	Code   int32
	Pid    int32
	Uid    uint32
	Status int32
	Pad    [104]byte
}

func (i SigInfo) Signal() Signal {
	return Signal(i.Signo)
}
