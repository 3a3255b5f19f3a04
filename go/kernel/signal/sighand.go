package signal

import (
	"sync/atomic"
)

// Sighand is the handler set shared by tasks cloned with CLONE_SIGHAND.
// Its lock also guards the pending and blocked state of every task using it.
type Sighand struct {
	mu Lock

	actions      [NSIG + 1]Action
	altstack     uint32
	altstackSize uint32
	onAltstack   bool

	refs int32
}

func NewSighand() *Sighand {
	return &Sighand{refs: 1}
}

// Copy returns an unshared handler set with the same actions and no
// alternate stack.
func (sh *Sighand) Copy() *Sighand {
	n := NewSighand()
	sh.mu.Lock(nil)
	n.actions = sh.actions
	sh.mu.Unlock()
	return n
}

func (sh *Sighand) Retain() *Sighand {
	atomic.AddInt32(&sh.refs, 1)
	return sh
}

// Release drops a reference and reports whether it was the last.
func (sh *Sighand) Release() bool {
	return atomic.AddInt32(&sh.refs, -1) == 0
}

func (sh *Sighand) Refs() int {
	return int(atomic.LoadInt32(&sh.refs))
}

// Action returns the installed action for sig.
func (sh *Sighand) Action(sig Signal) Action {
	if !sig.Valid() {
		return Action{}
	}
	sh.mu.Lock(nil)
	defer sh.mu.Unlock()
	return sh.actions[sig]
}

// Altstack describes the alternate stack the way sigaltstack reports it.
func (sh *Sighand) Altstack() StackT {
	sh.mu.Lock(nil)
	defer sh.mu.Unlock()
	return sh.altstackLocked()
}

func (sh *Sighand) altstackLocked() StackT {
	ss := StackT{Sp: sh.altstack, Size: sh.altstackSize}
	if sh.altstack == 0 {
		ss.Flags |= SS_DISABLE
	}
	if sh.onAltstack {
		ss.Flags |= SS_ONSTACK
	}
	return ss
}
