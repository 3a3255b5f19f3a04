package signal

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
)

// Sigaction installs act for sig if it is non-nil and returns the action
// it replaced.
func (t *Task) Sigaction(sig Signal, act *Action) (Action, error) {
	if !sig.Valid() || (act != nil && !sig.Blockable()) {
		return Action{}, errors.Wrapf(common.EINVAL, "sigaction(%s)", sig)
	}
	sh := t.Sighand
	sh.mu.Lock(t)
	defer sh.mu.Unlock()
	old := sh.actions[sig]
	if act != nil {
		sh.actions[sig] = *act
	}
	return old, nil
}

// setMaskLocked applies a sigprocmask operation. The caller holds the
// handler set lock.
func (t *Task) setMaskLocked(how int, set SigSet) (SigSet, error) {
	old := t.Blocked()
	var blocked SigSet
	switch how {
	case SIG_BLOCK:
		blocked = old | set
	case SIG_UNBLOCK:
		blocked = old &^ set
	case SIG_SETMASK:
		blocked = set
	default:
		return old, errors.Wrapf(common.EINVAL, "sigprocmask how=%d", how)
	}
	t.blocked.Store(uint64(blocked &^ UnblockableMask))
	return old, nil
}

// Sigprocmask changes the blocked mask when set is non-nil and returns the
// previous one.
func (t *Task) Sigprocmask(how int, set *SigSet) (SigSet, error) {
	if set == nil {
		return t.Blocked(), nil
	}
	sh := t.Sighand
	sh.mu.Lock(t)
	defer sh.mu.Unlock()
	return t.setMaskLocked(how, *set)
}

func (t *Task) Sigpending() SigSet {
	return t.Pending()
}

// Sigaltstack installs ss if it is non-nil and returns the previous stack.
// The stack cannot change while a handler runs on it.
func (t *Task) Sigaltstack(ss *StackT) (StackT, error) {
	var old StackT
	err := t.SwapAltstack(ss, func(prev StackT) error {
		old = prev
		return nil
	})
	return old, err
}

// SwapAltstack is Sigaltstack with the previous stack handed to saveOld
// under the handler set lock, before ss is applied. If saveOld fails the
// stack is left alone.
func (t *Task) SwapAltstack(ss *StackT, saveOld func(StackT) error) error {
	sh := t.Sighand
	sh.mu.Lock(t)
	defer sh.mu.Unlock()
	if saveOld != nil {
		if err := saveOld(sh.altstackLocked()); err != nil {
			return err
		}
	}
	if ss == nil {
		return nil
	}
	if sh.onAltstack {
		return errors.Wrap(common.EPERM, "sigaltstack while on it")
	}
	if ss.Flags&SS_DISABLE != 0 {
		sh.altstack, sh.altstackSize = 0, 0
	} else {
		sh.altstack, sh.altstackSize = ss.Sp, ss.Size
	}
	return nil
}

// Sigsuspend swaps in mask and sleeps until a signal is pending.
// It always returns EINTR; the signal is acted on by the next receive pass.
func (t *Task) Sigsuspend(mask SigSet) error {
	sh := t.Sighand
	sh.mu.Lock(t)
	old, _ := t.setMaskLocked(SIG_SETMASK, mask)
	t.suspendLocked()
	t.setMaskLocked(SIG_SETMASK, old)
	sh.mu.Unlock()
	return common.EINTR
}

// Pause sleeps until a signal is pending and returns EINTR. A blocked
// signal does not wake it, but one already pending ends it at once.
func (t *Task) Pause() error {
	sh := t.Sighand
	sh.mu.Lock(t)
	t.suspendLocked()
	sh.mu.Unlock()
	return common.EINTR
}

func (t *Task) suspendLocked() {
	t.event(t.log().WithField("blocked", t.Blocked()), "suspended")
	for t.Pending() == 0 {
		t.WaitForIgnoreSignals(&t.pause, &t.Sighand.mu)
	}
}

// WaitWhileStopped parks the task while its group is stopped.
func (t *Task) WaitWhileStopped() {
	g := t.Group
	g.mu.Lock(t)
	for g.state == JobStopped {
		t.WaitForIgnoreSignals(&g.Stopped, &g.mu)
	}
	g.mu.Unlock()
}
