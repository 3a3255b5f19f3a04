package signal

import (
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
)

var errWaitBusy = errors.New("wait lock held by another task")

// owner is the identity a sender locks with. Senders outside any task get
// a private token so they never look like the owner of someone else's lock.
func owner(current *Task) *Task {
	if current != nil {
		return current
	}
	return &Task{}
}

// Deliver queues sig on t and wakes it if needed, ignoring disposition.
func (t *Task) Deliver(current *Task, sig Signal, info SigInfo) error {
	current = owner(current)
	t.Sighand.mu.Lock(current)
	defer t.Sighand.mu.Unlock()
	return t.deliverLocked(current, sig, info)
}

// deliverLocked is Deliver with t's handler set lock held by current.
func (t *Task) deliverLocked(current *Task, sig Signal, info SigInfo) error {
	if t.Pending().Has(sig) {
		return nil
	}
	if limit := t.sys.Config.MaxQueued; limit > 0 && len(t.queue) >= limit {
		return errors.Wrapf(common.EAGAIN, "queueing %s", sig)
	}
	info.Signo = int32(sig)
	t.queue = append(t.queue, info)
	t.pending.Store(uint64(t.Pending() | sig.Mask()))
	t.event(t.log().WithFields(logrus.Fields{"sig": sig, "from": current.Pid}), "signal queued")

	if t.Blocked().Has(sig) && sig.Blockable() {
		return nil
	}
	if t != current {
		t.wake(current)
	}
	return nil
}

// wake makes t notice its pending signals. If t is parked in WaitFor, the
// condition it sleeps on is notified under its lock, then its thread is
// interrupted in case it is blocked somewhere WaitFor does not cover.
func (t *Task) wake(current *Task) {
	notify := func() error {
		t.waitingMu.Lock()
		defer t.waitingMu.Unlock()
		if t.waitingCond == nil {
			return nil
		}
		mine := false
		if !t.waitingLock.TryLock(current) {
			if t.waitingLock.Owner() != current {
				return errWaitBusy
			}
			mine = true
		}
		t.waitingCond.Notify()
		if !mine {
			t.waitingLock.Unlock()
		}
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(t.sys.wakeInterval), uint64(t.sys.Config.WakeRetries))
	if err := backoff.Retry(notify, policy); err != nil {
		// a waiter subscribes before publishing itself, so this cannot be missed
		t.waitingMu.Lock()
		if t.waitingCond != nil {
			t.waitingCond.Notify()
		}
		t.waitingMu.Unlock()
		t.log().WithField("retries", t.sys.Config.WakeRetries).Warn("wake lock stayed busy, notified without it")
	}
	if thread := t.interrupter(); thread != nil {
		if err := thread.Interrupt(); err != nil {
			t.log().WithError(err).Warn("interrupting thread")
		}
	}
}

// Send delivers sig to target unless target ignores it. SIGCONT and SIGKILL
// resume a stopped group whatever their disposition.
func Send(current, target *Task, sig Signal, info SigInfo) error {
	if sig == 0 || target.Zombie() {
		return nil
	}
	if !sig.Valid() {
		return errors.Wrapf(common.EINVAL, "sending %s", sig)
	}
	current = owner(current)
	sh := target.Sighand
	sh.mu.Lock(current)
	var err error
	if Resolve(sig, sh) != Ignore {
		err = target.deliverLocked(current, sig, info)
	}
	sh.mu.Unlock()

	if sig == SIGCONT || sig == SIGKILL {
		target.Group.resume(current)
	}
	return err
}

// TrySelfSignal queues SIGTTIN or SIGTTOU on current and reports whether it
// was queued. Callers that get false carry on as if the terminal allowed it.
func TrySelfSignal(current *Task, sig Signal) bool {
	if sig != SIGTTIN && sig != SIGTTOU {
		panic(errors.Errorf("TrySelfSignal(%s)", sig))
	}
	sh := current.Sighand
	sh.mu.Lock(current)
	defer sh.mu.Unlock()
	if Resolve(sig, sh) == Ignore || current.Blocked().Has(sig) {
		return false
	}
	return current.deliverLocked(current, sig, SigInfo{Code: SI_KERNEL}) == nil
}

// SendGroup sends sig to the leader of every thread group in pgid.
func SendGroup(current *Task, pids PidTable, pgid int32, sig Signal, info SigInfo) error {
	pids.Lock()
	defer pids.Unlock()
	leaders, ok := pids.ProcessGroup(pgid)
	if !ok {
		return errors.Wrapf(common.ESRCH, "process group %d", pgid)
	}
	var first error
	for _, leader := range leaders {
		if err := Send(current, leader, sig, info); err != nil && first == nil {
			first = err
		}
	}
	return first
}
