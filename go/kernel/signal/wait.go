package signal

import (
	"sync"
	"sync/atomic"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
)

// Lock is a mutex that remembers which task holds it, so the wake protocol
// can tell when a sender already owns the lock its target sleeps on.
type Lock struct {
	mu    sync.Mutex
	owner atomic.Pointer[Task]
}

func (l *Lock) Lock(owner *Task) {
	l.mu.Lock()
	l.owner.Store(owner)
}

func (l *Lock) TryLock(owner *Task) bool {
	if !l.mu.TryLock() {
		return false
	}
	l.owner.Store(owner)
	return true
}

func (l *Lock) Unlock() {
	l.owner.Store(nil)
	l.mu.Unlock()
}

func (l *Lock) Owner() *Task {
	return l.owner.Load()
}

// Cond is a broadcast condition paired with a Lock. Waiters subscribe while
// holding the lock, so a Notify issued after a waiter's last check under
// that lock always reaches it.
type Cond struct {
	mu sync.Mutex
	ch chan struct{}
}

func (c *Cond) subscribe() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch == nil {
		c.ch = make(chan struct{})
	}
	return c.ch
}

func (c *Cond) Notify() {
	c.mu.Lock()
	if c.ch != nil {
		close(c.ch)
		c.ch = nil
	}
	c.mu.Unlock()
}

// WaitFor sleeps on cond, releasing lock while asleep. The caller must hold
// lock. It returns EINTR without sleeping if a deliverable signal is already
// pending, and after waking if one arrived.
func (t *Task) WaitFor(cond *Cond, lock *Lock) error {
	if t.interrupted() {
		return common.EINTR
	}
	t.waitFor(cond, lock)
	if t.interrupted() {
		return common.EINTR
	}
	return nil
}

// WaitForIgnoreSignals sleeps on cond like WaitFor but does not report
// pending signals. Job control uses it, where only continue ends the wait.
func (t *Task) WaitForIgnoreSignals(cond *Cond, lock *Lock) {
	t.waitFor(cond, lock)
}

func (t *Task) waitFor(cond *Cond, lock *Lock) {
	ch := cond.subscribe()
	t.waitingMu.Lock()
	t.waitingCond, t.waitingLock = cond, lock
	t.waitingMu.Unlock()

	lock.Unlock()
	<-ch
	lock.Lock(t)

	t.waitingMu.Lock()
	t.waitingCond, t.waitingLock = nil, nil
	t.waitingMu.Unlock()
}

// Waiting reports whether the task is parked in WaitFor.
func (t *Task) Waiting() bool {
	t.waitingMu.Lock()
	defer t.waitingMu.Unlock()
	return t.waitingCond != nil
}

// interrupted is true when an unblocked signal is pending.
func (t *Task) interrupted() bool {
	return t.Deliverable() != 0
}
