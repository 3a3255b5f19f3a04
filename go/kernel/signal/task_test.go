package signal

import (
	"testing"
)

func TestCloneSharing(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	h.handle(a, SIGUSR1, Action{Handler: 0x8000})
	a.Sigaltstack(&StackT{Sp: 0x30000, Size: 0x1000})
	set := SIGUSR2.Mask()
	a.Sigprocmask(SIG_BLOCK, &set)
	a.Deliver(a, SIGHUP, SigInfo{})

	thread := h.thread(a, 2)
	if thread.Sighand != a.Sighand || a.Sighand.Refs() != 2 {
		t.Fatal("thread does not share handlers")
	}
	if thread.Group != a.Group || thread.Tgid != 1 {
		t.Fatal("thread not in the group")
	}

	child := h.fork(a, 3)
	if child.Sighand == a.Sighand {
		t.Fatal("child shares handlers")
	}
	if child.Sighand.Action(SIGUSR1).Handler != 0x8000 {
		t.Fatal("actions not copied")
	}
	if child.Sighand.Altstack().Flags != SS_DISABLE {
		t.Fatal("altstack not reset on copy")
	}
	if child.Group == a.Group || child.Group.Leader != child || child.Group.Pgid() != 1 || child.Parent != a {
		t.Fatal("child group wrong")
	}
	if child.Blocked() != set || child.Pending() != 0 {
		t.Fatal("child should inherit blocked but not pending")
	}
	if thread.Pending() != 0 {
		t.Fatal("pending is per thread")
	}
}

func TestReapReleases(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	thread := h.thread(a, 2)
	thread.Reap()
	thread.Reap()
	if a.Sighand.Refs() != 1 || !thread.Zombie() {
		t.Fatal("reap did not release once")
	}
	if !a.Sighand.Release() {
		t.Fatal("last release not reported")
	}
}

func TestLockOwner(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	var l Lock
	l.Lock(a)
	if l.Owner() != a || l.TryLock(b) {
		t.Fatal("owner tracking")
	}
	l.Unlock()
	if l.Owner() != nil || !l.TryLock(b) || l.Owner() != b {
		t.Fatal("TryLock after unlock")
	}
	l.Unlock()
}

func TestCondNotifyBeforeWait(t *testing.T) {
	var c Cond
	ch := c.subscribe()
	c.Notify()
	select {
	case <-ch:
	default:
		t.Fatal("subscriber missed notify")
	}
	// a new subscription waits for the next notify
	ch = c.subscribe()
	select {
	case <-ch:
		t.Fatal("stale notify")
	default:
	}
}
