package signal

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/models"
)

func TestDeliverDedup(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	for sig := Signal(1); sig <= NSIG; sig++ {
		for i := 0; i < 2; i++ {
			if err := b.Deliver(a, sig, SigInfo{Pid: int32(i)}); err != nil {
				t.Fatal(err)
			}
		}
		if !b.Pending().Has(sig) {
			t.Fatalf("%s not pending", sig)
		}
	}
	queue := b.Queued()
	if len(queue) != NSIG {
		t.Fatalf("queue has %d entries, want %d", len(queue), NSIG)
	}
	for i, info := range queue {
		if info.Signal() != Signal(i+1) || info.Pid != 0 {
			t.Fatalf("queue[%d] = %+v", i, info)
		}
	}
}

func TestDeliverQueueLimit(t *testing.T) {
	h := newHarness(t)
	h.sys.Config.MaxQueued = 2
	a, b := h.spawn(1), h.spawn(2)
	b.Deliver(a, SIGUSR1, SigInfo{})
	b.Deliver(a, SIGUSR2, SigInfo{})
	err := b.Deliver(a, SIGHUP, SigInfo{})
	if common.ErrnoOf(err) != common.EAGAIN {
		t.Fatalf("got %v, want EAGAIN", err)
	}
	if b.Pending().Has(SIGHUP) {
		t.Fatal("overflowed signal marked pending")
	}
}

func TestSendProbeAndZombie(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	if err := Send(a, b, 0, SigInfo{}); err != nil || b.Pending() != 0 {
		t.Fatal("signal 0 should only probe")
	}
	b.Reap()
	if err := Send(a, b, SIGTERM, SigInfo{}); err != nil || b.Pending() != 0 {
		t.Fatal("reaped task should drop signals")
	}
}

func TestSendIgnored(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	h.handle(b, SIGTERM, Action{Handler: SIG_IGN})
	Send(a, b, SIGTERM, SigInfo{})
	Send(a, b, SIGCHLD, SigInfo{})
	if b.Pending() != 0 {
		t.Fatalf("ignored signals queued: %s", b.Pending())
	}
	Send(a, b, SIGUSR1, SigInfo{})
	if b.Pending() != SIGUSR1.Mask() {
		t.Fatalf("pending = %s", b.Pending())
	}
}

func TestWakeInterruptsUnblockedOnly(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	count := &countInterrupts{}
	b.SetThread(count)
	set := SIGUSR1.Mask()
	b.Sigprocmask(SIG_BLOCK, &set)

	Send(a, b, SIGUSR1, SigInfo{})
	if count.Count() != 0 {
		t.Fatal("blocked signal interrupted the target")
	}
	Send(a, b, SIGUSR2, SigInfo{})
	if count.Count() != 1 {
		t.Fatal("unblocked signal did not interrupt the target")
	}
	// blocked SIGKILL still counts as unblocked
	b.blocked.Store(uint64(SIGKILL.Mask()))
	Send(a, b, SIGKILL, SigInfo{})
	if count.Count() != 2 {
		t.Fatal("SIGKILL did not interrupt the target")
	}
	// signals to yourself never interrupt
	Send(b, b, SIGHUP, SigInfo{})
	if count.Count() != 2 {
		t.Fatal("self signal interrupted")
	}
}

func TestSetThreadWhileSending(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	count := &countInterrupts{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.SetThread(count)
			b.SetThread(nil)
		}
	}()
	for i := 0; i < 100; i++ {
		Send(a, b, SIGRTMIN+Signal(i%8), SigInfo{})
	}
	<-done

	if old := b.SetThread(count); old != nil {
		t.Fatalf("SetThread returned %v, want nil", old)
	}
	before := count.Count()
	Send(a, b, SIGUSR1, SigInfo{})
	if count.Count() != before+1 {
		t.Fatal("installed thread was not interrupted")
	}
	if old := b.SetThread(nil); old != count {
		t.Fatal("SetThread did not return the installed thread")
	}
	Send(a, b, SIGUSR2, SigInfo{})
	if count.Count() != before+1 {
		t.Fatal("removed thread was interrupted")
	}
}

func TestWakeWaiter(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	var lock Lock
	var cond Cond
	done := make(chan error)
	go func() {
		lock.Lock(b)
		err := b.WaitFor(&cond, &lock)
		lock.Unlock()
		done <- err
	}()
	waitUntil(t, "waiter to park", b.Waiting)
	Send(a, b, SIGUSR1, SigInfo{})
	if err := <-done; errors.Cause(err) != common.EINTR {
		t.Fatalf("WaitFor returned %v", err)
	}
	if b.Waiting() {
		t.Fatal("waiting slot not cleared")
	}
}

func TestWakeWaiterOnSenderLock(t *testing.T) {
	// the waiter sleeps on a lock the sender already holds
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	var lock Lock
	var cond Cond
	done := make(chan error)
	go func() {
		lock.Lock(b)
		err := b.WaitFor(&cond, &lock)
		lock.Unlock()
		done <- err
	}()
	waitUntil(t, "waiter to park", b.Waiting)
	lock.Lock(a)
	Send(a, b, SIGUSR1, SigInfo{})
	lock.Unlock()
	if err := <-done; errors.Cause(err) != common.EINTR {
		t.Fatalf("WaitFor returned %v", err)
	}
}

func TestWakeRetriesExhausted(t *testing.T) {
	h := newHarness(t)
	h.sys.Config.WakeRetries = 3
	a, b, c := h.spawn(1), h.spawn(2), h.spawn(3)
	var lock Lock
	var cond Cond
	done := make(chan error)
	go func() {
		lock.Lock(b)
		err := b.WaitFor(&cond, &lock)
		lock.Unlock()
		done <- err
	}()
	waitUntil(t, "waiter to park", b.Waiting)
	// a third task holds the lock for the whole send
	lock.Lock(c)
	Send(a, b, SIGUSR1, SigInfo{})
	lock.Unlock()
	if err := <-done; errors.Cause(err) != common.EINTR {
		t.Fatalf("WaitFor returned %v", err)
	}
}

func TestBadWakeBackoffLogged(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	config := models.DefaultConfig()
	config.WakeBackoff = "soon"
	sys := NewSystem(config, log, &fakePids{tasks: make(map[int32]*Task)}, testVdso)
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("bad wake backoff not reported: %v", hook.AllEntries())
	}
	if sys.wakeInterval != 0 {
		t.Fatalf("wake interval = %s", sys.wakeInterval)
	}

	config.WakeBackoff = "2ms"
	hook.Reset()
	sys = NewSystem(config, log, &fakePids{tasks: make(map[int32]*Task)}, testVdso)
	if len(hook.AllEntries()) != 0 || sys.wakeInterval != 2*time.Millisecond {
		t.Fatalf("wake interval = %s, log %v", sys.wakeInterval, hook.AllEntries())
	}
}

func TestWaitForPendingReturnsImmediately(t *testing.T) {
	h := newHarness(t)
	a, b := h.spawn(1), h.spawn(2)
	Send(a, b, SIGUSR1, SigInfo{})
	var lock Lock
	var cond Cond
	lock.Lock(b)
	err := b.WaitFor(&cond, &lock)
	lock.Unlock()
	if errors.Cause(err) != common.EINTR {
		t.Fatalf("WaitFor returned %v", err)
	}
}

func TestTrySelfSignal(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	if !TrySelfSignal(a, SIGTTOU) || !a.Pending().Has(SIGTTOU) {
		t.Fatal("SIGTTOU not queued")
	}
	set := SIGTTIN.Mask()
	a.Sigprocmask(SIG_BLOCK, &set)
	if TrySelfSignal(a, SIGTTIN) {
		t.Fatal("blocked SIGTTIN queued")
	}
	b := h.spawn(2)
	h.handle(b, SIGTTIN, Action{Handler: SIG_IGN})
	if TrySelfSignal(b, SIGTTIN) || b.Pending() != 0 {
		t.Fatal("ignored SIGTTIN queued")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("TrySelfSignal(SIGINT) should panic")
		}
	}()
	TrySelfSignal(a, SIGINT)
}

func TestSendGroupMissing(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	err := SendGroup(a, h.pids, 99, SIGTERM, SigInfo{})
	if common.ErrnoOf(err) != common.ESRCH {
		t.Fatalf("got %v, want ESRCH", err)
	}
}
