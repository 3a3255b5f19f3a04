package signal

import (
	"testing"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
)

func TestKillOwnProcessGroup(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	a.Group.SetPgid(7)
	b := h.fork(a, 2)
	thread := h.thread(b, 3)
	c := h.spawn(4)
	c.Group.SetPgid(8)

	if err := Kill(a, 0, SIGUSR1); err != nil {
		t.Fatal(err)
	}
	if !a.Pending().Has(SIGUSR1) || !b.Pending().Has(SIGUSR1) {
		t.Fatal("group leaders not signaled")
	}
	if thread.Pending() != 0 {
		t.Fatal("non-leader thread signaled")
	}
	if c.Pending() != 0 {
		t.Fatal("leader outside the group signaled")
	}
	if err := Kill(c, -7, SIGUSR2); err != nil {
		t.Fatal(err)
	}
	if !b.Pending().Has(SIGUSR2) || c.Pending() != 0 {
		t.Fatal("kill(-pgid) misrouted")
	}
}

func TestKillTargets(t *testing.T) {
	h := newHarness(t)
	a := h.spawn(1)
	a.Uid = 42
	b := h.spawn(2)
	thread := h.thread(b, 3)

	tests := []struct {
		name string
		call func() error
		want common.Errno
	}{
		{"kill missing", func() error { return Kill(a, 99, SIGTERM) }, common.ESRCH},
		{"kill missing group", func() error { return Kill(a, -99, SIGTERM) }, common.ESRCH},
		{"kill bad signal", func() error { return Kill(a, 2, NSIG+1) }, common.EINVAL},
		{"kill probe", func() error { return Kill(a, 2, 0) }, 0},
		{"tgkill wrong group", func() error { return Tgkill(a, 1, 3, SIGTERM) }, common.ESRCH},
		{"tgkill zero tid", func() error { return Tgkill(a, 2, 0, SIGTERM) }, common.EINVAL},
		{"tgkill negative tgid", func() error { return Tgkill(a, -2, 3, SIGTERM) }, common.EINVAL},
		{"tkill negative", func() error { return Tkill(a, -3, SIGTERM) }, common.EINVAL},
	}
	for _, test := range tests {
		err := test.call()
		if test.want == 0 && err != nil {
			t.Errorf("%s: %v", test.name, err)
		} else if test.want != 0 && common.ErrnoOf(err) != test.want {
			t.Errorf("%s: got %v, want %v", test.name, err, test.want)
		}
	}
	if b.Pending() != 0 || thread.Pending() != 0 {
		t.Fatal("failed calls queued signals")
	}

	if err := Tgkill(a, 2, 3, SIGUSR1); err != nil {
		t.Fatal(err)
	}
	queued := thread.Queued()
	if len(queued) != 1 || queued[0].Pid != 1 || queued[0].Uid != 42 || queued[0].Code != SI_TKILL {
		t.Fatalf("tgkill payload %+v", queued)
	}
	if b.Pending() != 0 {
		t.Fatal("tgkill hit the leader")
	}
	if err := Tkill(a, 3, SIGUSR2); err != nil || !thread.Pending().Has(SIGUSR2) {
		t.Fatal("tkill")
	}
}
