package native

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// InterruptSignal is sent to the host thread. The Go runtime already
// expects it for preemption, so it is safe to deliver at any time.
const InterruptSignal = unix.SIGURG

// CurrentThread pins the calling goroutine to its host thread and returns an
// interrupter for it. Call release when the task stops running here.
func CurrentThread() (t *ThreadInterrupter, release func()) {
	runtime.LockOSThread()
	return &ThreadInterrupter{Pid: unix.Getpid(), Tid: unix.Gettid()}, runtime.UnlockOSThread
}

func (t *ThreadInterrupter) Interrupt() error {
	if err := unix.Tgkill(t.Pid, t.Tid, InterruptSignal); err != nil {
		return errors.Wrapf(err, "tgkill %s", t)
	}
	return nil
}
