//go:build !linux

package native

import (
	"os"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
)

const InterruptSignal = syscall.SIGURG

// CurrentThread pins the calling goroutine. Without per-thread signals the
// whole process is interrupted instead.
func CurrentThread() (t *ThreadInterrupter, release func()) {
	runtime.LockOSThread()
	return &ThreadInterrupter{Pid: os.Getpid()}, runtime.UnlockOSThread
}

func (t *ThreadInterrupter) Interrupt() error {
	if err := syscall.Kill(t.Pid, InterruptSignal); err != nil {
		return errors.Wrapf(err, "kill %s", t)
	}
	return nil
}
