// Package native reaches the host threads that run emulated tasks.
package native

import (
	"fmt"
)

// ThreadInterrupter knocks one host thread out of a blocking syscall.
// It implements signal.Interrupter.
type ThreadInterrupter struct {
	Pid, Tid int
}

func (t *ThreadInterrupter) String() string {
	return fmt.Sprintf("thread %d/%d", t.Pid, t.Tid)
}
