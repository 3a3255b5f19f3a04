package native

import (
	"os"
	"testing"
)

func TestInterruptDeadThread(t *testing.T) {
	thread := &ThreadInterrupter{Pid: os.Getpid(), Tid: 0x7ffffff0}
	if thread.Interrupt() == nil {
		t.Fatal("interrupting a missing thread succeeded")
	}
}
