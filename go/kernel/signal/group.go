package signal

import (
	"sync/atomic"
)

type JobState int

const (
	JobRunning JobState = iota
	JobStopped
)

func (s JobState) String() string {
	if s == JobStopped {
		return "stopped"
	}
	return "running"
}

// StopCode packs a stop signal into a wait status.
func StopCode(sig Signal) int32 {
	return int32(sig)<<8 | 0x7f
}

// ThreadGroup is the unit of job control. Its lock is taken after the
// handler set lock when both are needed.
type ThreadGroup struct {
	Leader *Task
	pgid   int32

	mu       Lock
	state    JobState
	exitCode int32

	// Stopped is notified on every stop and continue.
	Stopped Cond
	// ChildExit is notified when a child group changes state.
	ChildExit Cond
}

func NewThreadGroup(pgid int32) *ThreadGroup {
	return &ThreadGroup{pgid: pgid}
}

func (g *ThreadGroup) Pgid() int32 {
	return atomic.LoadInt32(&g.pgid)
}

// SetPgid moves the group. Callers keep the pid table consistent.
func (g *ThreadGroup) SetPgid(pgid int32) {
	atomic.StoreInt32(&g.pgid, pgid)
}

func (g *ThreadGroup) State() JobState {
	g.mu.Lock(nil)
	defer g.mu.Unlock()
	return g.state
}

func (g *ThreadGroup) ExitCode() int32 {
	g.mu.Lock(nil)
	defer g.mu.Unlock()
	return g.exitCode
}

func (g *ThreadGroup) stop(t *Task, sig Signal) {
	g.mu.Lock(t)
	g.state = JobStopped
	g.exitCode = StopCode(sig)
	g.Stopped.Notify()
	g.mu.Unlock()
}

func (g *ThreadGroup) resume(t *Task) {
	g.mu.Lock(t)
	g.state = JobRunning
	g.Stopped.Notify()
	g.mu.Unlock()
}
