package signal

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// PidTable is the process registry. Lookups that lead to a signal being sent
// happen between Lock and Unlock so the target cannot vanish in between.
type PidTable interface {
	Lock()
	Unlock()
	Task(pid int32) *Task
	// ProcessGroup lists the thread group leaders in pgid, and false if
	// there is no such group.
	ProcessGroup(pgid int32) ([]*Task, bool)
}

// Resolver finds symbols in the guest's vdso.
type Resolver interface {
	Resolve(name string) (uint64, bool)
}

// System is the state shared by every task of one emulated machine.
type System struct {
	Config *models.Config
	Log    logrus.FieldLogger
	Pids   PidTable
	Vdso   Resolver

	// ExitGroup terminates t's process with sig as the cause. It should not
	// return; if it does, the receive pass reports a KilledError.
	ExitGroup func(t *Task, sig Signal)

	trampMu sync.Mutex
	tramps  map[string]uint64

	wakeInterval time.Duration
}

func NewSystem(config *models.Config, log logrus.FieldLogger, pids PidTable, vdso Resolver) *System {
	if config == nil {
		config = models.DefaultConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	interval, err := config.Backoff()
	if err != nil {
		log.WithError(err).Warn("bad wake backoff, retrying without delay")
	}
	return &System{
		Config:       config,
		Log:          log,
		Pids:         pids,
		Vdso:         vdso,
		tramps:       make(map[string]uint64),
		wakeInterval: interval,
	}
}

// NewTask creates the first task of a new process, leading its own thread
// group and process group.
func (s *System) NewTask(pid int32, c cpu.Cpu, arch *models.Arch) *Task {
	t := &Task{
		Pid:        pid,
		Tgid:       pid,
		ExitSignal: SIGCHLD,
		Sighand:    NewSighand(),
		Group:      NewThreadGroup(pid),
		Cpu:        c,
		Arch:       arch,
		sys:        s,
	}
	t.Group.Leader = t
	return t
}

// trampoline resolves a sigreturn trampoline once and caches it. A vdso
// without one is unusable, so a miss panics.
func (s *System) trampoline(name string) uint64 {
	s.trampMu.Lock()
	defer s.trampMu.Unlock()
	if addr, ok := s.tramps[name]; ok {
		return addr
	}
	var addr uint64
	var ok bool
	if s.Vdso != nil {
		addr, ok = s.Vdso.Resolve(name)
	}
	if !ok || addr == 0 {
		panic(errors.Errorf("%s not found in vdso", name))
	}
	s.tramps[name] = addr
	return addr
}

func (s *System) exitGroup(t *Task, sig Signal) {
	if s.ExitGroup != nil {
		s.ExitGroup(t, sig)
	}
}
