package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/kernel/common"
	"github.com/lunixbochs/sigcorn/go/kernel/signal"
	"github.com/lunixbochs/sigcorn/go/models"
)

type scenario struct {
	desc string
	run  func(m *machine, out io.Writer) error
}

var scenarios = map[string]scenario{
	"terminate": {"SIGTERM with the default action ends the target process", scenarioTerminate},
	"pause":     {"pause() returns EINTR and the handler runs on the next receive pass", scenarioPause},
	"altstack":  {"sigaltstack is refused while a handler runs on the alternate stack", scenarioAltstack},
	"killpg":    {"kill(0) reaches every leader in the caller's process group", scenarioKillpg},
	"continue":  {"SIGCONT resumes a stopped group even when ignored", scenarioContinue},
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type scenarioCmd struct {
	all bool
}

func (*scenarioCmd) Name() string     { return "scenario" }
func (*scenarioCmd) Synopsis() string { return "run a signal scenario in-process" }
func (*scenarioCmd) Usage() string {
	var lines []string
	for _, name := range scenarioNames() {
		lines = append(lines, fmt.Sprintf("  %-10s %s", name, scenarios[name].desc))
	}
	return "scenario [-all] <name>...\n\nScenarios:\n" + strings.Join(lines, "\n") + "\n"
}

func (c *scenarioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "run every scenario")
}

func (c *scenarioCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	config := configFrom(args)
	names := f.Args()
	if c.all {
		names = scenarioNames()
	}
	if len(names) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	status := subcommands.ExitSuccess
	for _, name := range names {
		if err := runScenario(name, config, os.Stdout); err != nil {
			fmt.Fprintf(os.Stdout, "%s: FAIL: %s\n", name, err)
			status = subcommands.ExitFailure
		} else {
			fmt.Fprintf(os.Stdout, "%s: ok\n", name)
		}
	}
	return status
}

func runScenario(name string, config *models.Config, out io.Writer) error {
	s, ok := scenarios[name]
	if !ok {
		return errors.Errorf("no scenario %q", name)
	}
	m, err := newMachine(config)
	if err != nil {
		return err
	}
	return s.run(m, out)
}

// waitFor polls until cond holds, for scenarios racing another goroutine.
func waitFor(what string, cond func() bool) error {
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return errors.Errorf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

func scenarioTerminate(m *machine, out io.Writer) error {
	a, err := m.spawn(1)
	if err != nil {
		return err
	}
	b, err := m.spawn(2)
	if err != nil {
		return err
	}
	if err := signal.Kill(a.Task, 2, signal.SIGTERM); err != nil {
		return err
	}
	fmt.Fprintf(out, "  pid 2 pending %s\n", b.Task.Pending())
	err = b.Checkpoint()
	killed, ok := err.(*signal.KilledError)
	if !ok || killed.Sig != signal.SIGTERM {
		return errors.Errorf("checkpoint returned %v", err)
	}
	if m.reg(b, "eip") != entryPC {
		return errors.New("guest state changed before termination")
	}
	fmt.Fprintf(out, "  pid 2 %s, registered tasks %d\n", killed, m.table.Len())
	return nil
}

func scenarioPause(m *machine, out io.Writer) error {
	a, err := m.spawn(1)
	if err != nil {
		return err
	}
	b, err := m.spawn(2)
	if err != nil {
		return err
	}
	const handler = 0x8000
	if _, err := b.Task.Sigaction(signal.SIGINT, &signal.Action{Handler: handler}); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- b.Task.Pause() }()
	if err := waitFor("pause to sleep", b.Task.Waiting); err != nil {
		return err
	}
	if err := signal.Kill(a.Task, 2, signal.SIGINT); err != nil {
		return err
	}
	var perr error
	select {
	case perr = <-done:
	case <-time.After(5 * time.Second):
		return errors.New("pause was not interrupted")
	}
	if common.ErrnoOf(perr) != common.EINTR {
		return errors.Errorf("pause returned %v", perr)
	}
	if m.reg(b, "eip") != entryPC {
		return errors.New("handler entered inside pause")
	}
	fmt.Fprintf(out, "  pause returned %s, pending %s\n", perr, b.Task.Pending())
	if _, err := b.Task.ReceiveSignals(); err != nil {
		return err
	}
	if m.reg(b, "eip") != handler {
		return errors.New("handler not entered on the receive pass")
	}
	fmt.Fprintf(out, "  handler entered at 0x%x\n", handler)
	return nil
}

func scenarioAltstack(m *machine, out io.Writer) error {
	k, err := m.spawn(1)
	if err != nil {
		return err
	}
	task := k.Task
	if _, err := task.Sigaltstack(&signal.StackT{Sp: altBase, Size: altSize}); err != nil {
		return err
	}
	if _, err := task.Sigaction(signal.SIGUSR1, &signal.Action{Handler: 0x8000, Flags: signal.SA_ONSTACK}); err != nil {
		return err
	}
	task.Deliver(task, signal.SIGUSR1, signal.SigInfo{})
	if _, err := task.ReceiveSignals(); err != nil {
		return err
	}
	sp := m.reg(k, "esp")
	fmt.Fprintf(out, "  handler esp 0x%x\n", sp)
	if sp < altBase || sp >= altBase+altSize {
		return errors.New("frame not on the alternate stack")
	}
	_, err = task.Sigaltstack(&signal.StackT{Sp: 0x40000, Size: altSize})
	if common.ErrnoOf(err) != common.EPERM {
		return errors.Errorf("second sigaltstack returned %v", err)
	}
	fmt.Fprintf(out, "  second sigaltstack: %s\n", common.ErrnoOf(err))
	return nil
}

func scenarioKillpg(m *machine, out io.Writer) error {
	a, err := m.spawn(1)
	if err != nil {
		return err
	}
	b, err := m.fork(a, 2)
	if err != nil {
		return err
	}
	c, err := m.spawn(3)
	if err != nil {
		return err
	}
	for _, k := range []int32{1, 2} {
		if err := m.table.Setpgid(m.table.Task(k), 7); err != nil {
			return err
		}
	}
	block := signal.SIGUSR1.Mask()
	for _, task := range []*signal.Task{a.Task, b.Task, c.Task} {
		task.Sigprocmask(signal.SIG_BLOCK, &block)
	}
	if err := signal.Kill(b.Task, 0, signal.SIGUSR1); err != nil {
		return err
	}
	for _, task := range []*signal.Task{a.Task, b.Task, c.Task} {
		fmt.Fprintf(out, "  pid %d pgid %d pending %s\n", task.Pid, task.Group.Pgid(), task.Pending())
	}
	if !a.Task.Pending().Has(signal.SIGUSR1) || !b.Task.Pending().Has(signal.SIGUSR1) {
		return errors.New("group member missed")
	}
	if c.Task.Pending() != 0 {
		return errors.New("process outside the group was signaled")
	}
	return nil
}

func scenarioContinue(m *machine, out io.Writer) error {
	a, err := m.spawn(1)
	if err != nil {
		return err
	}
	b, err := m.spawn(2)
	if err != nil {
		return err
	}
	if _, err := b.Task.Sigaction(signal.SIGCONT, &signal.Action{Handler: signal.SIG_IGN}); err != nil {
		return err
	}
	signal.Kill(a.Task, 2, signal.SIGSTOP)
	if _, err := b.Task.ReceiveSignals(); err != nil {
		return err
	}
	fmt.Fprintf(out, "  pid 2 %s, exit code 0x%x\n", b.Task.Group.State(), b.Task.Group.ExitCode())
	if b.Task.Group.State() != signal.JobStopped {
		return errors.New("SIGSTOP did not stop the group")
	}
	done := make(chan struct{})
	go func() {
		b.Task.WaitWhileStopped()
		close(done)
	}()
	if err := signal.Kill(a.Task, 2, signal.SIGCONT); err != nil {
		return err
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return errors.New("stopped task never resumed")
	}
	fmt.Fprintf(out, "  pid 2 %s after ignored SIGCONT\n", b.Task.Group.State())
	return nil
}
