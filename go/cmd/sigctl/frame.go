package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/kernel/signal"
	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

type frameCmd struct {
	sig      int
	rt       bool
	sp       uint64
	altstack bool
	handler  uint64
}

func (*frameCmd) Name() string     { return "frame" }
func (*frameCmd) Synopsis() string { return "build a handler frame and dump it" }
func (*frameCmd) Usage() string {
	return "frame [-sig N] [-rt] [-sp addr] [-altstack]\n"
}

func (c *frameCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.sig, "sig", int(signal.SIGUSR1), "signal to deliver")
	f.BoolVar(&c.rt, "rt", false, "install the handler with SA_SIGINFO")
	f.Uint64Var(&c.sp, "sp", stackTop, "stack pointer at delivery")
	f.BoolVar(&c.altstack, "altstack", false, "configure an alternate stack")
	f.Uint64Var(&c.handler, "handler", 0x8000, "handler address")
}

func (c *frameCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	m, err := newMachine(configFrom(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return subcommands.ExitFailure
	}
	if err := c.run(m, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *frameCmd) run(m *machine, out io.Writer) error {
	k, err := m.spawn(1)
	if err != nil {
		return err
	}
	task := k.Task
	sig := signal.Signal(c.sig)
	act := signal.Action{Handler: uint32(c.handler)}
	if c.rt {
		act.Flags |= signal.SA_SIGINFO
	}
	if _, err := task.Sigaction(sig, &act); err != nil {
		return err
	}
	if c.altstack {
		if _, err := task.Sigaltstack(&signal.StackT{Sp: altBase, Size: altSize}); err != nil {
			return err
		}
	}
	if err := k.Cpu.RegWrite(m.arch.SP, c.sp); err != nil {
		return err
	}
	if err := task.Deliver(task, sig, signal.SigInfo{Code: signal.SI_USER, Pid: task.Pid}); err != nil {
		return err
	}
	if _, err := task.ReceiveSignals(); err != nil {
		return err
	}
	if m.reg(k, "eip") != uint32(c.handler) {
		return errors.Errorf("%s did not enter the handler", sig)
	}

	var size int
	if c.rt {
		size, err = models.Sizeof(&signal.RtSigframe{})
	} else {
		size, err = models.Sizeof(&signal.Sigframe{})
	}
	if err != nil {
		return err
	}
	sp := uint64(m.reg(k, "esp"))
	mem, err := k.Cpu.MemRead(sp, uint64(size))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s frame for %s at 0x%x (%d bytes)\n", frameKind(c.rt), sig, sp, size)
	fmt.Fprintln(out, strings.Join(models.HexDump(sp, mem, int(m.arch.Bits)), "\n"))
	regs, err := m.arch.RegDump(k.Cpu)
	if err != nil {
		return err
	}
	for _, r := range regs {
		fmt.Fprintf(out, "%-6s 0x%08x\n", r.Name, r.Val)
	}
	fmt.Fprintf(out, "blocked %s\n", task.Blocked())
	if sim, ok := k.Cpu.(*cpu.Sim); ok {
		fmt.Fprintf(out, "mappings:\n%s\n", sim.Mappings())
	}
	return nil
}

func frameKind(rt bool) string {
	if rt {
		return "rt"
	}
	return "classic"
}
