package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

type actionsCmd struct {
	rt bool
}

func (*actionsCmd) Name() string     { return "actions" }
func (*actionsCmd) Synopsis() string { return "list signals and their default dispositions" }
func (*actionsCmd) Usage() string {
	return "actions [-rt]\n"
}

func (c *actionsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.rt, "rt", false, "include realtime signals")
}

func (c *actionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	printActions(os.Stdout, c.rt)
	return subcommands.ExitSuccess
}

func printActions(out io.Writer, rt bool) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUM\tNAME\tDEFAULT\tBLOCKABLE")
	last := signal.SIGRTMIN - 1
	if rt {
		last = signal.NSIG
	}
	for sig := signal.Signal(1); sig <= last; sig++ {
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", sig, sig, signal.DefaultDisposition(sig), sig.Blockable())
	}
	w.Flush()
}
