package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/kernel/signal"
)

type maskCmd struct{}

func (*maskCmd) Name() string     { return "mask" }
func (*maskCmd) Synopsis() string { return "decode a hex signal mask" }
func (*maskCmd) Usage() string {
	return "mask <hex>...\n  Decodes masks like the SigBlk line of /proc/<pid>/status.\n"
}
func (*maskCmd) SetFlags(*flag.FlagSet) {}

func (*maskCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	for _, arg := range f.Args() {
		set, err := parseMask(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return subcommands.ExitFailure
		}
		printMask(os.Stdout, set)
	}
	return subcommands.ExitSuccess
}

func parseMask(s string) (signal.SigSet, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	val, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad mask %q", s)
	}
	return signal.SigSet(val), nil
}

func printMask(out io.Writer, set signal.SigSet) {
	fmt.Fprintf(out, "%016x:", uint64(set))
	for _, sig := range set.Signals() {
		fmt.Fprintf(out, " %s", sig)
	}
	if set&signal.UnblockableMask != 0 {
		fmt.Fprint(out, " (includes unblockable)")
	}
	fmt.Fprintln(out)
}
