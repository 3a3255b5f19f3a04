package common

import (
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// RegArgs reads syscall arguments from a fixed register sequence.
func RegArgs(c cpu.Cpu, regs []int) func(n int) ([]uint64, error) {
	return func(n int) ([]uint64, error) {
		ret := make([]uint64, n)
		for i, enum := range regs[:n] {
			val, err := c.RegRead(enum)
			if err != nil {
				return nil, err
			}
			ret[i] = val
		}
		return ret, nil
	}
}
