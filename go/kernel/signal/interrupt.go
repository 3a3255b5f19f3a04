package signal

import (
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// Interrupter forces a task's execution context out of whatever it is doing
// so it reaches a signal checkpoint.
type Interrupter interface {
	Interrupt() error
}

// CpuInterrupter stops the emulator so guest code returns to the kernel.
type CpuInterrupter struct {
	Cpu cpu.Cpu
}

func (c CpuInterrupter) Interrupt() error {
	return c.Cpu.Stop()
}

// Interrupters runs every interrupter and returns the first error.
type Interrupters []Interrupter

func (is Interrupters) Interrupt() error {
	var first error
	for _, i := range is {
		if err := i.Interrupt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
