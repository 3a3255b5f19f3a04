package cpu

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Sim is a Cpu with a register file and guest memory but no instruction
// engine. The kernel only needs state access, so Sim stands in for unicorn
// wherever guest code never actually runs.
type Sim struct {
	*Regs
	*Mem
	stops int32
}

// SimBuilder builds Sims with a fixed register set.
type SimBuilder struct {
	Bits  uint
	Enums []int
}

func (b *SimBuilder) New() (Cpu, error) {
	return NewSim(b.Bits, b.Enums), nil
}

func NewSim(bits uint, enums []int) *Sim {
	return &Sim{Regs: NewRegs(bits, enums), Mem: NewMem(bits)}
}

func (s *Sim) Start(begin, until uint64) error {
	return errors.New("Sim cannot execute guest code")
}

// Stop records the request; Stops reports how many arrived.
func (s *Sim) Stop() error {
	atomic.AddInt32(&s.stops, 1)
	return nil
}

func (s *Sim) Stops() int {
	return int(atomic.LoadInt32(&s.stops))
}

func (s *Sim) Close() error { return nil }
