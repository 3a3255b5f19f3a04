package cpu

import (
	"github.com/pkg/errors"
)

// Mem wraps MemSim to provide the memory half of the Cpu interface.
// Guest accesses check protections, so writes to a read-only stack fault
// the same way they would under a real engine.
type Mem struct {
	// methods return an error for addresses that do not fit inside mask
	mask uint64
	sim  *MemSim
}

func NewMem(bits uint) *Mem {
	return &Mem{
		mask: ^uint64(0) >> (64 - bits),
		sim:  &MemSim{},
	}
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if (addr+size-1)&m.mask != addr+size-1 {
		return errors.New("region outside memory range")
	}
	m.sim.Map(addr, size, prot)
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Unmap(addr, size)
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, PROT_READ)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, PROT_WRITE)
}

// Mappings lists the mapped regions in address order.
func (m *Mem) Mappings() Pages {
	return m.sim.Mem
}
