package cpu

import (
	"fmt"
	"sort"
)

// MemError describes a guest memory fault.
type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim is a sorted list of mapped pages.
type MemSim struct {
	Mem Pages
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.index(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if !mm.Contains(addr) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		addr = mm.Addr + mm.Size
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Map maps addr:addr+size with prot, replacing anything already there.
func (m *MemSim) Map(addr, size uint64, prot int) *Page {
	m.Unmap(addr, size)
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size)}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page
}

// Unmap drops addr:addr+size, splitting any page that straddles an edge.
func (m *MemSim) Unmap(addr, size uint64) {
	tmp := make(Pages, 0, len(m.Mem))
	for _, mm := range m.Mem {
		oaddr, osize, ok := mm.Intersect(addr, size)
		if !ok {
			tmp = append(tmp, mm)
			continue
		}
		if oaddr > mm.Addr {
			tmp = append(tmp, mm.slice(mm.Addr, oaddr-mm.Addr))
		}
		if end := oaddr + osize; end < mm.Addr+mm.Size {
			tmp = append(tmp, mm.slice(end, mm.Addr+mm.Size-end))
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_PROT}
	}
	for i := m.Mem.index(addr); i < len(m.Mem) && len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(p, mm.Data[addr-mm.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	for i := m.Mem.index(addr); i < len(m.Mem) && len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(mm.Data[addr-mm.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}
