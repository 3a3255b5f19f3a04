package models

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"

	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// StrucStream packs and unpacks C structs through Stream in guest byte order.
type StrucStream struct {
	Stream io.ReadWriter
	Order  binary.ByteOrder
}

func (s *StrucStream) Pack(i interface{}) error {
	return struc.PackWithOptions(s.Stream, i, &struc.Options{Order: s.Order})
}

func (s *StrucStream) Unpack(i interface{}) error {
	return struc.UnpackWithOptions(s.Stream, i, &struc.Options{Order: s.Order})
}

// Sizeof returns the packed size of i.
func Sizeof(i interface{}) (int, error) {
	return struc.Sizeof(i)
}

// MemStream is a cursor over guest memory. Reads and writes are
// all-or-nothing; a partial fault moves nothing.
type MemStream struct {
	Mem  cpu.Cpu
	Addr uint64
}

func (m *MemStream) Read(p []byte) (int, error) {
	if err := m.Mem.MemReadInto(p, m.Addr); err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}

func (m *MemStream) Write(p []byte) (int, error) {
	if err := m.Mem.MemWrite(m.Addr, p); err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}

// StrucAt returns a StrucStream positioned at addr in c's memory.
func StrucAt(c cpu.Cpu, order binary.ByteOrder, addr uint64) *StrucStream {
	return &StrucStream{Stream: &MemStream{Mem: c, Addr: addr}, Order: order}
}
