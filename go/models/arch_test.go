package models

import (
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

func testArch() *Arch {
	a := &Arch{
		Name:  "test",
		Bits:  32,
		Order: binary.LittleEndian,
		Regs:  map[string]int{"r10": 10, "r2": 2, "r1": 1, "sp": 20},
		SP:    20,
		PC:    1,
	}
	a.Cpu = &cpu.SimBuilder{Bits: a.Bits, Enums: a.Enums()}
	return a
}

func TestRegDumpOrder(t *testing.T) {
	a := testArch()
	c, err := a.Cpu.New()
	if err != nil {
		t.Fatal(err)
	}
	c.RegWrite(10, 0xa)
	dump, err := a.RegDump(c)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"r1", "r2", "r10", "sp"}
	if len(dump) != len(names) {
		t.Fatalf("got %d regs", len(dump))
	}
	for i, name := range names {
		if dump[i].Name != name {
			t.Fatalf("reg %d: got %s, want %s", i, dump[i].Name, name)
		}
	}
	if dump[2].Val != 0xa {
		t.Fatal("r10 value lost")
	}
}

func TestRegLookup(t *testing.T) {
	a := testArch()
	if e, err := a.Reg("sp"); err != nil || e != 20 {
		t.Fatal("sp lookup failed")
	}
	if _, err := a.Reg("nope"); err == nil {
		t.Fatal("missing register should fail")
	}
}
