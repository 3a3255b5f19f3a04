package x86

import (
	"testing"
)

func TestRegDump(t *testing.T) {
	c, err := Arch.Cpu.New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.RegWrite(Arch.Regs["ebx"], 0x1234); err != nil {
		t.Fatal(err)
	}
	regs, err := Arch.RegDump(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != len(Arch.Regs) {
		t.Fatalf("dumped %d of %d registers", len(regs), len(Arch.Regs))
	}
	for _, r := range regs {
		if r.Name == "ebx" && r.Val != 0x1234 {
			t.Fatalf("ebx = %#x", r.Val)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	c, err := Arch.Cpu.New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.RegWrite(Arch.Regs["eax"], 1)
	ctx, err := c.ContextSave(nil)
	if err != nil {
		t.Fatal(err)
	}
	c.RegWrite(Arch.Regs["eax"], 2)
	if err := c.ContextRestore(ctx); err != nil {
		t.Fatal(err)
	}
	if eax, _ := c.RegRead(Arch.Regs["eax"]); eax != 1 {
		t.Fatalf("eax = %d after restore", eax)
	}
}
