package x86

import (
	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

const (
	VdsoBase = 0xffffe000
	VdsoSize = 0x1000
)

// sigreturn trampolines, laid out like the kernel's vdso
var vdsoCode = []struct {
	name string
	off  uint64
	code []byte
}{
	// pop eax; mov eax, 119; int 0x80
	{"__kernel_sigreturn", 0x400, []byte{0x58, 0xb8, 0x77, 0, 0, 0, 0xcd, 0x80}},
	// mov eax, 173; int 0x80
	{"__kernel_rt_sigreturn", 0x410, []byte{0xb8, 0xad, 0, 0, 0, 0xcd, 0x80}},
}

// Vdso is the symbol table for the page MapVdso writes.
var Vdso = func() models.SymbolTable {
	var syms models.SymbolTable
	for _, tramp := range vdsoCode {
		start := VdsoBase + tramp.off
		syms = append(syms, models.Symbol{Name: tramp.name, Start: start, End: start + uint64(len(tramp.code))})
	}
	return syms
}()

// MapVdso maps the trampoline page into c. Cpu has no mprotect, so the
// page stays writable.
func MapVdso(c cpu.Cpu) error {
	if err := c.MemMapProt(VdsoBase, VdsoSize, cpu.PROT_ALL); err != nil {
		return err
	}
	for _, tramp := range vdsoCode {
		if err := c.MemWrite(VdsoBase+tramp.off, tramp.code); err != nil {
			return err
		}
	}
	return nil
}
