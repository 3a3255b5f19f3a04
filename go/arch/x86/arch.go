// Package x86 runs i386 Linux guests on unicorn.
package x86

import (
	"encoding/binary"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sigcorn/go/cpu/unicorn"
	"github.com/lunixbochs/sigcorn/go/models"
)

var Arch = &models.Arch{
	Name:  "x86",
	Bits:  32,
	Order: binary.LittleEndian,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_X86, Mode: uc.MODE_32},

	PC: uc.X86_REG_EIP,
	SP: uc.X86_REG_ESP,
	Regs: map[string]int{
		"eip": uc.X86_REG_EIP,
		"esp": uc.X86_REG_ESP,
		"ebp": uc.X86_REG_EBP,
		"eax": uc.X86_REG_EAX,
		"ebx": uc.X86_REG_EBX,
		"ecx": uc.X86_REG_ECX,
		"edx": uc.X86_REG_EDX,
		"esi": uc.X86_REG_ESI,
		"edi": uc.X86_REG_EDI,

		"eflags": uc.X86_REG_EFLAGS,

		"cs": uc.X86_REG_CS,
		"ds": uc.X86_REG_DS,
		"es": uc.X86_REG_ES,
		"fs": uc.X86_REG_FS,
		"gs": uc.X86_REG_GS,
		"ss": uc.X86_REG_SS,
	},
}
