package common

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

type testKernel struct {
	KernelBase
	exitCode int32
	pair     struct{ A, B uint32 }
}

func (k *testKernel) ExitGroup(code int32) uint64 {
	k.exitCode = code
	return 44
}

func (k *testKernel) ReadPair(b Buf) uint64 {
	return ErrnoRet(b.Unpack(&k.pair))
}

func (k *testKernel) Raw(args []uint64, a Ptr) uint64 {
	return args[1]
}

func (k *testKernel) helper() uint64 { return 0 }

func newTestKernel() *testKernel {
	c := cpu.NewSim(32, nil)
	c.MemMapProt(0x1000, 0x1000, cpu.PROT_READ|cpu.PROT_WRITE)
	k := &testKernel{KernelBase: KernelBase{
		Cpu:  c,
		Arch: &models.Arch{Name: "test", Bits: 32, Order: binary.LittleEndian},
	}}
	Init(k)
	return k
}

func TestKernel(t *testing.T) {
	k := newTestKernel()
	ret := Lookup(k, "exit_group").Call([]uint64{0xffffffff})
	if k.exitCode != -1 {
		t.Fatalf("exit code = %d", k.exitCode)
	}
	if ret != 44 {
		t.Fatal("syscall return failed")
	}
	if Lookup(k, "helper") != nil || Lookup(k, "base") != nil {
		t.Fatal("non-syscall methods registered")
	}
	if ret := Lookup(k, "raw").Call([]uint64{1, 7}); ret != 7 {
		t.Fatalf("raw args = %d", ret)
	}
}

func TestBufFault(t *testing.T) {
	k := newTestKernel()
	k.Cpu.MemWrite(0x1000, []byte{1, 0, 0, 0, 2, 0, 0, 0})
	if ret := Lookup(k, "read_pair").Call([]uint64{0x1000}); ret != 0 {
		t.Fatalf("read_pair = %x", ret)
	}
	if k.pair.A != 1 || k.pair.B != 2 {
		t.Fatalf("pair = %v", k.pair)
	}
	if ret := Lookup(k, "read_pair").Call([]uint64{0x8000}); ret != EFAULT.Ret() {
		t.Fatalf("unmapped read returned %x", ret)
	}
}

func TestCamelToSnake(t *testing.T) {
	for in, out := range map[string]string{
		"RtSigaction": "rt_sigaction",
		"Tgkill":      "tgkill",
		"Sigaltstack": "sigaltstack",
	} {
		if got := camelToSnakeCase(in); got != out {
			t.Errorf("%s -> %s", in, got)
		}
	}
}

func TestErrnoRet(t *testing.T) {
	if ErrnoRet(nil) != 0 {
		t.Fatal("nil error should return 0")
	}
	if int64(ErrnoRet(EINTR)) != -4 {
		t.Fatal("EINTR")
	}
	if ErrnoOf(errors.Wrap(ESRCH, "kill")) != ESRCH {
		t.Fatal("wrapped errno lost")
	}
}
