package common

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/models"
)

type (
	// Buf is a guest pointer argument. A zero Addr means NULL.
	Buf struct {
		Addr uint64
		K    *KernelBase
	}
	// Obuf is a guest pointer the kernel writes through.
	Obuf struct{ Buf }
	Len  uint64
	Ptr  uint64
)

func NewBuf(k Kernel, addr uint64) Buf {
	return Buf{K: k.Base(), Addr: addr}
}

func (b Buf) Null() bool {
	return b.Addr == 0
}

func (b Buf) Struc() *models.StrucStream {
	return b.K.StrucAt(b.Addr)
}

// Pack and Unpack report guest faults as EFAULT.
func (b Buf) Pack(i interface{}) error {
	if err := b.Struc().Pack(i); err != nil {
		return errors.Wrap(EFAULT, err.Error())
	}
	return nil
}

func (b Buf) Unpack(i interface{}) error {
	if err := b.Struc().Unpack(i); err != nil {
		return errors.Wrap(EFAULT, err.Error())
	}
	return nil
}
