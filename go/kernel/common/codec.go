package common

import (
	"github.com/lunixbochs/argjoy"
)

func (k *KernelBase) commonArgCodec(arg interface{}, vals []interface{}) error {
	if reg, ok := vals[0].(uint64); ok {
		switch v := arg.(type) {
		case *Buf:
			*v = NewBuf(k, reg)
		case *Obuf:
			*v = Obuf{NewBuf(k, reg)}
		case *Len:
			*v = Len(reg)
		case *Ptr:
			*v = Ptr(reg)
		case *int32:
			// pids and signal numbers arrive sign-extended or zero-extended
			*v = int32(uint32(reg))
		default:
			return argjoy.NoMatch
		}
		return nil
	}
	return argjoy.NoMatch
}
