package common

import (
	"fmt"
	"reflect"
)

type Syscall struct {
	Name     string
	Kernel   *KernelBase
	Instance reflect.Value
	Method   reflect.Method
	In       []reflect.Type
	UintArr  bool
}

// Call a syscall from the dispatch table. Will panic() if the arguments
// cannot be converted to the method's parameter types.
func (sys Syscall) Call(args []uint64) uint64 {
	extra := 1
	if sys.UintArr {
		extra++
	}
	in := make([]reflect.Value, len(sys.In)+extra)
	in[0] = sys.Instance
	if sys.UintArr {
		in[1] = reflect.ValueOf(args)
	}
	if len(args) < len(sys.In) {
		padded := make([]uint64, len(sys.In))
		copy(padded, args)
		args = padded
	}
	converted, err := sys.Kernel.Argjoy.Convert(sys.In, false, args[:len(sys.In)])
	if err != nil {
		panic(fmt.Sprintf("calling %T.%s(): %s", sys.Instance.Interface(), sys.Method.Name, err))
	}
	copy(in[extra:], converted)
	out := sys.Method.Func.Call(in)
	return out[0].Uint()
}
