package common

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/models"
)

func hex(a interface{}) string {
	tmp := fmt.Sprintf("0x%x", a)
	if strings.HasPrefix(tmp, "0x-") {
		tmp = "-0x" + tmp[3:]
	}
	return tmp
}

func (s Syscall) traceArg(args ...interface{}) string {
	switch arg := args[0].(type) {
	case Obuf:
		return hex(arg.Addr)
	case Buf:
		if len(args) > 1 {
			if length, ok := args[1].(Len); ok {
				mem, _ := s.Kernel.Cpu.MemRead(arg.Addr, uint64(length))
				return models.Repr(mem, s.Kernel.Config.Strsize)
			}
		}
		return hex(arg.Addr)
	case Ptr:
		return hex(arg)
	case int32:
		return fmt.Sprintf("%d", arg)
	case uint64:
		return hex(arg)
	default:
		return fmt.Sprintf("%v", arg)
	}
}

func (s Syscall) traceArgs(regs []uint64) string {
	if len(regs) > len(s.In) {
		regs = regs[:len(s.In)]
	}
	inRef, err := s.Kernel.Argjoy.Convert(s.In, false, regs)
	if err != nil {
		return err.Error()
	}
	ret := make([]string, len(inRef))
	in := make([]interface{}, len(inRef))
	for i, val := range inRef {
		in[i] = val.Interface()
	}
	for i := range in {
		ret[i] = s.traceArg(in[i:]...)
	}
	return strings.Join(ret, ", ")
}

func (s Syscall) Trace(regs []uint64) string {
	return fmt.Sprintf("%s(%s)", s.Name, s.traceArgs(regs))
}

func (s Syscall) TraceRet(ret uint64) string {
	if int32(ret) < 0 && int32(ret) > -4096 {
		return fmt.Sprintf(" = -1 %s", Errno(-int32(ret)))
	}
	return " = " + hex(ret)
}

// CallTraced runs the syscall, logging the call and its result when
// syscall tracing is on.
func (s Syscall) CallTraced(args []uint64) uint64 {
	if !s.Kernel.Config.TraceSys {
		return s.Call(args)
	}
	call := s.Trace(args)
	ret := s.Call(args)
	s.Kernel.Log.WithFields(logrus.Fields{"syscall": s.Name}).Info(call + s.TraceRet(ret))
	return ret
}
