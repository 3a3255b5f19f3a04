package common

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lunixbochs/argjoy"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/sigcorn/go/models"
	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

// KernelBase is embedded by kernels. Exported methods of the embedding type
// become syscalls named in snake_case: RtSigaction is "rt_sigaction".
type KernelBase struct {
	Syscalls map[string]Syscall
	Argjoy   argjoy.Argjoy

	Cpu    cpu.Cpu
	Arch   *models.Arch
	Config *models.Config
	Log    logrus.FieldLogger
}

func (k *KernelBase) Base() *KernelBase {
	return k
}

type Kernel interface {
	Base() *KernelBase
}

func camelToSnakeCase(name string) string {
	var words []string
	last := 0
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				words = append(words, name[last:i])
			}
			last = i
		}
	}
	words = append(words, name[last:])
	return strings.ToLower(strings.Join(words, "_"))
}

// Init builds the syscall table for kf. Methods prefixed with Literal are
// registered without the prefix, for names that collide with Go methods.
func Init(kf Kernel) {
	k := kf.Base()
	k.Syscalls = make(map[string]Syscall)
	instance := reflect.ValueOf(kf)
	typ := instance.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		name := method.Name
		if strings.HasPrefix(name, "Literal") {
			name = strings.TrimPrefix(name, "Literal")
		} else if r, size := utf8.DecodeRuneInString(name); size <= 0 || !unicode.IsUpper(r) {
			continue
		}
		// only methods returning a syscall result are syscalls
		if method.Type.NumOut() != 1 || method.Type.Out(0).Kind() != reflect.Uint64 {
			continue
		}
		name = camelToSnakeCase(name)
		in := make([]reflect.Type, method.Type.NumIn()-1)
		for j := 1; j < method.Type.NumIn(); j++ {
			in[j-1] = method.Type.In(j)
		}
		uintArr := len(in) > 0 && in[0] == reflect.TypeOf([]uint64(nil))
		if uintArr {
			in = in[1:]
		}
		k.Syscalls[name] = Syscall{
			Name:     name,
			Kernel:   k,
			Instance: instance,
			Method:   method,
			In:       in,
			UintArr:  uintArr,
		}
	}
	k.Argjoy.Register(k.commonArgCodec)
	k.Argjoy.Register(argjoy.IntToInt)
	if k.Log == nil {
		k.Log = logrus.StandardLogger()
	}
	if k.Config == nil {
		k.Config = models.DefaultConfig()
	}
}

// Lookup finds a syscall by name, building the table on first use.
func Lookup(kf Kernel, name string) *Syscall {
	k := kf.Base()
	if k.Syscalls == nil {
		Init(kf)
	}
	if sys, ok := k.Syscalls[name]; ok {
		return &sys
	}
	return nil
}

func (k *KernelBase) StrucAt(addr uint64) *models.StrucStream {
	return models.StrucAt(k.Cpu, k.Arch.Order, addr)
}
