// Package unicorn backs cpu.Cpu with the unicorn emulator.
package unicorn

import (
	"sync"

	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

type Builder struct {
	Arch, Mode int
}

func (b *Builder) New() (cpu.Cpu, error) {
	u, err := uc.NewUnicorn(b.Arch, b.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{Unicorn: u}, nil
}

type UnicornCpu struct {
	uc.Unicorn

	mu  sync.Mutex
	err error
}

// fail records the first hook error and stops emulation.
func (u *UnicornCpu) fail(err error) {
	u.mu.Lock()
	if u.err == nil {
		u.err = err
	}
	u.mu.Unlock()
	u.Unicorn.Stop()
}

// Run executes guest code until it exits, Stop is called, or a hook fails.
// A hook failure takes precedence over the engine's own error.
func (u *UnicornCpu) Run(begin, until uint64) error {
	u.mu.Lock()
	u.err = nil
	u.mu.Unlock()
	err := u.Unicorn.Start(begin, until)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	return errors.Wrap(err, "emulation stopped")
}

func (u *UnicornCpu) ContextSave(reuse interface{}) (interface{}, error) {
	var ctx uc.Context
	if reuse != nil {
		var ok bool
		if ctx, ok = reuse.(uc.Context); !ok {
			return nil, errors.New("incorrect context type")
		}
	}
	return u.Unicorn.ContextSave(ctx)
}

func (u *UnicornCpu) ContextRestore(ctx interface{}) error {
	c, ok := ctx.(uc.Context)
	if !ok {
		return errors.New("incorrect context type")
	}
	return u.Unicorn.ContextRestore(c)
}

// OnInterrupt calls cb for every software interrupt. A non-nil error stops
// emulation and is returned from the Run that was executing.
func (u *UnicornCpu) OnInterrupt(cb func(intno uint32) error) (uc.Hook, error) {
	return u.Unicorn.HookAdd(uc.HOOK_INTR, func(_ uc.Unicorn, intno uint32) {
		if err := cb(intno); err != nil {
			u.fail(err)
		}
	}, 1, 0)
}

// OnBlock calls cb at the start of every basic block and stops emulation
// when it returns true.
func (u *UnicornCpu) OnBlock(cb func(addr uint64) bool) (uc.Hook, error) {
	return u.Unicorn.HookAdd(uc.HOOK_BLOCK, func(mu uc.Unicorn, addr uint64, _ uint32) {
		if cb(addr) {
			mu.Stop()
		}
	}, 1, 0)
}

// MemoryFaults turns unmapped or protected accesses into cb calls. cb
// reports whether the access may be retried.
func (u *UnicornCpu) MemoryFaults(cb func(access int, addr uint64, size int) bool) (uc.Hook, error) {
	mask := uc.HOOK_MEM_READ_UNMAPPED | uc.HOOK_MEM_WRITE_UNMAPPED | uc.HOOK_MEM_FETCH_UNMAPPED |
		uc.HOOK_MEM_READ_PROT | uc.HOOK_MEM_WRITE_PROT | uc.HOOK_MEM_FETCH_PROT
	return u.Unicorn.HookAdd(mask, func(_ uc.Unicorn, access int, addr uint64, size int, _ int64) bool {
		return cb(access, addr, size)
	}, 1, 0)
}
