package cpu

// Cpu is the slice of an emulated CPU the kernel needs: guest memory, the
// register file, and a way to kick the engine out of guest code.
type Cpu interface {
	// memory mapping
	MemMapProt(addr, size uint64, prot int) error
	MemUnmap(addr, size uint64) error

	// memory IO
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error

	// register IO
	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error

	// execution
	Start(begin, until uint64) error
	Stop() error

	// save/restore entire CPU state
	ContextSave(reuse interface{}) (interface{}, error)
	ContextRestore(ctx interface{}) error

	// cleanup
	Close() error
}

// Builder creates a fresh Cpu for an architecture.
type Builder interface {
	New() (Cpu, error)
}
