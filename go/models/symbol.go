package models

type Symbol struct {
	Name       string
	Start, End uint64
	Dynamic    bool
}

func (s Symbol) Contains(addr uint64) bool {
	return s.Start <= addr && (s.End > addr || s.End == 0)
}

// SymbolTable is a flat list of symbols, such as the ones a vdso exports.
type SymbolTable []Symbol

func (t SymbolTable) Lookup(name string) (Symbol, bool) {
	for _, s := range t {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

func (t SymbolTable) At(addr uint64) (Symbol, bool) {
	for _, s := range t {
		if s.Contains(addr) {
			return s, true
		}
	}
	return Symbol{}, false
}

// Resolve returns the start address of the named symbol.
func (t SymbolTable) Resolve(name string) (uint64, bool) {
	s, ok := t.Lookup(name)
	return s.Start, ok
}
