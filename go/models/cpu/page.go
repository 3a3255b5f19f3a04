package cpu

import (
	"fmt"
	"sort"
	"strings"
)

// Page is one mapped region of guest memory.
type Page struct {
	Addr, Size uint64
	Prot       int
	Data       []byte
}

func (p *Page) End() uint64 { return p.Addr + p.Size }

// ProtString renders prot like /proc/<pid>/maps.
func ProtString(prot int) string {
	b := []byte("---")
	for i, bit := range []int{PROT_READ, PROT_WRITE, PROT_EXEC} {
		if prot&bit != 0 {
			b[i] = "rwx"[i]
		}
	}
	return string(b)
}

func (p *Page) String() string {
	return fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.End(), ProtString(p.Prot))
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.End()
}

// Intersect clips addr:addr+size to p, reporting false if they do not meet.
func (p *Page) Intersect(addr, size uint64) (start, length uint64, ok bool) {
	start, end := max(p.Addr, addr), min(p.End(), addr+size)
	if end <= start {
		return 0, 0, false
	}
	return start, end - start, true
}

// slice returns the part of p covering addr:addr+size, sharing Data.
func (p *Page) slice(addr, size uint64) *Page {
	off := addr - p.Addr
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: p.Data[off : off+size]}
}

// Pages is kept sorted by address with no overlaps.
type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	lines := make([]string, len(p))
	for i, page := range p {
		lines[i] = page.String()
	}
	return strings.Join(lines, "\n")
}

// index finds the page containing addr, or -1.
func (p Pages) index(addr uint64) int {
	i := sort.Search(len(p), func(i int) bool { return p[i].End() > addr })
	if i < len(p) && p[i].Contains(addr) {
		return i
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	if i := p.index(addr); i >= 0 {
		return p[i]
	}
	return nil
}
