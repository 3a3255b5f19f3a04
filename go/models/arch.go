package models

import (
	"encoding/binary"
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sigcorn/go/models/cpu"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// Arch describes the guest CPU: word size, byte order, and register names
// mapped to the enums the Cpu backend understands.
type Arch struct {
	Name  string
	Bits  uint
	Order binary.ByteOrder

	Cpu cpu.Builder

	PC   int
	SP   int
	Regs map[string]int

	// sorted for RegDump
	regList regList
}

// Reg returns the enum for a named register.
func (a *Arch) Reg(name string) (int, error) {
	if enum, ok := a.Regs[name]; ok {
		return enum, nil
	}
	return 0, errors.Errorf("%s has no register %q", a.Name, name)
}

// Enums lists every register enum, for building register files.
func (a *Arch) Enums() []int {
	ret := make([]int, 0, len(a.Regs))
	for _, e := range a.Regs {
		ret = append(ret, e)
	}
	sort.Ints(ret)
	return ret
}

func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	if a.regList == nil {
		rl := make(regList, 0, len(a.Regs))
		for name, enum := range a.Regs {
			rl = append(rl, Reg{enum, name})
		}
		sort.Sort(rl)
		a.regList = rl
	}
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", r.Name)
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}
