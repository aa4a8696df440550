package convert

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/mapport/mapping"
)

// Rename moves a class to a new obfuscated name.
type Rename struct {
	Old mapping.ClassEntry
	New mapping.ClassEntry
}

// OrderRenames orders a batch of renames so that each one can be applied in
// turn: with a -> b and b -> c, b -> c goes first. A rename also waits while
// an outer class of its new name is still to be vacated or filled by another
// rename. Renames that only block each other yield ErrRenameCycle.
//
// Renaming a class carries its inner classes along; the old names of later
// renames nested in it are rewritten to match.
func OrderRenames(renames *BiMap[mapping.ClassEntry, mapping.ClassEntry]) ([]Rename, error) {
	var pending []Rename
	for old, nu := range renames.forward {
		if old != nu {
			pending = append(pending, Rename{Old: old, New: nu})
		}
	}
	slices.SortFunc(pending, func(a, b Rename) int { return compareEntries(a.Old, b.Old) })

	ordered := make([]Rename, 0, len(pending))
	for len(pending) > 0 {
		i := slices.IndexFunc(pending, func(r Rename) bool { return renameReady(r, pending) })
		if i < 0 {
			olds := make([]mapping.ClassEntry, len(pending))
			for j, r := range pending {
				olds[j] = r.Old
			}
			return nil, fmt.Errorf("%w among %s", ErrRenameCycle, joinEntries(olds))
		}
		r := pending[i]
		ordered = append(ordered, r)
		pending = slices.Delete(pending, i, i+1)
		for j := range pending {
			if name, ok := strings.CutPrefix(pending[j].Old.Name, r.Old.Name+"$"); ok {
				pending[j].Old = mapping.NewClassEntry(r.New.Name + "$" + name)
			}
		}
	}
	return ordered, nil
}

// renameReady reports whether r can be applied before the rest of pending.
func renameReady(r Rename, pending []Rename) bool {
	chain := r.New.ClassChain()
	outers := chain[:len(chain)-1]
	for _, o := range pending {
		if o == r {
			continue
		}
		if o.Old == r.New || slices.Contains(outers, o.Old) || slices.Contains(outers, o.New) {
			return false
		}
	}
	return true
}

// ConvertMappings applies a batch of class renames to a copy of m and
// returns it. m itself is never modified; on error no partial result is
// returned.
func ConvertMappings(m *mapping.Mappings, renames *BiMap[mapping.ClassEntry, mapping.ClassEntry]) (*mapping.Mappings, error) {
	ordered, err := OrderRenames(renames)
	if err != nil {
		return nil, err
	}
	out := m.Clone()
	for _, r := range ordered {
		if err := out.RenameObfClassUnchecked(r.Old, r.New); err != nil {
			return nil, err
		}
	}
	return out, nil
}
