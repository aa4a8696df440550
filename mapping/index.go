package mapping

import (
	"fmt"
	"slices"
	"strings"
)

// dualIndex owns a set of values reachable by obfuscated key and, for values
// that carry a deobfuscated name, by deobfuscated key. Both maps change only
// through add, remove and update.
type dualIndex[V comparable] struct {
	byObf   map[string]V
	byDeobf map[string]V
	keys    func(V) (obf, deobf string)
}

func newDualIndex[V comparable](keys func(V) (string, string)) dualIndex[V] {
	return dualIndex[V]{
		byObf:   map[string]V{},
		byDeobf: map[string]V{},
		keys:    keys,
	}
}

func (ix *dualIndex[V]) add(v V) error {
	obf, deobf := ix.keys(v)
	if _, ok := ix.byObf[obf]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateObf, obf)
	}
	if deobf != "" {
		if _, ok := ix.byDeobf[deobf]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDeobf, deobf)
		}
		ix.byDeobf[deobf] = v
	}
	ix.byObf[obf] = v
	return nil
}

func (ix *dualIndex[V]) remove(v V) error {
	obf, deobf := ix.keys(v)
	if cur, ok := ix.byObf[obf]; !ok || cur != v {
		return fmt.Errorf("%w: %s", ErrNotFound, obf)
	}
	delete(ix.byObf, obf)
	if deobf != "" {
		delete(ix.byDeobf, deobf)
	}
	return nil
}

// update re-keys v after apply changes its names. If the new keys collide,
// revert restores the old names and v is indexed under its old keys again.
func (ix *dualIndex[V]) update(v V, apply, revert func()) error {
	if err := ix.remove(v); err != nil {
		return err
	}
	apply()
	if err := ix.add(v); err != nil {
		revert()
		// the old keys were freed by remove above
		_ = ix.add(v)
		return err
	}
	return nil
}

func (ix *dualIndex[V]) getObf(key string) (V, bool) {
	v, ok := ix.byObf[key]
	return v, ok
}

func (ix *dualIndex[V]) getDeobf(key string) (V, bool) {
	v, ok := ix.byDeobf[key]
	return v, ok
}

func (ix *dualIndex[V]) len() int { return len(ix.byObf) }

// values returns the indexed values ordered by obfuscated key: shorter keys
// first, so "b" sorts before "aa" the way obfuscators hand names out.
func (ix *dualIndex[V]) values() []V {
	keys := make([]string, 0, len(ix.byObf))
	for k := range ix.byObf {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareObfNames)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = ix.byObf[k]
	}
	return out
}

// consistent reports whether both axes agree with the current names.
func (ix *dualIndex[V]) consistent() bool {
	if len(ix.byDeobf) > len(ix.byObf) {
		return false
	}
	named := 0
	for k, v := range ix.byObf {
		obf, deobf := ix.keys(v)
		if obf != k {
			return false
		}
		if deobf != "" {
			named++
			if ix.byDeobf[deobf] != v {
				return false
			}
		}
	}
	return named == len(ix.byDeobf)
}

func compareObfNames(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
