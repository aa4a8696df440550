package mapping

import (
	"fmt"
	"strings"
)

// Mappings is the root of a mapping tree. A tree has a single owner while it
// is mutated.
type Mappings struct {
	classes dualIndex[*ClassMapping]
}

func New() *Mappings {
	return &Mappings{classes: newDualIndex(classKeys)}
}

// Classes returns the top-level class mappings ordered by obfuscated name.
func (m *Mappings) Classes() []*ClassMapping { return m.classes.values() }

func (m *Mappings) Len() int { return m.classes.len() }

func (m *Mappings) AddClass(c *ClassMapping) error {
	if c.inner {
		return fmt.Errorf("%w: %s is an inner class mapping", ErrInvalidName, c.obfName)
	}
	if err := m.classes.add(c); err != nil {
		return fmt.Errorf("add class: %w", err)
	}
	return nil
}

func (m *Mappings) RemoveClass(c *ClassMapping) error {
	return m.classes.remove(c)
}

// ClassByObf finds the node for entry by walking its nesting chain.
func (m *Mappings) ClassByObf(entry ClassEntry) *ClassMapping {
	names := entry.NestingNames()
	c, ok := m.classes.getObf(names[0])
	if !ok {
		return nil
	}
	for _, name := range names[1:] {
		if c = c.InnerClassByObf(name); c == nil {
			return nil
		}
	}
	return c
}

// ClassByDeobf finds the node for a deobfuscated name such as "pkg/Outer$Inner".
// Unnamed links of the chain may be given by their obfuscated names.
func (m *Mappings) ClassByDeobf(name string) *ClassMapping {
	parts := strings.Split(name, "$")
	c, ok := m.classes.getDeobf(parts[0])
	if !ok {
		if c, ok = m.classes.getObf(parts[0]); !ok || c.deobfName != "" {
			return nil
		}
	}
	for _, part := range parts[1:] {
		if c = c.InnerClassByDeobfThenObf(part); c == nil {
			return nil
		}
	}
	return c
}

// DeobfName renders entry with every named link of its chain replaced by its
// deobfuscated name.
func (m *Mappings) DeobfName(entry ClassEntry) string {
	names := entry.NestingNames()
	out := make([]string, len(names))
	copy(out, names)
	c, ok := m.classes.getObf(names[0])
	for i := 0; ok; {
		if c.deobfName != "" {
			out[i] = c.deobfName
		}
		i++
		if i == len(names) {
			break
		}
		c = c.InnerClassByObf(names[i])
		ok = c != nil
	}
	return strings.Join(out, "$")
}

// GetOrCreateClass returns the node for entry, creating unnamed nodes along
// its chain as needed.
func (m *Mappings) GetOrCreateClass(entry ClassEntry) (*ClassMapping, error) {
	names := entry.NestingNames()
	c, ok := m.classes.getObf(names[0])
	if !ok {
		var err error
		if c, err = NewClassMapping(names[0], ""); err != nil {
			return nil, err
		}
		if err := m.AddClass(c); err != nil {
			return nil, err
		}
	}
	for _, name := range names[1:] {
		var err error
		if c, err = c.GetOrCreateInnerClass(name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetClassName names the class identified by entry. Inner classes take a
// simple name.
func (m *Mappings) SetClassName(entry ClassEntry, deobfName string) error {
	if !entry.IsInnerClass() {
		if deobfName != "" {
			if err := ValidateClassName(deobfName); err != nil {
				return err
			}
		}
		c, err := m.GetOrCreateClass(entry)
		if err != nil {
			return err
		}
		return renameNode(&m.classes, c, deobfName)
	}
	outer, _ := entry.EnclosingClass()
	parent, err := m.GetOrCreateClass(outer)
	if err != nil {
		return err
	}
	return parent.SetInnerClassName(entry.InnerClassName(), deobfName)
}

// RenameObfClass moves the node of oldClass to newClass and rewrites every
// type and signature that references oldClass or its inner classes. The tree
// is left untouched when the rename fails.
func (m *Mappings) RenameObfClass(oldClass, newClass ClassEntry) error {
	if err := m.Clone().RenameObfClassUnchecked(oldClass, newClass); err != nil {
		return err
	}
	return m.RenameObfClassUnchecked(oldClass, newClass)
}

// RenameObfClassUnchecked is RenameObfClass without the trial run on a copy:
// a failed rename may leave the tree partly rewritten. Use it on trees that
// are thrown away on error.
func (m *Mappings) RenameObfClassUnchecked(oldClass, newClass ClassEntry) error {
	if oldClass == newClass {
		return nil
	}
	if node := m.ClassByObf(oldClass); node != nil {
		if err := m.moveNode(node, oldClass, newClass); err != nil {
			return fmt.Errorf("rename %s to %s: %w", oldClass, newClass, err)
		}
	}
	replace := renamer(oldClass.Name, newClass.Name)
	for _, c := range m.classes.values() {
		if err := c.rewriteReferences(replace); err != nil {
			return fmt.Errorf("rename %s to %s: %w", oldClass, newClass, err)
		}
	}
	return nil
}

func (m *Mappings) moveNode(node *ClassMapping, oldClass, newClass ClassEntry) error {
	if m.ClassByObf(newClass) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateObf, newClass)
	}
	if err := m.detach(oldClass, node); err != nil {
		return err
	}
	if !newClass.IsInnerClass() {
		node.obfName, node.inner = newClass.Name, false
		return m.AddClass(node)
	}
	node.obfName, node.inner = newClass.InnerClassName(), true
	if i := strings.LastIndexByte(node.deobfName, '/'); i >= 0 {
		node.deobfName = node.deobfName[i+1:]
	}
	outer, _ := newClass.EnclosingClass()
	parent, err := m.GetOrCreateClass(outer)
	if err != nil {
		return err
	}
	return parent.AddInnerClass(node)
}

func (m *Mappings) detach(entry ClassEntry, node *ClassMapping) error {
	outer, ok := entry.EnclosingClass()
	if !ok {
		return m.RemoveClass(node)
	}
	parent := m.ClassByObf(outer)
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, outer)
	}
	return parent.RemoveInnerClass(node)
}

// Clone returns a deep copy of the tree.
func (m *Mappings) Clone() *Mappings {
	out := New()
	for _, c := range m.classes.values() {
		_ = out.classes.add(c.clone())
	}
	return out
}

// Walk visits every node depth first, outer classes before their inner
// classes, with the node's full obfuscated entry.
func (m *Mappings) Walk(fn func(entry ClassEntry, c *ClassMapping) error) error {
	for _, c := range m.classes.values() {
		if err := walk(NewClassEntry(c.obfName), c, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(entry ClassEntry, c *ClassMapping, fn func(ClassEntry, *ClassMapping) error) error {
	if err := fn(entry, c); err != nil {
		return err
	}
	for _, inner := range c.innerClasses.values() {
		if err := walk(NewClassEntry(entry.Name+"$"+inner.obfName), inner, fn); err != nil {
			return err
		}
	}
	return nil
}

// Consistent reports whether every index in the tree agrees with the names
// of the values it holds.
func (m *Mappings) Consistent() bool {
	if !m.classes.consistent() {
		return false
	}
	for _, c := range m.classes.values() {
		if !c.consistent() {
			return false
		}
	}
	return true
}
