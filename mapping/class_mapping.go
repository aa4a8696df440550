package mapping

import (
	"fmt"
	"strings"
)

// ClassMapping is one node of the mapping tree. A top-level node is keyed by
// its full obfuscated name and may carry a full deobfuscated name. An inner
// node is keyed by its simple obfuscated name and may only carry a simple
// deobfuscated name.
type ClassMapping struct {
	obfName   string
	deobfName string
	inner     bool

	innerClasses dualIndex[*ClassMapping]
	fields       dualIndex[*FieldMapping]
	methods      dualIndex[*MethodMapping]
}

func newClassMapping(obfName, deobfName string, inner bool) *ClassMapping {
	return &ClassMapping{
		obfName:      obfName,
		deobfName:    deobfName,
		inner:        inner,
		innerClasses: newDualIndex(classKeys),
		fields:       newDualIndex(fieldKeys),
		methods:      newDualIndex(methodKeys),
	}
}

// NewClassMapping creates a top-level class node. deobfName may be empty.
func NewClassMapping(obfName, deobfName string) (*ClassMapping, error) {
	if obfName == "" {
		return nil, fmt.Errorf("%w: empty obfuscated class name", ErrInvalidName)
	}
	if deobfName != "" {
		if err := ValidateClassName(deobfName); err != nil {
			return nil, err
		}
	}
	return newClassMapping(obfName, deobfName, false), nil
}

// NewInnerClassMapping creates an inner class node keyed by its simple
// obfuscated name.
func NewInnerClassMapping(obfSimpleName, deobfName string) (*ClassMapping, error) {
	if !IsSimpleClassName(obfSimpleName) {
		return nil, fmt.Errorf("%w: inner class key %q must be a simple name", ErrInvalidName, obfSimpleName)
	}
	if deobfName != "" {
		if err := ValidateInnerClassName(deobfName); err != nil {
			return nil, err
		}
	}
	return newClassMapping(obfSimpleName, deobfName, true), nil
}

func classKeys(c *ClassMapping) (string, string) { return c.obfName, c.deobfName }

func (c *ClassMapping) ObfName() string   { return c.obfName }
func (c *ClassMapping) DeobfName() string { return c.deobfName }
func (c *ClassMapping) IsInner() bool     { return c.inner }

// DeobfSimpleName returns the deobfuscated name without its package.
func (c *ClassMapping) DeobfSimpleName() string {
	if i := strings.LastIndexByte(c.deobfName, '/'); i >= 0 {
		return c.deobfName[i+1:]
	}
	return c.deobfName
}

func (c *ClassMapping) validateDeobf(name string) error {
	if name == "" {
		return nil
	}
	if c.inner {
		return ValidateInnerClassName(name)
	}
	return ValidateClassName(name)
}

// IsEmpty reports whether the node names nothing at all.
func (c *ClassMapping) IsEmpty() bool {
	return c.deobfName == "" && c.innerClasses.len() == 0 && c.fields.len() == 0 && c.methods.len() == 0
}

// Inner classes

func (c *ClassMapping) InnerClasses() []*ClassMapping { return c.innerClasses.values() }

func (c *ClassMapping) AddInnerClass(inner *ClassMapping) error {
	if !inner.inner {
		return fmt.Errorf("%w: %s is not an inner class mapping", ErrInvalidName, inner.obfName)
	}
	if err := c.innerClasses.add(inner); err != nil {
		return fmt.Errorf("add inner class to %s: %w", c.obfName, err)
	}
	return nil
}

func (c *ClassMapping) RemoveInnerClass(inner *ClassMapping) error {
	return c.innerClasses.remove(inner)
}

func (c *ClassMapping) InnerClassByObf(obfSimpleName string) *ClassMapping {
	inner, _ := c.innerClasses.getObf(obfSimpleName)
	return inner
}

func (c *ClassMapping) InnerClassByDeobf(deobfName string) *ClassMapping {
	inner, _ := c.innerClasses.getDeobf(deobfName)
	return inner
}

// InnerClassByDeobfThenObf looks name up as a deobfuscated name first and
// falls back to an unnamed obfuscated one.
func (c *ClassMapping) InnerClassByDeobfThenObf(name string) *ClassMapping {
	if inner := c.InnerClassByDeobf(name); inner != nil {
		return inner
	}
	if inner := c.InnerClassByObf(name); inner != nil && inner.deobfName == "" {
		return inner
	}
	return nil
}

func (c *ClassMapping) GetOrCreateInnerClass(obfSimpleName string) (*ClassMapping, error) {
	if inner := c.InnerClassByObf(obfSimpleName); inner != nil {
		return inner, nil
	}
	inner, err := NewInnerClassMapping(obfSimpleName, "")
	if err != nil {
		return nil, err
	}
	if err := c.AddInnerClass(inner); err != nil {
		return nil, err
	}
	return inner, nil
}

// SetInnerClassName names the inner class obfSimpleName, creating its node if
// needed. An empty deobfName clears the name.
func (c *ClassMapping) SetInnerClassName(obfSimpleName, deobfName string) error {
	if deobfName != "" {
		if err := ValidateInnerClassName(deobfName); err != nil {
			return err
		}
	}
	inner, err := c.GetOrCreateInnerClass(obfSimpleName)
	if err != nil {
		return err
	}
	return renameNode(&c.innerClasses, inner, deobfName)
}

func renameNode(ix *dualIndex[*ClassMapping], node *ClassMapping, deobfName string) error {
	old := node.deobfName
	return ix.update(node,
		func() { node.deobfName = deobfName },
		func() { node.deobfName = old },
	)
}

// Fields

func (c *ClassMapping) Fields() []*FieldMapping { return c.fields.values() }

func (c *ClassMapping) FieldByObf(obfName string, obfType Type) *FieldMapping {
	f, _ := c.fields.getObf(obfName + ":" + string(obfType))
	return f
}

func (c *ClassMapping) FieldByDeobf(deobfName string, obfType Type) *FieldMapping {
	f, _ := c.fields.getDeobf(deobfName + ":" + string(obfType))
	return f
}

func (c *ClassMapping) AddField(f *FieldMapping) error {
	if err := c.fields.add(f); err != nil {
		return fmt.Errorf("add field to %s: %w", c.obfName, err)
	}
	return nil
}

func (c *ClassMapping) RemoveField(f *FieldMapping) error {
	return c.fields.remove(f)
}

// SetFieldName names a field, creating its mapping if needed.
func (c *ClassMapping) SetFieldName(obfName string, obfType Type, deobfName string) error {
	f := c.FieldByObf(obfName, obfType)
	if f == nil {
		var err error
		if f, err = NewFieldMapping(obfName, obfType, deobfName); err != nil {
			return err
		}
		return c.AddField(f)
	}
	if deobfName != "" {
		if err := ValidateMemberName(deobfName); err != nil {
			return err
		}
	}
	old := f.deobfName
	return c.fields.update(f,
		func() { f.deobfName = deobfName },
		func() { f.deobfName = old },
	)
}

// SetFieldObf re-keys f to another obfuscated name and type.
func (c *ClassMapping) SetFieldObf(f *FieldMapping, obfName string, obfType Type) error {
	if !obfType.Valid() {
		return fmt.Errorf("%w: field type %q", ErrMalformed, obfType)
	}
	oldName, oldType := f.obfName, f.obfType
	return c.fields.update(f,
		func() { f.obfName, f.obfType = obfName, obfType },
		func() { f.obfName, f.obfType = oldName, oldType },
	)
}

// Methods

func (c *ClassMapping) Methods() []*MethodMapping { return c.methods.values() }

func (c *ClassMapping) MethodByObf(obfName string, obfSignature Signature) *MethodMapping {
	m, _ := c.methods.getObf(obfName + string(obfSignature))
	return m
}

func (c *ClassMapping) MethodByDeobf(deobfName string, obfSignature Signature) *MethodMapping {
	m, _ := c.methods.getDeobf(deobfName + string(obfSignature))
	return m
}

func (c *ClassMapping) AddMethod(m *MethodMapping) error {
	if err := c.methods.add(m); err != nil {
		return fmt.Errorf("add method to %s: %w", c.obfName, err)
	}
	return nil
}

func (c *ClassMapping) RemoveMethod(m *MethodMapping) error {
	return c.methods.remove(m)
}

func (c *ClassMapping) SetMethodName(obfName string, obfSignature Signature, deobfName string) error {
	m := c.MethodByObf(obfName, obfSignature)
	if m == nil {
		var err error
		if m, err = NewMethodMapping(obfName, obfSignature, deobfName); err != nil {
			return err
		}
		return c.AddMethod(m)
	}
	if deobfName != "" {
		if err := ValidateMemberName(deobfName); err != nil {
			return err
		}
	}
	old := m.deobfName
	return c.methods.update(m,
		func() { m.deobfName = deobfName },
		func() { m.deobfName = old },
	)
}

func (c *ClassMapping) SetMethodObf(m *MethodMapping, obfName string, obfSignature Signature) error {
	if !obfSignature.Valid() {
		return fmt.Errorf("%w: method signature %q", ErrMalformed, obfSignature)
	}
	oldName, oldSig := m.obfName, m.obfSignature
	return c.methods.update(m,
		func() { m.obfName, m.obfSignature = obfName, obfSignature },
		func() { m.obfName, m.obfSignature = oldName, oldSig },
	)
}

// SetArgumentName names an argument, creating an unnamed method mapping if
// needed.
func (c *ClassMapping) SetArgumentName(obfMethodName string, obfSignature Signature, index int, name string) error {
	m := c.MethodByObf(obfMethodName, obfSignature)
	if m == nil {
		var err error
		if m, err = NewMethodMapping(obfMethodName, obfSignature, ""); err != nil {
			return err
		}
		if err := m.SetArgumentName(index, name); err != nil {
			return err
		}
		return c.AddMethod(m)
	}
	return m.SetArgumentName(index, name)
}

func (c *ClassMapping) RemoveArgumentName(obfMethodName string, obfSignature Signature, index int) {
	if m := c.MethodByObf(obfMethodName, obfSignature); m != nil {
		m.RemoveArgumentName(index)
	}
}

// rewriteReferences rewrites every field type and method signature in c and
// its inner classes through replace.
func (c *ClassMapping) rewriteReferences(replace ClassNameReplacer) error {
	for _, inner := range c.innerClasses.values() {
		if err := inner.rewriteReferences(replace); err != nil {
			return err
		}
	}
	for _, f := range c.fields.values() {
		t, _ := f.obfType.Replace(replace)
		if t == f.obfType {
			continue
		}
		if err := c.SetFieldObf(f, f.obfName, t); err != nil {
			return err
		}
	}
	for _, m := range c.methods.values() {
		sig, _ := m.obfSignature.Replace(replace)
		if sig == m.obfSignature {
			continue
		}
		if err := c.SetMethodObf(m, m.obfName, sig); err != nil {
			return err
		}
	}
	return nil
}

func (c *ClassMapping) consistent() bool {
	if !c.innerClasses.consistent() || !c.fields.consistent() || !c.methods.consistent() {
		return false
	}
	for _, inner := range c.innerClasses.values() {
		if !inner.consistent() {
			return false
		}
	}
	return true
}

func (c *ClassMapping) clone() *ClassMapping {
	out := newClassMapping(c.obfName, c.deobfName, c.inner)
	for _, inner := range c.innerClasses.values() {
		_ = out.innerClasses.add(inner.clone())
	}
	for _, f := range c.fields.values() {
		_ = out.fields.add(f.clone())
	}
	for _, m := range c.methods.values() {
		_ = out.methods.add(m.clone())
	}
	return out
}

func (c *ClassMapping) String() string {
	if c.deobfName == "" {
		return c.obfName
	}
	return c.obfName + " -> " + c.deobfName
}
