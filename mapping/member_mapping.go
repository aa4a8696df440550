package mapping

import (
	"fmt"
	"maps"
	"slices"
)

// FieldMapping names one field. Its obfuscated name and type are its identity
// inside the owning ClassMapping and change only through that class.
type FieldMapping struct {
	obfName   string
	obfType   Type
	deobfName string
}

func NewFieldMapping(obfName string, obfType Type, deobfName string) (*FieldMapping, error) {
	if !obfType.Valid() {
		return nil, fmt.Errorf("%w: field type %q", ErrMalformed, obfType)
	}
	if deobfName != "" {
		if err := ValidateMemberName(deobfName); err != nil {
			return nil, err
		}
	}
	return &FieldMapping{obfName: obfName, obfType: obfType, deobfName: deobfName}, nil
}

func (f *FieldMapping) ObfName() string   { return f.obfName }
func (f *FieldMapping) ObfType() Type     { return f.obfType }
func (f *FieldMapping) DeobfName() string { return f.deobfName }

// ObfEntry returns the entry this mapping names inside class.
func (f *FieldMapping) ObfEntry(class ClassEntry) FieldEntry {
	return FieldEntry{Class: class, Name: f.obfName, Type: f.obfType}
}

// Translated copies f with its type rewritten through replace.
func (f *FieldMapping) Translated(replace ClassNameReplacer) (*FieldMapping, []string) {
	t, unresolved := f.obfType.Replace(replace)
	return &FieldMapping{obfName: f.obfName, obfType: t, deobfName: f.deobfName}, unresolved
}

func (f *FieldMapping) clone() *FieldMapping {
	c := *f
	return &c
}

func fieldKeys(f *FieldMapping) (string, string) {
	obf := f.obfName + ":" + string(f.obfType)
	if f.deobfName == "" {
		return obf, ""
	}
	return obf, f.deobfName + ":" + string(f.obfType)
}

// MethodMapping names one method and, by position, its arguments.
type MethodMapping struct {
	obfName      string
	obfSignature Signature
	deobfName    string
	arguments    map[int]string
}

func NewMethodMapping(obfName string, obfSignature Signature, deobfName string) (*MethodMapping, error) {
	if !obfSignature.Valid() {
		return nil, fmt.Errorf("%w: method signature %q", ErrMalformed, obfSignature)
	}
	if deobfName != "" {
		if err := ValidateMemberName(deobfName); err != nil {
			return nil, err
		}
	}
	return &MethodMapping{
		obfName:      obfName,
		obfSignature: obfSignature,
		deobfName:    deobfName,
		arguments:    map[int]string{},
	}, nil
}

func (m *MethodMapping) ObfName() string         { return m.obfName }
func (m *MethodMapping) ObfSignature() Signature { return m.obfSignature }
func (m *MethodMapping) DeobfName() string       { return m.deobfName }

func (m *MethodMapping) ObfEntry(class ClassEntry) MethodEntry {
	return MethodEntry{Class: class, Name: m.obfName, Signature: m.obfSignature}
}

// ArgumentName returns the name of the argument at index, if any.
func (m *MethodMapping) ArgumentName(index int) (string, bool) {
	name, ok := m.arguments[index]
	return name, ok
}

// Arguments returns the named argument indices in ascending order.
func (m *MethodMapping) Arguments() []int {
	return slices.Sorted(maps.Keys(m.arguments))
}

func (m *MethodMapping) SetArgumentName(index int, name string) error {
	if index < 0 {
		return fmt.Errorf("%w: argument index %d", ErrInvalidName, index)
	}
	if err := ValidateArgumentName(name); err != nil {
		return err
	}
	for i, other := range m.arguments {
		if other == name && i != index {
			return fmt.Errorf("%w: argument %q already names index %d", ErrDuplicateDeobf, name, i)
		}
	}
	m.arguments[index] = name
	return nil
}

func (m *MethodMapping) RemoveArgumentName(index int) {
	delete(m.arguments, index)
}

func (m *MethodMapping) ContainsArgument(name string) bool {
	for _, n := range m.arguments {
		if n == name {
			return true
		}
	}
	return false
}

// Translated copies m, arguments included, with its signature rewritten
// through replace.
func (m *MethodMapping) Translated(replace ClassNameReplacer) (*MethodMapping, []string) {
	sig, unresolved := m.obfSignature.Replace(replace)
	c := m.clone()
	c.obfSignature = sig
	return c, unresolved
}

func (m *MethodMapping) clone() *MethodMapping {
	c := *m
	c.arguments = maps.Clone(m.arguments)
	return &c
}

func methodKeys(m *MethodMapping) (string, string) {
	obf := m.obfName + string(m.obfSignature)
	if m.deobfName == "" {
		return obf, ""
	}
	return obf, m.deobfName + string(m.obfSignature)
}
