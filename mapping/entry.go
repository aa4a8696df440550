// Package mapping models the obfuscated symbols of one build and the tree of
// human-assigned names attached to them.
package mapping

import (
	"fmt"
	"strings"
)

// ClassEntry identifies a class by its internal name, for example
// "net/minecraft/a$b". Nesting is encoded with '$'.
type ClassEntry struct {
	Name string
}

func NewClassEntry(name string) ClassEntry {
	return ClassEntry{Name: name}
}

func (c ClassEntry) String() string { return c.Name }

func (c ClassEntry) IsInnerClass() bool {
	return strings.LastIndexByte(c.Name, '$') > strings.LastIndexByte(c.Name, '/')
}

// Package returns the package path without a trailing slash.
func (c ClassEntry) Package() string {
	if i := strings.LastIndexByte(c.Name, '/'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// SimpleName strips the package, keeping any nesting.
func (c ClassEntry) SimpleName() string {
	if i := strings.LastIndexByte(c.Name, '/'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// OuterClassName is the full name of the outermost class.
func (c ClassEntry) OuterClassName() string {
	pkgEnd := strings.LastIndexByte(c.Name, '/')
	if i := strings.IndexByte(c.Name[pkgEnd+1:], '$'); i >= 0 {
		return c.Name[:pkgEnd+1+i]
	}
	return c.Name
}

// InnerClassName is the innermost simple name, or "" for top-level classes.
func (c ClassEntry) InnerClassName() string {
	if !c.IsInnerClass() {
		return ""
	}
	return c.Name[strings.LastIndexByte(c.Name, '$')+1:]
}

// EnclosingClass returns the directly enclosing class.
func (c ClassEntry) EnclosingClass() (ClassEntry, bool) {
	if !c.IsInnerClass() {
		return ClassEntry{}, false
	}
	return ClassEntry{Name: c.Name[:strings.LastIndexByte(c.Name, '$')]}, true
}

// ClassChain returns the entries from the outermost class down to c.
func (c ClassEntry) ClassChain() []ClassEntry {
	names := c.NestingNames()
	chain := make([]ClassEntry, len(names))
	full := c.OuterClassName()
	chain[0] = ClassEntry{Name: full}
	for i := 1; i < len(names); i++ {
		full += "$" + names[i]
		chain[i] = ClassEntry{Name: full}
	}
	return chain
}

// NestingNames splits c into its outer-to-inner chain: the outer class's full
// name followed by the simple name of each inner class.
func (c ClassEntry) NestingNames() []string {
	outer := c.OuterClassName()
	if len(outer) == len(c.Name) {
		return []string{outer}
	}
	return append([]string{outer}, strings.Split(c.Name[len(outer)+1:], "$")...)
}

// FieldEntry identifies a field. Name alone is ambiguous: the JVM allows two
// fields that differ only by type.
type FieldEntry struct {
	Class ClassEntry
	Name  string
	Type  Type
}

func (f FieldEntry) ClassEntry() ClassEntry { return f.Class }
func (f FieldEntry) MemberName() string     { return f.Name }
func (f FieldEntry) Descriptor() string     { return string(f.Type) }

func (f FieldEntry) String() string {
	return f.Class.Name + " " + f.Name + " " + string(f.Type)
}

// MethodEntry identifies a method or constructor by name and signature.
type MethodEntry struct {
	Class     ClassEntry
	Name      string
	Signature Signature
}

func (m MethodEntry) ClassEntry() ClassEntry { return m.Class }
func (m MethodEntry) MemberName() string     { return m.Name }
func (m MethodEntry) Descriptor() string     { return string(m.Signature) }

func (m MethodEntry) IsConstructor() bool { return m.Name == "<init>" }

func (m MethodEntry) String() string {
	return m.Class.Name + " " + m.Name + " " + string(m.Signature)
}

// ParseFieldEntry parses the "class name type" form produced by String.
func ParseFieldEntry(s string) (FieldEntry, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return FieldEntry{}, fmt.Errorf("%w: field entry %q", ErrMalformed, s)
	}
	t := Type(parts[2])
	if !t.Valid() {
		return FieldEntry{}, fmt.Errorf("%w: field type %q", ErrMalformed, parts[2])
	}
	return FieldEntry{Class: NewClassEntry(parts[0]), Name: parts[1], Type: t}, nil
}

// ParseMethodEntry parses the "class name signature" form produced by String.
func ParseMethodEntry(s string) (MethodEntry, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return MethodEntry{}, fmt.Errorf("%w: method entry %q", ErrMalformed, s)
	}
	sig := Signature(parts[2])
	if !sig.Valid() {
		return MethodEntry{}, fmt.Errorf("%w: method signature %q", ErrMalformed, parts[2])
	}
	return MethodEntry{Class: NewClassEntry(parts[0]), Name: parts[1], Signature: sig}, nil
}
