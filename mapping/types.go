package mapping

import (
	"strings"

	"github.com/dhamidi/mapport/classfile"
)

// ClassNameReplacer maps an obfuscated class name to another build's name.
// Returning false means no replacement is known.
type ClassNameReplacer = classfile.ClassNameReplacer

// Type is a JVM field descriptor such as "I" or "[La$b;".
type Type string

func (t Type) Valid() bool { return classfile.ValidFieldDescriptor(string(t)) }

func (t Type) ClassNames() []string { return classfile.DescriptorClassNames(string(t)) }

// Replace rewrites the class names in t. Names without a replacement are kept
// and listed in unresolved.
func (t Type) Replace(replace ClassNameReplacer) (Type, []string) {
	s, unresolved := classfile.RewriteDescriptor(string(t), replace)
	return Type(s), unresolved
}

// Signature is a JVM method descriptor such as "(ILa;)V".
type Signature string

func (s Signature) Valid() bool { return classfile.ValidMethodDescriptor(string(s)) }

func (s Signature) ClassNames() []string { return classfile.DescriptorClassNames(string(s)) }

func (s Signature) Replace(replace ClassNameReplacer) (Signature, []string) {
	out, unresolved := classfile.RewriteDescriptor(string(s), replace)
	return Signature(out), unresolved
}

// ArgumentCount returns the number of declared parameters.
func (s Signature) ArgumentCount() int {
	md := classfile.ParseMethodDescriptor(string(s))
	if md == nil {
		return 0
	}
	return len(md.Parameters)
}

// renamer replaces oldName and every class nested in it.
func renamer(oldName, newName string) ClassNameReplacer {
	return func(name string) (string, bool) {
		if name == oldName {
			return newName, true
		}
		if strings.HasPrefix(name, oldName+"$") {
			return newName + name[len(oldName):], true
		}
		return "", false
	}
}
