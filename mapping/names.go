package mapping

import (
	"fmt"
	"strings"
	"unicode"
)

var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`abstract assert boolean break byte case catch char class const
		continue default do double else enum extends final finally float for goto if implements
		import instanceof int interface long native new package private protected public return
		short static strictfp super switch synchronized this throw throws transient try void
		volatile while true false null`) {
		reservedWords[w] = struct{}{}
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, reserved := reservedWords[s]; reserved {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '$' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return false
		}
	}
	return true
}

// ValidateClassName checks a deobfuscated top-level class name. Packages are
// separated by '/'; nesting markers are rejected since nesting is expressed by
// the tree itself.
func ValidateClassName(name string) error {
	if strings.ContainsRune(name, '$') {
		return fmt.Errorf("%w: class name %q must not contain '$'", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if !isIdentifier(part) {
			return fmt.Errorf("%w: class name %q", ErrInvalidName, name)
		}
	}
	return nil
}

// ValidateInnerClassName checks a deobfuscated inner class name, which must be
// a simple name.
func ValidateInnerClassName(name string) error {
	if !IsSimpleClassName(name) {
		return fmt.Errorf("%w: inner class name %q must be a simple name", ErrInvalidName, name)
	}
	return ValidateClassName(name)
}

func ValidateMemberName(name string) error {
	if !isIdentifier(name) || strings.ContainsRune(name, '$') {
		return fmt.Errorf("%w: member name %q", ErrInvalidName, name)
	}
	return nil
}

func ValidateArgumentName(name string) error {
	if !isIdentifier(name) || strings.ContainsRune(name, '$') {
		return fmt.Errorf("%w: argument name %q", ErrInvalidName, name)
	}
	return nil
}

// IsSimpleClassName reports whether name has neither package nor nesting.
func IsSimpleClassName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/$")
}
