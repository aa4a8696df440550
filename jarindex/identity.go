package jarindex

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/mapport/classfile"
	"github.com/dhamidi/mapport/mapping"
)

// unnamed stands in for a class of the jar that the namer cannot name yet.
const unnamed = "?"

// Identify renders the structure of class c as a string that is equal for
// two classes of different builds exactly when they look alike. Names of
// classes in the jar are replaced through namer; library class names are
// kept. Member names are left out, except for constructors and static
// initializers.
func (ix *Index) Identify(c mapping.ClassEntry, namer func(mapping.ClassEntry) (string, bool), useReferences bool) (string, error) {
	cl, ok := ix.classes[c.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownClass, c)
	}
	scrub := func(name string) (string, bool) {
		if _, local := ix.classes[name]; !local {
			return "", false
		}
		if n, ok := namer(mapping.NewClassEntry(name)); ok {
			return n, true
		}
		return unnamed, true
	}
	scrubName := func(name string) string {
		if n, ok := scrub(name); ok {
			return n
		}
		return name
	}
	scrubAll := func(names []string) []string {
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = scrubName(n)
		}
		slices.Sort(out)
		return out
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("class %04x extends %s", uint16(cl.flags.Stable()), scrubName(cl.super)))
	if len(cl.interfaces) > 0 {
		lines = append(lines, "implements "+strings.Join(scrubAll(cl.interfaces), ","))
	}
	if cl.outer != "" {
		lines = append(lines, "in "+scrubName(cl.outer))
	}

	var members []string
	describe := func(kind string, m member) {
		if ix.opts.SkipSynthetic && m.flags.IsSynthetic() {
			return
		}
		desc, _ := classfile.RewriteDescriptor(m.descriptor, scrub)
		name := ""
		if strings.HasPrefix(m.name, "<") {
			name = m.name
		}
		members = append(members, fmt.Sprintf("%s %04x %s%s", kind, uint16(m.flags.Stable()), name, desc))
	}
	for _, f := range cl.fields {
		describe("field", f)
	}
	for _, m := range cl.methods {
		describe("method", m)
	}
	slices.Sort(members)
	lines = append(lines, members...)

	for _, s := range cl.strings {
		lines = append(lines, fmt.Sprintf("string %q", s))
	}

	if useReferences {
		lines = append(lines,
			"uses "+strings.Join(scrubAll(cl.outgoing), ","),
			"used by "+strings.Join(scrubAll(cl.incoming), ","),
		)
	}
	return strings.Join(lines, "\n"), nil
}
