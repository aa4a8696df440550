package convert

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dhamidi/mapport/mapping"
)

// MemberUniverse lists the members of a build.
type MemberUniverse interface {
	mapping.Universe
	Classes() []mapping.ClassEntry
	Fields(mapping.ClassEntry) []mapping.FieldEntry
	Methods(mapping.ClassEntry) []mapping.MethodEntry
}

// MemberKind adapts member matching to fields or methods.
type MemberKind[T MemberEntry] interface {
	Name() string
	// Members lists the members of class in u.
	Members(u MemberUniverse, class mapping.ClassEntry) []T
	// Dropped lists the members the checker removed.
	Dropped(ch *mapping.Checker) []T
	// Mapped lists the members named by node c of class.
	Mapped(class mapping.ClassEntry, c *mapping.ClassMapping) []T
	// Translate rewrites the owner and descriptor of entry.
	Translate(entry T, replace mapping.ClassNameReplacer) T
	Contains(c *mapping.ClassMapping, entry T) bool
	Remove(c *mapping.ClassMapping, entry T) error
	Rekey(c *mapping.ClassMapping, from, to T) error
	// Renamed returns entry under another name.
	Renamed(entry T, name string) T
	Parse(s string) (T, error)
}

var (
	Fields  MemberKind[mapping.FieldEntry]  = fieldKind{}
	Methods MemberKind[mapping.MethodEntry] = methodKind{}
)

func translateClass(c mapping.ClassEntry, replace mapping.ClassNameReplacer) mapping.ClassEntry {
	if name, ok := replace(c.Name); ok {
		return mapping.NewClassEntry(name)
	}
	return c
}

type fieldKind struct{}

func (fieldKind) Name() string { return "field" }

func (fieldKind) Members(u MemberUniverse, class mapping.ClassEntry) []mapping.FieldEntry {
	return u.Fields(class)
}

func (fieldKind) Dropped(ch *mapping.Checker) []mapping.FieldEntry {
	out := make([]mapping.FieldEntry, 0, len(ch.DroppedFields))
	for e := range ch.DroppedFields {
		out = append(out, e)
	}
	return out
}

func (fieldKind) Mapped(class mapping.ClassEntry, c *mapping.ClassMapping) []mapping.FieldEntry {
	fields := c.Fields()
	out := make([]mapping.FieldEntry, len(fields))
	for i, f := range fields {
		out[i] = f.ObfEntry(class)
	}
	return out
}

func (fieldKind) Translate(e mapping.FieldEntry, replace mapping.ClassNameReplacer) mapping.FieldEntry {
	t, _ := e.Type.Replace(replace)
	return mapping.FieldEntry{Class: translateClass(e.Class, replace), Name: e.Name, Type: t}
}

func (fieldKind) Contains(c *mapping.ClassMapping, e mapping.FieldEntry) bool {
	return c.FieldByObf(e.Name, e.Type) != nil
}

func (fieldKind) Remove(c *mapping.ClassMapping, e mapping.FieldEntry) error {
	f := c.FieldByObf(e.Name, e.Type)
	if f == nil {
		return fmt.Errorf("%w: %s", mapping.ErrNotFound, e)
	}
	return c.RemoveField(f)
}

func (fieldKind) Rekey(c *mapping.ClassMapping, from, to mapping.FieldEntry) error {
	f := c.FieldByObf(from.Name, from.Type)
	if f == nil {
		return fmt.Errorf("%w: %s", mapping.ErrNotFound, from)
	}
	return c.SetFieldObf(f, to.Name, to.Type)
}

func (fieldKind) Renamed(e mapping.FieldEntry, name string) mapping.FieldEntry {
	e.Name = name
	return e
}

func (fieldKind) Parse(s string) (mapping.FieldEntry, error) { return mapping.ParseFieldEntry(s) }

type methodKind struct{}

func (methodKind) Name() string { return "method" }

func (methodKind) Members(u MemberUniverse, class mapping.ClassEntry) []mapping.MethodEntry {
	return u.Methods(class)
}

func (methodKind) Dropped(ch *mapping.Checker) []mapping.MethodEntry {
	out := make([]mapping.MethodEntry, 0, len(ch.DroppedMethods))
	for e := range ch.DroppedMethods {
		out = append(out, e)
	}
	return out
}

func (methodKind) Mapped(class mapping.ClassEntry, c *mapping.ClassMapping) []mapping.MethodEntry {
	methods := c.Methods()
	out := make([]mapping.MethodEntry, len(methods))
	for i, m := range methods {
		out[i] = m.ObfEntry(class)
	}
	return out
}

func (methodKind) Translate(e mapping.MethodEntry, replace mapping.ClassNameReplacer) mapping.MethodEntry {
	sig, _ := e.Signature.Replace(replace)
	return mapping.MethodEntry{Class: translateClass(e.Class, replace), Name: e.Name, Signature: sig}
}

func (methodKind) Contains(c *mapping.ClassMapping, e mapping.MethodEntry) bool {
	return c.MethodByObf(e.Name, e.Signature) != nil
}

func (methodKind) Remove(c *mapping.ClassMapping, e mapping.MethodEntry) error {
	m := c.MethodByObf(e.Name, e.Signature)
	if m == nil {
		return fmt.Errorf("%w: %s", mapping.ErrNotFound, e)
	}
	return c.RemoveMethod(m)
}

func (methodKind) Rekey(c *mapping.ClassMapping, from, to mapping.MethodEntry) error {
	m := c.MethodByObf(from.Name, from.Signature)
	if m == nil {
		return fmt.Errorf("%w: %s", mapping.ErrNotFound, from)
	}
	return c.SetMethodObf(m, to.Name, to.Signature)
}

func (methodKind) Renamed(e mapping.MethodEntry, name string) mapping.MethodEntry {
	e.Name = name
	return e
}

func (methodKind) Parse(s string) (mapping.MethodEntry, error) { return mapping.ParseMethodEntry(s) }

// ComputeMemberMatches matches the members of migrated classes. destMappings
// is the migrated tree; it is checked against destUniverse on a copy and
// left as it is.
//
// Members that survived the check are matched to themselves. Members that
// were dropped are matched to the only unmatched destination member of the
// same class whose descriptor, translated back, equals theirs. With no such
// member a source member becomes unmatchable; with several it stays
// unmatched.
func ComputeMemberMatches[T MemberEntry](destUniverse MemberUniverse, destMappings *mapping.Mappings, classMatches *ClassMatches, kind MemberKind[T]) (*MemberMatches[T], error) {
	checked := destMappings.Clone()
	checker := mapping.NewChecker(destUniverse)
	if err := checker.DropBrokenMappings(checked); err != nil {
		return nil, fmt.Errorf("check %s mappings: %w", kind.Name(), err)
	}

	back := classMatches.inverseReplacer()
	mm := NewMemberMatches[T]()
	for _, dest := range kind.Dropped(checker) {
		if err := mm.AddUnmatchedSource(kind.Translate(dest, back)); err != nil {
			return nil, err
		}
	}
	err := checked.Walk(func(class mapping.ClassEntry, c *mapping.ClassMapping) error {
		for _, dest := range kind.Mapped(class, c) {
			if err := mm.AddMatch(kind.Translate(dest, back), dest); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, class := range destUniverse.Classes() {
		for _, dest := range kind.Members(destUniverse, class) {
			if !mm.IsMatchedDest(dest) {
				if err := mm.AddUnmatchedDest(dest); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, source := range mm.UnmatchedSource() {
		destClass, ok := classMatches.Dest(source.ClassEntry())
		if !ok {
			if err := mm.MakeUnmatchable(source); err != nil {
				return nil, err
			}
			continue
		}
		var candidates []T
		for _, dest := range mm.UnmatchedDestOf(destClass) {
			if kind.Translate(dest, back).Descriptor() == source.Descriptor() {
				candidates = append(candidates, dest)
			}
		}
		switch len(candidates) {
		case 0:
			err = mm.MakeUnmatchable(source)
		case 1:
			err = mm.AddMatch(source, candidates[0])
		}
		if err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// ApplyReport describes what ApplyMemberMatches changed.
type ApplyReport[T MemberEntry] struct {
	Removed []T
	Rekeyed int
	// Leftover holds re-keys that kept colliding with another member.
	Leftover []MemberPair[T]
}

// ApplyMemberMatches moves member mappings of tree onto their matched
// destination members and removes the mappings of unmatchable members.
// Re-keys that collide with an existing member are retried after the others
// until no more progress is made. Re-keys that only wait on each other, such
// as two members swapping names, go through by parking one member under a
// free name first. What still collides is reported as Leftover.
func ApplyMemberMatches[T MemberEntry](tree *mapping.Mappings, classMatches *ClassMatches, mm *MemberMatches[T], kind MemberKind[T]) (*ApplyReport[T], error) {
	type rekey struct {
		node     *mapping.ClassMapping
		from, to T
		// orig is from before the member was parked
		orig   T
		parked bool
	}
	back := classMatches.inverseReplacer()
	report := &ApplyReport[T]{}
	var pending []rekey
	err := tree.Walk(func(class mapping.ClassEntry, c *mapping.ClassMapping) error {
		for _, dest := range kind.Mapped(class, c) {
			source := kind.Translate(dest, back)
			if mm.IsUnmatchable(source) {
				if err := kind.Remove(c, dest); err != nil {
					return err
				}
				report.Removed = append(report.Removed, dest)
				continue
			}
			if to, ok := mm.Match(source); ok && to != dest {
				pending = append(pending, rekey{node: c, from: dest, to: to, orig: dest})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for len(pending) > 0 {
		var next []rekey
		for _, r := range pending {
			if kind.Contains(r.node, r.to) {
				next = append(next, r)
				continue
			}
			err := kind.Rekey(r.node, r.from, r.to)
			if errors.Is(err, mapping.ErrDuplicateObf) || errors.Is(err, mapping.ErrDuplicateDeobf) {
				next = append(next, r)
				continue
			}
			if err != nil {
				return nil, err
			}
			report.Rekeyed++
		}
		if len(next) == len(pending) {
			i := slices.IndexFunc(next, func(r rekey) bool {
				return !r.parked && slices.ContainsFunc(next, func(o rekey) bool {
					return o.node == r.node && o.from == r.to
				})
			})
			if i < 0 {
				break
			}
			r := &next[i]
			free := freeMemberName(kind, r.node, r.from)
			if err := kind.Rekey(r.node, r.from, free); err != nil {
				return nil, err
			}
			r.from, r.parked = free, true
		}
		pending = next
	}
	for _, r := range pending {
		if r.parked {
			if err := kind.Rekey(r.node, r.from, r.orig); err != nil {
				return nil, fmt.Errorf("restore %s: %w", r.orig, err)
			}
		}
		report.Leftover = append(report.Leftover, MemberPair[T]{Source: r.orig, Dest: r.to})
	}
	return report, nil
}

// freeMemberName returns e renamed to a name no member of c uses.
func freeMemberName[T MemberEntry](kind MemberKind[T], c *mapping.ClassMapping, e T) T {
	for i := 0; ; i++ {
		free := kind.Renamed(e, fmt.Sprintf("%s$%d", e.MemberName(), i))
		if !kind.Contains(c, free) {
			return free
		}
	}
}
