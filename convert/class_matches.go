package convert

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dhamidi/mapport/mapping"
)

// ClassMatch is a cluster of source classes that share an identity with a
// cluster of destination classes. Either side may be empty.
type ClassMatch struct {
	Source []mapping.ClassEntry
	Dest   []mapping.ClassEntry
}

func (m ClassMatch) IsUnique() bool { return len(m.Source) == 1 && len(m.Dest) == 1 }

func (m ClassMatch) IsAmbiguous() bool {
	return len(m.Source) > 0 && len(m.Dest) > 0 && !m.IsUnique()
}

func (m ClassMatch) String() string {
	return "[" + joinEntries(m.Source) + "] -> [" + joinEntries(m.Dest) + "]"
}

func joinEntries(entries []mapping.ClassEntry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, ", ")
}

func compareEntries(a, b mapping.ClassEntry) int { return strings.Compare(a.Name, b.Name) }

// ClassMatches is the outcome of class matching. It is not modified once
// returned; Resolve produces a new set.
type ClassMatches struct {
	unique          *BiMap[mapping.ClassEntry, mapping.ClassEntry]
	ambiguous       []ClassMatch
	unmatchedSource []mapping.ClassEntry
	unmatchedDest   []mapping.ClassEntry
}

func newClassMatches(unique *BiMap[mapping.ClassEntry, mapping.ClassEntry]) *ClassMatches {
	return &ClassMatches{unique: unique}
}

// add files a cluster under unique, ambiguous or unmatched.
func (cm *ClassMatches) add(m ClassMatch) error {
	switch {
	case m.IsUnique():
		return cm.unique.Put(m.Source[0], m.Dest[0])
	case m.IsAmbiguous():
		slices.SortFunc(m.Source, compareEntries)
		slices.SortFunc(m.Dest, compareEntries)
		cm.ambiguous = append(cm.ambiguous, m)
	default:
		cm.unmatchedSource = append(cm.unmatchedSource, m.Source...)
		cm.unmatchedDest = append(cm.unmatchedDest, m.Dest...)
	}
	return nil
}

func (cm *ClassMatches) sort() {
	slices.SortFunc(cm.ambiguous, func(a, b ClassMatch) int { return compareEntries(a.Source[0], b.Source[0]) })
	slices.SortFunc(cm.unmatchedSource, compareEntries)
	slices.SortFunc(cm.unmatchedDest, compareEntries)
}

// NewClassMatches assembles a match set from clusters. Clusters are
// classified by their shape; unique clusters must form a bijection.
func NewClassMatches(clusters []ClassMatch) (*ClassMatches, error) {
	cm := newClassMatches(NewBiMap[mapping.ClassEntry, mapping.ClassEntry]())
	seenSource := map[mapping.ClassEntry]bool{}
	seenDest := map[mapping.ClassEntry]bool{}
	for _, c := range clusters {
		for _, s := range c.Source {
			if seenSource[s] {
				return nil, fmt.Errorf("%w: source %s appears twice", ErrConflict, s)
			}
			seenSource[s] = true
		}
		for _, d := range c.Dest {
			if seenDest[d] {
				return nil, fmt.Errorf("%w: destination %s appears twice", ErrConflict, d)
			}
			seenDest[d] = true
		}
		if err := cm.add(ClassMatch{Source: slices.Clone(c.Source), Dest: slices.Clone(c.Dest)}); err != nil {
			return nil, err
		}
	}
	cm.sort()
	return cm, nil
}

// Unique returns a copy of the unique bijection.
func (cm *ClassMatches) Unique() *BiMap[mapping.ClassEntry, mapping.ClassEntry] {
	return cm.unique.Clone()
}

// UniqueMatches returns the unique pairs ordered by source name.
func (cm *ClassMatches) UniqueMatches() []ClassMatch {
	sources := make([]mapping.ClassEntry, 0, cm.unique.Len())
	for s := range cm.unique.forward {
		sources = append(sources, s)
	}
	slices.SortFunc(sources, compareEntries)
	out := make([]ClassMatch, len(sources))
	for i, s := range sources {
		out[i] = ClassMatch{Source: []mapping.ClassEntry{s}, Dest: []mapping.ClassEntry{cm.unique.forward[s]}}
	}
	return out
}

func (cm *ClassMatches) Dest(source mapping.ClassEntry) (mapping.ClassEntry, bool) {
	return cm.unique.Get(source)
}

func (cm *ClassMatches) Source(dest mapping.ClassEntry) (mapping.ClassEntry, bool) {
	return cm.unique.GetKey(dest)
}

func (cm *ClassMatches) Ambiguous() []ClassMatch { return slices.Clone(cm.ambiguous) }

func (cm *ClassMatches) UnmatchedSource() []mapping.ClassEntry { return slices.Clone(cm.unmatchedSource) }

func (cm *ClassMatches) UnmatchedDest() []mapping.ClassEntry { return slices.Clone(cm.unmatchedDest) }

// Clusters returns every cluster: unique pairs, ambiguous clusters and one
// single-sided cluster per unmatched class.
func (cm *ClassMatches) Clusters() []ClassMatch {
	out := cm.UniqueMatches()
	out = append(out, cm.Ambiguous()...)
	for _, s := range cm.unmatchedSource {
		out = append(out, ClassMatch{Source: []mapping.ClassEntry{s}})
	}
	for _, d := range cm.unmatchedDest {
		out = append(out, ClassMatch{Dest: []mapping.ClassEntry{d}})
	}
	return out
}

// Resolve confirms source <-> dest by hand. Both must be ambiguous or
// unmatched. The clusters they leave are classified again by their new shape.
func (cm *ClassMatches) Resolve(source, dest mapping.ClassEntry) (*ClassMatches, error) {
	if cm.unique.ContainsKey(source) || cm.unique.ContainsValue(dest) {
		return nil, fmt.Errorf("%w: %s or %s is already uniquely matched", ErrConflict, source, dest)
	}
	foundSource, foundDest := slices.Contains(cm.unmatchedSource, source), slices.Contains(cm.unmatchedDest, dest)
	clusters := []ClassMatch{{Source: []mapping.ClassEntry{source}, Dest: []mapping.ClassEntry{dest}}}
	for _, m := range cm.ambiguous {
		if i := slices.Index(m.Source, source); i >= 0 {
			m.Source = slices.Delete(slices.Clone(m.Source), i, i+1)
			foundSource = true
		}
		if i := slices.Index(m.Dest, dest); i >= 0 {
			m.Dest = slices.Delete(slices.Clone(m.Dest), i, i+1)
			foundDest = true
		}
		clusters = append(clusters, m)
	}
	if !foundSource {
		return nil, fmt.Errorf("%w: source %s", ErrUnknownClass, source)
	}
	if !foundDest {
		return nil, fmt.Errorf("%w: destination %s", ErrUnknownClass, dest)
	}
	out := newClassMatches(cm.unique.Clone())
	for _, m := range clusters {
		if err := out.add(m); err != nil {
			return nil, err
		}
	}
	for _, s := range cm.unmatchedSource {
		if s != source {
			out.unmatchedSource = append(out.unmatchedSource, s)
		}
	}
	for _, d := range cm.unmatchedDest {
		if d != dest {
			out.unmatchedDest = append(out.unmatchedDest, d)
		}
	}
	out.sort()
	return out, nil
}

// Counts summarises the set.
func (cm *ClassMatches) Counts() MatchCounts {
	return MatchCounts{
		Unique:          cm.unique.Len(),
		Ambiguous:       len(cm.ambiguous),
		UnmatchedSource: len(cm.unmatchedSource),
		UnmatchedDest:   len(cm.unmatchedDest),
	}
}

type MatchCounts struct {
	Unique          int
	Ambiguous       int
	UnmatchedSource int
	UnmatchedDest   int
}
