package convert

import (
	"fmt"
	"slices"

	"github.com/dhamidi/mapport/mapping"
)

// Namer gives a class its build-independent name, if it has one yet.
type Namer = func(mapping.ClassEntry) (string, bool)

// Build is one side of a class matching run.
type Build interface {
	// Classes returns the class universe of the build.
	Classes() []mapping.ClassEntry
	// Identify computes the structural identity of class. Classes of the
	// build are named through namer; useReferences adds the classes it
	// references and is referenced by.
	Identify(class mapping.ClassEntry, namer Namer, useReferences bool) (string, error)
}

type Phase int

const (
	PhaseStructure Phase = iota
	PhaseReferences
)

func (p Phase) String() string {
	if p == PhaseReferences {
		return "references"
	}
	return "structure"
}

// RoundReport describes one matching round.
type RoundReport struct {
	Round    int
	Phase    Phase
	Counts   MatchCounts
	Accepted bool
}

type MatchOptions struct {
	// Known holds confirmed source -> destination matches. They are kept
	// as unique matches and never re-examined.
	Known *BiMap[mapping.ClassEntry, mapping.ClassEntry]
	// Observer, if set, is called after every round.
	Observer func(RoundReport)
}

// ComputeClassMatches matches the classes of source against dest by
// structural identity. Matching runs to a fixed point without references,
// then again with references. Each accepted round lets newly matched classes
// name each other, so identities of their neighbours become comparable.
func ComputeClassMatches(source, dest Build, opts MatchOptions) (*ClassMatches, error) {
	unique := NewBiMap[mapping.ClassEntry, mapping.ClassEntry]()
	if opts.Known != nil {
		unique = opts.Known.Clone()
	}
	srcCandidates, err := candidates(source.Classes(), unique.ContainsKey)
	if err != nil {
		return nil, err
	}
	dstCandidates, err := candidates(dest.Classes(), unique.ContainsValue)
	if err != nil {
		return nil, err
	}
	if err := checkKnown(unique, source.Classes(), dest.Classes()); err != nil {
		return nil, err
	}

	var last *ClassMatches
	round := 0
	for _, phase := range []Phase{PhaseStructure, PhaseReferences} {
		for {
			round++
			srcNamer, dstNamer := newNamers(unique)
			result, err := matchRound(source, dest, srcCandidates, dstCandidates, srcNamer, dstNamer, phase == PhaseReferences, unique)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", round, err)
			}
			accepted := result.unique.Len() > unique.Len()
			if opts.Observer != nil {
				opts.Observer(RoundReport{Round: round, Phase: phase, Counts: result.Counts(), Accepted: accepted})
			}
			if last == nil {
				last = result
			}
			if !accepted {
				break
			}
			last = result
			unique = result.unique.Clone()
			srcCandidates, dstCandidates = slices.Clone(result.unmatchedSource), slices.Clone(result.unmatchedDest)
			for _, m := range result.ambiguous {
				srcCandidates = append(srcCandidates, m.Source...)
				dstCandidates = append(dstCandidates, m.Dest...)
			}
		}
	}
	return last, nil
}

func candidates(universe []mapping.ClassEntry, known func(mapping.ClassEntry) bool) ([]mapping.ClassEntry, error) {
	out := make([]mapping.ClassEntry, 0, len(universe))
	seen := make(map[mapping.ClassEntry]bool, len(universe))
	for _, c := range universe {
		if seen[c] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrConflict, c)
		}
		seen[c] = true
		if !known(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func checkKnown(known *BiMap[mapping.ClassEntry, mapping.ClassEntry], source, dest []mapping.ClassEntry) error {
	inSource, inDest := entrySet(source), entrySet(dest)
	for s, d := range known.forward {
		if !inSource[s] {
			return fmt.Errorf("%w: confirmed source %s", ErrUnknownClass, s)
		}
		if !inDest[d] {
			return fmt.Errorf("%w: confirmed destination %s", ErrUnknownClass, d)
		}
	}
	return nil
}

func entrySet(entries []mapping.ClassEntry) map[mapping.ClassEntry]bool {
	set := make(map[mapping.ClassEntry]bool, len(entries))
	for _, e := range entries {
		set[e] = true
	}
	return set
}

// matchRound groups the candidates of both sides by identity. Matches in
// known are carried into the result unchanged.
func matchRound(source, dest Build, srcCandidates, dstCandidates []mapping.ClassEntry, srcNamer, dstNamer Namer, useReferences bool, known *BiMap[mapping.ClassEntry, mapping.ClassEntry]) (*ClassMatches, error) {
	groups := map[string]*ClassMatch{}
	var order []string
	group := func(id string) *ClassMatch {
		g, ok := groups[id]
		if !ok {
			g = &ClassMatch{}
			groups[id] = g
			order = append(order, id)
		}
		return g
	}
	for _, c := range srcCandidates {
		id, err := source.Identify(c, srcNamer, useReferences)
		if err != nil {
			return nil, fmt.Errorf("identify source %s: %w", c, err)
		}
		g := group(id)
		g.Source = append(g.Source, c)
	}
	for _, c := range dstCandidates {
		id, err := dest.Identify(c, dstNamer, useReferences)
		if err != nil {
			return nil, fmt.Errorf("identify destination %s: %w", c, err)
		}
		g := group(id)
		g.Dest = append(g.Dest, c)
	}

	result := newClassMatches(known.Clone())
	for _, id := range order {
		if err := result.add(*groups[id]); err != nil {
			return nil, err
		}
	}
	result.sort()
	return result, nil
}

// newNamers gives both classes of every unique match the same synthetic
// name. Names are handed out in source-name order.
func newNamers(unique *BiMap[mapping.ClassEntry, mapping.ClassEntry]) (Namer, Namer) {
	sources := make([]mapping.ClassEntry, 0, unique.Len())
	for s := range unique.forward {
		sources = append(sources, s)
	}
	slices.SortFunc(sources, compareEntries)

	srcNames := make(map[mapping.ClassEntry]string, len(sources))
	dstNames := make(map[mapping.ClassEntry]string, len(sources))
	for i, s := range sources {
		name := fmt.Sprintf("M%04d", i+1)
		srcNames[s] = name
		dstNames[unique.forward[s]] = name
	}
	return lookup(srcNames), lookup(dstNames)
}

func lookup(names map[mapping.ClassEntry]string) Namer {
	return func(c mapping.ClassEntry) (string, bool) {
		n, ok := names[c]
		return n, ok
	}
}
