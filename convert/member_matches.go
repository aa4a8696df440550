package convert

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dhamidi/mapport/mapping"
)

// MemberEntry is satisfied by mapping.FieldEntry and mapping.MethodEntry.
type MemberEntry interface {
	comparable
	ClassEntry() mapping.ClassEntry
	MemberName() string
	Descriptor() string
	String() string
}

func compareMembers[T MemberEntry](a, b T) int { return strings.Compare(a.String(), b.String()) }

// MemberMatches tracks member correspondences between two builds. A source
// member is in exactly one of: matched, unmatched, unmatchable.
type MemberMatches[T MemberEntry] struct {
	matches         *BiMap[T, T]
	unmatchedSource map[mapping.ClassEntry]map[T]bool
	unmatchedDest   map[mapping.ClassEntry]map[T]bool
	unmatchable     map[T]bool
}

func NewMemberMatches[T MemberEntry]() *MemberMatches[T] {
	return &MemberMatches[T]{
		matches:         NewBiMap[T, T](),
		unmatchedSource: map[mapping.ClassEntry]map[T]bool{},
		unmatchedDest:   map[mapping.ClassEntry]map[T]bool{},
		unmatchable:     map[T]bool{},
	}
}

func addByClass[T MemberEntry](into map[mapping.ClassEntry]map[T]bool, entry T) {
	set, ok := into[entry.ClassEntry()]
	if !ok {
		set = map[T]bool{}
		into[entry.ClassEntry()] = set
	}
	set[entry] = true
}

func removeByClass[T MemberEntry](from map[mapping.ClassEntry]map[T]bool, entry T) bool {
	set := from[entry.ClassEntry()]
	if !set[entry] {
		return false
	}
	delete(set, entry)
	if len(set) == 0 {
		delete(from, entry.ClassEntry())
	}
	return true
}

func containsByClass[T MemberEntry](in map[mapping.ClassEntry]map[T]bool, entry T) bool {
	return in[entry.ClassEntry()][entry]
}

func (mm *MemberMatches[T]) AddUnmatchedSource(source T) error {
	if mm.matches.ContainsKey(source) || mm.unmatchable[source] {
		return fmt.Errorf("%w: source %s is already classified", ErrConflict, source)
	}
	addByClass(mm.unmatchedSource, source)
	return nil
}

func (mm *MemberMatches[T]) AddUnmatchedDest(dest T) error {
	if mm.matches.ContainsValue(dest) {
		return fmt.Errorf("%w: destination %s is already matched", ErrConflict, dest)
	}
	addByClass(mm.unmatchedDest, dest)
	return nil
}

// AddMatch records source <-> dest, taking both out of the unmatched sets.
func (mm *MemberMatches[T]) AddMatch(source, dest T) error {
	if mm.unmatchable[source] {
		return fmt.Errorf("%w: source %s is unmatchable", ErrConflict, source)
	}
	if err := mm.matches.Put(source, dest); err != nil {
		return err
	}
	removeByClass(mm.unmatchedSource, source)
	removeByClass(mm.unmatchedDest, dest)
	return nil
}

// MakeUnmatchable gives up on source. It is terminal.
func (mm *MemberMatches[T]) MakeUnmatchable(source T) error {
	if mm.matches.ContainsKey(source) {
		return fmt.Errorf("%w: source %s is matched", ErrConflict, source)
	}
	removeByClass(mm.unmatchedSource, source)
	mm.unmatchable[source] = true
	return nil
}

func (mm *MemberMatches[T]) Match(source T) (T, bool) { return mm.matches.Get(source) }

func (mm *MemberMatches[T]) IsMatchedDest(dest T) bool { return mm.matches.ContainsValue(dest) }

func (mm *MemberMatches[T]) IsUnmatchable(source T) bool { return mm.unmatchable[source] }

func (mm *MemberMatches[T]) IsUnmatchedSource(source T) bool {
	return containsByClass(mm.unmatchedSource, source)
}

func (mm *MemberMatches[T]) IsUnmatchedDest(dest T) bool {
	return containsByClass(mm.unmatchedDest, dest)
}

// Matches returns the matched pairs ordered by source.
func (mm *MemberMatches[T]) Matches() []MemberPair[T] {
	sources := slices.SortedFunc(maps.Keys(mm.matches.forward), compareMembers[T])
	out := make([]MemberPair[T], len(sources))
	for i, s := range sources {
		out[i] = MemberPair[T]{Source: s, Dest: mm.matches.forward[s]}
	}
	return out
}

func (mm *MemberMatches[T]) UnmatchedSource() []T { return flatten(mm.unmatchedSource) }

func (mm *MemberMatches[T]) UnmatchedDest() []T { return flatten(mm.unmatchedDest) }

// UnmatchedDestOf returns the unmatched destination members of class.
func (mm *MemberMatches[T]) UnmatchedDestOf(class mapping.ClassEntry) []T {
	return slices.SortedFunc(maps.Keys(mm.unmatchedDest[class]), compareMembers[T])
}

func (mm *MemberMatches[T]) Unmatchable() []T {
	return slices.SortedFunc(maps.Keys(mm.unmatchable), compareMembers[T])
}

func (mm *MemberMatches[T]) Counts() MemberCounts {
	return MemberCounts{
		Matched:         mm.matches.Len(),
		UnmatchedSource: len(mm.UnmatchedSource()),
		UnmatchedDest:   len(mm.UnmatchedDest()),
		Unmatchable:     len(mm.unmatchable),
	}
}

type MemberCounts struct {
	Matched         int
	UnmatchedSource int
	UnmatchedDest   int
	Unmatchable     int
}

func flatten[T MemberEntry](by map[mapping.ClassEntry]map[T]bool) []T {
	var out []T
	for _, set := range by {
		for e := range set {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, compareMembers[T])
	return out
}

// MemberPair is one matched member.
type MemberPair[T MemberEntry] struct {
	Source T
	Dest   T
}
