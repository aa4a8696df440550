package convert

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/mapport/mapping"
)

// fakeClass is a class whose identity is its shape, its super class and,
// with references, the classes it references.
type fakeClass struct {
	shape string
	super string
	refs  []string
}

type fakeBuild map[string]fakeClass

func (b fakeBuild) Classes() []mapping.ClassEntry {
	var out []mapping.ClassEntry
	for name := range b {
		out = append(out, mapping.NewClassEntry(name))
	}
	slices.SortFunc(out, compareEntries)
	return out
}

func (b fakeBuild) Identify(c mapping.ClassEntry, namer Namer, useReferences bool) (string, error) {
	class, ok := b[c.Name]
	if !ok {
		return "", ErrUnknownClass
	}
	scrub := func(name string) string {
		if name == "" {
			return ""
		}
		if n, ok := namer(mapping.NewClassEntry(name)); ok {
			return n
		}
		return "?"
	}
	id := class.shape + "|super=" + scrub(class.super)
	if useReferences {
		refs := make([]string, len(class.refs))
		for i, r := range class.refs {
			refs[i] = scrub(r)
		}
		slices.Sort(refs)
		id += "|refs=" + strings.Join(refs, ",")
	}
	return id, nil
}

func entries(names ...string) []mapping.ClassEntry {
	return classEntries(names)
}

func TestSingleClassUniverses(t *testing.T) {
	t.Parallel()

	var rounds []RoundReport
	cm, err := ComputeClassMatches(
		fakeBuild{"a": {shape: "S"}},
		fakeBuild{"b": {shape: "S"}},
		MatchOptions{Observer: func(r RoundReport) { rounds = append(rounds, r) }},
	)
	require.NoError(t, err)

	dest, ok := cm.Dest(mapping.NewClassEntry("a"))
	require.True(t, ok)
	assert.Equal(t, "b", dest.Name)
	assert.Equal(t, MatchCounts{Unique: 1}, cm.Counts())

	require.NotEmpty(t, rounds)
	assert.Equal(t, RoundReport{Round: 1, Phase: PhaseStructure, Counts: MatchCounts{Unique: 1}, Accepted: true}, rounds[0])
}

// newLayeredBuilds returns builds where b/c and y/z are told apart only
// once their super classes are matched, and e/f and u/v only by references.
func newLayeredBuilds() (fakeBuild, fakeBuild) {
	source := fakeBuild{
		"a": {shape: "S"},
		"d": {shape: "U"},
		"b": {shape: "T", super: "a"},
		"c": {shape: "T", super: "d"},
		"e": {shape: "V", refs: []string{"a"}},
		"f": {shape: "V", refs: []string{"d"}},
		"g": {shape: "W"},
	}
	dest := fakeBuild{
		"x": {shape: "S"},
		"w": {shape: "U"},
		"y": {shape: "T", super: "x"},
		"z": {shape: "T", super: "w"},
		"u": {shape: "V", refs: []string{"x"}},
		"v": {shape: "V", refs: []string{"w"}},
		"k": {shape: "K"},
	}
	return source, dest
}

func TestFixedPointUsesNamesOfMatchedClasses(t *testing.T) {
	t.Parallel()

	source, dest := newLayeredBuilds()
	var rounds []RoundReport
	cm, err := ComputeClassMatches(source, dest, MatchOptions{Observer: func(r RoundReport) { rounds = append(rounds, r) }})
	require.NoError(t, err)

	want := map[string]string{"a": "x", "d": "w", "b": "y", "c": "z", "e": "u", "f": "v"}
	for s, d := range want {
		got, ok := cm.Dest(mapping.NewClassEntry(s))
		require.True(t, ok, s)
		assert.Equal(t, d, got.Name, s)
	}
	assert.Empty(t, cm.Ambiguous())
	assert.Equal(t, entries("g"), cm.UnmatchedSource())
	assert.Equal(t, entries("k"), cm.UnmatchedDest())

	t.Run("monotonic", func(t *testing.T) {
		prev := 0
		for _, r := range rounds {
			assert.GreaterOrEqual(t, r.Counts.Unique, prev, "round %d", r.Round)
			if r.Accepted {
				assert.Greater(t, r.Counts.Unique, prev, "round %d", r.Round)
			}
			prev = max(prev, r.Counts.Unique)
		}
	})

	t.Run("references resolve the rest", func(t *testing.T) {
		var sawReferences bool
		for _, r := range rounds {
			if r.Phase == PhaseReferences && r.Accepted {
				sawReferences = true
			}
		}
		assert.True(t, sawReferences)
	})
}

func TestMatchingIsIdempotent(t *testing.T) {
	t.Parallel()

	source, dest := newLayeredBuilds()
	first, err := ComputeClassMatches(source, dest, MatchOptions{})
	require.NoError(t, err)
	second, err := ComputeClassMatches(source, dest, MatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Clusters(), second.Clusters())
}

func TestAmbiguityIsReported(t *testing.T) {
	t.Parallel()

	cm, err := ComputeClassMatches(
		fakeBuild{"a": {shape: "S"}, "b": {shape: "S"}, "c": {shape: "C"}},
		fakeBuild{"x": {shape: "S"}, "y": {shape: "S"}, "z": {shape: "C"}},
		MatchOptions{},
	)
	require.NoError(t, err)

	assert.Equal(t, []ClassMatch{{Source: entries("a", "b"), Dest: entries("x", "y")}}, cm.Ambiguous())
	assert.Equal(t, 1, cm.Counts().Unique)

	t.Run("resolve returns a fresh set", func(t *testing.T) {
		resolved, err := cm.Resolve(mapping.NewClassEntry("a"), mapping.NewClassEntry("y"))
		require.NoError(t, err)

		assert.Equal(t, 3, resolved.Counts().Unique)
		d, _ := resolved.Dest(mapping.NewClassEntry("b"))
		assert.Equal(t, "x", d.Name)
		assert.Len(t, cm.Ambiguous(), 1)
	})

	t.Run("resolve rejects unique classes", func(t *testing.T) {
		_, err := cm.Resolve(mapping.NewClassEntry("c"), mapping.NewClassEntry("x"))
		require.ErrorIs(t, err, ErrConflict)
	})
}

func TestKnownMatchesAreKept(t *testing.T) {
	t.Parallel()

	known := NewBiMap[mapping.ClassEntry, mapping.ClassEntry]()
	require.NoError(t, known.Put(mapping.NewClassEntry("a"), mapping.NewClassEntry("y")))

	cm, err := ComputeClassMatches(
		fakeBuild{"a": {shape: "S"}, "b": {shape: "T"}},
		fakeBuild{"x": {shape: "S"}, "y": {shape: "T"}},
		MatchOptions{Known: known},
	)
	require.NoError(t, err)

	d, ok := cm.Dest(mapping.NewClassEntry("a"))
	require.True(t, ok)
	assert.Equal(t, "y", d.Name)
	assert.Equal(t, entries("b"), cm.UnmatchedSource())
	assert.Equal(t, entries("x"), cm.UnmatchedDest())

	t.Run("unknown classes are rejected", func(t *testing.T) {
		bad := NewBiMap[mapping.ClassEntry, mapping.ClassEntry]()
		require.NoError(t, bad.Put(mapping.NewClassEntry("q"), mapping.NewClassEntry("y")))
		_, err := ComputeClassMatches(fakeBuild{"a": {}}, fakeBuild{"y": {}}, MatchOptions{Known: bad})
		require.ErrorIs(t, err, ErrUnknownClass)
	})
}

type failingBuild struct{ fakeBuild }

var errIdentity = errors.New("identity failed")

func (failingBuild) Identify(mapping.ClassEntry, Namer, bool) (string, error) {
	return "", errIdentity
}

func TestIdentityErrorsAbort(t *testing.T) {
	t.Parallel()

	_, err := ComputeClassMatches(failingBuild{fakeBuild{"a": {}}}, fakeBuild{"b": {}}, MatchOptions{})
	require.ErrorIs(t, err, errIdentity)
}

func TestBiMapRejectsConflicts(t *testing.T) {
	t.Parallel()

	b := NewBiMap[string, string]()
	require.NoError(t, b.Put("a", "x"))
	require.NoError(t, b.Put("a", "x"))
	require.ErrorIs(t, b.Put("a", "y"), ErrConflict)
	require.ErrorIs(t, b.Put("b", "x"), ErrConflict)

	inv := b.Inverse()
	k, ok := inv.Get("x")
	require.True(t, ok)
	assert.Equal(t, "a", k)
}

func TestNewClassMatchesRejectsRepeats(t *testing.T) {
	t.Parallel()

	_, err := NewClassMatches([]ClassMatch{
		{Source: entries("a"), Dest: entries("x")},
		{Source: entries("a"), Dest: entries("y")},
	})
	require.ErrorIs(t, err, ErrConflict)
}
