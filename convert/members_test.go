package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/mapport/mapping"
)

type fakeMembers struct {
	fields  map[mapping.ClassEntry][]mapping.FieldEntry
	methods map[mapping.ClassEntry][]mapping.MethodEntry
}

func (u fakeMembers) Classes() []mapping.ClassEntry {
	var out []mapping.ClassEntry
	seen := map[mapping.ClassEntry]bool{}
	for c := range u.fields {
		seen[c] = true
	}
	for c := range u.methods {
		seen[c] = true
	}
	for c := range seen {
		out = append(out, c)
	}
	return out
}

func (u fakeMembers) ContainsClass(c mapping.ClassEntry) bool {
	_, f := u.fields[c]
	_, m := u.methods[c]
	return f || m
}

func (u fakeMembers) ContainsField(e mapping.FieldEntry) bool {
	for _, f := range u.fields[e.Class] {
		if f == e {
			return true
		}
	}
	return false
}

func (u fakeMembers) ContainsMethod(e mapping.MethodEntry) bool {
	for _, m := range u.methods[e.Class] {
		if m == e {
			return true
		}
	}
	return false
}

func (u fakeMembers) Fields(c mapping.ClassEntry) []mapping.FieldEntry   { return u.fields[c] }
func (u fakeMembers) Methods(c mapping.ClassEntry) []mapping.MethodEntry { return u.methods[c] }

func field(class, name, typ string) mapping.FieldEntry {
	return mapping.FieldEntry{Class: mapping.NewClassEntry(class), Name: name, Type: mapping.Type(typ)}
}

func method(class, name, sig string) mapping.MethodEntry {
	return mapping.MethodEntry{Class: mapping.NewClassEntry(class), Name: name, Signature: mapping.Signature(sig)}
}

// newMigratedFields returns the tree migrated from a to c with fields
//
//	a I size       -> renamed to x in the new build
//	b La; owner    -> unchanged
//	z Z flag       -> gone
//	d J total      -> two candidates
func newMigratedFields(t *testing.T) (*mapping.Mappings, *ClassMatches, fakeMembers) {
	t.Helper()

	cm := uniqueMatches(t, map[string]string{"a": "c"})
	old := mapping.New()
	require.NoError(t, old.SetClassName(mapping.NewClassEntry("a"), "com/example/Widget"))
	a := old.ClassByObf(mapping.NewClassEntry("a"))
	require.NoError(t, a.SetFieldName("a", "I", "size"))
	require.NoError(t, a.SetFieldName("b", "La;", "owner"))
	require.NoError(t, a.SetFieldName("z", "Z", "flag"))
	require.NoError(t, a.SetFieldName("d", "J", "total"))

	tree, _, err := MigrateMappings(cm, old, chainByName{})
	require.NoError(t, err)

	c := mapping.NewClassEntry("c")
	u := fakeMembers{
		fields: map[mapping.ClassEntry][]mapping.FieldEntry{
			c: {field("c", "x", "I"), field("c", "b", "Lc;"), field("c", "y", "J"), field("c", "w", "J")},
		},
		methods: map[mapping.ClassEntry][]mapping.MethodEntry{},
	}
	return tree, cm, u
}

func TestComputeMemberMatches(t *testing.T) {
	t.Parallel()

	tree, cm, u := newMigratedFields(t)
	before := tree.Clone()

	mm, err := ComputeMemberMatches(u, tree, cm, Fields)
	require.NoError(t, err)

	assert.Equal(t, []MemberPair[mapping.FieldEntry]{
		{Source: field("a", "a", "I"), Dest: field("c", "x", "I")},
		{Source: field("a", "b", "La;"), Dest: field("c", "b", "Lc;")},
	}, mm.Matches())
	assert.Equal(t, []mapping.FieldEntry{field("a", "z", "Z")}, mm.Unmatchable())
	assert.Equal(t, []mapping.FieldEntry{field("a", "d", "J")}, mm.UnmatchedSource())
	assert.Equal(t, []mapping.FieldEntry{field("c", "w", "J"), field("c", "y", "J")}, mm.UnmatchedDest())

	t.Run("tree is not modified", func(t *testing.T) {
		assert.Equal(t, len(before.ClassByObf(mapping.NewClassEntry("c")).Fields()),
			len(tree.ClassByObf(mapping.NewClassEntry("c")).Fields()))
	})

	t.Run("deterministic", func(t *testing.T) {
		again, err := ComputeMemberMatches(u, tree, cm, Fields)
		require.NoError(t, err)
		assert.Equal(t, mm.Matches(), again.Matches())
		assert.Equal(t, mm.Unmatchable(), again.Unmatchable())
	})

	t.Run("apply", func(t *testing.T) {
		report, err := ApplyMemberMatches(tree, cm, mm, Fields)
		require.NoError(t, err)

		c := tree.ClassByObf(mapping.NewClassEntry("c"))
		assert.Nil(t, c.FieldByObf("a", "I"))
		require.NotNil(t, c.FieldByObf("x", "I"))
		assert.Equal(t, "size", c.FieldByObf("x", "I").DeobfName())
		assert.Nil(t, c.FieldByObf("z", "Z"))
		assert.NotNil(t, c.FieldByObf("d", "J"), "ambiguous members stay")

		assert.Equal(t, 1, report.Rekeyed)
		assert.Equal(t, []mapping.FieldEntry{field("c", "z", "Z")}, report.Removed)
		assert.Empty(t, report.Leftover)
		assert.True(t, tree.Consistent())
	})
}

func TestApplyMemberMatchesSwapsNames(t *testing.T) {
	t.Parallel()

	cm := uniqueMatches(t, map[string]string{"a": "c"})
	tree := mapping.New()
	require.NoError(t, tree.SetClassName(mapping.NewClassEntry("c"), "com/example/Widget"))
	c := tree.ClassByObf(mapping.NewClassEntry("c"))
	require.NoError(t, c.SetMethodName("a", "()V", "open"))
	require.NoError(t, c.SetMethodName("b", "()V", "close"))
	require.NoError(t, c.SetMethodName("e", "()I", "count"))

	mm := NewMemberMatches[mapping.MethodEntry]()
	require.NoError(t, mm.AddMatch(method("a", "a", "()V"), method("c", "b", "()V")))
	require.NoError(t, mm.AddMatch(method("a", "b", "()V"), method("c", "a", "()V")))
	require.NoError(t, mm.AddMatch(method("a", "e", "()I"), method("c", "f", "()I")))

	report, err := ApplyMemberMatches(tree, cm, mm, Methods)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rekeyed)
	assert.Empty(t, report.Leftover)
	assert.Equal(t, "open", c.MethodByObf("b", "()V").DeobfName())
	assert.Equal(t, "close", c.MethodByObf("a", "()V").DeobfName())
	assert.Equal(t, "count", c.MethodByObf("f", "()I").DeobfName())
	assert.Len(t, c.Methods(), 3)
	assert.True(t, tree.Consistent())
}

func TestApplyMemberMatchesReportsCollisions(t *testing.T) {
	t.Parallel()

	cm := uniqueMatches(t, map[string]string{"a": "c"})
	tree := mapping.New()
	require.NoError(t, tree.SetClassName(mapping.NewClassEntry("c"), "com/example/Widget"))
	c := tree.ClassByObf(mapping.NewClassEntry("c"))
	require.NoError(t, c.SetFieldName("a", "I", "first"))
	require.NoError(t, c.SetFieldName("b", "I", "second"))

	// b keeps its name, so a has nowhere to go
	mm := NewMemberMatches[mapping.FieldEntry]()
	require.NoError(t, mm.AddMatch(field("a", "a", "I"), field("c", "b", "I")))

	report, err := ApplyMemberMatches(tree, cm, mm, Fields)
	require.NoError(t, err)

	assert.Zero(t, report.Rekeyed)
	assert.Equal(t, []MemberPair[mapping.FieldEntry]{{Source: field("c", "a", "I"), Dest: field("c", "b", "I")}}, report.Leftover)
	assert.Equal(t, "first", c.FieldByObf("a", "I").DeobfName())
	assert.Equal(t, "second", c.FieldByObf("b", "I").DeobfName())
	assert.True(t, tree.Consistent())
}

func TestChainedRekeysResolveInLaterPasses(t *testing.T) {
	t.Parallel()

	cm := uniqueMatches(t, map[string]string{"a": "c"})
	tree := mapping.New()
	_, err := tree.GetOrCreateClass(mapping.NewClassEntry("c"))
	require.NoError(t, err)
	c := tree.ClassByObf(mapping.NewClassEntry("c"))
	require.NoError(t, c.SetFieldName("a", "I", "first"))
	require.NoError(t, c.SetFieldName("b", "I", "second"))

	// a -> b must wait until b -> c has moved out of the way
	mm := NewMemberMatches[mapping.FieldEntry]()
	require.NoError(t, mm.AddMatch(field("a", "a", "I"), field("c", "b", "I")))
	require.NoError(t, mm.AddMatch(field("a", "b", "I"), field("c", "c", "I")))

	report, err := ApplyMemberMatches(tree, cm, mm, Fields)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Rekeyed)
	assert.Empty(t, report.Leftover)
	assert.Equal(t, "first", c.FieldByObf("b", "I").DeobfName())
	assert.Equal(t, "second", c.FieldByObf("c", "I").DeobfName())
}

func TestMemberMatchesKeepStatesDisjoint(t *testing.T) {
	t.Parallel()

	mm := NewMemberMatches[mapping.FieldEntry]()
	s := field("a", "a", "I")
	require.NoError(t, mm.AddUnmatchedSource(s))
	require.NoError(t, mm.MakeUnmatchable(s))
	assert.False(t, mm.IsUnmatchedSource(s))
	require.ErrorIs(t, mm.AddMatch(s, field("c", "a", "I")), ErrConflict)
	require.ErrorIs(t, mm.AddUnmatchedSource(s), ErrConflict)
}
