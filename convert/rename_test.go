package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/mapport/mapping"
)

func renames(t *testing.T, pairs ...string) *BiMap[mapping.ClassEntry, mapping.ClassEntry] {
	t.Helper()

	b := NewBiMap[mapping.ClassEntry, mapping.ClassEntry]()
	for i := 0; i < len(pairs); i += 2 {
		require.NoError(t, b.Put(mapping.NewClassEntry(pairs[i]), mapping.NewClassEntry(pairs[i+1])))
	}
	return b
}

func TestOrderRenamesAppliesChainsFromTheEnd(t *testing.T) {
	t.Parallel()

	ordered, err := OrderRenames(renames(t, "a", "b", "b", "c", "c", "d", "x", "x"))
	require.NoError(t, err)

	assert.Equal(t, []Rename{
		{Old: mapping.NewClassEntry("c"), New: mapping.NewClassEntry("d")},
		{Old: mapping.NewClassEntry("b"), New: mapping.NewClassEntry("c")},
		{Old: mapping.NewClassEntry("a"), New: mapping.NewClassEntry("b")},
	}, ordered)
}

func TestOrderRenamesDetectsCycles(t *testing.T) {
	t.Parallel()

	_, err := OrderRenames(renames(t, "a", "b", "b", "a"))
	require.ErrorIs(t, err, ErrRenameCycle)
}

func TestOrderRenamesWaitsForOuterClasses(t *testing.T) {
	t.Parallel()

	t.Run("outer class still to be vacated", func(t *testing.T) {
		ordered, err := OrderRenames(renames(t, "a", "b$x", "b", "c"))
		require.NoError(t, err)
		assert.Equal(t, []Rename{
			{Old: mapping.NewClassEntry("b"), New: mapping.NewClassEntry("c")},
			{Old: mapping.NewClassEntry("a"), New: mapping.NewClassEntry("b$x")},
		}, ordered)
	})

	t.Run("outer class still to be filled", func(t *testing.T) {
		ordered, err := OrderRenames(renames(t, "a", "b", "a$x", "a$y", "c", "a"))
		require.NoError(t, err)
		assert.Equal(t, []Rename{
			{Old: mapping.NewClassEntry("a"), New: mapping.NewClassEntry("b")},
			{Old: mapping.NewClassEntry("c"), New: mapping.NewClassEntry("a")},
			{Old: mapping.NewClassEntry("b$x"), New: mapping.NewClassEntry("a$y")},
		}, ordered)
	})

	t.Run("blocked both ways", func(t *testing.T) {
		_, err := OrderRenames(renames(t, "a", "c", "c", "a$y"))
		require.ErrorIs(t, err, ErrRenameCycle)
	})
}

func newRenameMappings(t *testing.T) *mapping.Mappings {
	t.Helper()

	m := mapping.New()
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("a"), "com/example/Widget"))
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("a$i"), "Part"))
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("b"), "com/example/Gadget"))
	a := m.ClassByObf(mapping.NewClassEntry("a"))
	require.NoError(t, a.SetFieldName("f", "Lb;", "gadget"))
	require.NoError(t, a.SetMethodName("m", "(La$i;)La;", "with"))
	return m
}

func TestConvertMappingsChain(t *testing.T) {
	t.Parallel()

	m := newRenameMappings(t)
	out, err := ConvertMappings(m, renames(t, "a", "b", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, "com/example/Widget", out.ClassByObf(mapping.NewClassEntry("b")).DeobfName())
	assert.Equal(t, "com/example/Gadget", out.ClassByObf(mapping.NewClassEntry("c")).DeobfName())
	assert.Equal(t, "Part", out.ClassByObf(mapping.NewClassEntry("b$i")).DeobfName())
	assert.Nil(t, out.ClassByObf(mapping.NewClassEntry("a")))

	b := out.ClassByObf(mapping.NewClassEntry("b"))
	assert.NotNil(t, b.FieldByObf("f", "Lc;"))
	assert.NotNil(t, b.MethodByObf("m", "(Lb$i;)Lb;"))
	assert.True(t, out.Consistent())

	// the input is left alone
	assert.Equal(t, "com/example/Widget", m.ClassByObf(mapping.NewClassEntry("a")).DeobfName())
}

func TestConvertMappingsCycleLeavesTreeUnmodified(t *testing.T) {
	t.Parallel()

	m := newRenameMappings(t)
	out, err := ConvertMappings(m, renames(t, "a", "b", "b", "a"))
	require.ErrorIs(t, err, ErrRenameCycle)
	assert.Nil(t, out)

	assert.Equal(t, "com/example/Widget", m.ClassByObf(mapping.NewClassEntry("a")).DeobfName())
	assert.NotNil(t, m.ClassByObf(mapping.NewClassEntry("a")).FieldByObf("f", "Lb;"))
}

func TestConvertMappingsMovesNestedRenames(t *testing.T) {
	t.Parallel()

	out, err := ConvertMappings(newRenameMappings(t), renames(t, "a", "x", "a$i", "x$j"))
	require.NoError(t, err)

	assert.Nil(t, out.ClassByObf(mapping.NewClassEntry("x$i")))
	assert.Equal(t, "Part", out.ClassByObf(mapping.NewClassEntry("x$j")).DeobfName())
	assert.NotNil(t, out.ClassByObf(mapping.NewClassEntry("x")).MethodByObf("m", "(Lx$j;)Lx;"))
}

func TestNameSurvivesMigrationThenRename(t *testing.T) {
	t.Parallel()

	old := mapping.New()
	require.NoError(t, old.SetClassName(mapping.NewClassEntry("Obf1"), "com/example/Stable"))

	cm, err := ComputeClassMatches(fakeBuild{"Obf1": {shape: "S"}}, fakeBuild{"Obf2": {shape: "S"}}, MatchOptions{})
	require.NoError(t, err)

	migrated, _, err := MigrateMappings(cm, old, chainByName{})
	require.NoError(t, err)
	assert.Equal(t, "com/example/Stable", migrated.ClassByObf(mapping.NewClassEntry("Obf2")).DeobfName())

	renamed, err := ConvertMappings(migrated, renames(t, "Obf2", "Obf3"))
	require.NoError(t, err)
	assert.Equal(t, "com/example/Stable", renamed.ClassByObf(mapping.NewClassEntry("Obf3")).DeobfName())
	assert.Same(t, renamed.ClassByObf(mapping.NewClassEntry("Obf3")), renamed.ClassByDeobf("com/example/Stable"))
}

func TestConvertMappingsMovesIntoRenamedOuterName(t *testing.T) {
	t.Parallel()

	m := newRenameMappings(t)
	out, err := ConvertMappings(m, renames(t, "a", "b$x", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, "com/example/Gadget", out.ClassByObf(mapping.NewClassEntry("c")).DeobfName())
	assert.Nil(t, out.ClassByObf(mapping.NewClassEntry("c$x")))
	moved := out.ClassByObf(mapping.NewClassEntry("b$x"))
	require.NotNil(t, moved)
	assert.Equal(t, "Widget", moved.DeobfName())
	assert.Equal(t, "Part", out.ClassByObf(mapping.NewClassEntry("b$x$i")).DeobfName())
	assert.NotNil(t, moved.FieldByObf("f", "Lc;"))
	assert.NotNil(t, moved.MethodByObf("m", "(Lb$x$i;)Lb$x;"))
	assert.True(t, out.Consistent())
}

func TestConvertMappingsFillsOuterClassBeforeNesting(t *testing.T) {
	t.Parallel()

	m := mapping.New()
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("a"), "com/example/Widget"))
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("a$x"), "Part"))
	require.NoError(t, m.SetClassName(mapping.NewClassEntry("c"), "com/example/Gizmo"))
	require.NoError(t, m.ClassByObf(mapping.NewClassEntry("c")).SetFieldName("p", "La$x;", "part"))

	out, err := ConvertMappings(m, renames(t, "a", "b", "a$x", "a$y", "c", "a"))
	require.NoError(t, err)

	assert.Equal(t, "com/example/Widget", out.ClassByObf(mapping.NewClassEntry("b")).DeobfName())
	assert.Nil(t, out.ClassByObf(mapping.NewClassEntry("b$x")))
	a := out.ClassByObf(mapping.NewClassEntry("a"))
	require.NotNil(t, a)
	assert.Equal(t, "com/example/Gizmo", a.DeobfName())
	assert.Equal(t, "Part", out.ClassByObf(mapping.NewClassEntry("a$y")).DeobfName())
	assert.NotNil(t, a.FieldByObf("p", "La$y;"))
	assert.True(t, out.Consistent())
}

func TestConvertMappingsFailureLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	m := newRenameMappings(t)
	// a -> x carries a$i to x$i, which b -> x$i then collides with
	out, err := ConvertMappings(m, renames(t, "a", "x", "b", "x$i"))
	require.ErrorIs(t, err, mapping.ErrDuplicateObf)
	assert.Nil(t, out)

	assert.Equal(t, "com/example/Widget", m.ClassByObf(mapping.NewClassEntry("a")).DeobfName())
	assert.Equal(t, "com/example/Gadget", m.ClassByObf(mapping.NewClassEntry("b")).DeobfName())
	assert.NotNil(t, m.ClassByObf(mapping.NewClassEntry("a")).FieldByObf("f", "Lb;"))
	assert.Nil(t, m.ClassByObf(mapping.NewClassEntry("x")))
	assert.True(t, m.Consistent())
}
