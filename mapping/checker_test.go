package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUniverse struct {
	classes map[string]bool
	fields  map[FieldEntry]bool
	methods map[MethodEntry]bool
}

func (u testUniverse) ContainsClass(c ClassEntry) bool   { return u.classes[c.Name] }
func (u testUniverse) ContainsField(f FieldEntry) bool   { return u.fields[f] }
func (u testUniverse) ContainsMethod(m MethodEntry) bool { return u.methods[m] }

func TestCheckerDropsBrokenMappings(t *testing.T) {
	t.Parallel()

	m := newTestMappings(t)
	a := NewClassEntry("a")
	u := testUniverse{
		classes: map[string]bool{"a": true},
		fields:  map[FieldEntry]bool{},
		methods: map[MethodEntry]bool{{Class: a, Name: "a", Signature: "(La;)V"}: true},
	}

	ch := NewChecker(u)
	require.NoError(t, ch.DropBrokenMappings(m))

	assert.Contains(t, ch.DroppedClasses, NewClassEntry("c"))
	assert.Contains(t, ch.DroppedInnerClasses, NewClassEntry("a$b"))
	assert.Contains(t, ch.DroppedFields, FieldEntry{Class: a, Name: "a", Type: "La$b;"})
	assert.Empty(t, ch.DroppedMethods)
	assert.Equal(t, 3, ch.Dropped())

	assert.Nil(t, m.ClassByObf(NewClassEntry("c")))
	assert.Nil(t, m.ClassByObf(NewClassEntry("a$b")))
	assert.NotNil(t, m.ClassByObf(a).MethodByObf("a", "(La;)V"))
	assert.True(t, m.Consistent())
}
