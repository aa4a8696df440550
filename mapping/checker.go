package mapping

// Universe answers which obfuscated symbols exist in one build.
type Universe interface {
	ContainsClass(ClassEntry) bool
	ContainsField(FieldEntry) bool
	ContainsMethod(MethodEntry) bool
}

// Checker removes mappings that name symbols missing from a build and keeps
// what it removed, per category.
type Checker struct {
	universe Universe

	DroppedClasses      map[ClassEntry]*ClassMapping
	DroppedInnerClasses map[ClassEntry]*ClassMapping
	DroppedFields       map[FieldEntry]*FieldMapping
	DroppedMethods      map[MethodEntry]*MethodMapping
}

func NewChecker(universe Universe) *Checker {
	return &Checker{
		universe:            universe,
		DroppedClasses:      map[ClassEntry]*ClassMapping{},
		DroppedInnerClasses: map[ClassEntry]*ClassMapping{},
		DroppedFields:       map[FieldEntry]*FieldMapping{},
		DroppedMethods:      map[MethodEntry]*MethodMapping{},
	}
}

// DropBrokenMappings removes every broken mapping from m. Members of a
// dropped class go with it and are not reported separately.
func (ch *Checker) DropBrokenMappings(m *Mappings) error {
	for _, c := range m.Classes() {
		entry := NewClassEntry(c.obfName)
		if !ch.universe.ContainsClass(entry) {
			if err := m.RemoveClass(c); err != nil {
				return err
			}
			ch.DroppedClasses[entry] = c
			continue
		}
		if err := ch.checkClass(entry, c); err != nil {
			return err
		}
	}
	return nil
}

func (ch *Checker) checkClass(entry ClassEntry, c *ClassMapping) error {
	for _, inner := range c.InnerClasses() {
		innerEntry := NewClassEntry(entry.Name + "$" + inner.obfName)
		if !ch.universe.ContainsClass(innerEntry) {
			if err := c.RemoveInnerClass(inner); err != nil {
				return err
			}
			ch.DroppedInnerClasses[innerEntry] = inner
			continue
		}
		if err := ch.checkClass(innerEntry, inner); err != nil {
			return err
		}
	}
	for _, f := range c.Fields() {
		fe := f.ObfEntry(entry)
		if ch.universe.ContainsField(fe) {
			continue
		}
		if err := c.RemoveField(f); err != nil {
			return err
		}
		ch.DroppedFields[fe] = f
	}
	for _, mm := range c.Methods() {
		me := mm.ObfEntry(entry)
		if ch.universe.ContainsMethod(me) {
			continue
		}
		if err := c.RemoveMethod(mm); err != nil {
			return err
		}
		ch.DroppedMethods[me] = mm
	}
	return nil
}

// Dropped returns the total number of removed mappings.
func (ch *Checker) Dropped() int {
	return len(ch.DroppedClasses) + len(ch.DroppedInnerClasses) + len(ch.DroppedFields) + len(ch.DroppedMethods)
}
