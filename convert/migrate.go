package convert

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dhamidi/mapport/mapping"
)

// ChainSource resolves the nesting chain of a destination class, outermost
// class first.
type ChainSource interface {
	ObfClassChain(mapping.ClassEntry) []mapping.ClassEntry
}

// MappingSource finds the mapping of a source class.
type MappingSource interface {
	ClassByObf(mapping.ClassEntry) *mapping.ClassMapping
}

// MigrationReport lists what MigrateMappings could not carry over cleanly.
type MigrationReport struct {
	Migrated int
	// Skipped holds matched source classes that had no mapping.
	Skipped []mapping.ClassEntry
	// Unresolved holds source classes referenced by a migrated type or
	// signature that have no unique match. Their names are kept as they are.
	Unresolved []string
}

// MigrateMappings rebuilds old against the destination build. Only unique
// class matches are used. Outer classes are migrated before the classes
// nested in them so that inner nodes attach to migrated parents.
func MigrateMappings(matches *ClassMatches, old MappingSource, dest ChainSource) (*mapping.Mappings, *MigrationReport, error) {
	type pair struct {
		source, dest mapping.ClassEntry
		chain        []mapping.ClassEntry
	}
	pairs := make([]pair, 0, matches.unique.Len())
	for s, d := range matches.unique.forward {
		chain := dest.ObfClassChain(d)
		if len(chain) == 0 {
			return nil, nil, fmt.Errorf("%w: no chain for destination %s", ErrUnknownClass, d)
		}
		pairs = append(pairs, pair{source: s, dest: d, chain: chain})
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		return cmp.Or(cmp.Compare(len(a.chain), len(b.chain)), compareEntries(a.dest, b.dest))
	})

	replace := matches.forwardReplacer()
	// names outside the source build, such as library classes, are not reported
	known := matches.sourceSet()
	unresolved := map[string]bool{}
	note := func(names []string) {
		for _, n := range names {
			if known[mapping.NewClassEntry(n)] {
				unresolved[n] = true
			}
		}
	}
	report := &MigrationReport{}
	tree := mapping.New()
	for _, p := range pairs {
		oldNode := old.ClassByObf(p.source)
		if oldNode == nil {
			report.Skipped = append(report.Skipped, p.source)
			continue
		}
		node, err := migrateClass(tree, oldNode, p.chain)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate %s to %s: %w", p.source, p.dest, err)
		}
		for _, f := range oldNode.Fields() {
			nf, names := f.Translated(replace)
			note(names)
			if err := node.AddField(nf); err != nil {
				return nil, nil, fmt.Errorf("migrate %s to %s: %w", p.source, p.dest, err)
			}
		}
		for _, m := range oldNode.Methods() {
			nm, names := m.Translated(replace)
			note(names)
			if err := node.AddMethod(nm); err != nil {
				return nil, nil, fmt.Errorf("migrate %s to %s: %w", p.source, p.dest, err)
			}
		}
		report.Migrated++
	}
	slices.SortFunc(report.Skipped, compareEntries)
	for name := range unresolved {
		report.Unresolved = append(report.Unresolved, name)
	}
	slices.Sort(report.Unresolved)
	return tree, report, nil
}

// migrateClass creates the node at the end of chain, creating unnamed nodes
// for enclosing classes that have not been migrated.
func migrateClass(tree *mapping.Mappings, oldNode *mapping.ClassMapping, chain []mapping.ClassEntry) (*mapping.ClassMapping, error) {
	target := chain[len(chain)-1]
	if len(chain) == 1 {
		node, err := mapping.NewClassMapping(target.Name, oldNode.DeobfName())
		if err != nil {
			return nil, err
		}
		return node, tree.AddClass(node)
	}
	parent, err := tree.GetOrCreateClass(chain[len(chain)-2])
	if err != nil {
		return nil, err
	}
	node, err := mapping.NewInnerClassMapping(target.InnerClassName(), oldNode.DeobfSimpleName())
	if err != nil {
		return nil, err
	}
	return node, parent.AddInnerClass(node)
}

func (cm *ClassMatches) forwardReplacer() mapping.ClassNameReplacer {
	return func(name string) (string, bool) {
		d, ok := cm.unique.Get(mapping.NewClassEntry(name))
		return d.Name, ok
	}
}

func (cm *ClassMatches) inverseReplacer() mapping.ClassNameReplacer {
	return func(name string) (string, bool) {
		s, ok := cm.unique.GetKey(mapping.NewClassEntry(name))
		return s.Name, ok
	}
}

// sourceSet returns every source class the set knows about.
func (cm *ClassMatches) sourceSet() map[mapping.ClassEntry]bool {
	set := make(map[mapping.ClassEntry]bool, cm.unique.Len()+len(cm.unmatchedSource))
	for s := range cm.unique.forward {
		set[s] = true
	}
	for _, s := range cm.unmatchedSource {
		set[s] = true
	}
	for _, m := range cm.ambiguous {
		for _, s := range m.Source {
			set[s] = true
		}
	}
	return set
}
