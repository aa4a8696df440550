package jarindex

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// normalizeNames assigns every class its Outer$Inner name. Nesting comes
// from the InnerClasses attribute, or EnclosingMethod for local and
// anonymous classes, and only counts when the outer class is in the jar.
func (ix *Index) normalizeNames() error {
	taken := map[string]string{}
	var resolve func(rawName string, depth int) string
	resolve = func(rawName string, depth int) string {
		if n, ok := ix.renamed[rawName]; ok {
			return n
		}
		name := rawName
		if outer := ix.outerOf(rawName); outer != "" && depth < len(ix.raw) {
			name = resolve(outer, depth+1) + "$" + innerSimpleName(rawName, outer)
		}
		if _, clash := taken[name]; clash {
			name = rawName
		}
		if _, clash := taken[name]; clash {
			return ""
		}
		taken[name] = rawName
		ix.renamed[rawName] = name
		return name
	}
	for _, rawName := range slices.Sorted(maps.Keys(ix.raw)) {
		if resolve(rawName, 0) == "" {
			return fmt.Errorf("%w: %s", ErrNameCollision, rawName)
		}
	}
	return nil
}

// outerOf returns the raw name of the class directly enclosing rawName, if
// it is part of the jar.
func (ix *Index) outerOf(rawName string) string {
	cf := ix.raw[rawName]
	outer := ""
	for _, ic := range cf.InnerClasses() {
		if ic.Inner == rawName && ic.Outer != "" {
			outer = ic.Outer
			break
		}
	}
	if outer == "" {
		outer = cf.EnclosingClassName()
	}
	if _, ok := ix.raw[outer]; !ok || outer == rawName {
		return ""
	}
	return outer
}

// innerSimpleName derives the simple name of rawName inside outer:
// "a$b" in "a" is "b", and "c" in "a" stays "c".
func innerSimpleName(rawName, outer string) string {
	rest, ok := strings.CutPrefix(rawName, outer+"$")
	if !ok {
		rest = rawName[strings.LastIndexByte(rawName, '/')+1:]
	}
	if name := rest[strings.LastIndexByte(rest, '$')+1:]; name != "" {
		return name
	}
	return strings.ReplaceAll(rest, "$", "_")
}
