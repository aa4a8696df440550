// Package jarindex indexes the classes of one jar: the class universe with
// normalized nesting, members, references, and a structural identity per
// class.
package jarindex

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/mapport/classfile"
	"github.com/dhamidi/mapport/mapping"
)

var log = commonlog.GetLogger("mapport.jarindex")

var (
	ErrUnknownClass  = errors.New("class not in index")
	ErrNameCollision = errors.New("class name collision")
)

type Options struct {
	// SkipSynthetic leaves synthetic members out of class identities.
	SkipSynthetic bool
}

type member struct {
	flags      classfile.AccessFlags
	name       string
	descriptor string
}

type class struct {
	name       string
	flags      classfile.AccessFlags
	super      string
	interfaces []string
	outer      string
	fields     []member
	methods    []member
	strings    []string
	outgoing   []string
	incoming   []string
}

// Index holds one build. Class names are normalized so that a class nested
// in another is always named Outer$Inner, whatever the obfuscator named it.
type Index struct {
	name    string
	opts    Options
	raw     map[string]*classfile.ClassFile
	renamed map[string]string
	classes map[string]*class
	entries []mapping.ClassEntry

	fields    map[mapping.ClassEntry][]mapping.FieldEntry
	methods   map[mapping.ClassEntry][]mapping.MethodEntry
	fieldSet  map[mapping.FieldEntry]bool
	methodSet map[mapping.MethodEntry]bool
}

// Open indexes every class file in the jar at path. Entries that fail to
// parse are skipped with a warning.
func Open(ctx context.Context, path string, opts Options) (*Index, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open jar %s: %w", path, err)
	}
	defer r.Close()

	var classes []*classfile.ClassFile
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || filepath.Ext(f.Name) != ".class" {
			continue
		}
		cf, err := parseEntry(f)
		if err != nil {
			log.Warningf("skip %s in %s: %v", f.Name, path, err)
			continue
		}
		classes = append(classes, cf)
	}
	ix, err := FromClasses(filepath.Base(path), classes, opts)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	log.Infof("indexed %d classes from %s", len(ix.entries), path)
	return ix, nil
}

func parseEntry(f *zip.File) (*classfile.ClassFile, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return classfile.Parse(rc)
}

// FromClasses indexes already parsed class files.
func FromClasses(name string, classes []*classfile.ClassFile, opts Options) (*Index, error) {
	ix := &Index{
		name:      name,
		opts:      opts,
		raw:       make(map[string]*classfile.ClassFile, len(classes)),
		renamed:   make(map[string]string, len(classes)),
		classes:   make(map[string]*class, len(classes)),
		fields:    map[mapping.ClassEntry][]mapping.FieldEntry{},
		methods:   map[mapping.ClassEntry][]mapping.MethodEntry{},
		fieldSet:  map[mapping.FieldEntry]bool{},
		methodSet: map[mapping.MethodEntry]bool{},
	}
	for _, cf := range classes {
		rawName := cf.ClassName()
		if _, dup := ix.raw[rawName]; dup {
			return nil, fmt.Errorf("%w: %s defined twice", ErrNameCollision, rawName)
		}
		ix.raw[rawName] = cf
	}
	if err := ix.normalizeNames(); err != nil {
		return nil, err
	}
	for _, rawName := range slices.Sorted(maps.Keys(ix.raw)) {
		ix.addClass(ix.raw[rawName])
	}
	ix.linkReferences()
	slices.SortFunc(ix.entries, func(a, b mapping.ClassEntry) int { return strings.Compare(a.Name, b.Name) })
	return ix, nil
}

// rename maps a raw class name of this jar to its normalized name.
func (ix *Index) rename(rawName string) (string, bool) {
	n, ok := ix.renamed[rawName]
	return n, ok
}

func (ix *Index) renameOrKeep(rawName string) string {
	if n, ok := ix.renamed[rawName]; ok {
		return n
	}
	return rawName
}

func (ix *Index) addClass(cf *classfile.ClassFile) {
	cp := cf.ConstantPool
	rawName := cf.ClassName()
	c := &class{
		name:  ix.renamed[rawName],
		flags: cf.AccessFlags,
	}
	if s := cf.SuperClassName(); s != "" {
		c.super = ix.renameOrKeep(s)
	}
	for _, i := range cf.InterfaceNames() {
		c.interfaces = append(c.interfaces, ix.renameOrKeep(i))
	}
	if outer := ix.outerOf(rawName); outer != "" {
		c.outer = ix.renamed[outer]
	}
	entry := mapping.NewClassEntry(c.name)
	for _, f := range cf.Fields {
		desc, _ := classfile.RewriteDescriptor(f.Descriptor(cp), ix.rename)
		m := member{flags: f.AccessFlags, name: f.Name(cp), descriptor: desc}
		c.fields = append(c.fields, m)
		fe := mapping.FieldEntry{Class: entry, Name: m.name, Type: mapping.Type(desc)}
		ix.fields[entry] = append(ix.fields[entry], fe)
		ix.fieldSet[fe] = true
	}
	for _, mi := range cf.Methods {
		desc, _ := classfile.RewriteDescriptor(mi.Descriptor(cp), ix.rename)
		m := member{flags: mi.AccessFlags, name: mi.Name(cp), descriptor: desc}
		c.methods = append(c.methods, m)
		me := mapping.MethodEntry{Class: entry, Name: m.name, Signature: mapping.Signature(desc)}
		ix.methods[entry] = append(ix.methods[entry], me)
		ix.methodSet[me] = true
	}
	c.strings = slices.Sorted(slices.Values(cp.Strings()))

	refs := map[string]bool{}
	note := func(rawRef string) {
		if n, ok := ix.renamed[rawRef]; ok && n != c.name {
			refs[n] = true
		}
	}
	for _, name := range cp.ClassNames() {
		note(name)
	}
	for _, ref := range cp.MemberRefs() {
		note(ref.ClassName)
		for _, name := range classfile.DescriptorClassNames(ref.Descriptor) {
			note(name)
		}
	}
	c.outgoing = slices.Sorted(maps.Keys(refs))

	ix.classes[c.name] = c
	ix.entries = append(ix.entries, entry)
}

func (ix *Index) linkReferences() {
	for _, c := range ix.classes {
		for _, target := range c.outgoing {
			t := ix.classes[target]
			t.incoming = append(t.incoming, c.name)
		}
	}
	for _, c := range ix.classes {
		slices.Sort(c.incoming)
	}
}

func (ix *Index) Name() string { return ix.name }

func (ix *Index) Len() int { return len(ix.entries) }

// Classes returns the normalized class names in sorted order.
func (ix *Index) Classes() []mapping.ClassEntry { return slices.Clone(ix.entries) }

func (ix *Index) ContainsClass(c mapping.ClassEntry) bool {
	_, ok := ix.classes[c.Name]
	return ok
}

func (ix *Index) ContainsField(f mapping.FieldEntry) bool { return ix.fieldSet[f] }

func (ix *Index) ContainsMethod(m mapping.MethodEntry) bool { return ix.methodSet[m] }

func (ix *Index) Fields(c mapping.ClassEntry) []mapping.FieldEntry { return ix.fields[c] }

func (ix *Index) Methods(c mapping.ClassEntry) []mapping.MethodEntry { return ix.methods[c] }

// ObfClassChain returns the nesting chain of c, outermost class first, or
// nil when c is not indexed.
func (ix *Index) ObfClassChain(c mapping.ClassEntry) []mapping.ClassEntry {
	if !ix.ContainsClass(c) {
		return nil
	}
	return c.ClassChain()
}

// RawName returns the name c has inside the jar.
func (ix *Index) RawName(c mapping.ClassEntry) (string, bool) {
	for raw, n := range ix.renamed {
		if n == c.Name {
			return raw, true
		}
	}
	return "", false
}
