package convert

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/mapport/mapping"
)

const yamlIndent = 2

// classMatchFile is the on-disk form of ClassMatches. It is meant to be
// edited by hand: moving a pair from ambiguous to unique confirms it.
type classMatchFile struct {
	Unique          []classPairYAML    `yaml:"unique"`
	Ambiguous       []classClusterYAML `yaml:"ambiguous,omitempty"`
	UnmatchedSource []string           `yaml:"unmatched_source,omitempty"`
	UnmatchedDest   []string           `yaml:"unmatched_dest,omitempty"`
}

type classPairYAML struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

type classClusterYAML struct {
	Source []string `yaml:"source,flow"`
	Dest   []string `yaml:"dest,flow"`
}

func entryNames(entries []mapping.ClassEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func classEntries(names []string) []mapping.ClassEntry {
	out := make([]mapping.ClassEntry, len(names))
	for i, n := range names {
		out[i] = mapping.NewClassEntry(n)
	}
	return out
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteClassMatches writes cm as YAML.
func WriteClassMatches(w io.Writer, cm *ClassMatches) error {
	var f classMatchFile
	for _, m := range cm.UniqueMatches() {
		f.Unique = append(f.Unique, classPairYAML{Source: m.Source[0].Name, Dest: m.Dest[0].Name})
	}
	for _, m := range cm.ambiguous {
		f.Ambiguous = append(f.Ambiguous, classClusterYAML{Source: entryNames(m.Source), Dest: entryNames(m.Dest)})
	}
	f.UnmatchedSource = entryNames(cm.unmatchedSource)
	f.UnmatchedDest = entryNames(cm.unmatchedDest)
	return encodeYAML(w, &f)
}

// ReadClassMatches reads a file written by WriteClassMatches, possibly
// edited since.
func ReadClassMatches(r io.Reader) (*ClassMatches, error) {
	var f classMatchFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode class matches: %w", err)
	}
	var clusters []ClassMatch
	for _, p := range f.Unique {
		clusters = append(clusters, ClassMatch{
			Source: []mapping.ClassEntry{mapping.NewClassEntry(p.Source)},
			Dest:   []mapping.ClassEntry{mapping.NewClassEntry(p.Dest)},
		})
	}
	for _, c := range f.Ambiguous {
		clusters = append(clusters, ClassMatch{Source: classEntries(c.Source), Dest: classEntries(c.Dest)})
	}
	for _, s := range f.UnmatchedSource {
		clusters = append(clusters, ClassMatch{Source: []mapping.ClassEntry{mapping.NewClassEntry(s)}})
	}
	for _, d := range f.UnmatchedDest {
		clusters = append(clusters, ClassMatch{Dest: []mapping.ClassEntry{mapping.NewClassEntry(d)}})
	}
	return NewClassMatches(clusters)
}

type memberMatchFile struct {
	Matches         []classPairYAML `yaml:"matches"`
	UnmatchedSource []string        `yaml:"unmatched_source,omitempty"`
	UnmatchedDest   []string        `yaml:"unmatched_dest,omitempty"`
	Unmatchable     []string        `yaml:"unmatchable,omitempty"`
}

func memberStrings[T MemberEntry](entries []T) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// WriteMemberMatches writes mm as YAML. Members are written in their
// "class name descriptor" form.
func WriteMemberMatches[T MemberEntry](w io.Writer, mm *MemberMatches[T]) error {
	var f memberMatchFile
	for _, p := range mm.Matches() {
		f.Matches = append(f.Matches, classPairYAML{Source: p.Source.String(), Dest: p.Dest.String()})
	}
	f.UnmatchedSource = memberStrings(mm.UnmatchedSource())
	f.UnmatchedDest = memberStrings(mm.UnmatchedDest())
	f.Unmatchable = memberStrings(mm.Unmatchable())
	return encodeYAML(w, &f)
}

func ReadMemberMatches[T MemberEntry](r io.Reader, kind MemberKind[T]) (*MemberMatches[T], error) {
	var f memberMatchFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode %s matches: %w", kind.Name(), err)
	}
	mm := NewMemberMatches[T]()
	parse := func(s string) (T, error) {
		e, err := kind.Parse(s)
		if err != nil {
			return e, fmt.Errorf("%s matches: %w", kind.Name(), err)
		}
		return e, nil
	}
	for _, p := range f.Matches {
		source, err := parse(p.Source)
		if err != nil {
			return nil, err
		}
		dest, err := parse(p.Dest)
		if err != nil {
			return nil, err
		}
		if err := mm.AddMatch(source, dest); err != nil {
			return nil, err
		}
	}
	for _, s := range f.Unmatchable {
		e, err := parse(s)
		if err != nil {
			return nil, err
		}
		if err := mm.MakeUnmatchable(e); err != nil {
			return nil, err
		}
	}
	for _, s := range f.UnmatchedSource {
		e, err := parse(s)
		if err != nil {
			return nil, err
		}
		if err := mm.AddUnmatchedSource(e); err != nil {
			return nil, err
		}
	}
	for _, s := range f.UnmatchedDest {
		e, err := parse(s)
		if err != nil {
			return nil, err
		}
		if err := mm.AddUnmatchedDest(e); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// SaveClassMatches and LoadClassMatches wrap the YAML form with file access.
func SaveClassMatches(path string, cm *ClassMatches) error {
	return saveFile(path, func(w io.Writer) error { return WriteClassMatches(w, cm) })
}

func LoadClassMatches(path string) (*ClassMatches, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cm, err := ReadClassMatches(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cm, nil
}

func SaveMemberMatches[T MemberEntry](path string, mm *MemberMatches[T]) error {
	return saveFile(path, func(w io.Writer) error { return WriteMemberMatches(w, mm) })
}

func LoadMemberMatches[T MemberEntry](path string, kind MemberKind[T]) (*MemberMatches[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mm, err := ReadMemberMatches(f, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mm, nil
}

func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
