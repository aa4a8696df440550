package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError locates a problem in a mapping file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader reads the tab-indented mapping text format:
//
//	CLASS a com/example/Widget
//		CLASS b Part
//		FIELD a size I
//		METHOD a resize (I)V
//			ARG 0 newSize
//
// The deobfuscated name is optional on CLASS, FIELD and METHOD lines. Text
// after '#' is ignored.
type Reader struct {
	scanner *bufio.Scanner
	line    int

	classes []*ClassMapping
	method  *MethodMapping
	depth   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ReadFile parses the mapping file at path.
func ReadFile(path string) (*Mappings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (r *Reader) Read() (*Mappings, error) {
	m := New()
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		depth := 0
		for depth < len(text) && text[depth] == '\t' {
			depth++
		}
		tokens := strings.Fields(text)
		if len(tokens) == 0 {
			continue
		}
		if err := r.readLine(m, depth, tokens); err != nil {
			return nil, &ParseError{Line: r.line, Err: err}
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Reader) readLine(m *Mappings, depth int, tokens []string) error {
	switch tokens[0] {
	case "CLASS":
		return r.readClass(m, depth, tokens[1:])
	case "FIELD":
		return r.readField(depth, tokens[1:])
	case "METHOD":
		return r.readMethod(depth, tokens[1:])
	case "ARG":
		return r.readArgument(depth, tokens[1:])
	default:
		return fmt.Errorf("%w: unknown keyword %q", ErrMalformed, tokens[0])
	}
}

func (r *Reader) owner(depth int) (*ClassMapping, error) {
	if depth == 0 || depth > len(r.classes) {
		return nil, fmt.Errorf("%w: unexpected indentation", ErrMalformed)
	}
	return r.classes[depth-1], nil
}

func (r *Reader) readClass(m *Mappings, depth int, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: CLASS takes an obfuscated and an optional deobfuscated name", ErrMalformed)
	}
	obf, deobf := args[0], ""
	if len(args) == 2 {
		deobf = args[1]
	}
	r.method = nil
	if depth == 0 {
		c, err := NewClassMapping(obf, deobf)
		if err != nil {
			return err
		}
		if err := m.AddClass(c); err != nil {
			return err
		}
		r.classes = append(r.classes[:0], c)
		return nil
	}
	parent, err := r.owner(depth)
	if err != nil {
		return err
	}
	c, err := NewInnerClassMapping(lastNestingPart(obf), lastNestingPart(deobf))
	if err != nil {
		return err
	}
	if err := parent.AddInnerClass(c); err != nil {
		return err
	}
	r.classes = append(r.classes[:depth], c)
	return nil
}

func (r *Reader) readField(depth int, args []string) error {
	owner, err := r.owner(depth)
	if err != nil {
		return err
	}
	var f *FieldMapping
	switch len(args) {
	case 2:
		f, err = NewFieldMapping(args[0], Type(args[1]), "")
	case 3:
		f, err = NewFieldMapping(args[0], Type(args[2]), args[1])
	default:
		return fmt.Errorf("%w: FIELD takes a name, an optional deobfuscated name and a type", ErrMalformed)
	}
	if err != nil {
		return err
	}
	r.method = nil
	return owner.AddField(f)
}

func (r *Reader) readMethod(depth int, args []string) error {
	owner, err := r.owner(depth)
	if err != nil {
		return err
	}
	var mm *MethodMapping
	switch len(args) {
	case 2:
		mm, err = NewMethodMapping(args[0], Signature(args[1]), "")
	case 3:
		mm, err = NewMethodMapping(args[0], Signature(args[2]), args[1])
	default:
		return fmt.Errorf("%w: METHOD takes a name, an optional deobfuscated name and a signature", ErrMalformed)
	}
	if err != nil {
		return err
	}
	if err := owner.AddMethod(mm); err != nil {
		return err
	}
	r.method, r.depth = mm, depth
	return nil
}

func (r *Reader) readArgument(depth int, args []string) error {
	if r.method == nil || depth != r.depth+1 {
		return fmt.Errorf("%w: ARG outside of a METHOD", ErrMalformed)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: ARG takes an index and a name", ErrMalformed)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: argument index %q", ErrMalformed, args[0])
	}
	return r.method.SetArgumentName(index, args[1])
}

func lastNestingPart(name string) string {
	return name[strings.LastIndexByte(name, '$')+1:]
}
