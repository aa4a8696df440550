package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer writes mappings in the format read by Reader. Output is ordered by
// obfuscated name so that equal trees produce equal files.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path string, m *Mappings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := NewWriter(f).Write(m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) Write(m *Mappings) error {
	for _, c := range m.Classes() {
		w.writeClass(c, 0)
	}
	return w.w.Flush()
}

func (w *Writer) writeClass(c *ClassMapping, depth int) {
	indent := strings.Repeat("\t", depth)
	w.line(indent, "CLASS", c.obfName, c.deobfName)
	for _, inner := range c.InnerClasses() {
		w.writeClass(inner, depth+1)
	}
	for _, f := range c.Fields() {
		w.line(indent+"\t", "FIELD", f.obfName, f.deobfName, string(f.obfType))
	}
	for _, m := range c.Methods() {
		w.line(indent+"\t", "METHOD", m.obfName, m.deobfName, string(m.obfSignature))
		for _, i := range m.Arguments() {
			fmt.Fprintf(w.w, "%s\t\tARG %d %s\n", indent, i, m.arguments[i])
		}
	}
}

func (w *Writer) line(indent, keyword string, parts ...string) {
	w.w.WriteString(indent)
	w.w.WriteString(keyword)
	for _, p := range parts {
		if p == "" {
			continue
		}
		w.w.WriteByte(' ')
		w.w.WriteString(p)
	}
	w.w.WriteByte('\n')
}
