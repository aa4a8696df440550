package lsp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/mapport/mapping"
)

// symbol is what one line of a mapping file declares.
type symbol struct {
	keyword string
	class   mapping.ClassEntry
	name    string
	desc    string
	index   string
}

type document struct {
	uri         string
	lines       []string
	mappings    *mapping.Mappings
	symbols     map[int]symbol
	diagnostics []protocol.Diagnostic
}

func analyze(uri, text string) *document {
	d := &document{
		uri:     uri,
		lines:   strings.Split(text, "\n"),
		symbols: map[int]symbol{},
	}
	m, err := mapping.NewReader(strings.NewReader(text)).Read()
	if err != nil {
		line := 0
		var perr *mapping.ParseError
		if errors.As(err, &perr) {
			line = perr.Line - 1
		}
		d.report(line, protocol.DiagnosticSeverityError, diagnosticMessage(err))
		return d
	}
	d.mappings = m
	d.indexSymbols()

	classLines := map[mapping.ClassEntry]int{}
	for line, s := range d.symbols {
		if s.keyword == "CLASS" {
			classLines[s.class] = line
		}
	}
	_ = m.Walk(func(entry mapping.ClassEntry, c *mapping.ClassMapping) error {
		if c.IsEmpty() {
			d.report(classLines[entry], protocol.DiagnosticSeverityWarning, fmt.Sprintf("%s maps nothing", entry))
		}
		return nil
	})
	return d
}

func diagnosticMessage(err error) string {
	var perr *mapping.ParseError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	return err.Error()
}

func (d *document) report(line int, severity protocol.DiagnosticSeverity, message string) {
	width := 0
	if line >= 0 && line < len(d.lines) {
		width = len(d.lines[line])
	}
	source := lsName
	d.diagnostics = append(d.diagnostics, protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line)},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(width)},
		},
		Severity: &severity,
		Source:   &source,
		Message:  message,
	})
}

// indexSymbols records the entry behind every line of a file that parsed.
func (d *document) indexSymbols() {
	var classes []mapping.ClassEntry
	var method symbol
	for i, text := range d.lines {
		if j := strings.IndexByte(text, '#'); j >= 0 {
			text = text[:j]
		}
		depth := len(text) - len(strings.TrimLeft(text, "\t"))
		tokens := strings.Fields(text)
		if len(tokens) < 2 {
			continue
		}
		switch tokens[0] {
		case "CLASS":
			name := tokens[1]
			if depth > 0 {
				name = classes[depth-1].Name + "$" + name[strings.LastIndexByte(name, '$')+1:]
			}
			entry := mapping.NewClassEntry(name)
			classes = append(classes[:depth], entry)
			d.symbols[i] = symbol{keyword: "CLASS", class: entry}
		case "FIELD", "METHOD":
			s := symbol{keyword: tokens[0], class: classes[depth-1], name: tokens[1], desc: tokens[len(tokens)-1]}
			d.symbols[i] = s
			if s.keyword == "METHOD" {
				method = s
			}
		case "ARG":
			d.symbols[i] = symbol{keyword: "ARG", class: method.class, name: method.name, desc: method.desc, index: tokens[1]}
		}
	}
}

// deobf replaces class names with their deobfuscated names, when known.
func (d *document) deobf(name string) (string, bool) {
	n := d.mappings.DeobfName(mapping.NewClassEntry(name))
	return n, n != name
}

// hover renders markdown for the symbol on line, or "" when there is none.
func (d *document) hover(line int) string {
	if d.mappings == nil {
		return ""
	}
	s, ok := d.symbols[line]
	if !ok {
		return ""
	}
	owner, _ := d.deobf(s.class.Name)
	switch s.keyword {
	case "CLASS":
		c := d.mappings.ClassByObf(s.class)
		if c == nil {
			return ""
		}
		return fmt.Sprintf("class `%s`\n\n`%s`: %s fields, %s methods, %s inner classes",
			owner, s.class,
			humanize.Comma(int64(len(c.Fields()))),
			humanize.Comma(int64(len(c.Methods()))),
			humanize.Comma(int64(len(c.InnerClasses()))))
	case "FIELD":
		c := d.mappings.ClassByObf(s.class)
		t, _ := mapping.Type(s.desc).Replace(d.deobf)
		name := s.name
		if f := c.FieldByObf(s.name, mapping.Type(s.desc)); f != nil && f.DeobfName() != "" {
			name = f.DeobfName()
		}
		return fmt.Sprintf("field `%s.%s` `%s`", owner, name, t)
	case "METHOD", "ARG":
		c := d.mappings.ClassByObf(s.class)
		sig, _ := mapping.Signature(s.desc).Replace(d.deobf)
		name := s.name
		if m := c.MethodByObf(s.name, mapping.Signature(s.desc)); m != nil && m.DeobfName() != "" {
			name = m.DeobfName()
		}
		out := fmt.Sprintf("method `%s.%s%s`", owner, name, sig)
		if s.keyword == "ARG" {
			out = fmt.Sprintf("argument %s of %s", s.index, out)
		}
		return out
	}
	return ""
}
