package classfile

import "strings"

type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

func (ft *FieldType) String() string {
	var sb strings.Builder
	for i := 0; i < ft.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	if ft.BaseType != "" {
		sb.WriteString(ft.BaseType)
	} else if ft.ClassName != "" {
		sb.WriteString(strings.ReplaceAll(ft.ClassName, "/", "."))
	}
	return sb.String()
}

type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType *FieldType
}

func (md *MethodDescriptor) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range md.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if md.ReturnType != nil {
		sb.WriteString(" ")
		sb.WriteString(md.ReturnType.String())
	} else {
		sb.WriteString(" void")
	}
	return sb.String()
}

func ParseFieldDescriptor(desc string) *FieldType {
	ft, _ := parseFieldType(desc, 0)
	return ft
}

func ParseMethodDescriptor(desc string) *MethodDescriptor {
	if len(desc) == 0 || desc[0] != '(' {
		return nil
	}

	md := &MethodDescriptor{}
	i := 1

	for i < len(desc) && desc[i] != ')' {
		ft, consumed := parseFieldType(desc, i)
		if ft == nil {
			return nil
		}
		md.Parameters = append(md.Parameters, *ft)
		i += consumed
	}

	if i >= len(desc) || desc[i] != ')' {
		return nil
	}
	i++

	if i < len(desc) {
		if desc[i] == 'V' {
			md.ReturnType = nil
		} else {
			md.ReturnType, _ = parseFieldType(desc, i)
		}
	}

	return md
}

func parseFieldType(desc string, start int) (*FieldType, int) {
	if start >= len(desc) {
		return nil, 0
	}

	ft := &FieldType{}
	i := start

	for i < len(desc) && desc[i] == '[' {
		ft.ArrayDepth++
		i++
	}

	if i >= len(desc) {
		return nil, 0
	}

	switch desc[i] {
	case 'B':
		ft.BaseType = "byte"
		return ft, i - start + 1
	case 'C':
		ft.BaseType = "char"
		return ft, i - start + 1
	case 'D':
		ft.BaseType = "double"
		return ft, i - start + 1
	case 'F':
		ft.BaseType = "float"
		return ft, i - start + 1
	case 'I':
		ft.BaseType = "int"
		return ft, i - start + 1
	case 'J':
		ft.BaseType = "long"
		return ft, i - start + 1
	case 'S':
		ft.BaseType = "short"
		return ft, i - start + 1
	case 'Z':
		ft.BaseType = "boolean"
		return ft, i - start + 1
	case 'L':
		semicolon := strings.IndexByte(desc[i:], ';')
		if semicolon == -1 {
			return nil, 0
		}
		ft.ClassName = desc[i+1 : i+semicolon]
		return ft, i - start + semicolon + 1
	default:
		return nil, 0
	}
}

// ClassNameReplacer maps an internal class name to its replacement. Returning
// false leaves the name untouched.
type ClassNameReplacer func(className string) (string, bool)

// ValidFieldDescriptor reports whether desc is exactly one field type.
func ValidFieldDescriptor(desc string) bool {
	ft, n := parseFieldType(desc, 0)
	return ft != nil && n == len(desc)
}

// ValidMethodDescriptor reports whether desc is a well-formed method descriptor.
func ValidMethodDescriptor(desc string) bool {
	md := ParseMethodDescriptor(desc)
	if md == nil {
		return false
	}
	end := strings.IndexByte(desc, ')')
	ret := desc[end+1:]
	return ret == "V" || ValidFieldDescriptor(ret)
}

// DescriptorClassNames returns the class names referenced by a field or
// method descriptor, in order of appearance.
func DescriptorClassNames(desc string) []string {
	var names []string
	for i := 0; i < len(desc); i++ {
		if desc[i] != 'L' {
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end == -1 {
			break
		}
		names = append(names, desc[i+1:i+end])
		i += end
	}
	return names
}

// RewriteDescriptor replaces every class name in a field or method descriptor
// through replace. Names that replace declines are kept verbatim and returned
// in unresolved.
func RewriteDescriptor(desc string, replace ClassNameReplacer) (rewritten string, unresolved []string) {
	var sb strings.Builder
	sb.Grow(len(desc))
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if c != 'L' {
			sb.WriteByte(c)
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end == -1 {
			sb.WriteString(desc[i:])
			break
		}
		name := desc[i+1 : i+end]
		if replaced, ok := replace(name); ok {
			name = replaced
		} else {
			unresolved = append(unresolved, name)
		}
		sb.WriteByte('L')
		sb.WriteString(name)
		sb.WriteByte(';')
		i += end
	}
	return sb.String(), unresolved
}
