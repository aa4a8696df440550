package classfile

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"
)

// classBuilder assembles minimal class files for the parser tests.
type classBuilder struct {
	pool  bytes.Buffer
	count uint16
	utf8s map[string]uint16
}

func newClassBuilder() *classBuilder {
	return &classBuilder{count: 1, utf8s: map[string]uint16{}}
}

func (b *classBuilder) add(tag ConstantTag, payload ...uint16) uint16 {
	b.pool.WriteByte(byte(tag))
	for _, p := range payload {
		binary.Write(&b.pool, binary.BigEndian, p)
	}
	idx := b.count
	b.count++
	return idx
}

func (b *classBuilder) utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	b.pool.WriteByte(byte(ConstantUtf8))
	binary.Write(&b.pool, binary.BigEndian, uint16(len(s)))
	b.pool.WriteString(s)
	idx := b.count
	b.count++
	b.utf8s[s] = idx
	return idx
}

func (b *classBuilder) class(name string) uint16 {
	return b.add(ConstantClass, b.utf8(name))
}

func (b *classBuilder) methodref(class, name, desc string) uint16 {
	c := b.class(class)
	nt := b.add(ConstantNameAndType, b.utf8(name), b.utf8(desc))
	return b.add(ConstantMethodref, c, nt)
}

func (b *classBuilder) long(v uint64) uint16 {
	b.pool.WriteByte(byte(ConstantLong))
	binary.Write(&b.pool, binary.BigEndian, v)
	idx := b.count
	b.count += 2
	return idx
}

type testMember struct {
	flags      AccessFlags
	name, desc string
}

func (b *classBuilder) build(flags AccessFlags, this, super uint16, ifaces []uint16, fields, methods []testMember, attrs map[string][]byte) []byte {
	// members and attributes reference the pool, so intern their names first
	type memberIdx struct{ flags, name, desc uint16 }
	intern := func(ms []testMember) []memberIdx {
		out := make([]memberIdx, len(ms))
		for i, m := range ms {
			out[i] = memberIdx{uint16(m.flags), b.utf8(m.name), b.utf8(m.desc)}
		}
		return out
	}
	fs, ms := intern(fields), intern(methods)
	attrNames := map[string]uint16{}
	for name := range attrs {
		attrNames[name] = b.utf8(name)
	}

	var out bytes.Buffer
	w := func(v any) { binary.Write(&out, binary.BigEndian, v) }
	w(uint32(Magic))
	w(uint16(0))
	w(uint16(52))
	w(b.count)
	out.Write(b.pool.Bytes())
	w(uint16(flags))
	w(this)
	w(super)
	w(uint16(len(ifaces)))
	for _, i := range ifaces {
		w(i)
	}
	for _, list := range [][]memberIdx{fs, ms} {
		w(uint16(len(list)))
		for _, m := range list {
			w(m.flags)
			w(m.name)
			w(m.desc)
			w(uint16(0))
		}
	}
	w(uint16(len(attrs)))
	for name, data := range attrs {
		w(attrNames[name])
		w(uint32(len(data)))
		out.Write(data)
	}
	return out.Bytes()
}

func TestParseClassFile(t *testing.T) {
	b := newClassBuilder()
	this := b.class("a")
	super := b.class("java/lang/Object")
	runnable := b.class("java/lang/Runnable")
	b.long(42)
	b.methodref("b", "c", "(La;)V")
	inner := b.class("a$b")

	var ic bytes.Buffer
	binary.Write(&ic, binary.BigEndian, uint16(1))
	binary.Write(&ic, binary.BigEndian, []uint16{inner, this, b.utf8("b"), uint16(AccStatic)})

	data := b.build(AccPublic|AccFinal, this, super, []uint16{runnable},
		[]testMember{
			{AccPrivate, "a", "I"},
			{AccSynthetic, "b", "La$b;"},
		},
		[]testMember{
			{AccPublic, "<init>", "()V"},
			{AccPublic, "a", "(ILjava/lang/String;)La;"},
		},
		map[string][]byte{"InnerClasses": ic.Bytes()},
	)

	cf, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse class file: %v", err)
	}

	t.Run("class name", func(t *testing.T) {
		if got := cf.ClassName(); got != "a" {
			t.Errorf("ClassName() = %q, want %q", got, "a")
		}
	})

	t.Run("super class", func(t *testing.T) {
		if got := cf.SuperClassName(); got != "java/lang/Object" {
			t.Errorf("SuperClassName() = %q, want %q", got, "java/lang/Object")
		}
	})

	t.Run("interfaces", func(t *testing.T) {
		want := []string{"java/lang/Runnable"}
		if got := cf.InterfaceNames(); !reflect.DeepEqual(got, want) {
			t.Errorf("InterfaceNames() = %v, want %v", got, want)
		}
	})

	t.Run("access flags", func(t *testing.T) {
		if !cf.AccessFlags.IsPublic() || !cf.AccessFlags.IsFinal() {
			t.Error("Expected class to be public final")
		}
		if cf.AccessFlags.Stable().IsPublic() {
			t.Error("Stable() should drop visibility")
		}
	})

	t.Run("fields", func(t *testing.T) {
		if len(cf.Fields) != 2 {
			t.Fatalf("Expected 2 fields, got %d", len(cf.Fields))
		}
		f := cf.GetField("b")
		if f == nil {
			t.Fatal("Expected to find field b")
		}
		if !f.IsSynthetic() {
			t.Error("field b should be synthetic")
		}
		if got := f.Descriptor(cf.ConstantPool); got != "La$b;" {
			t.Errorf("descriptor = %q, want %q", got, "La$b;")
		}
	})

	t.Run("methods", func(t *testing.T) {
		m := cf.GetMethod("a", "")
		if m == nil {
			t.Fatal("Expected to find method a")
		}
		if got := m.Descriptor(cf.ConstantPool); got != "(ILjava/lang/String;)La;" {
			t.Errorf("descriptor = %q", got)
		}
		if cf.GetMethod("a", "()V") != nil {
			t.Error("descriptor filter should reject a mismatching overload")
		}
	})

	t.Run("wide constants keep indices aligned", func(t *testing.T) {
		refs := cf.ConstantPool.MemberRefs()
		if len(refs) != 1 {
			t.Fatalf("Expected 1 member ref, got %d", len(refs))
		}
		want := MemberRef{Kind: ConstantMethodref, ClassName: "b", Name: "c", Descriptor: "(La;)V"}
		if refs[0] != want {
			t.Errorf("MemberRefs()[0] = %+v, want %+v", refs[0], want)
		}
	})

	t.Run("class constants", func(t *testing.T) {
		want := []string{"a", "java/lang/Object", "java/lang/Runnable", "b", "a$b"}
		if got := cf.ConstantPool.ClassNames(); !reflect.DeepEqual(got, want) {
			t.Errorf("ClassNames() = %v, want %v", got, want)
		}
	})

	t.Run("inner classes", func(t *testing.T) {
		got := cf.InnerClasses()
		want := []InnerClass{{Inner: "a$b", Outer: "a", SimpleName: "b", AccessFlags: AccStatic}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("InnerClasses() = %+v, want %+v", got, want)
		}
	})
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 52}))
	if err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}

func TestParseTruncated(t *testing.T) {
	b := newClassBuilder()
	this := b.class("a")
	data := b.build(0, this, 0, nil, nil, nil, nil)
	if _, err := Parse(bytes.NewReader(data[:len(data)-3])); err == nil {
		t.Fatal("expected an error for a truncated class file")
	}
}

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		desc     string
		expected string
	}{
		{"I", "int"},
		{"J", "long"},
		{"Z", "boolean"},
		{"Ljava/lang/String;", "java.lang.String"},
		{"[I", "[]int"},
		{"[[Ljava/lang/Object;", "[][]java.lang.Object"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ft := ParseFieldDescriptor(tt.desc)
			if ft == nil {
				t.Fatalf("ParseFieldDescriptor(%q) returned nil", tt.desc)
			}
			if got := ft.String(); got != tt.expected {
				t.Errorf("ParseFieldDescriptor(%q).String() = %q, want %q", tt.desc, got, tt.expected)
			}
		})
	}
}

func TestValidDescriptors(t *testing.T) {
	tests := []struct {
		desc   string
		field  bool
		method bool
	}{
		{"I", true, false},
		{"La;", true, false},
		{"La", false, false},
		{"II", false, false},
		{"()V", false, true},
		{"(ILa;)[La;", false, true},
		{"(I)", false, false},
		{"(I)VV", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		if got := ValidFieldDescriptor(tt.desc); got != tt.field {
			t.Errorf("ValidFieldDescriptor(%q) = %v, want %v", tt.desc, got, tt.field)
		}
		if got := ValidMethodDescriptor(tt.desc); got != tt.method {
			t.Errorf("ValidMethodDescriptor(%q) = %v, want %v", tt.desc, got, tt.method)
		}
	}
}

func TestRewriteDescriptor(t *testing.T) {
	renames := map[string]string{"a": "x", "a$b": "x$y"}
	replace := func(name string) (string, bool) {
		n, ok := renames[name]
		return n, ok
	}

	tests := []struct {
		desc       string
		want       string
		unresolved []string
	}{
		{"I", "I", nil},
		{"La;", "Lx;", nil},
		{"[[La$b;", "[[Lx$y;", nil},
		{"(ILa;Lq;)La$b;", "(ILx;Lq;)Lx$y;", []string{"q"}},
		{"(Ljava/lang/String;)V", "(Ljava/lang/String;)V", []string{"java/lang/String"}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, unresolved := RewriteDescriptor(tt.desc, replace)
			if got != tt.want {
				t.Errorf("RewriteDescriptor(%q) = %q, want %q", tt.desc, got, tt.want)
			}
			if !reflect.DeepEqual(unresolved, tt.unresolved) {
				t.Errorf("unresolved = %v, want %v", unresolved, tt.unresolved)
			}
		})
	}
}

func TestDescriptorClassNames(t *testing.T) {
	got := DescriptorClassNames("(ILa;[Lb/c;J)Ld$e;")
	want := []string{"a", "b/c", "d$e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DescriptorClassNames() = %v, want %v", got, want)
	}
}
