package classfile

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

// ConstantMemberRefInfo covers Fieldref, Methodref and InterfaceMethodref.
type ConstantMemberRefInfo struct {
	RefTag           ConstantTag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMemberRefInfo) Tag() ConstantTag { return c.RefTag }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

// ConstantOpaqueInfo holds entries whose payload is skipped: numeric
// literals, method handles, dynamic call sites, modules and packages.
type ConstantOpaqueInfo struct {
	OpaqueTag ConstantTag
}

func (c *ConstantOpaqueInfo) Tag() ConstantTag { return c.OpaqueTag }

type ConstantPool []ConstantPoolEntry

func (cp ConstantPool) entry(index uint16) ConstantPoolEntry {
	if index == 0 || int(index) > len(cp) {
		return nil
	}
	return cp[index-1]
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if entry, ok := cp.entry(index).(*ConstantUtf8Info); ok {
		return entry.Value
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if entry, ok := cp.entry(index).(*ConstantClassInfo); ok {
		return cp.GetUtf8(entry.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetNameAndType(index uint16) (name, descriptor string) {
	if entry, ok := cp.entry(index).(*ConstantNameAndTypeInfo); ok {
		return cp.GetUtf8(entry.NameIndex), cp.GetUtf8(entry.DescriptorIndex)
	}
	return "", ""
}

// MemberRef is a resolved Fieldref/Methodref/InterfaceMethodref.
type MemberRef struct {
	Kind       ConstantTag
	ClassName  string
	Name       string
	Descriptor string
}

func (cp ConstantPool) GetMemberRef(index uint16) (MemberRef, bool) {
	entry, ok := cp.entry(index).(*ConstantMemberRefInfo)
	if !ok {
		return MemberRef{}, false
	}
	name, desc := cp.GetNameAndType(entry.NameAndTypeIndex)
	return MemberRef{
		Kind:       entry.RefTag,
		ClassName:  cp.GetClassName(entry.ClassIndex),
		Name:       name,
		Descriptor: desc,
	}, true
}

// ClassNames returns every class named by a Class constant, in pool order.
// Array classes are reported by their element class.
func (cp ConstantPool) ClassNames() []string {
	var names []string
	for _, e := range cp {
		c, ok := e.(*ConstantClassInfo)
		if !ok {
			continue
		}
		name := cp.GetUtf8(c.NameIndex)
		if len(name) > 0 && name[0] == '[' {
			names = append(names, DescriptorClassNames(name)...)
			continue
		}
		names = append(names, name)
	}
	return names
}

// MemberRefs returns every field and method reference in the pool.
func (cp ConstantPool) MemberRefs() []MemberRef {
	var refs []MemberRef
	for i := range cp {
		if ref, ok := cp.GetMemberRef(uint16(i + 1)); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Strings returns the values of all String constants.
func (cp ConstantPool) Strings() []string {
	var out []string
	for _, e := range cp {
		if s, ok := e.(*ConstantStringInfo); ok {
			out = append(out, cp.GetUtf8(s.StringIndex))
		}
	}
	return out
}
