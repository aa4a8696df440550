package classfile

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []MemberInfo
	Methods      []MemberInfo
	Attributes   []AttributeInfo
}

// MemberInfo is a field_info or method_info structure; both share a layout.
type MemberInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MemberInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(m.NameIndex)
}

func (m *MemberInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(m.DescriptorIndex)
}

func (m *MemberInfo) IsSynthetic() bool { return m.AccessFlags.IsSynthetic() }

func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) GetField(name string) *MemberInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name(cf.ConstantPool) == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetMethod(name, descriptor string) *MemberInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) == name {
			if descriptor == "" || cf.Methods[i].Descriptor(cf.ConstantPool) == descriptor {
				return &cf.Methods[i]
			}
		}
	}
	return nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	for i := range cf.Attributes {
		if cf.ConstantPool.GetUtf8(cf.Attributes[i].NameIndex) == name {
			return &cf.Attributes[i]
		}
	}
	return nil
}

// InnerClass is one resolved row of the InnerClasses attribute.
type InnerClass struct {
	Inner       string
	Outer       string
	SimpleName  string
	AccessFlags AccessFlags
}

// InnerClasses resolves the class's InnerClasses attribute. Rows describing
// anonymous or local classes have an empty Outer.
func (cf *ClassFile) InnerClasses() []InnerClass {
	attr := cf.GetAttribute("InnerClasses")
	if attr == nil {
		return nil
	}
	ic := attr.AsInnerClasses()
	if ic == nil {
		return nil
	}
	out := make([]InnerClass, 0, len(ic.Classes))
	for _, e := range ic.Classes {
		out = append(out, InnerClass{
			Inner:       cf.ConstantPool.GetClassName(e.InnerClassInfoIndex),
			Outer:       cf.ConstantPool.GetClassName(e.OuterClassInfoIndex),
			SimpleName:  cf.ConstantPool.GetUtf8(e.InnerNameIndex),
			AccessFlags: e.InnerClassAccessFlags,
		})
	}
	return out
}

// EnclosingClassName returns the outer class named by the EnclosingMethod
// attribute, used by anonymous and local classes.
func (cf *ClassFile) EnclosingClassName() string {
	attr := cf.GetAttribute("EnclosingMethod")
	if attr == nil || len(attr.Info) < 2 {
		return ""
	}
	return cf.ConstantPool.GetClassName(uint16(attr.Info[0])<<8 | uint16(attr.Info[1]))
}
