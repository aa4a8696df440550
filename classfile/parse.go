package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	_, r.err = io.ReadFull(r.r, buf)
	return buf
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	_, r.err = io.CopyN(io.Discard, r.r, int64(n))
}

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(rd io.Reader) (*ClassFile, error) {
	r := &reader{r: rd}

	magic := r.readU4()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	cf := &ClassFile{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", r.err)
	}

	constantPoolCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	if constantPoolCount == 0 {
		return nil, fmt.Errorf("invalid constant pool count: 0")
	}

	cf.ConstantPool = make(ConstantPool, constantPoolCount-1)
	for i := uint16(1); i < constantPoolCount; i++ {
		entry, wide, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		cf.ConstantPool[i-1] = entry
		if wide {
			// long and double take two slots
			i++
		}
	}

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()

	interfacesCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		cf.Interfaces[i] = r.readU2()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read interfaces: %w", r.err)
	}

	var err error
	if cf.Fields, err = readMembers(r); err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	if cf.Methods, err = readMembers(r); err != nil {
		return nil, fmt.Errorf("failed to read methods: %w", err)
	}
	if cf.Attributes, err = readAttributes(r); err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}

	return cf, nil
}

func readConstantPoolEntry(r *reader) (ConstantPoolEntry, bool, error) {
	tag := ConstantTag(r.readU1())
	if r.err != nil {
		return nil, false, r.err
	}

	var entry ConstantPoolEntry
	wide := false

	switch tag {
	case ConstantUtf8:
		length := r.readU2()
		bytes := r.readBytes(int(length))
		entry = &ConstantUtf8Info{Value: decodeModifiedUtf8(bytes)}

	case ConstantInteger, ConstantFloat:
		r.skip(4)
		entry = &ConstantOpaqueInfo{OpaqueTag: tag}

	case ConstantLong, ConstantDouble:
		r.skip(8)
		entry = &ConstantOpaqueInfo{OpaqueTag: tag}
		wide = true

	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}

	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}

	case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref:
		entry = &ConstantMemberRefInfo{
			RefTag:           tag,
			ClassIndex:       r.readU2(),
			NameAndTypeIndex: r.readU2(),
		}

	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
		}

	case ConstantMethodHandle:
		r.skip(3)
		entry = &ConstantOpaqueInfo{OpaqueTag: tag}

	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}

	case ConstantDynamic, ConstantInvokeDynamic:
		r.skip(4)
		entry = &ConstantOpaqueInfo{OpaqueTag: tag}

	case ConstantModule, ConstantPackage:
		r.skip(2)
		entry = &ConstantOpaqueInfo{OpaqueTag: tag}

	default:
		return nil, false, fmt.Errorf("unknown constant pool tag: %d", tag)
	}

	if r.err != nil {
		return nil, false, r.err
	}
	return entry, wide, nil
}

func readMembers(r *reader) ([]MemberInfo, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}

	members := make([]MemberInfo, count)
	for i := uint16(0); i < count; i++ {
		members[i] = MemberInfo{
			AccessFlags:     AccessFlags(r.readU2()),
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
		}
		attrs, err := readAttributes(r)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		members[i].Attributes = attrs
	}
	return members, nil
}

func readAttributes(r *reader) ([]AttributeInfo, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}

	attrs := make([]AttributeInfo, count)
	for i := uint16(0); i < count; i++ {
		nameIndex := r.readU2()
		length := r.readU4()
		info := r.readBytes(int(length))
		if r.err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, r.err)
		}
		attrs[i] = AttributeInfo{NameIndex: nameIndex, Info: info}
	}
	return attrs, nil
}

func decodeModifiedUtf8(bytes []byte) string {
	runes := make([]rune, 0, len(bytes))
	i := 0
	for i < len(bytes) {
		b := bytes[i]
		if b&0x80 == 0 {
			runes = append(runes, rune(b))
			i++
		} else if b&0xE0 == 0xC0 {
			if i+1 >= len(bytes) {
				break
			}
			r := rune(b&0x1F)<<6 | rune(bytes[i+1]&0x3F)
			runes = append(runes, r)
			i += 2
		} else if b&0xF0 == 0xE0 {
			if i+2 >= len(bytes) {
				break
			}
			r := rune(b&0x0F)<<12 | rune(bytes[i+1]&0x3F)<<6 | rune(bytes[i+2]&0x3F)
			runes = append(runes, r)
			i += 3
		} else {
			runes = append(runes, rune(b))
			i++
		}
	}
	return string(runes)
}
