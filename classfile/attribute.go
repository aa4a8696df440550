package classfile

import (
	"encoding/binary"
)

// AttributeInfo keeps the raw attribute payload. Only the attributes the
// indexer consumes are decoded, on demand.
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
}

type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

func (a *AttributeInfo) AsInnerClasses() *InnerClassesAttribute {
	return parseInnerClassesAttribute(a.Info)
}

func parseInnerClassesAttribute(info []byte) *InnerClassesAttribute {
	if len(info) < 2 {
		return nil
	}
	count := binary.BigEndian.Uint16(info[0:2])
	if len(info) < 2+int(count)*8 {
		return nil
	}

	ic := &InnerClassesAttribute{
		Classes: make([]InnerClassEntry, count),
	}

	offset := 2
	for i := uint16(0); i < count; i++ {
		ic.Classes[i] = InnerClassEntry{
			InnerClassInfoIndex:   binary.BigEndian.Uint16(info[offset : offset+2]),
			OuterClassInfoIndex:   binary.BigEndian.Uint16(info[offset+2 : offset+4]),
			InnerNameIndex:        binary.BigEndian.Uint16(info[offset+4 : offset+6]),
			InnerClassAccessFlags: AccessFlags(binary.BigEndian.Uint16(info[offset+6 : offset+8])),
		}
		offset += 8
	}

	return ic
}
