package remap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const classMagic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type poolEntry struct {
	tag        byte
	start, end int // raw bytes in the class file, tag included
	text       string
}

// classReader is a bounds-checked cursor over a class file.
type classReader struct {
	data []byte
	pos  int
	err  error
}

func (r *classReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("truncated class file at offset %d", r.pos)
		return false
	}
	return true
}

func (r *classReader) u1() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *classReader) u2() int {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return int(v)
}

func (r *classReader) u4() int {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return int(v)
}

func (r *classReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

// rewriteClass renames every class reference held in the constant pool.
// Only Utf8 entries change, so all indices and everything after the pool
// are copied unchanged.
func rewriteClass(data []byte, rn renamer, rebuildSource bool) ([]byte, error) {
	r := &classReader{data: data}
	if r.u4() != classMagic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("bad magic")
	}
	r.skip(4) // minor, major

	count := r.u2()
	pool := make([]poolEntry, count)
	classNames := make(map[int]bool)
	literals := make(map[int]bool)

	for i := 1; i < count && r.err == nil; i++ {
		e := poolEntry{start: r.pos}
		e.tag = r.u1()
		switch e.tag {
		case tagUtf8:
			n := r.u2()
			if r.need(n) {
				e.text = string(r.data[r.pos : r.pos+n])
				r.pos += n
			}
		case tagClass:
			classNames[r.u2()] = true
		case tagString:
			literals[r.u2()] = true
		case tagMethodType, tagModule, tagPackage:
			r.skip(2)
		case tagMethodHandle:
			r.skip(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			r.skip(4)
		case tagLong, tagDouble:
			r.skip(8)
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at index %d", e.tag, i)
		}
		e.end = r.pos
		pool[i] = e
		if e.tag == tagLong || e.tag == tagDouble {
			i++ // takes two slots
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	poolEnd := r.pos

	sourceIdx := -1
	thisName := ""
	if rebuildSource {
		var err error
		thisName, sourceIdx, err = classInfo(r, pool)
		if err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	out.Grow(len(data) + 256)
	out.Write(data[:10])
	for i := 1; i < count; i++ {
		e := pool[i]
		if e.tag != tagUtf8 {
			out.Write(data[e.start:e.end])
			continue
		}

		text := e.text
		switch {
		case classNames[i]:
			if strings.HasPrefix(text, "[") {
				text = rn.descriptor(text)
			} else {
				text = rn.name(text)
			}
		case literals[i]:
		case i == sourceIdx && thisName != "":
			text = sourceName(rn.name(outerClass(thisName)))
		default:
			text = rn.descriptor(text)
		}

		if len(text) > 0xFFFF {
			return nil, fmt.Errorf("constant %d too long after remapping", i)
		}
		out.WriteByte(tagUtf8)
		out.Write(binary.BigEndian.AppendUint16(nil, uint16(len(text))))
		out.WriteString(text)
	}
	out.Write(data[poolEnd:])
	return out.Bytes(), nil
}

// classInfo reads the class's own name and the pool index of its SourceFile
// value (-1 if absent). r must be positioned right after the constant pool.
func classInfo(r *classReader, pool []poolEntry) (string, int, error) {
	utf8 := func(idx int) (string, bool) {
		if idx <= 0 || idx >= len(pool) || pool[idx].tag != tagUtf8 {
			return "", false
		}
		return pool[idx].text, true
	}

	r.skip(2) // access flags
	thisClass := r.u2()
	r.skip(2) // super class
	r.skip(2 * r.u2())
	for range 2 { // fields, methods
		members := r.u2()
		for m := 0; m < members && r.err == nil; m++ {
			r.skip(6)
			skipAttributes(r)
		}
	}
	if r.err != nil {
		return "", -1, r.err
	}

	name := ""
	if thisClass > 0 && thisClass < len(pool) && pool[thisClass].tag == tagClass {
		idx := int(binary.BigEndian.Uint16(r.data[pool[thisClass].start+1:]))
		name, _ = utf8(idx)
	}

	source := -1
	attrs := r.u2()
	for a := 0; a < attrs && r.err == nil; a++ {
		attrName, _ := utf8(r.u2())
		n := r.u4()
		if attrName == "SourceFile" && n == 2 {
			source = r.u2()
			continue
		}
		r.skip(n)
	}
	if r.err != nil {
		return "", -1, r.err
	}
	return name, source, nil
}

func skipAttributes(r *classReader) {
	n := r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		r.skip(2)
		r.skip(r.u4())
	}
}

// outerClass strips nested class suffixes: a/B$C$1 -> a/B.
func outerClass(name string) string {
	if i := strings.IndexByte(name, '$'); i > 0 {
		return name[:i]
	}
	return name
}

// sourceName returns the conventional source file for an outer class.
func sourceName(outer string) string {
	return outer[strings.LastIndexByte(outer, '/')+1:] + ".java"
}
