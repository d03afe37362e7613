package irfb

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Readers over an encoded unit, in the shape flatc generates for Go.

// Unit is the root table.
type Unit struct {
	_tab flatbuffers.Table
}

// GetRootAsUnit reads the root table of buf.
func GetRootAsUnit(buf []byte, offset flatbuffers.UOffsetT) *Unit {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Unit{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Unit) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Unit) Name() []byte { return stringField(&rcv._tab, 0) }

func (rcv *Unit) ClassesLength() int { return vectorLen(&rcv._tab, 1) }

func (rcv *Unit) Classes(obj *Class, j int) bool {
	return tableAt(&rcv._tab, 1, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

func (rcv *Unit) FilesLength() int { return vectorLen(&rcv._tab, 2) }

func (rcv *Unit) Files(obj *File, j int) bool {
	return tableAt(&rcv._tab, 2, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

func (rcv *Unit) Stats(obj *Stats) *Stats {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(slot(3)))
	if o == 0 {
		return nil
	}
	if obj == nil {
		obj = new(Stats)
	}
	obj.Init(rcv._tab.Bytes, rcv._tab.Indirect(o+rcv._tab.Pos))
	return obj
}

type File struct {
	_tab flatbuffers.Table
}

func (rcv *File) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *File) Path() []byte { return stringField(&rcv._tab, 0) }

func (rcv *File) IsGenerated() bool {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(slot(1)))
	if o != 0 {
		return rcv._tab.GetBool(o + rcv._tab.Pos)
	}
	return false
}

type Stats struct {
	_tab flatbuffers.Table
}

func (rcv *Stats) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Stats) Classes() int32   { return int32Field(&rcv._tab, 0) }
func (rcv *Stats) Bridges() int32   { return int32Field(&rcv._tab, 1) }
func (rcv *Stats) Rewritten() int32 { return int32Field(&rcv._tab, 2) }
func (rcv *Stats) Virtual() int32   { return int32Field(&rcv._tab, 3) }

type Class struct {
	_tab flatbuffers.Table
}

func (rcv *Class) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Class) Name() []byte { return stringField(&rcv._tab, 0) }

func (rcv *Class) Kind() byte { return byteField(&rcv._tab, 1) }

func (rcv *Class) MethodsLength() int { return vectorLen(&rcv._tab, 2) }

func (rcv *Class) Methods(obj *Method, j int) bool {
	return tableAt(&rcv._tab, 2, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

type Method struct {
	_tab flatbuffers.Table
}

func (rcv *Method) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *Method) Id() []byte     { return stringField(&rcv._tab, 0) }
func (rcv *Method) Name() []byte   { return stringField(&rcv._tab, 1) }
func (rcv *Method) Class() []byte  { return stringField(&rcv._tab, 2) }
func (rcv *Method) Modality() byte { return byteField(&rcv._tab, 3) }
func (rcv *Method) Kind() []byte   { return stringField(&rcv._tab, 4) }
func (rcv *Method) Origin() []byte { return stringField(&rcv._tab, 5) }

func (rcv *Method) ParamsLength() int { return vectorLen(&rcv._tab, 6) }

func (rcv *Method) Params(j int) []byte { return stringAt(&rcv._tab, 6, j) }

func (rcv *Method) Return() []byte { return stringField(&rcv._tab, 7) }

func (rcv *Method) CallsLength() int { return vectorLen(&rcv._tab, 8) }

func (rcv *Method) Calls(obj *CallSite, j int) bool {
	return tableAt(&rcv._tab, 8, j, func(buf []byte, pos flatbuffers.UOffsetT) { obj.Init(buf, pos) })
}

func (rcv *Method) OverridesLength() int { return vectorLen(&rcv._tab, 9) }

func (rcv *Method) Overrides(j int) []byte { return stringAt(&rcv._tab, 9, j) }

type CallSite struct {
	_tab flatbuffers.Table
}

func (rcv *CallSite) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}

func (rcv *CallSite) Callee() []byte { return stringField(&rcv._tab, 0) }
func (rcv *CallSite) Super() []byte  { return stringField(&rcv._tab, 1) }

func (rcv *CallSite) Virtual() bool {
	o := flatbuffers.UOffsetT(rcv._tab.Offset(slot(2)))
	if o != 0 {
		return rcv._tab.GetBool(o + rcv._tab.Pos)
	}
	return false
}

func (rcv *CallSite) Start() int32 { return int32Field(&rcv._tab, 3) }
func (rcv *CallSite) End() int32   { return int32Field(&rcv._tab, 4) }
func (rcv *CallSite) Argc() int32  { return int32Field(&rcv._tab, 5) }

// slot is the vtable offset of field i.
func slot(i int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*i)
}

func stringField(t *flatbuffers.Table, i int) []byte {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o != 0 {
		return t.ByteVector(o + t.Pos)
	}
	return nil
}

func byteField(t *flatbuffers.Table, i int) byte {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o != 0 {
		return t.GetByte(o + t.Pos)
	}
	return 0
}

func int32Field(t *flatbuffers.Table, i int) int32 {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o != 0 {
		return t.GetInt32(o + t.Pos)
	}
	return 0
}

func vectorLen(t *flatbuffers.Table, i int) int {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o != 0 {
		return t.VectorLen(o)
	}
	return 0
}

func tableAt(t *flatbuffers.Table, i, j int, init func([]byte, flatbuffers.UOffsetT)) bool {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o == 0 {
		return false
	}
	x := t.Vector(o)
	x += flatbuffers.UOffsetT(j) * 4
	x = t.Indirect(x)
	init(t.Bytes, x)
	return true
}

func stringAt(t *flatbuffers.Table, i, j int) []byte {
	o := flatbuffers.UOffsetT(t.Offset(slot(i)))
	if o == 0 {
		return nil
	}
	a := t.Vector(o)
	return t.ByteVector(a + flatbuffers.UOffsetT(j*4))
}
