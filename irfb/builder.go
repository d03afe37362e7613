// Package irfb encodes a lowered ir.Unit as FlatBuffers. The layout is
// defined in bridgelower.fbs; reader.go follows the accessors flatc
// generates from it.
package irfb

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/goguard/bridgelower/ir"
	"github.com/goguard/bridgelower/lower"
)

const (
	ClassKindClass     byte = 0
	ClassKindInterface byte = 1
)

const (
	ModalityFinal    byte = 0
	ModalityOpen     byte = 1
	ModalityAbstract byte = 2
)

// Encode serializes the unit bottom-up: call sites -> methods -> classes -> unit.
func Encode(unit *ir.Unit, stats *lower.Stats) []byte {
	builder := flatbuffers.NewBuilder(4096)

	classes := unit.SortedClasses()
	classOffsets := make([]flatbuffers.UOffsetT, len(classes))
	for i := len(classes) - 1; i >= 0; i-- {
		classOffsets[i] = buildClass(builder, classes[i])
	}
	classesVec := offsetVector(builder, classOffsets)

	fileOffsets := make([]flatbuffers.UOffsetT, len(unit.Files))
	for i := len(unit.Files) - 1; i >= 0; i-- {
		fileOffsets[i] = buildFile(builder, &unit.Files[i])
	}
	filesVec := offsetVector(builder, fileOffsets)

	var statsOffset flatbuffers.UOffsetT
	if stats != nil {
		statsOffset = buildStats(builder, stats)
	}
	nameOffset := builder.CreateString(unit.Name)

	builder.StartObject(4)
	builder.PrependUOffsetTSlot(0, nameOffset, 0)
	builder.PrependUOffsetTSlot(1, classesVec, 0)
	builder.PrependUOffsetTSlot(2, filesVec, 0)
	if stats != nil {
		builder.PrependUOffsetTSlot(3, statsOffset, 0)
	}
	root := builder.EndObject()

	builder.Finish(root)
	return builder.FinishedBytes()
}

func offsetVector(builder *flatbuffers.Builder, offsets []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	builder.StartVector(4, len(offsets), 4)
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	return builder.EndVector(len(offsets))
}

func stringVector(builder *flatbuffers.Builder, ss []string) flatbuffers.UOffsetT {
	offsets := make([]flatbuffers.UOffsetT, len(ss))
	for i := len(ss) - 1; i >= 0; i-- {
		offsets[i] = builder.CreateString(ss[i])
	}
	return offsetVector(builder, offsets)
}

func buildFile(builder *flatbuffers.Builder, f *ir.SourceFile) flatbuffers.UOffsetT {
	pathOffset := builder.CreateString(f.Path)
	builder.StartObject(2)
	builder.PrependUOffsetTSlot(0, pathOffset, 0)
	builder.PrependBoolSlot(1, f.IsGenerated, false)
	return builder.EndObject()
}

func buildStats(builder *flatbuffers.Builder, s *lower.Stats) flatbuffers.UOffsetT {
	builder.StartObject(4)
	builder.PrependInt32Slot(0, int32(s.Classes), 0)
	builder.PrependInt32Slot(1, int32(s.BridgesAdded), 0)
	builder.PrependInt32Slot(2, int32(s.CallsRewritten), 0)
	builder.PrependInt32Slot(3, int32(s.CallsVirtual), 0)
	return builder.EndObject()
}

func buildClass(builder *flatbuffers.Builder, c *ir.Class) flatbuffers.UOffsetT {
	members := c.Members()
	methodOffsets := make([]flatbuffers.UOffsetT, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		methodOffsets[i] = buildMethod(builder, members[i])
	}
	methodsVec := offsetVector(builder, methodOffsets)
	nameOffset := builder.CreateString(c.Name)

	kind := ClassKindClass
	if c.IsInterface() {
		kind = ClassKindInterface
	}

	builder.StartObject(3)
	builder.PrependUOffsetTSlot(0, nameOffset, 0)
	builder.PrependByteSlot(1, kind, 0)
	builder.PrependUOffsetTSlot(2, methodsVec, 0)
	return builder.EndObject()
}

func buildMethod(builder *flatbuffers.Builder, m *ir.Method) flatbuffers.UOffsetT {
	var calls []*ir.Call
	if m.Body != nil {
		calls = ir.Calls(m.Body)
	}
	callOffsets := make([]flatbuffers.UOffsetT, len(calls))
	for i := len(calls) - 1; i >= 0; i-- {
		callOffsets[i] = buildCallSite(builder, calls[i])
	}
	callsVec := offsetVector(builder, callOffsets)

	reprs := make([]string, len(m.Params))
	for i, p := range m.Params {
		reprs[i] = string(p.Repr)
	}
	paramsVec := stringVector(builder, reprs)
	overridesVec := stringVector(builder, m.Overrides)

	idOffset := builder.CreateString(m.ID)
	nameOffset := builder.CreateString(m.Name)
	classOffset := builder.CreateString(m.Class)
	kindOffset := builder.CreateString(string(m.Kind))
	originOffset := builder.CreateString(m.Origin)
	returnOffset := builder.CreateString(string(m.Return))

	builder.StartObject(10)
	builder.PrependUOffsetTSlot(0, idOffset, 0)
	builder.PrependUOffsetTSlot(1, nameOffset, 0)
	builder.PrependUOffsetTSlot(2, classOffset, 0)
	builder.PrependByteSlot(3, modalityByte(m.Modality), 0)
	builder.PrependUOffsetTSlot(4, kindOffset, 0)
	builder.PrependUOffsetTSlot(5, originOffset, 0)
	builder.PrependUOffsetTSlot(6, paramsVec, 0)
	builder.PrependUOffsetTSlot(7, returnOffset, 0)
	builder.PrependUOffsetTSlot(8, callsVec, 0)
	builder.PrependUOffsetTSlot(9, overridesVec, 0)
	return builder.EndObject()
}

func buildCallSite(builder *flatbuffers.Builder, c *ir.Call) flatbuffers.UOffsetT {
	callee := c.CalleeID
	if c.Callee != nil {
		callee = c.Callee.ID
	}
	calleeOffset := builder.CreateString(callee)
	superOffset := builder.CreateString(c.Super)

	builder.StartObject(6)
	builder.PrependUOffsetTSlot(0, calleeOffset, 0)
	builder.PrependUOffsetTSlot(1, superOffset, 0)
	builder.PrependBoolSlot(2, c.IsVirtual(), false)
	builder.PrependInt32Slot(3, int32(c.Span.Start), 0)
	builder.PrependInt32Slot(4, int32(c.Span.End), 0)
	builder.PrependInt32Slot(5, int32(len(c.Args)), 0)
	return builder.EndObject()
}

func modalityByte(m ir.Modality) byte {
	switch m {
	case ir.Open:
		return ModalityOpen
	case ir.Abstract:
		return ModalityAbstract
	}
	return ModalityFinal
}
