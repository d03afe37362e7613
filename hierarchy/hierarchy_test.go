package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goguard/bridgelower/ir"
)

func linked(t *testing.T, classes ...*ir.Class) *ir.Unit {
	t.Helper()
	u := &ir.Unit{Name: "test", Classes: classes}
	require.NoError(t, u.Link())
	return u
}

func TestAdapt(t *testing.T) {
	tests := []struct {
		name     string
		ancestor ir.Repr
		native   ir.Repr
		isReturn bool
		want     ir.Adaptation
	}{
		{"same param", "i32", "i32", false, ir.AdaptNone},
		{"same return", ir.ReprRef, ir.ReprRef, true, ir.AdaptNone},
		{"boxed param to native", ir.ReprRef, "i32", false, ir.AdaptIn},
		{"native result to boxed", ir.ReprRef, "i32", true, ir.AdaptOut},
		{"native param to boxed", "i32", ir.ReprRef, false, ir.AdaptOut},
		{"boxed result to native", "i32", ir.ReprRef, true, ir.AdaptIn},
		{"two natives", "i32", "i64", false, ir.AdaptReinterpret},
		{"empty param is ref", "", ir.ReprRef, false, ir.AdaptNone},
		{"empty return is unit", "", ir.ReprUnit, true, ir.AdaptNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapt(tt.ancestor, tt.native, tt.isReturn))
		})
	}
}

func TestDirectionsSlots(t *testing.T) {
	ancestor := &ir.Method{
		ID:        "Base.f",
		Extension: ir.ReprRef,
		Params:    []ir.Param{{Name: "a", Repr: ir.ReprRef}, {Name: "b", Repr: "f64"}},
		Return:    ir.ReprRef,
	}
	native := &ir.Method{
		ID:        "Impl.f",
		Extension: "i64",
		Params:    []ir.Param{{Name: "a", Repr: "i32"}, {Name: "b", Repr: "f64"}},
		Return:    "bool",
	}

	d := directions(native, ancestor)
	assert.Equal(t, "OIIN", d.String())
	assert.Equal(t, ir.AdaptOut, d.Return())
	assert.Equal(t, ir.AdaptIn, d.Arg(0), "extension receiver comes first")
}

func TestOverriddenAncestorsDiamond(t *testing.T) {
	top := &ir.Method{ID: "Top.f", Modality: ir.Abstract, Overridable: true}
	left := &ir.Method{ID: "Left.f", Modality: ir.Abstract, Overridable: true, Overrides: []string{"Top.f"}}
	right := &ir.Method{ID: "Right.f", Modality: ir.Abstract, Overridable: true, Overrides: []string{"Top.f"}}
	impl := &ir.Method{ID: "Impl.f", Modality: ir.Final, Overrides: []string{"Left.f", "Right.f"}}
	u := linked(t,
		&ir.Class{Name: "Top", Kind: ir.ClassKindInterface, Methods: []*ir.Method{top}},
		&ir.Class{Name: "Left", Kind: ir.ClassKindInterface, Methods: []*ir.Method{left}},
		&ir.Class{Name: "Right", Kind: ir.ClassKindInterface, Methods: []*ir.Method{right}},
		&ir.Class{Name: "Impl", Kind: ir.ClassKindClass, Methods: []*ir.Method{impl}},
	)
	o := New(u)

	got := o.OverriddenAncestors(impl)
	var ids []string
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"Left.f", "Top.f", "Right.f"}, ids)

	// cached: same slice back
	again := o.OverriddenAncestors(impl)
	require.Len(t, again, 3)
	assert.Same(t, got[0], again[0])
}

func TestMostSpecificImplementation(t *testing.T) {
	def := &ir.Method{ID: "I.f", Modality: ir.Open, Overridable: true, Body: &ir.Block{}}
	base := &ir.Method{ID: "Base.f", Modality: ir.Open, Overridable: true, Overrides: []string{"I.f"}}
	fake := &ir.Method{ID: "Sub.f", Kind: ir.KindFakeOverride, Modality: ir.Open, Overridable: true, Overrides: []string{"I.f", "Base.f"}}
	u := linked(t,
		&ir.Class{Name: "I", Kind: ir.ClassKindInterface, Methods: []*ir.Method{def}},
		&ir.Class{Name: "Base", Kind: ir.ClassKindClass, Methods: []*ir.Method{base}},
		&ir.Class{Name: "Sub", Kind: ir.ClassKindClass, Contributed: []*ir.Method{fake}},
	)
	o := New(u)

	assert.Same(t, base, o.MostSpecificImplementation(fake), "class member wins over interface default")
	assert.Same(t, base, o.MostSpecificImplementation(base))
}

func TestMostSpecificImplementationInterfaceDefault(t *testing.T) {
	def := &ir.Method{ID: "I.f", Modality: ir.Open, Overridable: true, Body: &ir.Block{}}
	fake := &ir.Method{ID: "C.f", Kind: ir.KindFakeOverride, Modality: ir.Open, Overridable: true, Overrides: []string{"I.f"}}
	u := linked(t,
		&ir.Class{Name: "I", Kind: ir.ClassKindInterface, Methods: []*ir.Method{def}},
		&ir.Class{Name: "C", Kind: ir.ClassKindClass, Contributed: []*ir.Method{fake}},
	)

	assert.Same(t, def, New(u).MostSpecificImplementation(fake))
}

func TestMostSpecificImplementationNone(t *testing.T) {
	abstract := &ir.Method{ID: "I.f", Modality: ir.Abstract, Overridable: true}
	fake := &ir.Method{ID: "C.f", Kind: ir.KindFakeOverride, Modality: ir.Final, Overrides: []string{"I.f"}}
	u := linked(t,
		&ir.Class{Name: "I", Kind: ir.ClassKindInterface, Methods: []*ir.Method{abstract}},
		&ir.Class{Name: "C", Kind: ir.ClassKindClass, Contributed: []*ir.Method{fake}},
	)

	assert.Nil(t, New(u).MostSpecificImplementation(fake))
}

func TestBridgeDirectionsUseImplementation(t *testing.T) {
	boxGet := &ir.Method{ID: "Box.get", Return: ir.ReprRef, Modality: ir.Open, Overridable: true}
	intGet := &ir.Method{ID: "IntBox.get", Return: "i32", Modality: ir.Open, Overridable: true, Overrides: []string{"Box.get"}}
	fake := &ir.Method{ID: "Sub.get", Kind: ir.KindFakeOverride, Return: "i32", Modality: ir.Open, Overridable: true, Overrides: []string{"IntBox.get"}}
	u := linked(t,
		&ir.Class{Name: "Box", Methods: []*ir.Method{boxGet}},
		&ir.Class{Name: "IntBox", Methods: []*ir.Method{intGet}},
		&ir.Class{Name: "Sub", Contributed: []*ir.Method{fake}},
	)
	o := New(u)

	assert.Equal(t, "O", o.BridgeDirections(intGet, boxGet).String())
	assert.Equal(t, "O", o.BridgeDirections(fake, boxGet).String())
	assert.True(t, o.BridgeDirections(fake, intGet).AllNone())
	assert.True(t, o.NeedsBridge(boxGet, intGet))
	assert.False(t, o.NeedsBridge(intGet, intGet))
}

func TestOverridability(t *testing.T) {
	o := New(&ir.Unit{})

	assert.Equal(t, ir.Final, o.Modality(&ir.Method{}))
	assert.True(t, o.IsOverridable(&ir.Method{Modality: ir.Open, Overridable: true}))
	assert.True(t, o.IsOverridable(&ir.Method{Modality: ir.Abstract, Overridable: true}))
	assert.False(t, o.IsOverridable(&ir.Method{Modality: ir.Final, Overridable: true}))
	assert.False(t, o.IsOverridable(&ir.Method{Modality: ir.Open, Overridable: true, Private: true}))

	base := &ir.Method{ID: "Base.f", Modality: ir.Open, Overridable: true}
	hidden := &ir.Method{ID: "Base.g", Modality: ir.Open, Overridable: true, Private: true}
	assert.True(t, o.IsReachableVirtually(ir.OverrideEdge{Overridden: base}, nil))
	assert.False(t, o.IsReachableVirtually(ir.OverrideEdge{Overridden: hidden}, nil))
}
