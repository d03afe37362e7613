package lower_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goguard/bridgelower/hierarchy"
	"github.com/goguard/bridgelower/ir"
	"github.com/goguard/bridgelower/lower"
)

func this() ir.Expr { return &ir.GetValue{Span: ir.Undefined, Name: "this"} }

func get(name string) ir.Expr { return &ir.GetValue{Span: ir.Undefined, Name: name} }

func call(span int, callee *ir.Method, dispatch ir.Expr, args ...ir.Expr) *ir.Call {
	c := ir.NewCall(ir.Span{Start: span, End: span + 1}, callee)
	c.Origin = "CALL"
	c.Dispatch = dispatch
	c.Args = args
	return c
}

func body(stmts ...ir.Expr) *ir.Block {
	return &ir.Block{Span: ir.Span{Start: 0, End: 100}, Stmts: stmts}
}

func link(t *testing.T, name string, classes ...*ir.Class) *ir.Unit {
	t.Helper()
	u := &ir.Unit{Name: name, Classes: classes}
	require.NoError(t, u.Link())
	return u
}

// boxUnit: Box.get returns ref, IntBox.get overrides it natively as i32.
// Main.viaIntBox calls the final override directly, Main.viaBox goes
// through the open ancestor.
func boxUnit(t *testing.T) *ir.Unit {
	t.Helper()
	boxGet := &ir.Method{ID: "Box.get", Name: "get", Dispatch: true, Return: ir.ReprRef,
		Modality: ir.Open, Overridable: true, Kind: ir.KindDeclared}
	intGet := &ir.Method{ID: "IntBox.get", Name: "get", Dispatch: true, Return: "i32",
		Modality: ir.Final, Kind: ir.KindDeclared, Overrides: []string{"Box.get"}}
	viaIntBox := &ir.Method{ID: "Main.viaIntBox", Name: "viaIntBox", Return: "i32",
		Params: []ir.Param{{Name: "b", Repr: ir.ReprRef}}, Modality: ir.Final, Kind: ir.KindDeclared}
	viaIntBox.Body = body(&ir.Return{Span: ir.Span{Start: 1, End: 9}, Target: viaIntBox.ID,
		Value: call(2, intGet, get("b"))})
	viaBox := &ir.Method{ID: "Main.viaBox", Name: "viaBox", Return: ir.ReprRef,
		Params: []ir.Param{{Name: "b", Repr: ir.ReprRef}}, Modality: ir.Final, Kind: ir.KindDeclared}
	viaBox.Body = body(&ir.Return{Span: ir.Span{Start: 11, End: 19}, Target: viaBox.ID,
		Value: call(12, boxGet, get("b"))})

	return link(t, "box",
		&ir.Class{Name: "Box", Kind: ir.ClassKindClass, Methods: []*ir.Method{boxGet}},
		&ir.Class{Name: "IntBox", Kind: ir.ClassKindClass, Supers: []string{"Box"}, Methods: []*ir.Method{intGet}},
		&ir.Class{Name: "Main", Kind: ir.ClassKindClass, Methods: []*ir.Method{viaIntBox, viaBox}},
	)
}

// countingOracle counts the resolution requests that reach the oracle.
type countingOracle struct {
	lower.Oracle
	targets atomic.Int64
}

func (o *countingOracle) MostSpecificImplementation(m *ir.Method) *ir.Method {
	o.targets.Add(1)
	return o.Oracle.MostSpecificImplementation(m)
}

type countingProvider struct {
	lower.BridgeProvider
	lookups atomic.Int64
}

func (p *countingProvider) BridgeFor(overriding, ancestor *ir.Method) *ir.Method {
	p.lookups.Add(1)
	return p.BridgeProvider.BridgeFor(overriding, ancestor)
}

// pinnedOracle overrides the implementation the reference oracle picks for
// selected methods.
type pinnedOracle struct {
	*hierarchy.Oracle
	targets map[string]*ir.Method
}

func (o *pinnedOracle) MostSpecificImplementation(m *ir.Method) *ir.Method {
	if t, ok := o.targets[m.ID]; ok {
		return t
	}
	return o.Oracle.MostSpecificImplementation(m)
}

func memberIDs(c *ir.Class) []string {
	var ids []string
	for _, m := range c.Members() {
		ids = append(ids, m.ID)
	}
	return ids
}

func bridgesOf(c *ir.Class) []*ir.Method {
	var out []*ir.Method
	for _, m := range c.Members() {
		if m.Kind == ir.KindBridge {
			out = append(out, m)
		}
	}
	return out
}
