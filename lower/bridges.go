package lower

import (
	"github.com/goguard/bridgelower/ir"
)

// BridgeBuilder adds to a class the bridges that virtual calls arriving
// through ancestor signatures need.
type BridgeBuilder struct {
	oracle  Oracle
	bridges BridgeProvider
}

// NewBridgeBuilder returns a builder that takes descriptors from bridges.
func NewBridgeBuilder(oracle Oracle, bridges BridgeProvider) *BridgeBuilder {
	return &BridgeBuilder{oracle: oracle, bridges: bridges}
}

// candidates are the declared methods and property accessors of class,
// followed by contributed methods not already among them.
func candidates(class *ir.Class) []*ir.Method {
	seen := make(map[string]bool)
	var out []*ir.Method
	for _, m := range class.Members() {
		if m == nil || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// BuildBridges appends the missing bridges to class.Methods and returns them.
func (b *BridgeBuilder) BuildBridges(class *ir.Class) ([]*ir.Method, error) {
	var added []*ir.Method
	for _, m := range candidates(class) {
		if m.Kind == ir.KindBridge || b.oracle.Modality(m) == ir.Abstract {
			continue
		}
		seen := make(map[ir.Directions]bool)
		for _, ancestor := range b.oracle.OverriddenAncestors(m) {
			dirs := b.oracle.BridgeDirections(m, ancestor)
			if dirs.AllNone() {
				continue
			}
			if !b.oracle.IsReachableVirtually(ir.OverrideEdge{Overriding: m, Overridden: ancestor}, class) {
				continue
			}
			if seen[dirs] {
				continue
			}
			seen[dirs] = true

			bridge, err := b.buildBridge(class, m, ancestor)
			if err != nil {
				return added, err
			}
			if bridge != nil {
				added = append(added, bridge)
			}
		}
	}
	return added, nil
}

func (b *BridgeBuilder) buildBridge(class *ir.Class, m, ancestor *ir.Method) (*ir.Method, error) {
	desc := b.bridges.BridgeFor(m, ancestor)
	if desc == nil {
		return nil, inconsistent(class.Name, m.ID, "no bridge descriptor for override of %s", ancestor.ID)
	}
	if class.HasMember(desc.ID) {
		return nil, nil
	}
	target := b.oracle.MostSpecificImplementation(m)
	if target == nil {
		return nil, inconsistent(class.Name, m.ID, "no concrete implementation behind bridge for %s", ancestor.ID)
	}
	if err := Materialize(desc, target); err != nil {
		return nil, err
	}
	class.Methods = append(class.Methods, desc)
	return desc, nil
}

// Materialize gives bridge a body forwarding non-virtually to target. The
// bridge's receivers and value parameters are passed through as they are;
// the adaptation lives in the representations of the two signatures.
func Materialize(bridge, target *ir.Method) error {
	if len(bridge.Params) != len(target.Params) {
		return inconsistent(bridge.Class, bridge.ID, "bridge takes %d parameters, %s takes %d",
			len(bridge.Params), target.ID, len(target.Params))
	}
	call := ir.NewCall(ir.Undefined, target)
	call.Super = target.Class
	if bridge.Dispatch {
		call.Dispatch = &ir.GetValue{Span: ir.Undefined, Name: "this"}
	}
	if bridge.HasExtension() {
		call.Extension = &ir.GetValue{Span: ir.Undefined, Name: ir.ExtensionReceiverName}
	}
	for _, p := range bridge.Params {
		call.Args = append(call.Args, &ir.GetValue{Span: ir.Undefined, Name: p.Name})
	}
	if len(bridge.TypeParams) > 0 && len(bridge.TypeParams) == len(target.TypeParams) {
		call.TypeArgs = make(map[string]string, len(target.TypeParams))
		for i, tp := range target.TypeParams {
			call.TypeArgs[tp] = bridge.TypeParams[i]
		}
	}

	var stmt ir.Expr = call
	if bridge.Return != ir.ReprUnit && bridge.Return != "" {
		stmt = &ir.Return{Span: ir.Undefined, Target: bridge.ID, Value: call}
	}
	bridge.Body = &ir.Block{Span: ir.Undefined, Stmts: []ir.Expr{stmt}}
	return nil
}
