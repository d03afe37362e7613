// Package lower keeps virtual dispatch correct when an override's native
// representation differs from the signatures it overrides. CallRewriter
// devirtualizes statically bound calls; BridgeBuilder adds the bridge
// methods virtual callers land on. Both share one Registry so they agree
// on bridge identity.
package lower

import "github.com/goguard/bridgelower/ir"

// Oracle answers override-resolution questions. The passes never compute
// representations or override sets themselves.
type Oracle interface {
	// MostSpecificImplementation returns the concrete implementation a
	// non-virtual call to m binds to, or nil if there is none.
	MostSpecificImplementation(m *ir.Method) *ir.Method
	// OverriddenAncestors returns every method m transitively overrides,
	// in a deterministic order.
	OverriddenAncestors(m *ir.Method) []*ir.Method
	// BridgeDirections compares the native representation of m's
	// implementation against ancestor's.
	BridgeDirections(m, ancestor *ir.Method) ir.Directions
	// NeedsBridge reports whether calling target through the original
	// signature requires adapting any slot.
	NeedsBridge(original, target *ir.Method) bool
	// IsReachableVirtually reports whether a bridge for edge could be
	// reached by virtual dispatch on class.
	IsReachableVirtually(edge ir.OverrideEdge, class *ir.Class) bool
	// Modality reports whether m is final, open or abstract.
	Modality(m *ir.Method) ir.Modality
	// IsOverridable reports whether a subclass may override m.
	IsOverridable(m *ir.Method) bool
}

// BridgeProvider hands out canonical bridge descriptors.
type BridgeProvider interface {
	BridgeFor(overriding, ancestor *ir.Method) *ir.Method
}
