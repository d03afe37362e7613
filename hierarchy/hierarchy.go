// Package hierarchy answers override-resolution questions from the override
// edges and representations a frontend recorded in an ir.Unit.
package hierarchy

import (
	"sync"

	"github.com/goguard/bridgelower/ir"
)

// Oracle implements lower.Oracle over a linked unit.
type Oracle struct {
	unit *ir.Unit

	mu        sync.Mutex
	ancestors map[string][]*ir.Method
}

// New returns an oracle over unit, which must already be linked.
func New(unit *ir.Unit) *Oracle {
	return &Oracle{unit: unit, ancestors: make(map[string][]*ir.Method)}
}

// MostSpecificImplementation returns m itself unless m is a fake override,
// in which case it follows override edges to the inherited implementation,
// preferring class members over interface defaults.
func (o *Oracle) MostSpecificImplementation(m *ir.Method) *ir.Method {
	if m.Kind != ir.KindFakeOverride {
		return m
	}
	var fallback *ir.Method
	for _, a := range o.OverriddenAncestors(m) {
		if a.Modality == ir.Abstract || a.Kind == ir.KindFakeOverride {
			continue
		}
		if c := o.unit.Class(a.Class); c != nil && c.IsInterface() {
			if fallback == nil {
				fallback = a
			}
			continue
		}
		return a
	}
	return fallback
}

// OverriddenAncestors walks override edges depth first, nearest ancestors
// first, visiting each method once.
func (o *Oracle) OverriddenAncestors(m *ir.Method) []*ir.Method {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cached, ok := o.ancestors[m.ID]; ok {
		return cached
	}

	var out []*ir.Method
	seen := map[string]bool{m.ID: true}
	var walk func(*ir.Method)
	walk = func(cur *ir.Method) {
		for _, p := range cur.Overridden() {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
			walk(p)
		}
	}
	walk(m)
	o.ancestors[m.ID] = out
	return out
}

// BridgeDirections compares the representation of m's implementation
// against ancestor's, slot by slot.
func (o *Oracle) BridgeDirections(m, ancestor *ir.Method) ir.Directions {
	impl := o.MostSpecificImplementation(m)
	if impl == nil {
		impl = m
	}
	return directions(impl, ancestor)
}

// NeedsBridge reports whether target's native signature differs from
// original in any slot.
func (o *Oracle) NeedsBridge(original, target *ir.Method) bool {
	return !directions(target, original).AllNone()
}

// IsReachableVirtually holds when the overridden signature is itself
// dispatched virtually and visible outside its class.
func (o *Oracle) IsReachableVirtually(edge ir.OverrideEdge, _ *ir.Class) bool {
	return o.IsOverridable(edge.Overridden)
}

// Modality returns the modality the frontend recorded for m.
func (o *Oracle) Modality(m *ir.Method) ir.Modality {
	if m.Modality == "" {
		return ir.Final
	}
	return m.Modality
}

// IsOverridable reports whether m is overridable, non-private and not final.
func (o *Oracle) IsOverridable(m *ir.Method) bool {
	return m.Overridable && !m.Private && o.Modality(m) != ir.Final
}

func directions(native, ancestor *ir.Method) ir.Directions {
	ret := adapt(ancestor.Return, native.Return, true)
	var args []ir.Adaptation
	if ancestor.HasExtension() || native.HasExtension() {
		args = append(args, adapt(ancestor.Extension, native.Extension, false))
	}
	n := len(ancestor.Params)
	if len(native.Params) > n {
		n = len(native.Params)
	}
	for i := 0; i < n; i++ {
		var want, have ir.Repr
		if i < len(ancestor.Params) {
			want = ancestor.Params[i].Repr
		}
		if i < len(native.Params) {
			have = native.Params[i].Repr
		}
		args = append(args, adapt(want, have, false))
	}
	return ir.NewDirections(ret, args...)
}

// adapt classifies how a bridge moves a value between the ancestor's
// representation and the native one. For arguments the value flows
// ancestor -> native, for the return slot native -> ancestor.
func adapt(ancestor, native ir.Repr, isReturn bool) ir.Adaptation {
	ancestor, native = normalize(ancestor, isReturn), normalize(native, isReturn)
	switch {
	case ancestor == native:
		return ir.AdaptNone
	case ancestor.IsRef() == native.IsRef():
		return ir.AdaptReinterpret
	case ancestor.IsRef() != isReturn:
		// uniform argument unboxed on entry, or uniform result unboxed on exit
		return ir.AdaptIn
	default:
		return ir.AdaptOut
	}
}

func normalize(r ir.Repr, isReturn bool) ir.Repr {
	if r == "" {
		if isReturn {
			return ir.ReprUnit
		}
		return ir.ReprRef
	}
	return r
}
