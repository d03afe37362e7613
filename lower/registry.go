package lower

import (
	"sort"
	"sync"

	"github.com/goguard/bridgelower/ir"
)

type pairKey struct {
	overriding string
	ancestor   string
}

type setKey struct {
	overriding string
	dirs       ir.Directions
}

// Registry memoizes bridge descriptors. A request for a pair seen before
// returns the identical *ir.Method. Descriptors are canonical per
// (overriding method, direction set): ancestors that need the same
// adaptation share one bridge.
type Registry struct {
	oracle Oracle

	mu     sync.Mutex
	byPair map[pairKey]*ir.Method
	bySet  map[setKey]*ir.Method
}

// NewRegistry returns an empty registry that asks oracle for bridge directions.
func NewRegistry(oracle Oracle) *Registry {
	return &Registry{
		oracle: oracle,
		byPair: make(map[pairKey]*ir.Method),
		bySet:  make(map[setKey]*ir.Method),
	}
}

// BridgeFor returns the bridge that lets callers reach overriding through
// ancestor's signature.
func (r *Registry) BridgeFor(overriding, ancestor *ir.Method) *ir.Method {
	pk := pairKey{overriding: overriding.ID, ancestor: ancestor.ID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byPair[pk]; ok {
		return d
	}
	sk := setKey{overriding: overriding.ID, dirs: r.oracle.BridgeDirections(overriding, ancestor)}
	d, ok := r.bySet[sk]
	if !ok {
		d = newBridgeDescriptor(overriding, ancestor, sk.dirs)
		r.bySet[sk] = d
	}
	r.byPair[pk] = d
	return d
}

// Len is the number of distinct descriptors handed out.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySet)
}

// Descriptors returns every descriptor handed out, ordered by ID.
func (r *Registry) Descriptors() []*ir.Method {
	r.mu.Lock()
	out := make([]*ir.Method, 0, len(r.bySet))
	for _, d := range r.bySet {
		out = append(out, d)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// newBridgeDescriptor gives the bridge ancestor's signature, declared in
// overriding's class.
func newBridgeDescriptor(overriding, ancestor *ir.Method, dirs ir.Directions) *ir.Method {
	d := &ir.Method{
		ID:          overriding.ID + "$bridge" + dirs.String(),
		Name:        "<bridge-" + dirs.String() + ">" + overriding.Name,
		Class:       overriding.Class,
		TypeParams:  append([]string(nil), ancestor.TypeParams...),
		Dispatch:    overriding.Dispatch,
		Extension:   ancestor.Extension,
		Params:      append([]ir.Param(nil), ancestor.Params...),
		Return:      ancestor.Return,
		Modality:    ir.Open,
		Overridable: true,
		Kind:        ir.KindBridge,
		Origin:      ir.OriginBridge,
	}
	d.SetOverridden([]*ir.Method{ancestor})
	return d
}
