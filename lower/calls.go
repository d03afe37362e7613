package lower

import (
	"github.com/goguard/bridgelower/ir"
)

// CallRewriter binds statically resolvable calls to their implementation
// (or to the bridge in front of it) so they skip virtual dispatch.
type CallRewriter struct {
	oracle  Oracle
	bridges BridgeProvider

	// OnRewrite, when set, observes every replaced call.
	OnRewrite func(old, new *ir.Call)
	// OnVirtual, when set, observes every call left to virtual dispatch.
	OnVirtual func(call *ir.Call)
}

// NewCallRewriter returns a rewriter that resolves targets through oracle
// and delegation bridges through bridges.
func NewCallRewriter(oracle Oracle, bridges BridgeProvider) *CallRewriter {
	return &CallRewriter{oracle: oracle, bridges: bridges}
}

// RewriteBody rewrites every call in owner's body, innermost first.
func (r *CallRewriter) RewriteBody(owner *ir.Method) error {
	if owner.Body == nil {
		return nil
	}
	body, err := ir.Transform(owner.Body, func(e ir.Expr) (ir.Expr, error) {
		call, ok := e.(*ir.Call)
		if !ok {
			return e, nil
		}
		return r.RewriteCall(call)
	})
	if err != nil {
		return err
	}
	owner.Body = body.(*ir.Block)
	return nil
}

// RewriteCall returns the replacement for call, or call itself when it
// must stay as it is. Children of call are not visited.
func (r *CallRewriter) RewriteCall(call *ir.Call) (ir.Expr, error) {
	callee := call.Callee
	if callee == nil {
		return nil, inconsistent("", call.CalleeID, "call to unlinked method")
	}
	if r.oracle.Modality(callee) == ir.Abstract || (call.Super == "" && r.oracle.IsOverridable(callee)) {
		// Virtual call: the bridge in the receiver's class adapts it.
		if r.OnVirtual != nil {
			r.OnVirtual(call)
		}
		return call, nil
	}

	target := r.oracle.MostSpecificImplementation(callee)
	if target == nil {
		return nil, inconsistent(callee.Class, callee.ID, "no concrete implementation for non-virtual call")
	}
	needsBridge := r.oracle.NeedsBridge(callee, target)
	if callee.Kind != ir.KindDelegation && !needsBridge {
		return call, nil
	}

	toCall := target
	if !needsBridge {
		toCall = r.bridges.BridgeFor(callee, target)
		if toCall == nil {
			return nil, inconsistent(callee.Class, callee.ID, "no bridge descriptor for delegation to %s", target.ID)
		}
	}

	rewritten, err := retarget(call, toCall)
	if err != nil {
		return nil, err
	}
	if r.OnRewrite != nil {
		r.OnRewrite(call, rewritten)
	}
	return rewritten, nil
}

// retarget builds a non-virtual call to toCall that carries call's span,
// origin, receivers and arguments. Argument nodes are moved as they are,
// so their number, order and evaluation never change.
func retarget(call *ir.Call, toCall *ir.Method) (*ir.Call, error) {
	old := call.Callee
	if len(old.TypeParams) != len(toCall.TypeParams) {
		return nil, inconsistent(old.Class, old.ID, "%d type parameters, %s has %d",
			len(old.TypeParams), toCall.ID, len(toCall.TypeParams))
	}
	if len(call.Args) != len(toCall.Params) {
		return nil, inconsistent(old.Class, old.ID, "call passes %d arguments, %s takes %d",
			len(call.Args), toCall.ID, len(toCall.Params))
	}

	out := ir.NewCall(call.Span, toCall)
	out.Origin = call.Origin
	// Calling non-virtually keeps a bridge from re-dispatching into itself.
	out.Super = toCall.Class
	out.Dispatch = call.Dispatch
	out.Extension = call.Extension
	typeArgs, err := remapTypeArguments(call, toCall)
	if err != nil {
		return nil, err
	}
	out.TypeArgs = typeArgs
	out.Args = make([]ir.Expr, len(toCall.Params))
	for i := range toCall.Params {
		out.Args[i] = call.Args[i]
	}
	return out, nil
}

// remapTypeArguments renames call's type arguments to toCall's type
// parameters by position. Every callee type parameter must be bound.
func remapTypeArguments(call *ir.Call, toCall *ir.Method) (map[string]string, error) {
	old := call.Callee
	if len(old.TypeParams) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(old.TypeParams))
	for i, tp := range old.TypeParams {
		arg, ok := call.TypeArgs[tp]
		if !ok {
			return nil, inconsistent(old.Class, old.ID, "call leaves type parameter %s unbound", tp)
		}
		out[toCall.TypeParams[i]] = arg
	}
	return out, nil
}
