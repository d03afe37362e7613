package ir

// Expr is a node of a method body.
type Expr interface {
	Pos() Span
	exprNode()
}

// Call is a method call. Super is the explicit static-dispatch qualifier:
// when set, the call binds to the implementation visible in that class and
// is never dispatched virtually.
type Call struct {
	Span      Span
	Callee    *Method
	CalleeID  string
	Origin    string
	Super     string
	Dispatch  Expr
	Extension Expr
	Args      []Expr
	// TypeArgs binds the callee's type parameters by name.
	TypeArgs map[string]string
}

// GetValue reads a parameter or local. "this" is the dispatch receiver and
// ExtensionReceiverName the extension receiver.
type GetValue struct {
	Span Span
	Name string
}

// ExtensionReceiverName is the value name bound to a method's extension receiver.
const ExtensionReceiverName = "<ext>"

// Const is a literal of a known representation.
type Const struct {
	Span  Span
	Value string
	Repr  Repr
}

// Return returns Value from the method with ID Target.
type Return struct {
	Span   Span
	Target string
	Value  Expr
}

// Block evaluates its statements in order.
type Block struct {
	Span  Span
	Stmts []Expr
}

func (c *Call) Pos() Span     { return c.Span }
func (g *GetValue) Pos() Span { return g.Span }
func (c *Const) Pos() Span    { return c.Span }
func (r *Return) Pos() Span   { return r.Span }
func (b *Block) Pos() Span    { return b.Span }

func (*Call) exprNode()     {}
func (*GetValue) exprNode() {}
func (*Const) exprNode()    {}
func (*Return) exprNode()   {}
func (*Block) exprNode()    {}

// IsVirtual reports whether the call is dispatched on the receiver's
// run-time class: it has no static-dispatch qualifier and its callee is
// abstract or overridable.
func (c *Call) IsVirtual() bool {
	if c.Super != "" || c.Callee == nil {
		return false
	}
	return c.Callee.Modality == Abstract || (c.Callee.Overridable && c.Callee.Modality != Final)
}

// NewCall builds a call to callee with CalleeID filled in.
func NewCall(span Span, callee *Method) *Call {
	return &Call{Span: span, Callee: callee, CalleeID: callee.ID}
}

// Transform rewrites the tree rooted at e in post-order: children are
// transformed before fn sees their parent. fn returns the node that
// replaces its argument; returning the argument keeps it.
func Transform(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	var err error
	switch n := e.(type) {
	case *Call:
		if n.Dispatch, err = Transform(n.Dispatch, fn); err != nil {
			return nil, err
		}
		if n.Extension, err = Transform(n.Extension, fn); err != nil {
			return nil, err
		}
		for i, a := range n.Args {
			if n.Args[i], err = Transform(a, fn); err != nil {
				return nil, err
			}
		}
	case *Return:
		if n.Value, err = Transform(n.Value, fn); err != nil {
			return nil, err
		}
	case *Block:
		for i, s := range n.Stmts {
			if n.Stmts[i], err = Transform(s, fn); err != nil {
				return nil, err
			}
		}
	}
	return fn(e)
}

// Inspect calls fn for every node of the tree in pre-order.
func Inspect(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *Call:
		Inspect(n.Dispatch, fn)
		Inspect(n.Extension, fn)
		for _, a := range n.Args {
			Inspect(a, fn)
		}
	case *Return:
		Inspect(n.Value, fn)
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, fn)
		}
	}
}

// Calls returns every call in the tree in pre-order.
func Calls(e Expr) []*Call {
	var out []*Call
	Inspect(e, func(n Expr) {
		if c, ok := n.(*Call); ok {
			out = append(out, c)
		}
	})
	return out
}
