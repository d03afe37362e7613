package ir

import (
	"encoding/json"
	"fmt"
)

// exprJSON is the wire form of every expression node, tagged by Kind.
type exprJSON struct {
	Kind      string            `json:"kind"`
	Span      *Span             `json:"span,omitempty"`
	Callee    string            `json:"callee,omitempty"`
	Origin    string            `json:"origin,omitempty"`
	Super     string            `json:"super,omitempty"`
	Dispatch  *exprJSON         `json:"dispatch,omitempty"`
	Extension *exprJSON         `json:"extension,omitempty"`
	Args      []*exprJSON       `json:"args,omitempty"`
	TypeArgs  map[string]string `json:"type_args,omitempty"`
	Name      string            `json:"name,omitempty"`
	Value     string            `json:"value,omitempty"`
	Repr      Repr              `json:"repr,omitempty"`
	Target    string            `json:"target,omitempty"`
	Result    *exprJSON         `json:"result,omitempty"`
	Stmts     []*exprJSON       `json:"stmts,omitempty"`
}

func spanPtr(s Span) *Span {
	if s == Undefined {
		return nil
	}
	return &s
}

func spanOf(s *Span) Span {
	if s == nil {
		return Undefined
	}
	return *s
}

func encodeExpr(e Expr) *exprJSON {
	switch n := e.(type) {
	case nil:
		return nil
	case *Call:
		w := &exprJSON{
			Kind:      "call",
			Span:      spanPtr(n.Span),
			Callee:    n.CalleeID,
			Origin:    n.Origin,
			Super:     n.Super,
			Dispatch:  encodeExpr(n.Dispatch),
			Extension: encodeExpr(n.Extension),
			TypeArgs:  n.TypeArgs,
		}
		if n.Callee != nil {
			w.Callee = n.Callee.ID
		}
		for _, a := range n.Args {
			w.Args = append(w.Args, encodeExpr(a))
		}
		return w
	case *GetValue:
		return &exprJSON{Kind: "get", Span: spanPtr(n.Span), Name: n.Name}
	case *Const:
		return &exprJSON{Kind: "const", Span: spanPtr(n.Span), Value: n.Value, Repr: n.Repr}
	case *Return:
		return &exprJSON{Kind: "return", Span: spanPtr(n.Span), Target: n.Target, Result: encodeExpr(n.Value)}
	case *Block:
		w := &exprJSON{Kind: "block", Span: spanPtr(n.Span), Stmts: []*exprJSON{}}
		for _, s := range n.Stmts {
			w.Stmts = append(w.Stmts, encodeExpr(s))
		}
		return w
	}
	panic(fmt.Sprintf("ir: unknown expression %T", e))
}

func decodeExpr(w *exprJSON) (Expr, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "call":
		c := &Call{
			Span:     spanOf(w.Span),
			CalleeID: w.Callee,
			Origin:   w.Origin,
			Super:    w.Super,
			TypeArgs: w.TypeArgs,
		}
		var err error
		if c.Dispatch, err = decodeExpr(w.Dispatch); err != nil {
			return nil, err
		}
		if c.Extension, err = decodeExpr(w.Extension); err != nil {
			return nil, err
		}
		for _, a := range w.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
		}
		return c, nil
	case "get":
		return &GetValue{Span: spanOf(w.Span), Name: w.Name}, nil
	case "const":
		return &Const{Span: spanOf(w.Span), Value: w.Value, Repr: w.Repr}, nil
	case "return":
		v, err := decodeExpr(w.Result)
		if err != nil {
			return nil, err
		}
		return &Return{Span: spanOf(w.Span), Target: w.Target, Value: v}, nil
	case "block":
		return decodeBlock(w)
	}
	return nil, fmt.Errorf("unknown expression kind %q", w.Kind)
}

func decodeBlock(w *exprJSON) (*Block, error) {
	b := &Block{Span: spanOf(w.Span)}
	for _, s := range w.Stmts {
		stmt, err := decodeExpr(s)
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
	}
	return b, nil
}

type methodAlias Method

type methodJSON struct {
	*methodAlias
	Body *exprJSON `json:"body,omitempty"`
}

func (m *Method) MarshalJSON() ([]byte, error) {
	w := methodJSON{methodAlias: (*methodAlias)(m)}
	if m.Body != nil {
		w.Body = encodeExpr(m.Body)
	}
	return json.Marshal(w)
}

func (m *Method) UnmarshalJSON(data []byte) error {
	w := methodJSON{methodAlias: (*methodAlias)(m)}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Body == nil {
		return nil
	}
	if w.Body.Kind != "block" {
		return fmt.Errorf("method %s: body must be a block, got %q", m.ID, w.Body.Kind)
	}
	body, err := decodeBlock(w.Body)
	if err != nil {
		return fmt.Errorf("method %s: %w", m.ID, err)
	}
	m.Body = body
	return nil
}

// DecodeUnit parses a JSON unit and links it.
func DecodeUnit(data []byte) (*Unit, error) {
	var u Unit
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding unit: %w", err)
	}
	if err := u.Link(); err != nil {
		return nil, fmt.Errorf("linking unit %s: %w", u.Name, err)
	}
	return &u, nil
}
