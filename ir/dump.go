package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Dump writes a deterministic, human-readable rendering of the unit.
func Dump(w io.Writer, u *Unit) error {
	var b strings.Builder
	fmt.Fprintf(&b, "unit %s\n", u.Name)
	for _, c := range u.SortedClasses() {
		fmt.Fprintf(&b, "%s %s", c.Kind, c.Name)
		if len(c.Supers) > 0 {
			fmt.Fprintf(&b, " : %s", strings.Join(c.Supers, ", "))
		}
		b.WriteString("\n")
		for _, m := range c.Members() {
			dumpMethod(&b, m)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DumpString is Dump into a string.
func DumpString(u *Unit) string {
	var b strings.Builder
	_ = Dump(&b, u)
	return b.String()
}

func dumpMethod(b *strings.Builder, m *Method) {
	fmt.Fprintf(b, "  %s %s fun ", m.Modality, m.Kind)
	if len(m.TypeParams) > 0 {
		fmt.Fprintf(b, "<%s> ", strings.Join(m.TypeParams, ", "))
	}
	if m.HasExtension() {
		fmt.Fprintf(b, "[%s].", m.Extension)
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Name + ": " + string(p.Repr)
	}
	fmt.Fprintf(b, "%s(%s): %s", m.ID, strings.Join(params, ", "), m.Return)
	if m.Origin != "" {
		fmt.Fprintf(b, " origin=%s", m.Origin)
	}
	if len(m.Overrides) > 0 {
		fmt.Fprintf(b, " overrides=%s", strings.Join(m.Overrides, ","))
	}
	b.WriteString("\n")
	if m.Body != nil {
		for _, s := range m.Body.Stmts {
			b.WriteString("    ")
			b.WriteString(ExprString(s))
			b.WriteString("\n")
		}
	}
}

// ExprString renders one expression on a single line.
func ExprString(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *Call:
		var b strings.Builder
		if n.Dispatch != nil {
			b.WriteString(ExprString(n.Dispatch))
			b.WriteString(".")
		}
		if n.Super != "" {
			fmt.Fprintf(&b, "super<%s>.", n.Super)
		}
		id := n.CalleeID
		if n.Callee != nil {
			id = n.Callee.ID
		}
		b.WriteString(id)
		if len(n.TypeArgs) > 0 {
			keys := make([]string, 0, len(n.TypeArgs))
			for k := range n.TypeArgs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for i, k := range keys {
				keys[i] = k + "=" + n.TypeArgs[k]
			}
			fmt.Fprintf(&b, "<%s>", strings.Join(keys, ", "))
		}
		args := make([]string, 0, len(n.Args)+1)
		if n.Extension != nil {
			args = append(args, "ext="+ExprString(n.Extension))
		}
		for _, a := range n.Args {
			args = append(args, ExprString(a))
		}
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
		return b.String()
	case *GetValue:
		return n.Name
	case *Const:
		return fmt.Sprintf("%s:%s", n.Value, n.Repr)
	case *Return:
		return "return " + ExprString(n.Value)
	case *Block:
		parts := make([]string, len(n.Stmts))
		for i, s := range n.Stmts {
			parts[i] = ExprString(s)
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	}
	return fmt.Sprintf("<%T>", e)
}
