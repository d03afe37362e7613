// Package ir is the class/method tree that the bridge lowering consumes and
// mutates. Frontends (JSON, Go source) produce a Unit; after Link every
// method reference in the tree points at the Method it names.
package ir

import (
	"fmt"
	"sort"
)

// UndefinedOffset marks spans of synthesized nodes.
const UndefinedOffset = -1

// OriginBridge tags methods synthesized by the bridge builder.
const OriginBridge = "BRIDGE_METHOD"

// Repr is the machine representation of a parameter or return slot.
// ReprRef is the uniform (boxed) representation used by erased signatures;
// ReprUnit is "no value"; every other tag names a native value representation.
type Repr string

const (
	ReprRef  Repr = "ref"
	ReprUnit Repr = "unit"
)

// IsRef reports whether r is the uniform representation.
func (r Repr) IsRef() bool { return r == ReprRef || r == "" }

// Modality says whether a method may be overridden.
type Modality string

const (
	Final    Modality = "final"
	Open     Modality = "open"
	Abstract Modality = "abstract"
)

// MethodKind says where a method came from.
type MethodKind string

const (
	KindDeclared     MethodKind = "declared"
	KindFakeOverride MethodKind = "fake_override"
	KindDelegation   MethodKind = "delegation"
	KindSynthesized  MethodKind = "synthesized"
	KindBridge       MethodKind = "bridge"
)

// ClassKind separates classes from interfaces.
type ClassKind string

const (
	ClassKindClass     ClassKind = "class"
	ClassKindInterface ClassKind = "interface"
)

// Span is a source offset range. Undefined marks synthesized code.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Undefined is the span given to synthesized nodes.
var Undefined = Span{Start: UndefinedOffset, End: UndefinedOffset}

// Param is a value parameter and its native representation.
type Param struct {
	Name string `json:"name"`
	Repr Repr   `json:"repr"`
}

// Method is a method signature plus its optional body. Signatures are
// immutable once a frontend produced them; only Body is replaced by passes.
type Method struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Class       string     `json:"class"`
	TypeParams  []string   `json:"type_params,omitempty"`
	Dispatch    bool       `json:"dispatch"`
	Extension   Repr       `json:"extension,omitempty"`
	Params      []Param    `json:"params,omitempty"`
	Return      Repr       `json:"return"`
	Modality    Modality   `json:"modality"`
	Overridable bool       `json:"overridable"`
	Private     bool       `json:"private,omitempty"`
	Kind        MethodKind `json:"kind"`
	Origin      string     `json:"origin,omitempty"`
	Overrides   []string   `json:"overrides,omitempty"`
	Body        *Block     `json:"-"`

	overridden []*Method
}

// HasExtension reports whether the method declares an extension receiver.
func (m *Method) HasExtension() bool { return m.Extension != "" }

// Overridden returns the methods m directly overrides. Valid after Link.
func (m *Method) Overridden() []*Method { return m.overridden }

// SetOverridden replaces the direct override edges of m.
func (m *Method) SetOverridden(ms []*Method) {
	m.overridden = ms
	m.Overrides = m.Overrides[:0]
	for _, o := range ms {
		m.Overrides = append(m.Overrides, o.ID)
	}
}

func (m *Method) String() string { return m.ID }

// Property carries the accessors the frontend synthesized for a declared property.
type Property struct {
	Name   string  `json:"name"`
	Getter *Method `json:"getter,omitempty"`
	Setter *Method `json:"setter,omitempty"`
}

// Class is a class or interface and the members it declares or inherits.
type Class struct {
	Name        string      `json:"name"`
	Kind        ClassKind   `json:"kind"`
	Supers      []string    `json:"supers,omitempty"`
	File        string      `json:"file,omitempty"`
	Methods     []*Method   `json:"methods,omitempty"`
	Properties  []*Property `json:"properties,omitempty"`
	Contributed []*Method   `json:"contributed,omitempty"`
}

func (c *Class) IsInterface() bool { return c.Kind == ClassKindInterface }

// Members returns every method owned by c: declared methods, property
// accessors, then contributed methods, in that order.
func (c *Class) Members() []*Method {
	var out []*Method
	out = append(out, c.Methods...)
	for _, p := range c.Properties {
		if p.Getter != nil {
			out = append(out, p.Getter)
		}
		if p.Setter != nil {
			out = append(out, p.Setter)
		}
	}
	return append(out, c.Contributed...)
}

// HasMember reports whether c already owns a method with the given ID.
func (c *Class) HasMember(id string) bool {
	for _, m := range c.Members() {
		if m.ID == id {
			return true
		}
	}
	return false
}

// SourceFile is an input file recorded by a frontend.
type SourceFile struct {
	Path        string `json:"path"`
	IsGenerated bool   `json:"is_generated"`
}

// Unit is one compilation unit.
type Unit struct {
	Name    string       `json:"name"`
	Files   []SourceFile `json:"files,omitempty"`
	Classes []*Class     `json:"classes"`

	methods map[string]*Method
	classes map[string]*Class
}

// Method looks up a method by ID. Valid after Link.
func (u *Unit) Method(id string) *Method { return u.methods[id] }

// Class looks up a class by name. Valid after Link.
func (u *Unit) Class(name string) *Class { return u.classes[name] }

// Link indexes every class and method and resolves override edges and call
// callees to pointers. It fails on duplicate IDs and dangling references.
func (u *Unit) Link() error {
	u.methods = make(map[string]*Method)
	u.classes = make(map[string]*Class)
	for _, c := range u.Classes {
		if _, dup := u.classes[c.Name]; dup {
			return fmt.Errorf("duplicate class %q", c.Name)
		}
		u.classes[c.Name] = c
		for _, m := range c.Members() {
			if _, dup := u.methods[m.ID]; dup {
				return fmt.Errorf("duplicate method %q in class %s", m.ID, c.Name)
			}
			if m.Class == "" {
				m.Class = c.Name
			}
			u.methods[m.ID] = m
		}
	}
	for _, c := range u.Classes {
		for _, m := range c.Members() {
			m.overridden = m.overridden[:0]
			for _, id := range m.Overrides {
				o, ok := u.methods[id]
				if !ok {
					return fmt.Errorf("method %s overrides unknown method %q", m.ID, id)
				}
				m.overridden = append(m.overridden, o)
			}
			if m.Body == nil {
				continue
			}
			var linkErr error
			Inspect(m.Body, func(e Expr) {
				call, ok := e.(*Call)
				if !ok || linkErr != nil {
					return
				}
				if call.Callee == nil || call.Callee.ID != call.CalleeID {
					callee, ok := u.methods[call.CalleeID]
					if !ok {
						linkErr = fmt.Errorf("method %s calls unknown method %q", m.ID, call.CalleeID)
						return
					}
					call.Callee = callee
				}
			})
			if linkErr != nil {
				return linkErr
			}
		}
	}
	return nil
}

// SortedClasses returns the classes ordered by name.
func (u *Unit) SortedClasses() []*Class {
	out := make([]*Class, len(u.Classes))
	copy(out, u.Classes)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
