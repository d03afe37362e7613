// Package goload builds an ir.Unit from Go source. Interfaces become
// interface classes whose type-parameter slots use the uniform
// representation; named types become classes with final methods that
// override the interface methods they implement. Promoted methods of
// embedded fields are contributed as fake overrides. Method bodies are the
// SSA calls made on methods of the loaded packages.
package goload

import (
	"fmt"
	"go/token"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/goguard/bridgelower/ir"
)

// PackageClassName is the class that holds a package's top-level functions.
const PackageClassName = "package"

// CallOrigin tags calls recovered from SSA call instructions.
const CallOrigin = "ssa.call"

// Load type-checks the packages matched by patterns in dir and returns the
// linked unit describing their classes.
func Load(dir string, patterns []string) (*ir.Unit, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo |
			packages.NeedTypesSizes,
		Dir: dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %v in %s", patterns, dir)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	b := &builder{
		prog:    prog,
		unit:    &ir.Unit{},
		byFunc:  make(map[*types.Func]*ir.Method),
		classes: make(map[*types.TypeName]*ir.Class),
	}
	var names []string
	for _, pkg := range pkgs {
		names = append(names, pkg.PkgPath)
		for _, f := range pkg.CompiledGoFiles {
			b.unit.Files = append(b.unit.Files, ir.SourceFile{Path: f, IsGenerated: IsGenerated(f)})
		}
	}
	if len(names) == 1 {
		b.unit.Name = names[0]
	} else {
		b.unit.Name = fmt.Sprintf("%s+%d", names[0], len(names)-1)
	}

	for _, pkg := range pkgs {
		b.declareTypes(pkg.Types)
	}
	b.contributePromoted()
	b.linkInterfaces()
	for i, pkg := range pkgs {
		b.declareFunctions(pkg.Types, ssaPkgs[i])
	}
	b.buildBodies()

	if err := b.unit.Link(); err != nil {
		return nil, fmt.Errorf("linking %s: %w", b.unit.Name, err)
	}
	return b.unit, nil
}

type builder struct {
	prog *ssa.Program
	unit *ir.Unit

	byFunc  map[*types.Func]*ir.Method
	classes map[*types.TypeName]*ir.Class

	ifaces    []*types.Named
	concretes []*types.Named
	bodies    []pendingBody
}

type pendingBody struct {
	method *ir.Method
	fn     *ssa.Function
}

func qualified(obj types.Object) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Path() + "." + obj.Name()
}

func (b *builder) position(pos token.Pos) token.Position {
	return b.prog.Fset.Position(pos)
}

// declareTypes adds a class for every named type in the package scope,
// with its interface methods or its declared concrete methods.
func (b *builder) declareTypes(pkg *types.Package) {
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		class := &ir.Class{Name: qualified(tn), File: b.position(tn.Pos()).Filename}
		b.classes[tn] = class
		b.unit.Classes = append(b.unit.Classes, class)

		if iface, ok := named.Underlying().(*types.Interface); ok {
			class.Kind = ir.ClassKindInterface
			b.ifaces = append(b.ifaces, named)
			for i := 0; i < iface.NumEmbeddeds(); i++ {
				if en, ok := iface.EmbeddedType(i).(*types.Named); ok {
					class.Supers = append(class.Supers, qualified(en.Obj()))
				}
			}
			for i := 0; i < iface.NumExplicitMethods(); i++ {
				fn := iface.ExplicitMethod(i)
				m := b.newMethod(class, fn)
				m.Modality = ir.Abstract
				m.Overridable = true
				class.Methods = append(class.Methods, m)
			}
			continue
		}

		class.Kind = ir.ClassKindClass
		b.concretes = append(b.concretes, named)
		for i := 0; i < named.NumMethods(); i++ {
			fn := named.Method(i)
			m := b.newMethod(class, fn)
			m.Modality = ir.Final
			class.Methods = append(class.Methods, m)
			if sfn := b.prog.FuncValue(fn); sfn != nil {
				b.bodies = append(b.bodies, pendingBody{method: m, fn: sfn})
			}
		}
	}
}

func (b *builder) newMethod(class *ir.Class, fn *types.Func) *ir.Method {
	sig := fn.Type().(*types.Signature)
	m := &ir.Method{
		ID:       class.Name + "." + fn.Name(),
		Name:     fn.Name(),
		Class:    class.Name,
		Dispatch: sig.Recv() != nil,
		Kind:     ir.KindDeclared,
		Params:   params(sig),
		Return:   results(sig),
	}
	b.byFunc[fn] = m
	return m
}

// contributePromoted adds a fake override for every method a concrete type
// or an interface inherits through embedding.
func (b *builder) contributePromoted() {
	for _, named := range b.concretes {
		class := b.classes[named.Obj()]
		mset := types.NewMethodSet(types.NewPointer(named))
		for i := 0; i < mset.Len(); i++ {
			sel := mset.At(i)
			if len(sel.Index()) < 2 {
				continue
			}
			inherited := b.lookup(sel.Obj().(*types.Func))
			if inherited == nil {
				continue
			}
			fake := b.fakeOverride(class, inherited)
			fake.Modality = ir.Final
			if inherited.Modality == ir.Abstract {
				// promoted from an embedded interface: still dispatched at run time
				fake.Modality = ir.Abstract
			}
		}
	}
	for _, named := range b.ifaces {
		class := b.classes[named.Obj()]
		iface := named.Underlying().(*types.Interface)
		for i := 0; i < iface.NumMethods(); i++ {
			fn := iface.Method(i)
			if m := b.byFunc[fn]; m != nil && m.Class == class.Name {
				continue
			}
			inherited := b.lookup(fn)
			if inherited == nil {
				continue
			}
			fake := b.fakeOverride(class, inherited)
			fake.Modality = ir.Abstract
			fake.Overridable = true
		}
	}
}

func (b *builder) fakeOverride(class *ir.Class, inherited *ir.Method) *ir.Method {
	fake := &ir.Method{
		ID:          class.Name + "." + inherited.Name,
		Name:        inherited.Name,
		Class:       class.Name,
		Dispatch:    inherited.Dispatch,
		Params:      append([]ir.Param(nil), inherited.Params...),
		Return:      inherited.Return,
		Kind:        ir.KindFakeOverride,
		Overridable: inherited.Overridable,
		Overrides:   []string{inherited.ID},
	}
	class.Contributed = append(class.Contributed, fake)
	return fake
}

func (b *builder) lookup(fn *types.Func) *ir.Method {
	if m, ok := b.byFunc[fn]; ok {
		return m
	}
	return b.byFunc[fn.Origin()]
}

// linkInterfaces records an override edge from every concrete member to
// each interface method it implements.
func (b *builder) linkInterfaces() {
	for _, iface := range b.ifaces {
		itype := iface.Underlying().(*types.Interface)
		if itype.NumMethods() == 0 {
			continue
		}
		iclass := b.classes[iface.Obj()]
		for _, concrete := range b.concretes {
			class := b.classes[concrete.Obj()]
			impls, ok := implementations(concrete, iface)
			if !ok {
				continue
			}
			for i := 0; i < itype.NumMethods(); i++ {
				name := itype.Method(i).Name()
				overridden := b.member(iclass, name)
				overriding := b.member(class, name)
				if overridden == nil || overriding == nil || impls[name] == nil {
					continue
				}
				overriding.Overrides = append(overriding.Overrides, overridden.ID)
			}
		}
	}
}

func (b *builder) member(class *ir.Class, name string) *ir.Method {
	for _, m := range class.Members() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// implementations maps each interface method name to the concrete method
// implementing it. Generic interfaces match structurally: a slot typed by
// one of the interface's type parameters accepts any type.
func implementations(concrete, iface *types.Named) (map[string]*types.Func, bool) {
	itype := iface.Underlying().(*types.Interface)
	mset := types.NewMethodSet(types.NewPointer(concrete))
	generic := iface.TypeParams().Len() > 0 || concrete.TypeParams().Len() > 0
	if !generic && !types.Implements(types.NewPointer(concrete), itype) {
		return nil, false
	}

	out := make(map[string]*types.Func, itype.NumMethods())
	for i := 0; i < itype.NumMethods(); i++ {
		want := itype.Method(i)
		sel := mset.Lookup(want.Pkg(), want.Name())
		if sel == nil {
			return nil, false
		}
		have := sel.Obj().(*types.Func)
		if generic && !signaturesMatch(want.Type().(*types.Signature), have.Type().(*types.Signature)) {
			return nil, false
		}
		out[want.Name()] = have
	}
	return out, true
}

func signaturesMatch(want, have *types.Signature) bool {
	if want.Variadic() != have.Variadic() ||
		want.Params().Len() != have.Params().Len() ||
		want.Results().Len() != have.Results().Len() {
		return false
	}
	return tuplesMatch(want.Params(), have.Params()) && tuplesMatch(want.Results(), have.Results())
}

func tuplesMatch(want, have *types.Tuple) bool {
	for i := 0; i < want.Len(); i++ {
		w, h := want.At(i).Type(), have.At(i).Type()
		if mentionsTypeParam(w) || mentionsTypeParam(h) {
			continue
		}
		if !types.Identical(w, h) {
			return false
		}
	}
	return true
}

func mentionsTypeParam(t types.Type) bool {
	switch t := types.Unalias(t).(type) {
	case *types.TypeParam:
		return true
	case *types.Pointer:
		return mentionsTypeParam(t.Elem())
	case *types.Slice:
		return mentionsTypeParam(t.Elem())
	case *types.Array:
		return mentionsTypeParam(t.Elem())
	case *types.Chan:
		return mentionsTypeParam(t.Elem())
	case *types.Map:
		return mentionsTypeParam(t.Key()) || mentionsTypeParam(t.Elem())
	case *types.Named:
		args := t.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			if mentionsTypeParam(args.At(i)) {
				return true
			}
		}
	}
	return false
}

// declareFunctions puts the package's top-level functions into one class.
func (b *builder) declareFunctions(pkg *types.Package, ssaPkg *ssa.Package) {
	if ssaPkg == nil {
		return
	}
	class := &ir.Class{Name: pkg.Path() + "." + PackageClassName, Kind: ir.ClassKindClass}
	var names []string
	for name, member := range ssaPkg.Members {
		if _, ok := member.(*ssa.Function); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fn := ssaPkg.Members[name].(*ssa.Function)
		obj, ok := fn.Object().(*types.Func)
		if !ok {
			continue
		}
		m := b.newMethod(class, obj)
		m.Modality = ir.Final
		class.Methods = append(class.Methods, m)
		b.bodies = append(b.bodies, pendingBody{method: m, fn: fn})
	}
	if len(class.Methods) > 0 {
		b.unit.Classes = append(b.unit.Classes, class)
	}
}

func (b *builder) buildBodies() {
	for _, pb := range b.bodies {
		pb.method.Body = b.body(pb.fn)
	}
}

// body turns every SSA call on a known method into an ir.Call. Interface
// invokes bind to the abstract interface method; static calls bind to the
// concrete method and pass the receiver as dispatch receiver.
func (b *builder) body(fn *ssa.Function) *ir.Block {
	block := &ir.Block{Span: ir.Span{Start: b.position(fn.Pos()).Offset, End: b.position(fn.Pos()).Offset}}
	for _, bb := range fn.Blocks {
		for _, instr := range bb.Instrs {
			call, ok := instr.(*ssa.Call)
			if !ok {
				continue
			}
			if c := b.call(call); c != nil {
				block.Stmts = append(block.Stmts, c)
			}
		}
	}
	return block
}

func (b *builder) call(instr *ssa.Call) *ir.Call {
	common := instr.Common()
	offset := b.position(instr.Pos()).Offset
	span := ir.Span{Start: offset, End: offset}

	if common.IsInvoke() {
		callee := b.lookup(common.Method)
		if callee == nil {
			return nil
		}
		c := ir.NewCall(span, callee)
		c.Origin = CallOrigin
		c.Dispatch = value(common.Value)
		c.Args = values(common.Args)
		return c
	}

	static := common.StaticCallee()
	if static == nil {
		return nil
	}
	if origin := static.Origin(); origin != nil {
		static = origin
	}
	obj, ok := static.Object().(*types.Func)
	if !ok || static.Synthetic != "" {
		return nil
	}
	callee := b.lookup(obj)
	if callee == nil {
		return nil
	}
	c := ir.NewCall(span, callee)
	c.Origin = CallOrigin
	args := common.Args
	if callee.Dispatch && len(args) > 0 {
		c.Dispatch = value(args[0])
		args = args[1:]
	}
	c.Args = values(args)
	return c
}

func value(v ssa.Value) ir.Expr {
	if k, ok := v.(*ssa.Const); ok {
		if k.Value == nil {
			return &ir.Const{Span: ir.Undefined, Value: "nil", Repr: reprOf(k.Type())}
		}
		return &ir.Const{Span: ir.Undefined, Value: k.Value.ExactString(), Repr: reprOf(k.Type())}
	}
	return &ir.GetValue{Span: ir.Undefined, Name: v.Name()}
}

func values(vs []ssa.Value) []ir.Expr {
	out := make([]ir.Expr, len(vs))
	for i, v := range vs {
		out[i] = value(v)
	}
	return out
}

func params(sig *types.Signature) []ir.Param {
	out := make([]ir.Param, sig.Params().Len())
	for i := range out {
		v := sig.Params().At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("p%d", i)
		}
		out[i] = ir.Param{Name: name, Repr: reprOf(v.Type())}
	}
	return out
}

func results(sig *types.Signature) ir.Repr {
	switch sig.Results().Len() {
	case 0:
		return ir.ReprUnit
	case 1:
		return reprOf(sig.Results().At(0).Type())
	}
	return ir.ReprRef
}

// reprOf maps a Go type to its representation: type parameters and
// reference-like types are uniform, basic types keep their own
// representation, other value types are named by their type.
func reprOf(t types.Type) ir.Repr {
	if _, ok := types.Unalias(t).(*types.TypeParam); ok {
		return ir.ReprRef
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		if u.Kind() == types.UnsafePointer || u.Kind() == types.UntypedNil {
			return ir.ReprRef
		}
		return ir.Repr(types.Default(u).(*types.Basic).Name())
	case *types.Struct, *types.Array:
		return ir.Repr("val:" + types.TypeString(t, nil))
	}
	return ir.ReprRef
}
