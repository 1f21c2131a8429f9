// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package resolve binds names, folds constants, validates unions, and
// classifies optional-pointer fields. The symbol table is filled with every
// declaration first, and each declaration's source position then decides
// what it may see: declarations are visible only after their definition,
// except through optional pointers, which is how cyclic structures express
// themselves.
package resolve

import (
	"go.e43.eu/xdrgen/diag"
	"go.e43.eu/xdrgen/internal/ast"
)

// MaxLength is the largest length a variable-length container may declare
const MaxLength = int64(0xFFFFFFFF)

// Resolve annotates schema in place, appending any problems to diags. The
// schema must not be emitted if diagnostics were added.
func Resolve(schema *ast.Schema, diags *diag.List) {
	r := &resolver{
		schema: schema,
		diags:  diags,
		table:  make(map[string]ast.Decl),
		index:  make(map[string]int),
	}
	r.buildTable()
	r.resolveDecls()
	r.resolvePrograms()
	if len(*diags) == 0 {
		r.classifyPointers()
	}
}

type resolver struct {
	schema *ast.Schema
	diags  *diag.List
	table  map[string]ast.Decl
	index  map[string]int // declaration order, for before-use checks
}

func (r *resolver) errorf(offset int, kind diag.Kind, format string, args ...interface{}) {
	r.diags.Add(offset, kind, format, args...)
}

func (r *resolver) buildTable() {
	for i, d := range r.schema.Decls {
		name := d.DeclName()
		if prev, ok := r.table[name]; ok {
			r.errorf(d.DeclOffset(), diag.DuplicateName,
				"'%s' redeclared (previous declaration at offset %d)", name, prev.DeclOffset())
			continue
		}
		r.table[name] = d
		r.index[name] = i
	}
}

// lookup binds a name at declaration position i. Forward references are
// permitted only when the reference is reached through an optional pointer.
func (r *resolver) lookup(name string, offset, i int, viaOptional bool) ast.Decl {
	d, ok := r.table[name]
	if !ok {
		r.errorf(offset, diag.UnresolvedName, "'%s' is not defined", name)
		return nil
	}
	if !viaOptional && r.index[name] > i {
		r.errorf(offset, diag.UnresolvedName, "'%s' is used before its definition", name)
		return nil
	}
	return d
}

func (r *resolver) resolveDecls() {
	for i, d := range r.schema.Decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			d.Value.Value = r.fold(d.Value, i)
		case *ast.TypedefDecl:
			r.resolveType(d.Type, i, false)
		case *ast.EnumDecl:
			r.resolveEnum(d, i)
		case *ast.StructDecl:
			for _, f := range d.Fields {
				r.resolveType(f.Type, i, false)
			}
		case *ast.UnionDecl:
			r.resolveUnion(d, i)
		}
	}
}

func (r *resolver) resolveEnum(d *ast.EnumDecl, i int) {
	seen := make(map[string]bool)
	for _, v := range d.Variants {
		if seen[v.Name] {
			r.errorf(v.Offset, diag.DuplicateName, "enum variant '%s' redeclared", v.Name)
			continue
		}
		seen[v.Name] = true
		v.Value.Value = r.fold(v.Value, i)
	}
}

func (r *resolver) resolveType(t *ast.Type, i int, viaOptional bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case ast.TNamed:
		t.Decl = r.lookup(t.Name, t.Offset, i, viaOptional)
		if _, isConst := t.Decl.(*ast.ConstDecl); isConst {
			r.errorf(t.Offset, diag.UnresolvedName, "'%s' is a constant, not a type", t.Name)
			t.Decl = nil
		}
	case ast.TOptional:
		r.resolveType(t.Elem, i, true)
	case ast.TFixedArray:
		r.resolveType(t.Elem, i, viaOptional)
		t.LenValue = r.foldLength(t.Len, i)
	case ast.TVarArray:
		r.resolveType(t.Elem, i, viaOptional)
		t.MaxValue = r.foldLength(t.Max, i)
	case ast.TOpaqueFixed:
		t.LenValue = r.foldLength(t.Len, i)
	case ast.TOpaqueVar, ast.TString:
		t.MaxValue = r.foldLength(t.Max, i)
	}
}

// foldLength folds an array length or cap. A nil cap means unlimited.
func (r *resolver) foldLength(e *ast.ConstExpr, i int) int64 {
	if e == nil {
		return ast.Unlimited
	}
	v := r.fold(e, i)
	if v < 0 {
		r.errorf(e.Offset, diag.BadConstExpr, "array length must be non-negative, got %d", v)
		return 0
	}
	if v > MaxLength {
		r.errorf(e.Offset, diag.BadConstExpr, "array length %d exceeds the wire format limit", v)
		return 0
	}
	return v
}

// fold evaluates a constant expression: a literal, or a reference to a prior
// const declaration (possibly through further references)
func (r *resolver) fold(e *ast.ConstExpr, i int) int64 {
	if !e.IsRef() {
		return e.Value
	}
	d := r.lookup(e.Name, e.Offset, i, false)
	if d == nil {
		return 0
	}
	c, ok := d.(*ast.ConstDecl)
	if !ok {
		r.errorf(e.Offset, diag.BadConstExpr, "'%s' is not a constant", e.Name)
		return 0
	}
	return r.fold(c.Value, r.index[c.Name])
}

// underlying chases typedef chains to the structural type beneath
func underlying(t *ast.Type) *ast.Type {
	for t != nil && t.Kind == ast.TNamed {
		td, ok := t.Decl.(*ast.TypedefDecl)
		if !ok {
			return t
		}
		t = td.Type
	}
	return t
}

func (r *resolver) resolveUnion(d *ast.UnionDecl, i int) {
	r.resolveType(d.Disc.Type, i, false)

	var discEnum *ast.EnumDecl
	disc := underlying(d.Disc.Type)
	switch {
	case disc == nil:
		return // already diagnosed
	case disc.Kind == ast.TBool, disc.Kind == ast.TInt, disc.Kind == ast.TUInt:
	case disc.Kind == ast.TNamed:
		e, ok := disc.Decl.(*ast.EnumDecl)
		if !ok {
			if disc.Decl != nil {
				r.errorf(d.Disc.Type.Offset, diag.BadUnion,
					"union discriminant must be bool, int, unsigned int, or an enum")
			}
			return
		}
		discEnum = e
	default:
		r.errorf(d.Disc.Type.Offset, diag.BadUnion,
			"union discriminant must be bool, int, unsigned int, or an enum")
		return
	}

	seen := make(map[int32]bool)
	for _, arm := range d.Arms {
		for _, label := range arm.Labels {
			v, ok := r.foldLabel(label, disc, discEnum, i)
			if !ok {
				continue
			}
			if seen[v] {
				r.errorf(label.Offset, diag.BadUnion, "duplicate case label %d", v)
				continue
			}
			seen[v] = true
			arm.Values = append(arm.Values, v)
		}
		if arm.Field != nil {
			r.resolveType(arm.Field.Type, i, false)
		}
	}
	if d.Default != nil && d.Default.Field != nil {
		r.resolveType(d.Default.Field.Type, i, false)
	}
}

// foldLabel evaluates a case label against the discriminant's domain
func (r *resolver) foldLabel(label *ast.ConstExpr, disc *ast.Type, discEnum *ast.EnumDecl, i int) (int32, bool) {
	if discEnum != nil {
		if label.IsRef() {
			for _, v := range discEnum.Variants {
				if v.Name == label.Name {
					return int32(v.Value.Value), true
				}
			}
			r.errorf(label.Offset, diag.BadUnion,
				"'%s' is not a variant of enum '%s'", label.Name, discEnum.Name)
			return 0, false
		}
		for _, v := range discEnum.Variants {
			if v.Value.Value == label.Value {
				return int32(label.Value), true
			}
		}
		r.errorf(label.Offset, diag.BadUnion,
			"%d is not a value of enum '%s'", label.Value, discEnum.Name)
		return 0, false
	}

	v := r.fold(label, i)
	if disc.Kind == ast.TBool && v != 0 && v != 1 {
		r.errorf(label.Offset, diag.BadUnion, "case label %d is not a bool value", v)
		return 0, false
	}
	return int32(v), true
}

// classifyPointers implements the container-detection rule: the graph of
// struct-to-struct optional pointers is computed, structs on a cycle are
// self-referential, and each pointer field is classified as a plain option,
// a container head, or the elided pointer-to-self of a list element.
func (r *resolver) classifyPointers() {
	edges := make(map[*ast.StructDecl][]*ast.StructDecl)
	var structs []*ast.StructDecl
	for _, d := range r.schema.Decls {
		s, ok := d.(*ast.StructDecl)
		if !ok {
			continue
		}
		structs = append(structs, s)
		for _, f := range s.Fields {
			if t := pointeeStruct(f.Type); t != nil {
				edges[s] = append(edges[s], t)
			}
		}
	}

	selfRef := make(map[*ast.StructDecl]bool)
	for _, s := range structs {
		selfRef[s] = onCycle(s, edges)
	}

	for _, s := range structs {
		r.classifyStructPointers(s, selfRef)
	}

	for _, d := range r.schema.Decls {
		u, ok := d.(*ast.UnionDecl)
		if !ok {
			continue
		}
		for _, arm := range u.Arms {
			r.classifyContainedField(arm.Field, selfRef)
		}
		if u.Default != nil {
			r.classifyContainedField(u.Default.Field, selfRef)
		}
	}
}

func (r *resolver) classifyStructPointers(s *ast.StructDecl, selfRef map[*ast.StructDecl]bool) {
	selfPointers := 0
	for _, f := range s.Fields {
		if t := pointeeStruct(f.Type); t != nil && selfRef[t] {
			selfPointers++
		}
	}

	for fi, f := range s.Fields {
		t := pointeeStruct(f.Type)
		switch {
		case underlying(f.Type) == nil || underlying(f.Type).Kind != ast.TOptional:
			// not a pointer field
		case t == nil || !selfRef[t]:
			f.Class = ast.ClassPlainOption
		case t == s:
			// The element's own pointer-to-self: legal only as the final
			// field, and only when it is the lone cyclic reference
			if fi == len(s.Fields)-1 && selfPointers == 1 {
				f.Class = ast.ClassElided
				s.SelfReferential = true
			} else {
				r.errorf(f.Offset, diag.UnsupportedOptional,
					"self-referential pointer '%s' must be the final field of '%s' and its only cyclic reference", f.Name, s.Name)
			}
		case !selfRef[s]:
			f.Class = ast.ClassContainerHead
		default:
			r.errorf(f.Offset, diag.UnsupportedOptional,
				"self-referential type '%s' is not representable here; wrap it in a container struct", t.Name)
		}
	}
}

// classifyContainedField classifies an optional field held by a union arm.
// Unions never participate in the pointer cycle graph, so a pointer to a
// self-referential struct is a container head.
func (r *resolver) classifyContainedField(f *ast.Field, selfRef map[*ast.StructDecl]bool) {
	if f == nil {
		return
	}
	u := underlying(f.Type)
	if u == nil || u.Kind != ast.TOptional {
		return
	}
	if t := pointeeStruct(f.Type); t != nil && selfRef[t] {
		f.Class = ast.ClassContainerHead
	} else {
		f.Class = ast.ClassPlainOption
	}
}

// pointeeStruct returns the struct an optional field points at, chasing
// typedefs on both the field type and the pointee, or nil if the field is
// not an optional-of-struct
func pointeeStruct(t *ast.Type) *ast.StructDecl {
	u := underlying(t)
	if u == nil || u.Kind != ast.TOptional {
		return nil
	}
	pe := underlying(u.Elem)
	if pe == nil || pe.Kind != ast.TNamed {
		return nil
	}
	s, _ := pe.Decl.(*ast.StructDecl)
	return s
}

// onCycle reports whether s can reach itself through one or more edges
func onCycle(s *ast.StructDecl, edges map[*ast.StructDecl][]*ast.StructDecl) bool {
	visited := make(map[*ast.StructDecl]bool)
	var walk func(n *ast.StructDecl) bool
	walk = func(n *ast.StructDecl) bool {
		for _, next := range edges[n] {
			if next == s {
				return true
			}
			if !visited[next] {
				visited[next] = true
				if walk(next) {
					return true
				}
			}
		}
		return false
	}
	return walk(s)
}

func (r *resolver) resolvePrograms() {
	for _, prog := range r.schema.Programs {
		r.checkNumber(prog.Number, prog.Offset, "program")
		for _, ver := range prog.Versions {
			r.checkNumber(ver.Number, ver.Offset, "version")
			for _, proc := range ver.Procedures {
				r.checkNumber(proc.Number, proc.Offset, "procedure")
				r.resolveType(proc.Arg, len(r.schema.Decls), false)
				r.resolveType(proc.Ret, len(r.schema.Decls), false)
			}
		}
	}
}

func (r *resolver) checkNumber(n int64, offset int, what string) {
	if n < 0 || n > MaxLength {
		r.errorf(offset, diag.BadConstExpr, "%s number %d out of range", what, n)
	}
}
