// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package gen emits Go source from a resolved schema: one data definition
// per declared type plus a MarshalXDR / EncodeXDR / UnmarshalXDR codec
// triple whose behavior is fully determined by the schema. Generated code
// depends only on the go.e43.eu/xdrgen/xdr runtime.
package gen

import (
	"bytes"
	"fmt"
	"strings"

	"go.e43.eu/xdrgen/internal/ast"
)

const runtimeImport = "go.e43.eu/xdrgen/xdr"

// Generate renders the schema as a Go source file in package pkg. The
// schema must have resolved without diagnostics.
func Generate(schema *ast.Schema, pkg string) []byte {
	g := &generator{}
	for _, d := range schema.Decls {
		g.decl(d)
	}
	for _, prog := range schema.Programs {
		g.program(prog)
	}

	var out codeBuf
	out.p("// Code generated by xdrgen. DO NOT EDIT.")
	out.p("")
	out.p("package %s", pkg)
	out.p("")
	if g.usesRuntime {
		out.p("import %q", runtimeImport)
		out.p("")
	}
	body := bytes.TrimRight(g.body.bytes(), "\n")
	return append(out.bytes(), append(body, '\n')...)
}

type generator struct {
	body        codeBuf
	tmp         int
	usesRuntime bool
}

// temp returns a fresh local variable name. The counter is reset per
// generated function so names stay short.
func (g *generator) temp(prefix string) string {
	n := fmt.Sprintf("%s%d", prefix, g.tmp)
	g.tmp++
	return n
}

// goKeywords lists the identifiers which cannot be used verbatim in the
// generated source. Schema names are otherwise preserved exactly.
var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true,
}

// goName escapes a schema identifier which collides with a Go keyword by
// appending the letter U+02B9. The escape is deterministic and cannot
// collide with another schema name, which is always ASCII.
func goName(name string) string {
	if goKeywords[name] {
		return name + "ʹ"
	}
	return name
}

// resolved chases typedef chains to the structural type beneath
func resolved(t *ast.Type) *ast.Type {
	for t.Kind == ast.TNamed {
		td, ok := t.Decl.(*ast.TypedefDecl)
		if !ok {
			break
		}
		t = td.Type
	}
	return t
}

// containerElem returns the element struct when t is an optional whose
// pointee is a self-referential struct; such fields own the flattened
// sequence of the element type
func containerElem(t *ast.Type) *ast.StructDecl {
	if t.Kind != ast.TOptional {
		return nil
	}
	pe := resolved(t.Elem)
	if pe.Kind != ast.TNamed {
		return nil
	}
	s, ok := pe.Decl.(*ast.StructDecl)
	if !ok || !s.SelfReferential {
		return nil
	}
	return s
}

func (g *generator) goType(t *ast.Type) string {
	switch t.Kind {
	case ast.TInt:
		return "int32"
	case ast.TUInt:
		return "uint32"
	case ast.THyper:
		return "int64"
	case ast.TUHyper:
		return "uint64"
	case ast.TBool:
		return "bool"
	case ast.TFloat:
		return "float32"
	case ast.TDouble:
		return "float64"
	case ast.TString:
		return "string"
	case ast.TOpaqueVar:
		return "[]byte"
	case ast.TOpaqueFixed:
		return fmt.Sprintf("[%d]byte", t.LenValue)
	case ast.TFixedArray:
		return fmt.Sprintf("[%d]%s", t.LenValue, g.goType(t.Elem))
	case ast.TVarArray:
		return "[]" + g.goType(t.Elem)
	case ast.TNamed:
		return goName(t.Name)
	case ast.TOptional:
		if s := containerElem(t); s != nil {
			return "[]" + goName(s.Name)
		}
		return "*" + g.goType(t.Elem)
	}
	panic(fmt.Sprintf("gen: unhandled type kind %d", t.Kind))
}

// maxArg renders the cap argument of a variable-length decode
func maxArg(v int64) string {
	if v == ast.Unlimited {
		return "xdr.MaxLength"
	}
	return fmt.Sprintf("%d", v)
}

func (g *generator) decl(d ast.Decl) {
	switch d := d.(type) {
	case *ast.ConstDecl:
		g.body.p("const %s = %d", goName(d.Name), d.Value.Value)
		g.body.p("")
	case *ast.TypedefDecl:
		g.body.p("type %s = %s", goName(d.Name), g.goType(d.Type))
		g.body.p("")
	case *ast.EnumDecl:
		g.enum(d)
	case *ast.StructDecl:
		g.structDecl(d)
	case *ast.UnionDecl:
		g.union(d)
	}
}

func (g *generator) marshalWrapper(name string) {
	g.usesRuntime = true
	g.body.block(fmt.Sprintf("func (v *%s) MarshalXDR() []byte", name), func() {
		g.body.p("e := xdr.NewEncoder()")
		g.body.p("v.EncodeXDR(e)")
		g.body.p("return e.Bytes()")
	})
	g.body.p("")
}

func (g *generator) enum(d *ast.EnumDecl) {
	name := goName(d.Name)
	g.body.p("type %s int32", name)
	g.body.p("")
	g.body.p("const (")
	g.body.in()
	for _, v := range d.Variants {
		g.body.p("%s %s = %d", goName(v.Name), name, v.Value.Value)
	}
	g.body.out()
	g.body.p(")")
	g.body.p("")

	g.marshalWrapper(name)

	g.body.block(fmt.Sprintf("func (v *%s) EncodeXDR(e *xdr.Encoder)", name), func() {
		g.body.p("e.EncodeInt(int32(*v))")
	})
	g.body.p("")

	// Distinct wire values only; aliased variants share a case
	var values []string
	seen := make(map[int64]bool)
	for _, v := range d.Variants {
		if !seen[v.Value.Value] {
			seen[v.Value.Value] = true
			values = append(values, fmt.Sprintf("%d", v.Value.Value))
		}
	}
	g.body.block(fmt.Sprintf("func (v *%s) UnmarshalXDR(d *xdr.Decoder) error", name), func() {
		g.body.p("n, err := d.DecodeInt()")
		g.body.p("if err != nil {")
		g.body.in()
		g.body.p("return err")
		g.body.out()
		g.body.p("}")
		g.body.p("switch n {")
		g.body.p("case %s:", strings.Join(values, ", "))
		g.body.in()
		g.body.p("*v = %s(n)", name)
		g.body.p("return nil")
		g.body.out()
		g.body.p("}")
		g.body.p("return &xdr.UnknownEnumError{Value: n}")
	})
	g.body.p("")
}

func (g *generator) structDecl(d *ast.StructDecl) {
	name := goName(d.Name)
	members := d.Members()

	g.body.p("type %s struct {", name)
	g.body.in()
	for _, f := range members {
		g.body.p("%s %s", goName(f.Name), g.goType(f.Type))
	}
	g.body.out()
	g.body.p("}")
	g.body.p("")

	g.marshalWrapper(name)

	g.tmp = 0
	g.body.block(fmt.Sprintf("func (v *%s) EncodeXDR(e *xdr.Encoder)", name), func() {
		for _, f := range members {
			g.encodeType(f.Type, "v."+goName(f.Name))
		}
	})
	g.body.p("")

	g.tmp = 0
	g.body.block(fmt.Sprintf("func (v *%s) UnmarshalXDR(d *xdr.Decoder) error", name), func() {
		if len(members) == 0 {
			g.body.p("return nil")
			return
		}
		g.body.p("var err error")
		for _, f := range members {
			g.decodeType(f.Type, "v."+goName(f.Name))
		}
		g.body.p("return nil")
	})
	g.body.p("")
}

func (g *generator) encodeType(t *ast.Type, expr string) {
	rt := resolved(t)
	switch rt.Kind {
	case ast.TInt:
		g.body.p("e.EncodeInt(%s)", expr)
	case ast.TUInt:
		g.body.p("e.EncodeUnsignedInt(%s)", expr)
	case ast.THyper:
		g.body.p("e.EncodeHyper(%s)", expr)
	case ast.TUHyper:
		g.body.p("e.EncodeUnsignedHyper(%s)", expr)
	case ast.TBool:
		g.body.p("e.EncodeBool(%s)", expr)
	case ast.TFloat:
		g.body.p("e.EncodeFloat(%s)", expr)
	case ast.TDouble:
		g.body.p("e.EncodeDouble(%s)", expr)
	case ast.TString:
		g.body.p("e.EncodeString(%s)", expr)
	case ast.TOpaqueVar:
		g.body.p("e.EncodeOpaque(%s)", expr)
	case ast.TOpaqueFixed:
		g.body.p("e.EncodeFixedOpaque(%s[:])", expr)
	case ast.TNamed:
		g.body.p("%s.EncodeXDR(e)", expr)
	case ast.TFixedArray:
		i := g.temp("i")
		g.body.block(fmt.Sprintf("for %s := range %s", i, expr), func() {
			g.encodeType(rt.Elem, fmt.Sprintf("%s[%s]", expr, i))
		})
	case ast.TVarArray:
		g.body.p("e.EncodeUnsignedInt(uint32(len(%s)))", expr)
		i := g.temp("i")
		g.body.block(fmt.Sprintf("for %s := range %s", i, expr), func() {
			g.encodeType(rt.Elem, fmt.Sprintf("%s[%s]", expr, i))
		})
	case ast.TOptional:
		if s := containerElem(rt); s != nil {
			// The wire keeps the original linked-list shape: each
			// element is preceded by a presence flag, and the flag of
			// the next element stands where the elided pointer was
			i := g.temp("i")
			g.body.block(fmt.Sprintf("for %s := range %s", i, expr), func() {
				g.body.p("e.EncodeBool(true)")
				g.body.p("%s[%s].EncodeXDR(e)", expr, i)
			})
			g.body.p("e.EncodeBool(false)")
			return
		}
		g.body.p("if %s != nil {", expr)
		g.body.in()
		g.body.p("e.EncodeBool(true)")
		g.encodeType(rt.Elem, "(*"+expr+")")
		g.body.out()
		g.body.p("} else {")
		g.body.in()
		g.body.p("e.EncodeBool(false)")
		g.body.out()
		g.body.p("}")
	}
}

// checkedAssign emits a decode call assigning into lvalue with the shared
// err check
func (g *generator) checkedAssign(lvalue, call string) {
	g.body.p("if %s, err = %s; err != nil {", lvalue, call)
	g.body.in()
	g.body.p("return err")
	g.body.out()
	g.body.p("}")
}

func (g *generator) checkedCall(call string) {
	g.body.p("if err = %s; err != nil {", call)
	g.body.in()
	g.body.p("return err")
	g.body.out()
	g.body.p("}")
}

func (g *generator) decodeType(t *ast.Type, lvalue string) {
	rt := resolved(t)
	switch rt.Kind {
	case ast.TInt:
		g.checkedAssign(lvalue, "d.DecodeInt()")
	case ast.TUInt:
		g.checkedAssign(lvalue, "d.DecodeUnsignedInt()")
	case ast.THyper:
		g.checkedAssign(lvalue, "d.DecodeHyper()")
	case ast.TUHyper:
		g.checkedAssign(lvalue, "d.DecodeUnsignedHyper()")
	case ast.TBool:
		g.checkedAssign(lvalue, "d.DecodeBool()")
	case ast.TFloat:
		g.checkedAssign(lvalue, "d.DecodeFloat()")
	case ast.TDouble:
		g.checkedAssign(lvalue, "d.DecodeDouble()")
	case ast.TString:
		g.checkedAssign(lvalue, fmt.Sprintf("d.DecodeString(%s)", maxArg(rt.MaxValue)))
	case ast.TOpaqueVar:
		g.checkedAssign(lvalue, fmt.Sprintf("d.DecodeOpaque(%s)", maxArg(rt.MaxValue)))
	case ast.TOpaqueFixed:
		g.checkedCall(fmt.Sprintf("d.DecodeFixedOpaque(%s[:])", lvalue))
	case ast.TNamed:
		g.checkedCall(fmt.Sprintf("%s.UnmarshalXDR(d)", lvalue))
	case ast.TFixedArray:
		i := g.temp("i")
		g.body.block(fmt.Sprintf("for %s := range %s", i, lvalue), func() {
			g.decodeType(rt.Elem, fmt.Sprintf("%s[%s]", lvalue, i))
		})
	case ast.TVarArray:
		n := g.temp("n")
		g.body.p("var %s uint32", n)
		g.checkedAssign(n, "d.DecodeUnsignedInt()")
		if rt.MaxValue != ast.Unlimited {
			g.body.p("if %s > %d {", n, rt.MaxValue)
			g.body.in()
			g.body.p("return &xdr.OversizedArrayError{Max: %d, Actual: %s}", rt.MaxValue, n)
			g.body.out()
			g.body.p("}")
		}
		g.body.p("%s = %s[:0]", lvalue, lvalue)
		i := g.temp("i")
		g.body.block(fmt.Sprintf("for %s := uint32(0); %s < %s; %s++", i, i, n, i), func() {
			el := g.temp("el")
			g.body.p("var %s %s", el, g.goType(rt.Elem))
			g.decodeType(rt.Elem, el)
			g.body.p("%s = append(%s, %s)", lvalue, lvalue, el)
		})
	case ast.TOptional:
		if s := containerElem(rt); s != nil {
			g.body.p("%s = %s[:0]", lvalue, lvalue)
			g.body.block("for", func() {
				more := g.temp("more")
				g.body.p("var %s bool", more)
				g.checkedAssign(more, "d.DecodeBool()")
				g.body.p("if !%s {", more)
				g.body.in()
				g.body.p("break")
				g.body.out()
				g.body.p("}")
				el := g.temp("el")
				g.body.p("var %s %s", el, goName(s.Name))
				g.checkedCall(fmt.Sprintf("%s.UnmarshalXDR(d)", el))
				g.body.p("%s = append(%s, %s)", lvalue, lvalue, el)
			})
			return
		}
		ok := g.temp("ok")
		g.body.p("var %s bool", ok)
		g.checkedAssign(ok, "d.DecodeBool()")
		g.body.p("if %s {", ok)
		g.body.in()
		g.body.p("%s = new(%s)", lvalue, g.goType(rt.Elem))
		g.decodeType(rt.Elem, "(*"+lvalue+")")
		g.body.out()
		g.body.p("} else {")
		g.body.in()
		g.body.p("%s = nil", lvalue)
		g.body.out()
		g.body.p("}")
	}
}
