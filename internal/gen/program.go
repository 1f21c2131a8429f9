// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package gen

import (
	"fmt"

	"go.e43.eu/xdrgen/internal/ast"
)

// An RPC program declaration emits its numbers as constants plus a manifest
// value sufficient for a separate RPC layer to dispatch: program number,
// version numbers, and per procedure the name, number, and argument and
// result type names.

func (g *generator) program(prog *ast.ProgramDecl) {
	g.usesRuntime = true

	g.body.p("const %s = %d", goName(prog.Name), prog.Number)
	g.body.p("")
	for _, ver := range prog.Versions {
		g.body.p("const %s = %d", goName(ver.Name), ver.Number)
	}
	g.body.p("")

	seen := make(map[string]bool)
	emitted := false
	for _, ver := range prog.Versions {
		for _, proc := range ver.Procedures {
			if seen[proc.Name] {
				continue
			}
			seen[proc.Name] = true
			g.body.p("const %s = %d", goName(proc.Name), proc.Number)
			emitted = true
		}
	}
	if emitted {
		g.body.p("")
	}

	g.body.p("var %sManifest = xdr.Program{", goName(prog.Name))
	g.body.in()
	g.body.p("Name:   %q,", prog.Name)
	g.body.p("Number: %d,", prog.Number)
	g.body.p("Versions: []xdr.Version{")
	g.body.in()
	for _, ver := range prog.Versions {
		g.body.p("{")
		g.body.in()
		g.body.p("Name:   %q,", ver.Name)
		g.body.p("Number: %d,", ver.Number)
		g.body.p("Procedures: []xdr.Procedure{")
		g.body.in()
		for _, proc := range ver.Procedures {
			g.body.p("{Name: %q, Number: %d, Arg: %q, Result: %q},",
				proc.Name, proc.Number, typeString(proc.Arg), typeString(proc.Ret))
		}
		g.body.out()
		g.body.p("},")
		g.body.out()
		g.body.p("},")
	}
	g.body.out()
	g.body.p("},")
	g.body.out()
	g.body.p("}")
	g.body.p("")
}

// typeString renders a procedure argument or result type the way the
// schema spells it
func typeString(t *ast.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case ast.TInt:
		return "int"
	case ast.TUInt:
		return "unsigned int"
	case ast.THyper:
		return "hyper"
	case ast.TUHyper:
		return "unsigned hyper"
	case ast.TBool:
		return "bool"
	case ast.TFloat:
		return "float"
	case ast.TDouble:
		return "double"
	case ast.TNamed:
		return t.Name
	default:
		return fmt.Sprintf("type(%d)", t.Kind)
	}
}
