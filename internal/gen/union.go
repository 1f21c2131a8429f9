// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package gen

import (
	"fmt"
	"strings"

	"go.e43.eu/xdrgen/internal/ast"
)

// A discriminated union is represented as a struct holding the discriminant
// field plus one field per non-void arm; the discriminant selects which arm
// field is meaningful. Arm lookup is linear over the declared cases.

func (g *generator) union(d *ast.UnionDecl) {
	name := goName(d.Name)
	disc := d.Disc

	g.body.p("type %s struct {", name)
	g.body.in()
	g.body.p("%s %s", goName(disc.Name), g.goType(disc.Type))
	for _, arm := range d.Arms {
		if arm.Field != nil {
			g.body.p("%s %s", goName(arm.Field.Name), g.goType(arm.Field.Type))
		}
	}
	if d.Default != nil && d.Default.Field != nil {
		g.body.p("%s %s", goName(d.Default.Field.Name), g.goType(d.Default.Field.Type))
	}
	g.body.out()
	g.body.p("}")
	g.body.p("")

	g.marshalWrapper(name)

	g.tmp = 0
	g.body.block(fmt.Sprintf("func (v *%s) EncodeXDR(e *xdr.Encoder)", name), func() {
		g.encodeType(disc.Type, "v."+goName(disc.Name))
		g.body.p("switch v.%s {", goName(disc.Name))
		for _, arm := range d.Arms {
			g.body.p("case %s:", g.caseLabels(d, arm))
			g.body.in()
			if arm.Field != nil {
				g.encodeType(arm.Field.Type, "v."+goName(arm.Field.Name))
			}
			g.body.out()
		}
		if d.Default != nil {
			g.body.p("default:")
			g.body.in()
			if d.Default.Field != nil {
				g.encodeType(d.Default.Field.Type, "v."+goName(d.Default.Field.Name))
			}
			g.body.out()
		}
		g.body.p("}")
	})
	g.body.p("")

	g.tmp = 0
	g.body.block(fmt.Sprintf("func (v *%s) UnmarshalXDR(d *xdr.Decoder) error", name), func() {
		g.body.p("var err error")
		if resolved(disc.Type).Kind == ast.TBool {
			g.decodeBoolUnion(d)
		} else {
			g.decodeTaggedUnion(d)
		}
		g.body.p("return nil")
	})
	g.body.p("")
}

// caseLabels renders an arm's labels as a Go case list, preserving the
// source spelling: variant and constant names stay names, literals stay
// literals, and bool labels become true/false
func (g *generator) caseLabels(d *ast.UnionDecl, arm *ast.Arm) string {
	isBool := resolved(d.Disc.Type).Kind == ast.TBool
	labels := make([]string, len(arm.Labels))
	for i, l := range arm.Labels {
		switch {
		case l.IsRef():
			labels[i] = goName(l.Name)
		case isBool && l.Value == 1:
			labels[i] = "true"
		case isBool:
			labels[i] = "false"
		default:
			labels[i] = fmt.Sprintf("%d", l.Value)
		}
	}
	return strings.Join(labels, ", ")
}

// decodeBoolUnion reads the discriminant as a raw word so that values
// other than 0 and 1 surface as UnexpectedTag rather than InvalidBool
func (g *generator) decodeBoolUnion(d *ast.UnionDecl) {
	discName := goName(d.Disc.Name)
	tag := g.temp("tag")
	g.body.p("var %s uint32", tag)
	g.checkedAssign(tag, "d.DecodeUnsignedInt()")
	g.body.p("switch %s {", tag)
	for _, arm := range d.Arms {
		g.body.p("case %s:", joinValues(arm.Values))
		g.body.in()
		g.body.p("v.%s = %s == 1", discName, tag)
		if arm.Field != nil {
			g.decodeType(arm.Field.Type, "v."+goName(arm.Field.Name))
		}
		g.body.out()
	}
	g.body.p("default:")
	g.body.in()
	if d.Default != nil {
		if d.Default.Field != nil {
			g.decodeType(d.Default.Field.Type, "v."+goName(d.Default.Field.Name))
		}
	} else {
		g.body.p("return &xdr.UnexpectedTagError{Tag: int32(%s)}", tag)
	}
	g.body.out()
	g.body.p("}")
}

func (g *generator) decodeTaggedUnion(d *ast.UnionDecl) {
	discName := goName(d.Disc.Name)
	discType := resolved(d.Disc.Type)
	tag := g.temp("tag")

	unsigned := discType.Kind == ast.TUInt
	if unsigned {
		g.body.p("var %s uint32", tag)
		g.checkedAssign(tag, "d.DecodeUnsignedInt()")
		g.body.p("v.%s = %s", discName, tag)
	} else {
		g.body.p("var %s int32", tag)
		g.checkedAssign(tag, "d.DecodeInt()")
		if discType.Kind == ast.TNamed {
			g.body.p("v.%s = %s(%s)", discName, g.goType(d.Disc.Type), tag)
		} else {
			g.body.p("v.%s = %s", discName, tag)
		}
	}

	g.body.p("switch v.%s {", discName)
	for _, arm := range d.Arms {
		g.body.p("case %s:", g.caseLabels(d, arm))
		g.body.in()
		if arm.Field != nil {
			g.decodeType(arm.Field.Type, "v."+goName(arm.Field.Name))
		}
		g.body.out()
	}
	g.body.p("default:")
	g.body.in()
	if d.Default != nil {
		if d.Default.Field != nil {
			g.decodeType(d.Default.Field.Type, "v."+goName(d.Default.Field.Name))
		}
	} else if unsigned {
		g.body.p("return &xdr.UnexpectedTagError{Tag: int32(%s)}", tag)
	} else {
		g.body.p("return &xdr.UnexpectedTagError{Tag: %s}", tag)
	}
	g.body.out()
	g.body.p("}")
}

func joinValues(values []int32) string {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(labels, ", ")
}
