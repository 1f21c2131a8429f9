// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package parse turns XDR schema source into an ast.Schema.
//
// The grammar is RFC 4506 XDR plus the RFC 5531 program/version/procedure
// extension. Syntax errors are reported as diagnostics; the parser recovers
// at the next top-level declaration boundary so that one compilation surfaces
// as many errors as possible, then fails as a whole.
package parse

import (
	"go.e43.eu/xdrgen/diag"
	"go.e43.eu/xdrgen/internal/ast"
	"go.e43.eu/xdrgen/internal/token"
)

// Parse parses src, appending any problems to diags. The returned schema is
// meaningful only if no diagnostics were added.
func Parse(src []byte, diags *diag.List) *ast.Schema {
	p := &parser{
		sc:    token.NewScanner(src),
		diags: diags,
	}
	func() {
		defer p.recoverToBoundary()
		p.fill()
	}()
	return p.parseSchema()
}

// bailout aborts the current declaration; it is caught at the top level,
// which then skips to the next ';' at outermost nesting
type bailout struct{}

type parser struct {
	sc    *token.Scanner
	tok   token.Token
	diags *diag.List
}

func (p *parser) fill() {
	t, err := p.sc.Next()
	if err != nil {
		se := err.(*token.ScanError)
		p.diags.Add(se.Offset, diag.LexError, "%s", se.Msg)
		p.tok = t
		panic(bailout{})
	}
	p.tok = t
}

// advance consumes the current token and returns it
func (p *parser) advance() token.Token {
	t := p.tok
	p.fill()
	return t
}

func (p *parser) expect(kind token.Kind, context string) token.Token {
	if p.tok.Kind != kind {
		p.syntaxError("expected %s %s, found %s", kind, context, p.tok.Kind)
	}
	return p.advance()
}

func (p *parser) expectIdent(context string) token.Token {
	if p.tok.Kind != token.Ident {
		p.syntaxError("expected identifier %s, found %s", context, p.tok.Kind)
	}
	return p.advance()
}

func (p *parser) expectNumber(context string) token.Token {
	if p.tok.Kind != token.Number {
		p.syntaxError("expected number %s, found %s", context, p.tok.Kind)
	}
	return p.advance()
}

func (p *parser) syntaxError(format string, args ...interface{}) {
	p.diags.Add(p.tok.Offset, diag.SyntaxError, format, args...)
	panic(bailout{})
}

func (p *parser) parseSchema() *ast.Schema {
	s := &ast.Schema{}
	for p.tok.Kind != token.EOF {
		p.parseTopLevel(s)
	}
	return s
}

func (p *parser) recoverToBoundary() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		p.skipToBoundary()
	}
}

func (p *parser) parseTopLevel(s *ast.Schema) {
	defer p.recoverToBoundary()

	if p.tok.Kind == token.Program {
		s.Programs = append(s.Programs, p.program())
		return
	}
	s.Decls = append(s.Decls, p.definition())
}

// skipToBoundary discards tokens up to and including the next ';' at
// outermost nesting, or end of input
func (p *parser) skipToBoundary() {
	depth := 0
	for {
		switch p.tok.Kind {
		case token.EOF:
			return
		case token.LBrace, token.LParen, token.LBracket:
			depth++
		case token.RBrace, token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.Semi:
			if depth == 0 {
				p.rawAdvance()
				return
			}
		}
		p.rawAdvance()
	}
}

// rawAdvance is advance without lexer-error bailout, for use during recovery
func (p *parser) rawAdvance() {
	t, err := p.sc.Next()
	if err != nil {
		p.tok = token.Token{Kind: token.EOF, Offset: t.Offset}
		return
	}
	p.tok = t
}

func (p *parser) definition() ast.Decl {
	var d ast.Decl
	switch p.tok.Kind {
	case token.Const:
		d = p.constDecl()
	case token.Typedef:
		d = p.typedefDecl()
	case token.Enum:
		d = p.enumDecl()
	case token.Struct:
		d = p.structDecl()
	case token.Union:
		d = p.unionDecl()
	default:
		p.syntaxError("expected 'const', 'typedef', 'enum', 'struct', 'union', or 'program', found %s", p.tok.Kind)
	}
	p.expect(token.Semi, "after declaration")
	return d
}

func (p *parser) constDecl() *ast.ConstDecl {
	off := p.advance().Offset
	name := p.expectIdent("after 'const'")
	p.expect(token.Eq, "after constant name")
	value := p.constExpr("in constant definition")
	return &ast.ConstDecl{Name: name.Text, Value: value, Offset: off}
}

func (p *parser) typedefDecl() *ast.TypedefDecl {
	off := p.advance().Offset
	f := p.declaration()
	if f == nil {
		p.syntaxError("'void' is not permitted in a typedef")
	}
	return &ast.TypedefDecl{Name: f.Name, Type: f.Type, Offset: off}
}

func (p *parser) enumDecl() *ast.EnumDecl {
	off := p.advance().Offset
	name := p.expectIdent("after 'enum'")
	p.expect(token.LBrace, "to begin enum body")

	var variants []*ast.EnumVariant
	for {
		if p.tok.Kind == token.RBrace {
			p.advance()
			break
		}
		if len(variants) > 0 {
			p.expect(token.Comma, "after enum variant")
		}
		v := p.expectIdent("to begin enum variant")
		p.expect(token.Eq, "after enum variant name")
		value := p.constExpr("as enum variant value")
		variants = append(variants, &ast.EnumVariant{Name: v.Text, Value: value, Offset: v.Offset})
	}
	if len(variants) == 0 {
		p.syntaxError("enum must have at least one variant")
	}
	return &ast.EnumDecl{Name: name.Text, Variants: variants, Offset: off}
}

func (p *parser) structDecl() *ast.StructDecl {
	off := p.advance().Offset
	name := p.expectIdent("after 'struct'")
	p.expect(token.LBrace, "to begin struct body")

	var fields []*ast.Field
	for {
		if p.tok.Kind == token.RBrace {
			p.advance()
			break
		}
		f := p.declaration()
		p.expect(token.Semi, "after struct member")
		if f != nil {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		p.syntaxError("struct must have at least one member")
	}
	return &ast.StructDecl{Name: name.Text, Fields: fields, Offset: off}
}

func (p *parser) unionDecl() *ast.UnionDecl {
	off := p.advance().Offset
	name := p.expectIdent("after 'union'")
	p.expect(token.Switch, "after union name")
	p.expect(token.LParen, "after 'switch'")

	var discType *ast.Type
	discOff := p.tok.Offset
	switch p.tok.Kind {
	case token.Bool:
		p.advance()
		discType = &ast.Type{Kind: ast.TBool, Offset: discOff}
	case token.Int:
		p.advance()
		discType = &ast.Type{Kind: ast.TInt, Offset: discOff}
	case token.Unsigned:
		p.advance()
		if p.tok.Kind == token.Int || p.tok.Kind == token.Long {
			p.advance()
		}
		discType = &ast.Type{Kind: ast.TUInt, Offset: discOff}
	case token.Ident:
		t := p.advance()
		discType = &ast.Type{Kind: ast.TNamed, Name: t.Text, Offset: discOff}
	default:
		p.syntaxError("expected 'bool', 'int', 'unsigned', or an enum name as union discriminant, found %s", p.tok.Kind)
	}
	discName := p.expectIdent("as union discriminant name")
	p.expect(token.RParen, "after union discriminant")
	p.expect(token.LBrace, "to begin union body")

	u := &ast.UnionDecl{
		Name:   name.Text,
		Disc:   &ast.Field{Name: discName.Text, Type: discType, Offset: discName.Offset},
		Offset: off,
	}

	for {
		switch p.tok.Kind {
		case token.RBrace:
			p.advance()
			if len(u.Arms) == 0 {
				p.syntaxError("union must have at least one case")
			}
			return u
		case token.Default:
			doff := p.advance().Offset
			p.expect(token.Colon, "after 'default'")
			f := p.declaration()
			p.expect(token.Semi, "after union arm")
			u.Default = &ast.Arm{Field: f, Offset: doff}
			// default must be the last arm
			p.expect(token.RBrace, "after default arm")
			if len(u.Arms) == 0 {
				p.syntaxError("union must have at least one case")
			}
			return u
		}

		arm := &ast.Arm{Offset: p.tok.Offset}
		for p.tok.Kind == token.Case {
			p.advance()
			arm.Labels = append(arm.Labels, p.caseLabel())
			p.expect(token.Colon, "after case label")
		}
		if len(arm.Labels) == 0 {
			p.syntaxError("expected 'case' or 'default' in union body, found %s", p.tok.Kind)
		}
		arm.Field = p.declaration()
		p.expect(token.Semi, "after union arm")
		u.Arms = append(u.Arms, arm)
	}
}

// caseLabel parses one union case label: an integer literal, a constant or
// enum variant name, or TRUE/FALSE
func (p *parser) caseLabel() *ast.ConstExpr {
	switch p.tok.Kind {
	case token.True:
		t := p.advance()
		return &ast.ConstExpr{Value: 1, Offset: t.Offset}
	case token.False:
		t := p.advance()
		return &ast.ConstExpr{Value: 0, Offset: t.Offset}
	case token.Number:
		t := p.advance()
		return &ast.ConstExpr{Value: t.Value, Offset: t.Offset}
	case token.Ident:
		t := p.advance()
		return &ast.ConstExpr{Name: t.Text, Offset: t.Offset}
	default:
		p.syntaxError("expected case label, found %s", p.tok.Kind)
		return nil
	}
}

func (p *parser) constExpr(context string) *ast.ConstExpr {
	switch p.tok.Kind {
	case token.Number:
		t := p.advance()
		return &ast.ConstExpr{Value: t.Value, Offset: t.Offset}
	case token.Ident:
		t := p.advance()
		return &ast.ConstExpr{Name: t.Text, Offset: t.Offset}
	default:
		p.syntaxError("expected number or identifier %s, found %s", context, p.tok.Kind)
		return nil
	}
}

// declaration parses a single field declaration. It returns nil for 'void'.
func (p *parser) declaration() *ast.Field {
	switch p.tok.Kind {
	case token.Void:
		p.advance()
		return nil
	case token.Opaque:
		off := p.advance().Offset
		name := p.expectIdent("after 'opaque'")
		return p.byteArray(name, off, false)
	case token.String:
		off := p.advance().Offset
		name := p.expectIdent("after 'string'")
		return p.byteArray(name, off, true)
	}

	ty := p.typeSpec()

	if p.tok.Kind == token.Star {
		p.advance()
		name := p.expectIdent("after '*'")
		return &ast.Field{
			Name:   name.Text,
			Type:   &ast.Type{Kind: ast.TOptional, Elem: ty, Offset: ty.Offset},
			Offset: name.Offset,
		}
	}

	name := p.expectIdent("in declaration")
	switch p.tok.Kind {
	case token.LBracket:
		p.advance()
		length := p.constExpr("as array length")
		p.expect(token.RBracket, "after array length")
		return &ast.Field{
			Name:   name.Text,
			Type:   &ast.Type{Kind: ast.TFixedArray, Elem: ty, Len: length, Offset: ty.Offset},
			Offset: name.Offset,
		}
	case token.Lt:
		p.advance()
		var max *ast.ConstExpr
		if p.tok.Kind != token.Gt {
			max = p.constExpr("as array bound")
		}
		p.expect(token.Gt, "after array bound")
		return &ast.Field{
			Name:   name.Text,
			Type:   &ast.Type{Kind: ast.TVarArray, Elem: ty, Max: max, Offset: ty.Offset},
			Offset: name.Offset,
		}
	}
	return &ast.Field{Name: name.Text, Type: ty, Offset: name.Offset}
}

// byteArray parses the size suffix of an opaque or string declaration.
// Strings only permit the variable form.
func (p *parser) byteArray(name token.Token, off int, isString bool) *ast.Field {
	switch p.tok.Kind {
	case token.LBracket:
		if isString {
			p.syntaxError("fixed length strings are prohibited")
		}
		p.advance()
		length := p.constExpr("as opaque length")
		p.expect(token.RBracket, "after opaque length")
		return &ast.Field{
			Name:   name.Text,
			Type:   &ast.Type{Kind: ast.TOpaqueFixed, Len: length, Offset: off},
			Offset: name.Offset,
		}
	case token.Lt:
		p.advance()
		var max *ast.ConstExpr
		if p.tok.Kind != token.Gt {
			max = p.constExpr("as length bound")
		}
		p.expect(token.Gt, "after length bound")
		kind := ast.TOpaqueVar
		if isString {
			kind = ast.TString
		}
		return &ast.Field{
			Name:   name.Text,
			Type:   &ast.Type{Kind: kind, Max: max, Offset: off},
			Offset: name.Offset,
		}
	default:
		p.syntaxError("expected '[' or '<' in byte array declaration, found %s", p.tok.Kind)
		return nil
	}
}

func (p *parser) typeSpec() *ast.Type {
	off := p.tok.Offset
	switch p.tok.Kind {
	case token.Unsigned:
		p.advance()
		switch p.tok.Kind {
		case token.Int, token.Long:
			p.advance()
			return &ast.Type{Kind: ast.TUInt, Offset: off}
		case token.Hyper:
			p.advance()
			return &ast.Type{Kind: ast.TUHyper, Offset: off}
		default:
			// Bare 'unsigned' appears in real schemas as a synonym
			// for 'unsigned int'
			return &ast.Type{Kind: ast.TUInt, Offset: off}
		}
	case token.Int, token.Long:
		p.advance()
		return &ast.Type{Kind: ast.TInt, Offset: off}
	case token.Hyper:
		p.advance()
		return &ast.Type{Kind: ast.THyper, Offset: off}
	case token.Float:
		p.advance()
		return &ast.Type{Kind: ast.TFloat, Offset: off}
	case token.Double:
		p.advance()
		return &ast.Type{Kind: ast.TDouble, Offset: off}
	case token.Quadruple:
		p.syntaxError("'quadruple' types are not supported")
		return nil
	case token.Bool:
		p.advance()
		return &ast.Type{Kind: ast.TBool, Offset: off}
	case token.Struct, token.Enum, token.Union:
		// "struct foo" as a long form of "foo"; anonymous inner
		// definitions are not permitted
		p.advance()
		name := p.expectIdent("after type keyword")
		return &ast.Type{Kind: ast.TNamed, Name: name.Text, Offset: off}
	case token.Ident:
		t := p.advance()
		return &ast.Type{Kind: ast.TNamed, Name: t.Text, Offset: off}
	default:
		p.syntaxError("expected type specifier, found %s", p.tok.Kind)
		return nil
	}
}

func (p *parser) program() *ast.ProgramDecl {
	off := p.advance().Offset
	name := p.expectIdent("after 'program'")
	p.expect(token.LBrace, "after program name")

	prog := &ast.ProgramDecl{Name: name.Text, Offset: off}
	for p.tok.Kind != token.RBrace {
		prog.Versions = append(prog.Versions, p.version())
	}
	p.advance()
	if len(prog.Versions) == 0 {
		p.syntaxError("program must have at least one version")
	}
	p.expect(token.Eq, "after program body")
	num := p.expectNumber("as program number")
	p.expect(token.Semi, "after program definition")
	prog.Number = num.Value
	return prog
}

func (p *parser) version() *ast.VersionDecl {
	voff := p.expect(token.Version, "in program body").Offset
	name := p.expectIdent("after 'version'")
	p.expect(token.LBrace, "after version name")

	ver := &ast.VersionDecl{Name: name.Text, Offset: voff}
	for p.tok.Kind != token.RBrace {
		ver.Procedures = append(ver.Procedures, p.procedure())
	}
	p.advance()
	if len(ver.Procedures) == 0 {
		p.syntaxError("version must have at least one procedure")
	}
	p.expect(token.Eq, "after version body")
	num := p.expectNumber("as version number")
	p.expect(token.Semi, "after version definition")
	ver.Number = num.Value
	return ver
}

func (p *parser) procedure() *ast.ProcedureDecl {
	poff := p.tok.Offset
	ret := p.procedureType()
	name := p.expectIdent("as procedure name")
	p.expect(token.LParen, "to begin procedure arguments")
	arg := p.procedureType()
	p.expect(token.RParen, "to end procedure arguments")
	p.expect(token.Eq, "after procedure arguments")
	num := p.expectNumber("as procedure number")
	p.expect(token.Semi, "after procedure definition")
	return &ast.ProcedureDecl{
		Name:   name.Text,
		Number: num.Value,
		Arg:    arg,
		Ret:    ret,
		Offset: poff,
	}
}

func (p *parser) procedureType() *ast.Type {
	if p.tok.Kind == token.Void {
		p.advance()
		return nil
	}
	return p.typeSpec()
}
