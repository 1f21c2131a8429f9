// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.e43.eu/xdrgen/diag"
	"go.e43.eu/xdrgen/internal/ast"
	"go.e43.eu/xdrgen/internal/parse"
)

func resolveSrc(t *testing.T, src string) (*ast.Schema, diag.List) {
	t.Helper()
	var diags diag.List
	s := parse.Parse([]byte(src), &diags)
	require.Empty(t, diags, "parse failed: %v", diags.Err())
	Resolve(s, &diags)
	return s, diags
}

func resolveOK(t *testing.T, src string) *ast.Schema {
	t.Helper()
	s, diags := resolveSrc(t, src)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags.Err())
	return s
}

func firstKind(t *testing.T, diags diag.List) diag.Kind {
	t.Helper()
	require.NotEmpty(t, diags)
	return diags[0].Kind
}

func TestBindNames(t *testing.T) {
	s := resolveOK(t, `
		struct point { int x; int y; };
		struct segment { point a; point b; };`)

	seg := s.Decls[1].(*ast.StructDecl)
	require.IsType(t, &ast.StructDecl{}, seg.Fields[0].Type.Decl)
	assert.Equal(t, "point", seg.Fields[0].Type.Decl.DeclName())
}

func TestUnresolvedName(t *testing.T) {
	_, diags := resolveSrc(t, "struct s { widget w; };")
	assert.Equal(t, diag.UnresolvedName, firstKind(t, diags))
}

func TestUseBeforeDefinition(t *testing.T) {
	_, diags := resolveSrc(t, `
		struct s { late x; };
		struct late { int y; };`)
	assert.Equal(t, diag.UnresolvedName, firstKind(t, diags))
}

// Forward references are permitted through optional pointers; that is how
// cyclic structures express themselves
func TestForwardReferenceViaOptional(t *testing.T) {
	resolveOK(t, `
		struct s { late *x; };
		struct late { int y; };`)
}

func TestDuplicateName(t *testing.T) {
	_, diags := resolveSrc(t, "const a = 1;\nconst a = 2;")
	assert.Equal(t, diag.DuplicateName, firstKind(t, diags))

	_, diags = resolveSrc(t, "enum e { A = 1, A = 2 };")
	assert.Equal(t, diag.DuplicateName, firstKind(t, diags))
}

func TestConstFolding(t *testing.T) {
	s := resolveOK(t, `
		const WIDTH = 4;
		const ALIAS = WIDTH;
		struct s {
			opaque buf[ALIAS];
			int xs<WIDTH>;
		};`)

	d := s.Decls[2].(*ast.StructDecl)
	assert.Equal(t, int64(4), d.Fields[0].Type.LenValue)
	assert.Equal(t, int64(4), d.Fields[1].Type.MaxValue)

	unlimited := resolveOK(t, "struct u { opaque b<>; };")
	assert.Equal(t, ast.Unlimited, unlimited.Decls[0].(*ast.StructDecl).Fields[0].Type.MaxValue)
}

func TestBadConstExpr(t *testing.T) {
	_, diags := resolveSrc(t, "struct s { opaque b[-1]; };")
	assert.Equal(t, diag.BadConstExpr, firstKind(t, diags))

	_, diags = resolveSrc(t, `
		struct other { int x; };
		struct s { opaque b[other]; };`)
	assert.Equal(t, diag.BadConstExpr, firstKind(t, diags))
}

func TestValidSelfReferential(t *testing.T) {
	s := resolveOK(t, "struct foo { int a; foo *next; };")
	d := s.Decls[0].(*ast.StructDecl)
	assert.True(t, d.SelfReferential)
	assert.Equal(t, ast.ClassElided, d.Fields[1].Class)
	require.Len(t, d.Members(), 1)
	assert.Equal(t, "a", d.Members()[0].Name)
}

func TestSelfPointerMustBeFinal(t *testing.T) {
	_, diags := resolveSrc(t, "struct foo { foo *next; int a; };")
	assert.Equal(t, diag.UnsupportedOptional, firstKind(t, diags))
}

func TestDoubleSelfPointer(t *testing.T) {
	_, diags := resolveSrc(t, "struct foo { foo *left; foo *right; };")
	assert.Equal(t, diag.UnsupportedOptional, firstKind(t, diags))
}

func TestContainerHead(t *testing.T) {
	s := resolveOK(t, `
		struct node { int d; node *next; };
		struct list { node *head; };`)

	list := s.Decls[1].(*ast.StructDecl)
	assert.Equal(t, ast.ClassContainerHead, list.Fields[0].Class)
	assert.False(t, list.SelfReferential)
}

// A typedef between the container and the element must not hide the
// classification
func TestContainerHeadThroughTypedef(t *testing.T) {
	s := resolveOK(t, `
		struct entry { int d; entry *next; };
		typedef entry *entryp;
		struct dir { entryp head; };`)

	dir := s.Decls[2].(*ast.StructDecl)
	assert.Equal(t, ast.ClassContainerHead, dir.Fields[0].Class)
}

func TestPlainOptional(t *testing.T) {
	s := resolveOK(t, `
		struct leaf { int x; };
		struct holder { leaf *maybe; int *scalar; };`)

	h := s.Decls[1].(*ast.StructDecl)
	assert.Equal(t, ast.ClassPlainOption, h.Fields[0].Class)
	assert.Equal(t, ast.ClassPlainOption, h.Fields[1].Class)
}

// Mutual recursion has no single owner to flatten into; it is rejected
// rather than silently emitting incorrect code
func TestMutualRecursionRejected(t *testing.T) {
	_, diags := resolveSrc(t, `
		struct a { int x; b *p; };
		struct b { int y; a *q; };`)
	assert.Equal(t, diag.UnsupportedOptional, firstKind(t, diags))
}

func TestUnionValidation(t *testing.T) {
	resolveOK(t, `
		enum status { OK = 0, ERR = 1 };
		union reply switch (status s) {
		case OK:
			opaque data<>;
		case ERR:
			void;
		};`)

	_, diags := resolveSrc(t, `
		union u switch (int d) {
		case 1: void;
		case 1: int x;
		};`)
	assert.Equal(t, diag.BadUnion, firstKind(t, diags))

	_, diags = resolveSrc(t, `
		enum status { OK = 0 };
		union u switch (status s) {
		case MISSING: void;
		};`)
	assert.Equal(t, diag.BadUnion, firstKind(t, diags))

	_, diags = resolveSrc(t, `
		struct other { int x; };
		union u switch (other o) {
		case 1: void;
		};`)
	assert.Equal(t, diag.BadUnion, firstKind(t, diags))

	_, diags = resolveSrc(t, `
		union u switch (bool b) {
		case 2: void;
		};`)
	assert.Equal(t, diag.BadUnion, firstKind(t, diags))
}

func TestUnionConstLabel(t *testing.T) {
	s := resolveOK(t, `
		const ACK = 3;
		union u switch (unsigned int kind) {
		case ACK: void;
		case 4: int x;
		};`)

	u := s.Decls[1].(*ast.UnionDecl)
	assert.Equal(t, []int32{3}, u.Arms[0].Values)
	assert.Equal(t, []int32{4}, u.Arms[1].Values)
}

func TestProgramNumbers(t *testing.T) {
	resolveOK(t, `
		program P {
			version V {
				void NULLPROC(void) = 0;
			} = 1;
		} = 100003;`)

	_, diags := resolveSrc(t, `
		program P {
			version V {
				void NULLPROC(void) = 0;
			} = 1;
		} = -2;`)
	assert.Equal(t, diag.BadConstExpr, firstKind(t, diags))
}
