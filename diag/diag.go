// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package diag defines the diagnostics surfaced by the compiler
//
// (This package is primarily separated out in order to permit the implementation to
// be broken down into multiple packages)
package diag

import (
	"fmt"
	"strings"
)

// Kind classifies a compile-time diagnostic
type Kind int

const (
	// Illegal character, malformed number, or unterminated comment
	LexError Kind = iota

	// Unexpected token; recovery resumes at the next top-level declaration
	SyntaxError

	// Identifier does not bind to any declaration in scope
	UnresolvedName

	// Redeclaration of a name at the same scope
	DuplicateName

	// Non-integer or non-foldable constant expression
	BadConstExpr

	// Disallowed discriminant type or duplicate case label
	BadUnion

	// Self-referential pointer outside a container struct
	UnsupportedOptional
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case SyntaxError:
		return "syntax error"
	case UnresolvedName:
		return "unresolved name"
	case DuplicateName:
		return "duplicate name"
	case BadConstExpr:
		return "bad constant expression"
	case BadUnion:
		return "bad union"
	case UnsupportedOptional:
		return "unsupported optional"
	default:
		return fmt.Sprintf("diag.Kind(%d)", int(k))
	}
}

// A Diagnostic is one problem found during compilation. Offset is the byte
// offset into the source; Line and Col are filled in from it before the
// diagnostic reaches the caller (both 1-based).
type Diagnostic struct {
	Offset int
	Line   int
	Col    int
	Kind   Kind
	Msg    string
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Col, d.Kind, d.Msg)
	}
	return fmt.Sprintf("offset %d: %s: %s", d.Offset, d.Kind, d.Msg)
}

// A List accumulates diagnostics during a compilation. The compilation as a
// whole fails if any diagnostic is issued.
type List []Diagnostic

func (l *List) Add(offset int, kind Kind, format string, args ...interface{}) {
	*l = append(*l, Diagnostic{
		Offset: offset,
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
	})
}

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns l as an error, or nil if no diagnostics were issued
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
