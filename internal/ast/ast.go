// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package ast defines the schema syntax tree produced by the parser and
// annotated by the resolver. Nodes are created during parsing, mutated once
// by resolution, then read-only during emission.
package ast

// A Schema is one parsed compilation unit: type and constant declarations in
// source order, plus any RPC program declarations.
type Schema struct {
	Decls    []Decl
	Programs []*ProgramDecl
}

// Decl is implemented by every top-level declaration
type Decl interface {
	DeclName() string
	DeclOffset() int
}

type ConstDecl struct {
	Name   string
	Value  *ConstExpr
	Offset int
}

type TypedefDecl struct {
	Name   string
	Type   *Type
	Offset int
}

type EnumDecl struct {
	Name     string
	Variants []*EnumVariant
	Offset   int
}

type EnumVariant struct {
	Name   string
	Value  *ConstExpr
	Offset int
}

type StructDecl struct {
	Name   string
	Fields []*Field
	Offset int

	// Set during resolution: the struct lies on a cycle of the
	// struct-pointer graph. Its trailing pointer-to-self field is elided
	// from the representation and owned by a container elsewhere.
	SelfReferential bool
}

// Members returns the struct's fields minus any elided pointer-to-self
func (s *StructDecl) Members() []*Field {
	if !s.SelfReferential {
		return s.Fields
	}
	return s.Fields[:len(s.Fields)-1]
}

type UnionDecl struct {
	Name    string
	Disc    *Field
	Arms    []*Arm
	Default *Arm // nil if no default arm
	Offset  int
}

// An Arm is one case of a discriminated union. Field is nil for void arms.
// Values is filled in by the resolver with the folded label values, parallel
// to Labels.
type Arm struct {
	Labels []*ConstExpr
	Field  *Field
	Values []int32
	Offset int
}

type ProgramDecl struct {
	Name     string
	Number   int64
	Versions []*VersionDecl
	Offset   int
}

type VersionDecl struct {
	Name       string
	Number     int64
	Procedures []*ProcedureDecl
	Offset     int
}

// A ProcedureDecl names one numbered operation. Arg and Ret are nil for void.
type ProcedureDecl struct {
	Name   string
	Number int64
	Arg    *Type
	Ret    *Type
	Offset int
}

// PointerClass is the resolver's classification of an optional field
type PointerClass int

const (
	// Not an optional field
	ClassNone PointerClass = iota

	// Presence-tagged value; at most one element
	ClassPlainOption

	// Owns the flattened sequence of a self-referential element type
	ClassContainerHead

	// The element's own pointer-to-self, erased from its representation
	ClassElided
)

type Field struct {
	Name   string
	Type   *Type
	Class  PointerClass
	Offset int
}

func (d *ConstDecl) DeclName() string   { return d.Name }
func (d *TypedefDecl) DeclName() string { return d.Name }
func (d *EnumDecl) DeclName() string    { return d.Name }
func (d *StructDecl) DeclName() string  { return d.Name }
func (d *UnionDecl) DeclName() string   { return d.Name }

func (d *ConstDecl) DeclOffset() int   { return d.Offset }
func (d *TypedefDecl) DeclOffset() int { return d.Offset }
func (d *EnumDecl) DeclOffset() int    { return d.Offset }
func (d *StructDecl) DeclOffset() int  { return d.Offset }
func (d *UnionDecl) DeclOffset() int   { return d.Offset }

type TypeKind int

const (
	TInt TypeKind = iota
	TUInt
	THyper
	TUHyper
	TBool
	TFloat
	TDouble
	TString      // variable byte container, optional cap
	TOpaqueFixed // fixed byte container
	TOpaqueVar   // variable byte container, optional cap
	TFixedArray
	TVarArray
	TNamed
	TOptional
)

// Unlimited marks a variable-length container with no declared cap
const Unlimited = int64(0xFFFFFFFF)

// A Type describes the type of a field, typedef, or procedure argument.
//
//	TNamed:               Name, and Decl once resolved
//	TFixedArray:          Elem, Len
//	TVarArray:            Elem, Max (nil = unlimited)
//	TString, TOpaqueVar:  Max (nil = unlimited)
//	TOpaqueFixed:         Len
//	TOptional:            Elem
type Type struct {
	Kind   TypeKind
	Name   string
	Decl   Decl
	Elem   *Type
	Len    *ConstExpr
	Max    *ConstExpr
	Offset int

	// Folded by the resolver: the fixed length or the variable cap
	// (Unlimited when no cap was declared)
	LenValue int64
	MaxValue int64
}

// A ConstExpr is an integer literal or a reference to a prior const
// declaration. Value holds the literal or, after folding, the resolved value.
type ConstExpr struct {
	Name   string // empty for literals
	Value  int64
	Offset int
}

func (e *ConstExpr) IsRef() bool { return e.Name != "" }
