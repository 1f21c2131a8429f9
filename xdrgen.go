// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xdrgen compiles XDR schemas (RFC 4506, with the RFC 5531
// program/version/procedure extension) into Go source. For every declared
// type the generated module exposes an in-memory representation plus a pair
// of routines which encode an instance into the XDR wire format and decode
// one from a byte stream; the codecs depend on the go.e43.eu/xdrgen/xdr
// runtime.
package xdrgen

import (
	"bytes"
	"io"
	"os"
	"sort"

	"go.e43.eu/xdrgen/diag"
	"go.e43.eu/xdrgen/internal/gen"
	"go.e43.eu/xdrgen/internal/parse"
	"go.e43.eu/xdrgen/internal/resolve"
	"go.e43.eu/xdrgen/internal/token"
)

// DefaultPackage is the package name of the generated source when no
// WithPackageName option is given
const DefaultPackage = "xdrtypes"

type Option interface {
	apply(*options)
}

type options struct {
	pkg string
}

type pkgOption string

func (o pkgOption) apply(opts *options) {
	opts.pkg = string(o)
}

// WithPackageName sets the package name of the generated source
func WithPackageName(name string) Option {
	return pkgOption(name)
}

// Compile compiles one schema and writes the generated source to w. On
// failure the returned error is a diag.List carrying every diagnostic
// found, each located by line and column; nothing is written to w.
func Compile(src []byte, w io.Writer, opts ...Option) error {
	o := options{pkg: DefaultPackage}
	for _, opt := range opts {
		opt.apply(&o)
	}

	var diags diag.List
	schema := parse.Parse(src, &diags)
	if len(diags) == 0 {
		resolve.Resolve(schema, &diags)
	}
	if len(diags) > 0 {
		return locate(src, diags)
	}

	_, err := w.Write(gen.Generate(schema, o.pkg))
	return err
}

// locate fills in line and column from byte offsets and orders the
// diagnostics by source position
func locate(src []byte, diags diag.List) diag.List {
	for i := range diags {
		diags[i].Line, diags[i].Col = token.Position(src, diags[i].Offset)
	}
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Offset < diags[j].Offset
	})
	return diags
}

// A Builder accumulates schema files and a destination, then runs one
// compilation over their concatenation. Files are compiled in the order
// they were added; with no files the schema is read from stdin.
type Builder struct {
	files []string
	pkg   string
	dest  io.Writer
	path  string
}

func NewBuilder() *Builder {
	return &Builder{pkg: DefaultPackage}
}

func (b *Builder) File(path string) *Builder {
	b.files = append(b.files, path)
	return b
}

func (b *Builder) Package(name string) *Builder {
	b.pkg = name
	return b
}

// Output directs the generated source to w (default stdout)
func (b *Builder) Output(w io.Writer) *Builder {
	b.dest = w
	return b
}

// OutputFile directs the generated source to a file, created only after
// the compilation has succeeded
func (b *Builder) OutputFile(path string) *Builder {
	b.path = path
	return b
}

func (b *Builder) Run() error {
	var src []byte
	if len(b.files) == 0 {
		in, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		src = in
	} else {
		for _, path := range b.files {
			in, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			src = append(src, in...)
			src = append(src, '\n')
		}
	}

	var out bytes.Buffer
	if err := Compile(src, &out, WithPackageName(b.pkg)); err != nil {
		return err
	}

	if b.path != "" {
		return os.WriteFile(b.path, out.Bytes(), 0o644)
	}
	w := b.dest
	if w == nil {
		w = os.Stdout
	}
	_, err := w.Write(out.Bytes())
	return err
}
