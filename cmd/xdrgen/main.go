// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Command xdrgen compiles XDR schema files into Go source.
//
// Usage:
//
//	xdrgen [-pkg name] [-o file] [schema.x ...]
//
// With no schema files the schema is read from stdin; with no -o flag the
// generated source is written to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.e43.eu/xdrgen"
)

func main() {
	pkg := flag.String("pkg", xdrgen.DefaultPackage, "package name for the generated source")
	out := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	b := xdrgen.NewBuilder().Package(*pkg)
	for _, path := range flag.Args() {
		b.File(path)
	}
	if *out != "" {
		b.OutputFile(*out)
	}

	if err := b.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
