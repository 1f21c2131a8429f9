// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanKinds(t *testing.T, src string) []Kind {
	t.Helper()
	sc := NewScanner([]byte(src))
	var kinds []Kind
	for {
		tok, err := sc.Next()
		require.NoError(t, err)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == EOF {
			return kinds
		}
	}
}

func TestPunctuation(t *testing.T) {
	assert.Equal(t,
		[]Kind{LBrace, RBrace, LBracket, RBracket, Lt, Gt, Star, Eq, Semi, Colon, Comma, LParen, RParen, EOF},
		scanKinds(t, " { }[]<>*= ;:, ()"))
}

func TestComments(t *testing.T) {
	assert.Equal(t,
		[]Kind{LBrace, Eq, Star, EOF},
		scanKinds(t, "/* */ { /* } */ = /* * * / */ *"))
}

func TestLineComments(t *testing.T) {
	assert.Equal(t,
		[]Kind{Int, Semi, EOF},
		scanKinds(t, "% this line is passed through\nint;% trailing"))
}

func TestNumbers(t *testing.T) {
	src := `123 456 7 9
		0xa 0xA 0x01 0x1 0x20 01 010 0 1 -5 -0x10`
	want := []int64{123, 456, 7, 9, 10, 10, 1, 1, 32, 1, 8, 0, 1, -5, -16}

	sc := NewScanner([]byte(src))
	var got []int64
	for {
		tok, err := sc.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			break
		}
		require.Equal(t, Number, tok.Kind)
		got = append(got, tok.Value)
	}
	assert.Equal(t, want, got)
}

func TestKeywords(t *testing.T) {
	src := `struct union an_identifier123 switch case default typedef enum program version
		const const_ float double quadruple bool TRUE FALSE
		unsigned int long hyper opaque string void`
	want := []Kind{
		Struct, Union, Ident, Switch, Case, Default, Typedef, Enum, Program, Version,
		Const, Ident, Float, Double, Quadruple, Bool, True, False,
		Unsigned, Int, Long, Hyper, Opaque, String, Void, EOF,
	}
	assert.Equal(t, want, scanKinds(t, src))
}

func TestIdentifierText(t *testing.T) {
	sc := NewScanner([]byte("  _leading trailing_ mixed_09"))
	for _, want := range []string{"_leading", "trailing_", "mixed_09"} {
		tok, err := sc.Next()
		require.NoError(t, err)
		require.Equal(t, Ident, tok.Kind)
		assert.Equal(t, want, tok.Text)
	}
}

func TestScanErrors(t *testing.T) {
	testcases := []struct {
		Name string
		Src  string
	}{
		{"illegal character", "int x # y"},
		{"unterminated comment", "int /* no end"},
		{"slash without star", "int / 4"},
		{"bad hex digit", "0xZZ"},
		{"dangling minus", "int x = -;"},
	}

	for _, tc := range testcases {
		t.Run(tc.Name, func(t *testing.T) {
			sc := NewScanner([]byte(tc.Src))
			var lastErr error
			for i := 0; i < 32; i++ {
				tok, err := sc.Next()
				if err != nil {
					lastErr = err
					break
				}
				if tok.Kind == EOF {
					break
				}
			}
			require.Error(t, lastErr)
			var se *ScanError
			require.ErrorAs(t, lastErr, &se)
			assert.GreaterOrEqual(t, se.Offset, 0)
		})
	}
}

func TestPosition(t *testing.T) {
	src := []byte("int a;\nstruct b {\n\tint c;\n};\n")

	line, col := Position(src, 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = Position(src, 7) // 's' of struct
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = Position(src, 19) // 'i' of the indented "int c"
	assert.Equal(t, 3, line)
	assert.Equal(t, 2, col)
}
