// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xdr

import "testing"

func BenchmarkEncodePrimitives(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e := NewEncoder()
		e.EncodeUnsignedInt(0x01020304)
		e.EncodeHyper(-1)
		e.EncodeBool(true)
		_ = e.Bytes()
	}
}

func BenchmarkEncodeOpaque(b *testing.B) {
	payload := make([]byte, 1027)
	b.ReportAllocs()
	b.SetBytes(int64(len(payload)))
	for i := 0; i < b.N; i++ {
		e := NewEncoder()
		e.EncodeOpaque(payload)
	}
}

func BenchmarkDecodePrimitives(b *testing.B) {
	e := NewEncoder()
	e.EncodeUnsignedInt(0x01020304)
	e.EncodeHyper(-1)
	e.EncodeBool(true)
	buf := e.Bytes()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := NewDecoder(buf)
		if _, err := d.DecodeUnsignedInt(); err != nil {
			b.Fatal(err)
		}
		if _, err := d.DecodeHyper(); err != nil {
			b.Fatal(err)
		}
		if _, err := d.DecodeBool(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeOpaque(b *testing.B) {
	e := NewEncoder()
	e.EncodeOpaque(make([]byte, 1027))
	buf := e.Bytes()

	b.ReportAllocs()
	b.SetBytes(1027)
	for i := 0; i < b.N; i++ {
		d := NewDecoder(buf)
		if _, err := d.DecodeOpaque(MaxLength); err != nil {
			b.Fatal(err)
		}
	}
}
