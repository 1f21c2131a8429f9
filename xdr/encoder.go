// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xdr is the small runtime shared by code the compiler generates:
// big-endian fixed-width integer primitives, length-prefixed byte arrays
// with four-byte padding, the decode error taxonomy, and the RPC program
// manifest types.
//
// An Encoder owns its output buffer; a Decoder is a cursor over a caller's
// slice and never retains it after return. Neither holds any other state,
// so concurrent use of distinct instances is safe.
package xdr

import "math"

// MaxLength is the cap applied to variable-length objects whose schema
// declares none
const MaxLength = uint32(math.MaxUint32)

// pad always contains zeroes; written whenever padding is needed
var pad [4]byte

// An Encoder appends the XDR encoding of values to an owned buffer.
// Encoding is infallible: any value representable in the generated types
// encodes deterministically.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return new(Encoder)
}

// Bytes returns the encoded buffer. The buffer is owned by the encoder;
// callers that keep encoding afterwards must copy it first.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far
func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) EncodeInt(i int32) {
	e.buf = append(e.buf, byte(i>>24), byte(i>>16), byte(i>>8), byte(i))
}

func (e *Encoder) EncodeUnsignedInt(u uint32) {
	e.EncodeInt(int32(u))
}

func (e *Encoder) EncodeBool(b bool) {
	i := int32(0)
	if b {
		i = 1
	}
	e.EncodeInt(i)
}

func (e *Encoder) EncodeHyper(i int64) {
	e.buf = append(e.buf,
		byte(i>>56), byte(i>>48), byte(i>>40), byte(i>>32),
		byte(i>>24), byte(i>>16), byte(i>>8), byte(i))
}

func (e *Encoder) EncodeUnsignedHyper(u uint64) {
	e.EncodeHyper(int64(u))
}

func (e *Encoder) EncodeFloat(f float32) {
	e.EncodeUnsignedInt(math.Float32bits(f))
}

func (e *Encoder) EncodeDouble(f float64) {
	e.EncodeUnsignedHyper(math.Float64bits(f))
}

// EncodeOpaque writes a length-prefixed byte array, zero-padded to a
// multiple of four
func (e *Encoder) EncodeOpaque(b []byte) {
	e.EncodeUnsignedInt(uint32(len(b)))
	e.EncodeFixedOpaque(b)
}

// EncodeFixedOpaque writes the bytes with no length prefix, zero-padded to
// a multiple of four
func (e *Encoder) EncodeFixedOpaque(b []byte) {
	e.buf = append(e.buf, b...)
	padding := (4 - (len(b) & 3)) & 3
	e.buf = append(e.buf, pad[0:padding]...)
}

func (e *Encoder) EncodeString(s string) {
	e.EncodeUnsignedInt(uint32(len(s)))
	e.buf = append(e.buf, s...)
	padding := (4 - (len(s) & 3)) & 3
	e.buf = append(e.buf, pad[0:padding]...)
}
