// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xdr

import "fmt"

type xerror string

func (e xerror) Error() string {
	return string(e)
}

const (
	// Input ended before the value was fully decoded
	ErrTruncated = xerror("xdr: truncated input")

	// Union discriminant matched no case label and no default arm was declared
	ErrUnexpectedTag = xerror("xdr: union discriminant matches no arm")

	// Variable length object longer than permitted by the schema
	// (for values where the schema specifies no limit, it is implicitly
	// treated as if 0xFFFFFFFF were specified)
	ErrOversizedArray = xerror("xdr: variable length object too long")

	// Encoded bool was neither 0 nor 1
	ErrInvalidBool = xerror("xdr: invalid bool value")

	// Encoded enum value is not a declared variant
	ErrUnknownEnum = xerror("xdr: unknown enum value")

	// Padding bytes of an opaque or string body were not zero
	ErrNonZeroPadding = xerror("xdr: non-zero padding bytes")
)

type UnexpectedTagError struct {
	Tag int32
}

func (err *UnexpectedTagError) Is(target error) bool {
	return target == ErrUnexpectedTag
}

func (err *UnexpectedTagError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrUnexpectedTag, err.Tag)
}

type OversizedArrayError struct {
	Max    uint32
	Actual uint32
}

func (err *OversizedArrayError) Is(target error) bool {
	return target == ErrOversizedArray
}

func (err *OversizedArrayError) Error() string {
	return fmt.Sprintf("%s (%d > %d)", ErrOversizedArray, err.Actual, err.Max)
}

type InvalidBoolError struct {
	Value uint32
}

func (err *InvalidBoolError) Is(target error) bool {
	return target == ErrInvalidBool
}

func (err *InvalidBoolError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrInvalidBool, err.Value)
}

type UnknownEnumError struct {
	Value int32
}

func (err *UnknownEnumError) Is(target error) bool {
	return target == ErrUnknownEnum
}

func (err *UnknownEnumError) Error() string {
	return fmt.Sprintf("%s (%d)", ErrUnknownEnum, err.Value)
}
