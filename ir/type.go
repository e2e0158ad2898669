// Package ir implements FCx IR: the high-level, operator-centric SSA-ish
// intermediate representation that FCx IR generation produces from the
// source language's AST. It is free of any x86-64-specific detail; that
// belongs to package fcir and the lower package that rewrites into it.
package ir

// Type is a numeric-type tag carried by every VReg. The set is closed: a
// new member is a compile-time edit to this file and to every exhaustive
// switch over it (ByteSize, IsPointer, etc.), per the "dynamic dispatch
// across opcodes" design note which applies equally to this closed set.
type Type uint8

const (
	TypeInvalid Type = iota

	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeI256
	TypeI512
	TypeI1024

	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeU256
	TypeU512
	TypeU1024

	TypeF32
	TypeF64

	TypeBool
	TypeVoid

	// TypeTypedPtr is a pointer that allows scaled arithmetic; PTR_ADD and
	// PTR_SUB scale the offset by the type's ByteSize (8). The type carries
	// no pointee type.
	TypeTypedPtr
	// TypeRawPtr disallows pointer arithmetic entirely.
	TypeRawPtr
	// TypeBytePtr allows unscaled, byte-wise pointer arithmetic.
	TypeBytePtr
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeI128:
		return "i128"
	case TypeI256:
		return "i256"
	case TypeI512:
		return "i512"
	case TypeI1024:
		return "i1024"
	case TypeU8:
		return "u8"
	case TypeU16:
		return "u16"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeU128:
		return "u128"
	case TypeU256:
		return "u256"
	case TypeU512:
		return "u512"
	case TypeU1024:
		return "u1024"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeVoid:
		return "void"
	case TypeTypedPtr:
		return "ptr"
	case TypeRawPtr:
		return "rawptr"
	case TypeBytePtr:
		return "byteptr"
	default:
		return "invalid"
	}
}

// ByteSize returns the size in bytes a VReg of this Type occupies. Pointer
// flavors and bool are sized as the machine word / single byte
// respectively, matching the System V AMD64 operand sizes lowering relies
// on.
func (t Type) ByteSize() int {
	switch t {
	case TypeI8, TypeU8, TypeBool:
		return 1
	case TypeI16, TypeU16:
		return 2
	case TypeI32, TypeU32:
		return 4
	case TypeI64, TypeU64, TypeTypedPtr, TypeRawPtr, TypeBytePtr:
		return 8
	case TypeI128, TypeU128:
		return 16
	case TypeI256, TypeU256:
		return 32
	case TypeI512, TypeU512:
		return 64
	case TypeI1024, TypeU1024:
		return 128
	case TypeF32:
		return 4
	case TypeF64:
		return 8
	default:
		return 0
	}
}

// IsPointer reports whether t is one of the three pointer flavors.
func (t Type) IsPointer() bool {
	return t == TypeTypedPtr || t == TypeRawPtr || t == TypeBytePtr
}

// IsBig reports whether a constant of this type must be carried as a
// multi-limb big-integer rather than a native int64/uint64.
func (t Type) IsBig() bool {
	switch t {
	case TypeI128, TypeI256, TypeI512, TypeI1024, TypeU128, TypeU256, TypeU512, TypeU1024:
		return true
	default:
		return false
	}
}

// IsSigned reports whether t is a signed integer type.
func (t Type) IsSigned() bool {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64, TypeI128, TypeI256, TypeI512, TypeI1024:
		return true
	default:
		return false
	}
}

// IsInteger reports whether t is any integer type, signed or unsigned.
func (t Type) IsInteger() bool {
	switch t {
	case TypeI8, TypeI16, TypeI32, TypeI64, TypeI128, TypeI256, TypeI512, TypeI1024,
		TypeU8, TypeU16, TypeU32, TypeU64, TypeU128, TypeU256, TypeU512, TypeU1024:
		return true
	default:
		return false
	}
}
