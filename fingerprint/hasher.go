// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package fingerprint

import (
	"encoding/binary"
	"hash/maphash"
	"reflect"
	"unsafe"

	"github.com/bpowers/bithash/internal/unsafestring"
)

// Hasher fingerprints a key of type K.
type Hasher[K any] func(key K) uint32

// seed is fixed for the life of the process so fallback fingerprints are
// stable across tables.
var seed = maphash.MakeSeed()

// For returns a Hasher that feeds the raw bytes of a key to fn (FNV1a if fn
// is nil).  String keys are hashed without copying.  Booleans and integers
// are hashed by their little-endian bytes, and other Bytewise types by
// their bytes in memory.  Every remaining comparable type, including floats
// whose +0 and -0 compare equal, is hashed with hash/maphash so that equal
// keys always share a fingerprint; fn is not used for those.
func For[K comparable](fn Func) Hasher[K] {
	if fn == nil {
		fn = FNV1a
	}
	switch reflect.TypeFor[K]().Kind() {
	case reflect.String:
		return func(k K) uint32 {
			return fn(unsafestring.ToBytes(*(*string)(unsafe.Pointer(&k))))
		}
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return func(k K) uint32 {
			buf := [1]byte{*(*uint8)(unsafe.Pointer(&k))}
			return fn(buf[:])
		}
	case reflect.Int16, reflect.Uint16:
		return func(k K) uint32 {
			var buf [2]byte
			binary.LittleEndian.PutUint16(buf[:], *(*uint16)(unsafe.Pointer(&k)))
			return fn(buf[:])
		}
	case reflect.Int32, reflect.Uint32:
		return func(k K) uint32 {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], *(*uint32)(unsafe.Pointer(&k)))
			return fn(buf[:])
		}
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		var zero K
		if unsafe.Sizeof(zero) == 4 {
			return func(k K) uint32 {
				var buf [4]byte
				binary.LittleEndian.PutUint32(buf[:], *(*uint32)(unsafe.Pointer(&k)))
				return fn(buf[:])
			}
		}
		return wide[K](fn)
	case reflect.Int64, reflect.Uint64:
		return wide[K](fn)
	}
	if Bytewise[K]() {
		var zero K
		size := int(unsafe.Sizeof(zero))
		return func(k K) uint32 {
			return fn(unsafe.Slice((*byte)(unsafe.Pointer(&k)), size))
		}
	}
	return func(k K) uint32 {
		h := maphash.Comparable(seed, k)
		return uint32(h) ^ uint32(h>>32)
	}
}

// Bytewise reports whether two values of K are equal exactly when their
// bytes in memory are, so that For can feed a key's raw bytes to a Func.
// That holds for booleans, integers, and arrays and structs built only
// from them without padding.  Floats, strings, pointers, interfaces and
// channels don't qualify, and For hashes them with hash/maphash instead.
func Bytewise[K comparable]() bool {
	return bytewise(reflect.TypeFor[K]())
}

// Supports reports whether For[K] hashes keys with the Func it is given,
// which is true for strings and Bytewise types.
func Supports[K comparable]() bool {
	return reflect.TypeFor[K]().Kind() == reflect.String || Bytewise[K]()
}

func bytewise(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	case reflect.Array:
		return bytewise(t.Elem())
	case reflect.Struct:
		var size uintptr
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Name == "_" || !bytewise(f.Type) {
				return false
			}
			size += f.Type.Size()
		}
		// padding bytes are unspecified and would split equal keys
		return size == t.Size()
	default:
		return false
	}
}

func wide[K comparable](fn Func) Hasher[K] {
	return func(k K) uint32 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], *(*uint64)(unsafe.Pointer(&k)))
		return fn(buf[:])
	}
}
