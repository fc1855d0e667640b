// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package fingerprint maps keys to the 32-bit values a table masks down to
// a home slot.  Fingerprints are deterministic within a process but make no
// claims about cryptographic strength or resistance to hash flooding.
package fingerprint

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Func fingerprints a key's raw bytes.
type Func func(b []byte) uint32

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// FNV1a is the 32-bit FNV-1a hash, the default fingerprint.
func FNV1a(b []byte) uint32 {
	h := uint32(fnvOffset32)
	for _, c := range b {
		h = (h ^ uint32(c)) * fnvPrime32
	}
	return h
}

// Farm is the 32-bit FarmHash of b.
func Farm(b []byte) uint32 {
	return farm.Hash32(b)
}

// XXHash is the low 32 bits of the 64-bit xxHash of b.
func XXHash(b []byte) uint32 {
	return uint32(xxhash.Sum64(b))
}

// XXH3 is the low 32 bits of the 64-bit XXH3 hash of b.
func XXH3(b []byte) uint32 {
	return uint32(xxh3.Hash(b))
}

// Murmur3 is the 32-bit MurmurHash3 of b.
func Murmur3(b []byte) uint32 {
	return murmur3.Sum32(b)
}

// ByName returns the fingerprint function called name ("fnv1a", "farm",
// "xxhash", "xxh3" or "murmur3").
func ByName(name string) (Func, bool) {
	switch name {
	case "fnv1a", "fnv", "":
		return FNV1a, true
	case "farm":
		return Farm, true
	case "xxhash":
		return XXHash, true
	case "xxh3":
		return XXH3, true
	case "murmur3":
		return Murmur3, true
	default:
		return nil, false
	}
}
