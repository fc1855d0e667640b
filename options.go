// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bithash

import (
	"fmt"
	"log/slog"

	"github.com/bpowers/bithash/fingerprint"
	"github.com/bpowers/bithash/internal/table"
	"github.com/bpowers/bithash/memory"
)

// Option configures a Map or Set.
type Option func(*options)

type options struct {
	hasher      any
	fingerprint fingerprint.Func
	allocator   memory.Allocator
	logger      *slog.Logger
	reciprocal  int
	capacity    int
}

// WithHasher sets the function used to fingerprint keys.  K must match the
// key type of the Map or Set being built, or New fails.  WithHasher takes
// precedence over WithFingerprint.
func WithHasher[K comparable](h fingerprint.Hasher[K]) Option {
	return func(opts *options) {
		opts.hasher = h
	}
}

// WithFingerprint sets the byte-level hash used to fingerprint the raw bytes
// of each key.  The default is fingerprint.FNV1a.  Only string keys and
// fingerprint.Bytewise keys have raw bytes to hash; for any other key type
// New fails with ErrNotBytewise unless WithHasher is also given.
func WithFingerprint(fn fingerprint.Func) Option {
	return func(opts *options) {
		opts.fingerprint = fn
	}
}

// WithAllocator sets where the bucket bitmaps are allocated.  Tables using
// memory.Mmap must be Released when no longer needed.
func WithAllocator(a memory.Allocator) Option {
	return func(opts *options) {
		opts.allocator = a
	}
}

// WithLogger sets an optional logger for growth and heal events.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithReciprocal grows the table before an insert once Cap()/(Cap()-Len()),
// in integer division, exceeds n.  The default of 3 keeps at least a quarter
// of the slots free.
func WithReciprocal(n int) Option {
	return func(opts *options) {
		opts.reciprocal = n
	}
}

// WithCapacity sets the power-of-two capacity allocated on first insert.
// The default is 64.
func WithCapacity(n int) Option {
	return func(opts *options) {
		opts.capacity = n
	}
}

func newConfig[K comparable](opts []Option) (table.Config[K], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := table.Config[K]{
		Allocator:  o.allocator,
		Logger:     o.logger,
		Reciprocal: o.reciprocal,
		Capacity:   o.capacity,
	}
	if o.capacity != 0 && (o.capacity < 0 || o.capacity&(o.capacity-1) != 0) {
		return cfg, fmt.Errorf("WithCapacity(%d): %w", o.capacity, ErrCapacityNotPow2)
	}
	if o.reciprocal < 0 {
		return cfg, fmt.Errorf("WithReciprocal(%d): must be positive", o.reciprocal)
	}

	if o.fingerprint != nil && o.hasher == nil && !fingerprint.Supports[K]() {
		var zero K
		return cfg, fmt.Errorf("WithFingerprint for %T keys: %w", zero, ErrNotBytewise)
	}

	switch h := o.hasher.(type) {
	case nil:
		cfg.Hash = fingerprint.For[K](o.fingerprint)
	case fingerprint.Hasher[K]:
		if h == nil {
			cfg.Hash = fingerprint.For[K](o.fingerprint)
		} else {
			cfg.Hash = h
		}
	default:
		var zero K
		return cfg, fmt.Errorf("WithHasher: hasher is a %T, but keys are %T", o.hasher, zero)
	}
	return cfg, nil
}
