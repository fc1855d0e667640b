// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bithash

import (
	"errors"

	"github.com/bpowers/bithash/internal/table"
)

var (
	// ErrNegativeDelta is returned by Expand and Reserve for a negative delta.
	ErrNegativeDelta = table.ErrNegativeDelta
	// ErrCapacityNotPow2 is returned when a capacity isn't a power of two.
	ErrCapacityNotPow2 = table.ErrCapacityNotPow2
	// ErrDuplicateKey is returned by Add and Move when the key is already
	// present.
	ErrDuplicateKey = table.ErrDuplicateKey
	// ErrNotBytewise is returned by New and NewSet when WithFingerprint is
	// given for a key type whose equality isn't decided by its raw bytes.
	ErrNotBytewise = errors.New("key type has no byte representation to fingerprint")
)

// Stats summarizes a table's occupancy and probe lengths.
type Stats = table.Stats
