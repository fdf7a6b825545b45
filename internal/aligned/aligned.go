// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package aligned provides fixed-size host memory blocks whose first byte
// satisfies a power-of-two alignment.
//
// Blocks back CPU-side buffer mirrors and the simulated device storage used
// when the device lacks buffer objects. The Go heap does not move objects,
// so the aligned address of a block is stable for its whole lifetime.
package aligned

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// DefaultAlignment is the alignment used when none is requested.
const DefaultAlignment = 16

// Allocation errors.
var (
	// ErrInvalidSize is returned for non-positive block sizes.
	ErrInvalidSize = errors.New("aligned: invalid size")

	// ErrInvalidAlignment is returned for alignments that are not a power of two.
	ErrInvalidAlignment = errors.New("aligned: alignment must be a power of two")
)

var (
	liveBlocks atomic.Int64
	liveBytes  atomic.Int64
)

// Stats reports the blocks allocated and not yet released.
type Stats struct {
	Blocks int64
	Bytes  int64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("aligned[%d blocks, %d bytes]", s.Blocks, s.Bytes)
}

// CurrentStats returns the process-wide live allocation counters.
func CurrentStats() Stats {
	return Stats{Blocks: liveBlocks.Load(), Bytes: liveBytes.Load()}
}

// Storage is an aligned host memory block.
//
// A Storage is not safe for concurrent use.
type Storage struct {
	base      []byte
	offset    int
	size      int
	alignment int
	released  bool
}

// New allocates a zeroed block of size bytes aligned to alignment.
// An alignment of 0 selects DefaultAlignment.
func New(size, alignment int) (*Storage, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if alignment == 0 {
		alignment = DefaultAlignment
	}
	if alignment < 0 || alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}

	base := make([]byte, size+alignment-1)
	addr := uintptr(unsafe.Pointer(&base[0]))
	//nolint:gosec // G115: alignment is a small positive power of two
	offset := int((uintptr(alignment) - addr%uintptr(alignment)) % uintptr(alignment))

	liveBlocks.Add(1)
	liveBytes.Add(int64(size))

	return &Storage{
		base:      base,
		offset:    offset,
		size:      size,
		alignment: alignment,
	}, nil
}

// Size returns the usable size in bytes.
func (s *Storage) Size() int { return s.size }

// Alignment returns the alignment of the first usable byte.
func (s *Storage) Alignment() int { return s.alignment }

// Released reports whether Release has been called.
func (s *Storage) Released() bool { return s.released }

// Bytes returns the usable region. It returns nil after Release.
func (s *Storage) Bytes() []byte {
	if s.released {
		return nil
	}
	return s.base[s.offset : s.offset+s.size : s.offset+s.size]
}

// Ptr returns the aligned address. It returns nil after Release.
func (s *Storage) Ptr() unsafe.Pointer {
	if s.released {
		return nil
	}
	return unsafe.Pointer(&s.base[s.offset])
}

// Reset zeroes the usable region.
func (s *Storage) Reset() {
	if s.released {
		return
	}
	clear(s.Bytes())
}

// Release returns the block. Releasing a block twice panics: it means two
// owners believed they held the same memory.
func (s *Storage) Release() {
	if s.released {
		panic("aligned: storage released twice")
	}
	s.released = true
	s.base = nil
	liveBlocks.Add(-1)
	liveBytes.Add(-int64(s.size))
}
