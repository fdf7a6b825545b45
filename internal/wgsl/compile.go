// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgsl compiles WGSL shader source to SPIR-V words.
package wgsl

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrEmptySource is returned for blank shader source.
var ErrEmptySource = errors.New("wgsl: empty shader source")

// Compile compiles WGSL source to SPIR-V.
func Compile(src string) ([]uint32, error) {
	if src == "" {
		return nil, ErrEmptySource
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("wgsl: compile: %w", err)
	}
	return Words(spirv)
}

// Words converts a little-endian SPIR-V byte stream to 32-bit words.
func Words(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("wgsl: SPIR-V length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
