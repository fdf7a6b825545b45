// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

const solidFragment = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 1.0, 0.0, 1.0);
}
`

func TestShaderCreate(t *testing.T) {
	ctx, dev := newTestContext(t)
	s := NewShader(gputypes.ShaderStageFragment, solidFragment)
	s.SetLabel("solid")
	if s.State() != StateConfigured {
		t.Errorf("State() = %v, want configured", s.State())
	}
	if err := s.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !s.Exists(ctx) || len(s.SPIRV()) == 0 {
		t.Fatalf("Exists = %v, SPIRV words = %d", s.Exists(ctx), len(s.SPIRV()))
	}

	src, ok := dev.Shader(s.Identity().Name())
	if !ok {
		t.Fatal("device has no shader source")
	}
	if src.WGSL != solidFragment || src.Stage != gputypes.ShaderStageFragment || src.Label != "solid" {
		t.Errorf("device source = %+v", src)
	}
	if len(src.SPIRV) != len(s.SPIRV()) {
		t.Errorf("device SPIR-V = %d words, want %d", len(src.SPIRV), len(s.SPIRV()))
	}
}

func TestShaderCompileError(t *testing.T) {
	ctx, dev := newTestContext(t)
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"syntax", "fn broken( {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShader(gputypes.ShaderStageVertex, tt.source)
			err := s.Create(ctx)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Create() error = %v, want ErrInvalidArgument", err)
			}
			if s.Identity().Bound() {
				t.Error("failed compile should release the name")
			}
			if dev.Objects(device.ClassShader) != 0 {
				t.Errorf("Objects(shader) = %d, want 0", dev.Objects(device.ClassShader))
			}
		})
	}
}

func TestShaderSetSource(t *testing.T) {
	ctx, _ := newTestContext(t)
	s := NewShader(gputypes.ShaderStageFragment, "")
	if s.State() != StateUnconfigured {
		t.Errorf("State() = %v, want unconfigured", s.State())
	}
	if err := s.SetSource(solidFragment); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Source() != solidFragment || s.Stage() != gputypes.ShaderStageFragment {
		t.Error("accessors do not reflect the configured shader")
	}
	if err := s.Dispose(); err != nil {
		t.Fatal(err)
	}
	if s.SPIRV() != nil {
		t.Error("Dispose should drop the compiled code")
	}
	if err := s.SetSource(solidFragment); !errors.Is(err, ErrDisposed) {
		t.Errorf("SetSource() after Dispose error = %v", err)
	}
}
