// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
	"github.com/gogpu/gpures/internal/wgsl"
)

// Shader is a device shader module built from WGSL source.
//
// The source is compiled to SPIR-V at Create; a compile error fails Create
// and leaves the shader without a device identity.
type Shader struct {
	Resource

	stage  gputypes.ShaderStage
	source string
	spirv  []uint32
}

// NewShader returns a shader for stage with WGSL source.
func NewShader(stage gputypes.ShaderStage, source string) *Shader {
	s := &Shader{stage: stage, source: source}
	s.setup(device.ClassShader, s)
	if source != "" {
		s.configured()
	}
	return s
}

// Stage returns the shader stage.
func (s *Shader) Stage() gputypes.ShaderStage { return s.stage }

// Source returns the WGSL source.
func (s *Shader) Source() string { return s.source }

// SPIRV returns the compiled code, or nil before the first successful
// Create.
func (s *Shader) SPIRV() []uint32 { return s.spirv }

// SetSource replaces the WGSL source. A created shader picks it up when it
// is created again.
func (s *Shader) SetSource(source string) error {
	if s.state == StateDisposed {
		return s.errDisposed("set source")
	}
	s.source = source
	s.spirv = nil
	s.configured()
	return nil
}

func (s *Shader) requiresName(device.Context) bool { return true }

func (s *Shader) existsObject(ctx device.Context) bool {
	return ctx.Device().IsName(device.ClassShader, s.id.name)
}

func (s *Shader) createObject(ctx device.Context) error {
	if s.spirv == nil {
		code, err := wgsl.Compile(s.source)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidArgument, s.id, s.label, err)
		}
		s.spirv = code
	}
	src := device.ShaderSource{
		Label: s.label,
		Stage: s.stage,
		WGSL:  s.source,
		SPIRV: s.spirv,
	}
	if err := ctx.Device().ShaderModule(s.id.name, src); err != nil {
		return fmt.Errorf("gpures: shader module %s: %w", s.id, err)
	}
	return nil
}

func (s *Shader) forgetObject() {}

func (s *Shader) releaseHost() {
	s.spirv = nil
}
