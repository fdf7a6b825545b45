// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package haldev implements device.Device on top of gogpu/wgpu/hal.
//
// The HAL has no object names, no buffer mapping from the host and no
// partial texture uploads at an origin, so the device keeps a host shadow
// of every buffer and texture level. Writes land in the shadow first and
// are pushed through the queue, which keeps the shadow authoritative:
// MapBuffer hands out the shadow and UnmapBuffer writes it back.
//
// Mipmap generation and channel swizzles have no HAL equivalent and are
// reported as unsupported.
package haldev

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/device"
)

// ErrNoHAL is returned by FromProvider when the provider does not expose
// HAL objects.
var ErrNoHAL = errors.New("haldev: provider does not expose HAL types")

// Features are the optional features a HAL device provides.
const Features = device.FeatureBufferObjects |
	device.FeatureImmutableBufferStorage |
	device.FeatureBufferMapping |
	device.FeatureImmutableTextureStorage |
	device.FeatureTexture3D |
	device.FeatureTextureArrays |
	device.FeatureNPOTTextures |
	device.FeatureVertexArrayObjects

var nextNamespace atomic.Uint64

// Device adapts a hal.Device and its queue.
//
// Device is safe for concurrent use; all calls are serialized.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	caps   *device.Caps
	ns     device.NamespaceID

	issued   map[device.Class]uint32
	buffers  map[device.Name]*buffer
	textures map[device.Name]*texture
	shaders  map[device.Name]hal.ShaderModule
	arrays   map[device.Name]map[uint32]device.VertexAttrib

	bufferBindings map[device.BufferTarget]device.Name
	textureUnits   map[uint32]device.Name
	boundArray     device.Name
	globalAttribs  map[uint32]device.VertexAttrib
}

// New wraps a HAL device and queue. If limits is nil, default limits are
// used.
func New(d hal.Device, q hal.Queue, limits *gputypes.Limits) *Device {
	var lim gputypes.Limits
	if limits != nil {
		lim = *limits
	} else {
		lim = gputypes.DefaultLimits()
	}

	caps := device.DefaultCaps()
	caps.Features = Features
	caps.Limits = device.LimitsFromWGPU(lim)

	hd := &Device{
		device:         d,
		queue:          q,
		caps:           caps,
		ns:             device.NamespaceID(nextNamespace.Add(1)) | halNamespaceBit,
		issued:         make(map[device.Class]uint32),
		buffers:        make(map[device.Name]*buffer),
		textures:       make(map[device.Name]*texture),
		shaders:        make(map[device.Name]hal.ShaderModule),
		arrays:         make(map[device.Name]map[uint32]device.VertexAttrib),
		bufferBindings: make(map[device.BufferTarget]device.Name),
		textureUnits:   make(map[uint32]device.Name),
		globalAttribs:  make(map[uint32]device.VertexAttrib),
	}
	device.Logger().Debug("haldev: device wrapped",
		"namespace", hd.ns, "max_buffer_size", caps.Limits.MaxBufferSize)
	return hd
}

// halNamespaceBit keeps HAL namespaces apart from software ones.
const halNamespaceBit device.NamespaceID = 1 << 63

// FromProvider wraps the HAL device of a gpucontext provider, such as a
// gogpu window. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	d, ok := hp.HalDevice().(hal.Device)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return New(d, q, nil), nil
}

// Context returns a context for the device. HAL devices have no notion of
// a current context, so it is always current.
func (d *Device) Context() *Context { return &Context{dev: d} }

// Namespace returns the device namespace.
func (d *Device) Namespace() device.NamespaceID { return d.ns }

// Close destroys every HAL object the device still owns. The wrapped HAL
// device itself is left alone.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, b := range d.buffers {
		d.destroyBuffer(b)
		delete(d.buffers, name)
	}
	for name, t := range d.textures {
		d.destroyTexture(t)
		delete(d.textures, name)
	}
	for name, m := range d.shaders {
		if m != nil {
			d.device.DestroyShaderModule(m)
		}
		delete(d.shaders, name)
	}
}

// Context implements device.Context for a HAL device.
type Context struct {
	dev *Device
}

// Device implements device.Context.
func (c *Context) Device() device.Device { return c.dev }

// IsCurrent implements device.Context.
func (c *Context) IsCurrent() bool { return true }

// Namespace implements device.Context.
func (c *Context) Namespace() device.NamespaceID { return c.dev.ns }

// Caps implements device.Device.
func (d *Device) Caps() *device.Caps { return d.caps }

// GenName implements device.Device.
func (d *Device) GenName(class device.Class) device.Name {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.issued[class]++
	name := device.Name(d.issued[class])
	switch class {
	case device.ClassBuffer:
		d.buffers[name] = &buffer{}
	case device.ClassTexture:
		d.textures[name] = &texture{levels: make(map[uint32]*level)}
	case device.ClassShader:
		d.shaders[name] = nil
	case device.ClassVertexArray:
		d.arrays[name] = make(map[uint32]device.VertexAttrib)
	default:
		return device.InvalidName
	}
	return name
}

// DeleteNames implements device.Device.
func (d *Device) DeleteNames(class device.Class, names ...device.Name) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range names {
		switch class {
		case device.ClassBuffer:
			if b, ok := d.buffers[name]; ok {
				d.destroyBuffer(b)
				delete(d.buffers, name)
			}
			for t, bound := range d.bufferBindings {
				if bound == name {
					delete(d.bufferBindings, t)
				}
			}
		case device.ClassTexture:
			if t, ok := d.textures[name]; ok {
				d.destroyTexture(t)
				delete(d.textures, name)
			}
			for u, bound := range d.textureUnits {
				if bound == name {
					delete(d.textureUnits, u)
				}
			}
		case device.ClassShader:
			if m := d.shaders[name]; m != nil {
				d.device.DestroyShaderModule(m)
			}
			delete(d.shaders, name)
		case device.ClassVertexArray:
			delete(d.arrays, name)
			if d.boundArray == name {
				d.boundArray = device.InvalidName
			}
		}
	}
}

// IsName implements device.Device.
func (d *Device) IsName(class device.Class, name device.Name) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ok bool
	switch class {
	case device.ClassBuffer:
		_, ok = d.buffers[name]
	case device.ClassTexture:
		_, ok = d.textures[name]
	case device.ClassShader:
		_, ok = d.shaders[name]
	case device.ClassVertexArray:
		_, ok = d.arrays[name]
	}
	return ok
}

// ShaderModule implements device.Device.
func (d *Device) ShaderModule(name device.Name, src device.ShaderSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	old, ok := d.shaders[name]
	if !ok {
		return fmt.Errorf("%w: shader %d", device.ErrUnknownName, name)
	}
	if src.WGSL == "" && len(src.SPIRV) == 0 {
		return fmt.Errorf("haldev: shader %d: empty source", name)
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: src.Label,
		Source: hal.ShaderSource{
			WGSL:  src.WGSL,
			SPIRV: src.SPIRV,
		},
	})
	if err != nil {
		return fmt.Errorf("haldev: create shader module: %w", err)
	}
	if old != nil {
		d.device.DestroyShaderModule(old)
	}
	d.shaders[name] = module
	return nil
}

// BindVertexArray implements device.Device.
func (d *Device) BindVertexArray(name device.Name) {
	d.mu.Lock()
	d.boundArray = name
	d.mu.Unlock()
}

// VertexAttrib implements device.Device. Attribute state is recorded for
// pipeline creation; the HAL has no separate vertex array objects.
func (d *Device) VertexAttrib(vao device.Name, location uint32, attr device.VertexAttrib) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if location >= d.caps.Limits.MaxVertexAttributes {
		return fmt.Errorf("%w: attribute location %d >= %d",
			device.ErrOutOfRange, location, d.caps.Limits.MaxVertexAttributes)
	}
	if vao == device.InvalidName {
		d.globalAttribs[location] = attr
		return nil
	}
	attribs, ok := d.arrays[vao]
	if !ok {
		return fmt.Errorf("%w: vertex array %d", device.ErrUnknownName, vao)
	}
	attribs[location] = attr
	return nil
}

// VertexLayout returns the attributes recorded for a vertex array as
// gputypes vertex attributes, ordered by location.
func (d *Device) VertexLayout(vao device.Name) []gputypes.VertexAttribute {
	d.mu.Lock()
	defer d.mu.Unlock()

	attribs := d.globalAttribs
	if vao != device.InvalidName {
		attribs = d.arrays[vao]
	}
	layout := make([]gputypes.VertexAttribute, 0, len(attribs))
	for loc := uint32(0); loc < d.caps.Limits.MaxVertexAttributes && len(layout) < len(attribs); loc++ {
		a, ok := attribs[loc]
		if !ok {
			continue
		}
		layout = append(layout, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: loc,
		})
	}
	return layout
}

var (
	_ device.Device  = (*Device)(nil)
	_ device.Context = (*Context)(nil)
)
