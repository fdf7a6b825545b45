// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software provides a host-memory device.
//
// A Device is one share group: it owns object tables and every Context
// created from it reports the same namespace. Capabilities come from a
// Profile, so the same code can be exercised against a fully featured
// device and against one lacking buffer objects, mapping, swizzle, etc.
//
// The device counts every call it receives and can inject faults (name
// exhaustion, buffers corrupted while mapped), which makes it the reference
// device for tests.
package software

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpures/device"
)

// Name is the registry name of the software device.
const Name = "software"

var nextNamespace atomic.Uint64

// current is the context current on the single execution unit the
// software device simulates.
var current atomic.Pointer[Context]

func init() {
	device.Register(Name, func() (device.Context, error) {
		ctx := New().NewContext()
		ctx.MakeCurrent()
		return ctx, nil
	})
}

// Option configures a Device.
type Option func(*options)

type options struct {
	caps      *device.Caps
	nameLimit uint32
}

// WithProfile sets the capabilities from a profile.
// Invalid profiles are reported by New as a panic; validate them with
// Profile.Caps first when they come from user input.
func WithProfile(p Profile) Option {
	return func(o *options) {
		caps, err := p.Caps()
		if err != nil {
			panic(fmt.Sprintf("software: %v", err))
		}
		o.caps = caps
	}
}

// WithCaps sets the capabilities directly. The table is copied.
func WithCaps(c *device.Caps) Option {
	return func(o *options) {
		o.caps = c.Clone()
	}
}

// WithNameLimit caps the number of names GenName hands out per class.
// Zero means unlimited.
func WithNameLimit(n uint32) Option {
	return func(o *options) {
		o.nameLimit = n
	}
}

// Device is a software share group.
//
// Device is not safe for concurrent use.
type Device struct {
	ns        device.NamespaceID
	caps      *device.Caps
	nameLimit uint32

	issued   map[device.Class]uint32
	buffers  map[device.Name]*buffer
	textures map[device.Name]*texture
	shaders  map[device.Name]*device.ShaderSource
	arrays   map[device.Name]*vertexArray

	bufferBindings map[device.BufferTarget]device.Name
	textureUnits   map[uint32]device.Name
	boundArray     device.Name
	globalAttribs  map[uint32]device.VertexAttrib

	calls       map[string]int
	corruptNext bool
}

// New creates a device with the full profile unless options say otherwise.
func New(opts ...Option) *Device {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.caps == nil {
		caps, _ := ProfileFull.Caps()
		o.caps = caps
	}

	d := &Device{
		ns:             device.NamespaceID(nextNamespace.Add(1)),
		caps:           o.caps,
		nameLimit:      o.nameLimit,
		issued:         make(map[device.Class]uint32),
		buffers:        make(map[device.Name]*buffer),
		textures:       make(map[device.Name]*texture),
		shaders:        make(map[device.Name]*device.ShaderSource),
		arrays:         make(map[device.Name]*vertexArray),
		bufferBindings: make(map[device.BufferTarget]device.Name),
		textureUnits:   make(map[uint32]device.Name),
		globalAttribs:  make(map[uint32]device.VertexAttrib),
		calls:          make(map[string]int),
	}
	device.Logger().Debug("software: device created",
		"namespace", d.ns, "features", d.caps.Features.String())
	return d
}

// Namespace returns the namespace shared by the device's contexts.
func (d *Device) Namespace() device.NamespaceID { return d.ns }

// NewContext creates a context sharing the device's object tables.
func (d *Device) NewContext() *Context {
	return &Context{dev: d}
}

// Calls returns the total number of device calls received.
func (d *Device) Calls() int {
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

// CallCount returns the number of calls to the named method.
func (d *Device) CallCount(method string) int { return d.calls[method] }

// CorruptNextUnmap makes the next UnmapBuffer report lost contents.
func (d *Device) CorruptNextUnmap() { d.corruptNext = true }

// Objects returns the number of live objects of the class.
func (d *Device) Objects(class device.Class) int {
	switch class {
	case device.ClassBuffer:
		return len(d.buffers)
	case device.ClassTexture:
		return len(d.textures)
	case device.ClassShader:
		return len(d.shaders)
	case device.ClassVertexArray:
		return len(d.arrays)
	default:
		return 0
	}
}

func (d *Device) record(method string) { d.calls[method]++ }

// Context is a software device context.
type Context struct {
	dev *Device
}

// MakeCurrent makes c the current context, replacing any other.
func (c *Context) MakeCurrent() { current.Store(c) }

// Current returns the current context, or nil.
func Current() *Context { return current.Load() }

// ClearCurrent leaves no context current.
func ClearCurrent() { current.Store(nil) }

// Device implements device.Context.
func (c *Context) Device() device.Device { return c.dev }

// Software returns the concrete device, for inspection.
func (c *Context) Software() *Device { return c.dev }

// IsCurrent implements device.Context.
func (c *Context) IsCurrent() bool { return current.Load() == c }

// Namespace implements device.Context.
func (c *Context) Namespace() device.NamespaceID { return c.dev.ns }

// Caps implements device.Device.
func (d *Device) Caps() *device.Caps { return d.caps }

// GenName implements device.Device.
func (d *Device) GenName(class device.Class) device.Name {
	d.record("GenName")
	if d.nameLimit > 0 && d.issued[class] >= d.nameLimit {
		return device.InvalidName
	}
	d.issued[class]++
	name := device.Name(d.issued[class])

	switch class {
	case device.ClassBuffer:
		d.buffers[name] = &buffer{}
	case device.ClassTexture:
		d.textures[name] = &texture{levels: make(map[uint32]*level)}
	case device.ClassShader:
		d.shaders[name] = &device.ShaderSource{}
	case device.ClassVertexArray:
		d.arrays[name] = &vertexArray{attribs: make(map[uint32]device.VertexAttrib)}
	}
	return name
}

// DeleteNames implements device.Device.
func (d *Device) DeleteNames(class device.Class, names ...device.Name) {
	d.record("DeleteNames")
	for _, name := range names {
		switch class {
		case device.ClassBuffer:
			delete(d.buffers, name)
			for t, bound := range d.bufferBindings {
				if bound == name {
					delete(d.bufferBindings, t)
				}
			}
		case device.ClassTexture:
			delete(d.textures, name)
			for u, bound := range d.textureUnits {
				if bound == name {
					delete(d.textureUnits, u)
				}
			}
		case device.ClassShader:
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
	d.record("IsName")
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
	d.record("ShaderModule")
	if _, ok := d.shaders[name]; !ok {
		return fmt.Errorf("%w: shader %d", device.ErrUnknownName, name)
	}
	s := src
	d.shaders[name] = &s
	return nil
}

// Shader returns the source given to a shader name.
func (d *Device) Shader(name device.Name) (device.ShaderSource, bool) {
	s, ok := d.shaders[name]
	if !ok {
		return device.ShaderSource{}, false
	}
	return *s, true
}

var (
	_ device.Device  = (*Device)(nil)
	_ device.Context = (*Context)(nil)
)
