// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gpuresinfo prints the capabilities of a device and walks a set of
// managed resources through their lifecycle on it.
//
// Usage:
//
//	gpuresinfo [-device software|noop] [-profile full|es2|legacy|file.yaml] [-v]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/device"
	"github.com/gogpu/gpures/device/haldev"
	"github.com/gogpu/gpures/device/software"
	"github.com/gogpu/gpures/internal/aligned"
)

const triangleWGSL = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}
`

func main() {
	var (
		devName = flag.String("device", software.Name, "device to open: software or noop")
		profile = flag.String("profile", "full", "software profile name or YAML file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		gpures.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	device.Register("noop", openNoop)
	device.Register(software.Name, func() (device.Context, error) {
		return openSoftware(*profile)
	})

	ctx, err := device.Open(*devName)
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	caps := ctx.Device().Caps()
	gpures.SetCaps(caps)
	printCaps(*devName, caps)

	if err := walk(ctx); err != nil {
		log.Fatalf("lifecycle: %v", err)
	}
	log.Printf("host storage: %s", aligned.CurrentStats())
}

func openSoftware(profile string) (device.Context, error) {
	p, ok := software.Profiles()[profile]
	if !ok {
		var err error
		if p, err = software.LoadProfile(profile); err != nil {
			return nil, err
		}
	}
	if _, err := p.Caps(); err != nil {
		return nil, err
	}
	ctx := software.New(software.WithProfile(p)).NewContext()
	ctx.MakeCurrent()
	return ctx, nil
}

func openNoop() (device.Context, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("no noop adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open adapter: %w", err)
	}
	return haldev.New(open.Device, open.Queue, nil).Context(), nil
}

func printCaps(name string, caps *device.Caps) {
	fmt.Printf("device:   %s\n", name)
	fmt.Printf("features: %s\n", caps.Features)
	l := caps.Limits
	fmt.Printf("limits:   1d=%d 2d=%d 3d=%d layers=%d buffer=%d attributes=%d\n",
		l.MaxTextureDimension1D, l.MaxTextureDimension2D, l.MaxTextureDimension3D,
		l.MaxTextureArrayLayers, l.MaxBufferSize, l.MaxVertexAttributes)
	formats := make([]string, len(caps.Formats))
	for i, f := range caps.Formats {
		formats[i] = device.FormatName(f)
	}
	fmt.Printf("formats:  %s\n", strings.Join(formats, ", "))
}

func walk(ctx device.Context) error {
	vertices, err := gpures.NewArrayBuffer(8, gpures.HintStaticDraw)
	if err != nil {
		return err
	}
	vertices.SetLabel("triangle")
	if err := vertices.AllocateCPUMirror(3 * 8); err != nil {
		return err
	}
	if err := vertices.Map(); err != nil {
		return err
	}
	if err := gpures.SetSlice(&vertices.Buffer, []float32{0, 0.5, -0.5, -0.5, 0.5, -0.5}, 0); err != nil {
		return err
	}
	if err := vertices.Unmap(); err != nil {
		return err
	}

	va := gpures.NewVertexArray()
	if err := va.SetAttribute("position", vertices, gpures.VertexAttribute{Format: gputypes.VertexFormatFloat32x2}); err != nil {
		return err
	}
	if err := va.AddElements(gpures.Elements{Mode: gputypes.PrimitiveTopologyTriangleList, Count: 3}); err != nil {
		return err
	}

	tex := gpures.NewTexture(device.Texture2D)
	tex.GenerateMipmaps()
	if err := tex.DefineLevel(0, gputypes.TextureFormatRGBA8Unorm, 4, 4, 1, make([]byte, 64)); err != nil {
		return err
	}

	shader := gpures.NewShader(gputypes.ShaderStageVertex, triangleWGSL)

	resources := []struct {
		name string
		r    gpures.Managed
	}{
		{"vertex array", va},
		{"texture", tex},
		{"shader", shader},
	}
	for _, res := range resources {
		if err := res.r.Create(ctx); err != nil {
			return fmt.Errorf("create %s: %w", res.name, err)
		}
	}
	if err := va.Bind(ctx, gpures.AttribLocations{"position": 0}); err != nil {
		return err
	}

	fmt.Printf("buffer:   %s fake=%v items=%d\n",
		vertices.Identity(), vertices.Identity().Fake(), vertices.ItemsCount())
	fmt.Printf("array:    %s fake=%v\n", va.Identity(), va.Identity().Fake())
	fmt.Printf("texture:  %s levels=%d complete=%v immutable=%v\n",
		tex.Identity(), tex.Levels(), tex.IsMipmapComplete(), tex.Immutable())
	fmt.Printf("shader:   %s spirv=%d words\n", shader.Identity(), len(shader.SPIRV()))

	for i := len(resources) - 1; i >= 0; i-- {
		if err := resources[i].r.DisposeContext(ctx); err != nil {
			return fmt.Errorf("dispose %s: %w", resources[i].name, err)
		}
	}
	if err := vertices.DisposeContext(ctx); err != nil {
		return err
	}
	fmt.Printf("pending:  %d deferred deletions\n", gpures.Pending(ctx.Namespace()))
	return nil
}
