// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gpures/device"
)

// namespace tracks the contexts seen for one object-table sharing domain
// and the deletions waiting for one of them to become current.
type namespace struct {
	contexts []device.Context
	pending  map[device.Class][]device.Name
}

// registry maps namespace IDs to their state.
var registry = struct {
	sync.Mutex
	spaces map[device.NamespaceID]*namespace
}{spaces: make(map[device.NamespaceID]*namespace)}

func lookupNamespace(id device.NamespaceID) *namespace {
	ns, ok := registry.spaces[id]
	if !ok {
		ns = &namespace{pending: make(map[device.Class][]device.Name)}
		registry.spaces[id] = ns
	}
	return ns
}

// remember records ctx for its namespace. Contexts must be comparable.
func remember(ctx device.Context) {
	registry.Lock()
	defer registry.Unlock()
	ns := lookupNamespace(ctx.Namespace())
	if !slices.Contains(ns.contexts, ctx) {
		ns.contexts = append(ns.contexts, ctx)
	}
}

// Forget drops a context from its namespace, for contexts that are being
// destroyed. Pending deletions stay queued for the remaining contexts.
func Forget(ctx device.Context) {
	registry.Lock()
	defer registry.Unlock()
	ns, ok := registry.spaces[ctx.Namespace()]
	if !ok {
		return
	}
	ns.contexts = slices.DeleteFunc(ns.contexts, func(c device.Context) bool { return c == ctx })
}

// currentContext returns a remembered context of the namespace that is
// current, or nil.
func currentContext(id device.NamespaceID) device.Context {
	registry.Lock()
	defer registry.Unlock()
	ns, ok := registry.spaces[id]
	if !ok {
		return nil
	}
	for _, c := range ns.contexts {
		if c.IsCurrent() {
			return c
		}
	}
	return nil
}

func enqueueDeletion(id device.NamespaceID, class device.Class, name device.Name) {
	registry.Lock()
	defer registry.Unlock()
	ns := lookupNamespace(id)
	ns.pending[class] = append(ns.pending[class], name)
}

// Pending returns the number of device names queued for deletion in the
// namespace.
func Pending(id device.NamespaceID) int {
	registry.Lock()
	defer registry.Unlock()
	ns, ok := registry.spaces[id]
	if !ok {
		return 0
	}
	n := 0
	for _, names := range ns.pending {
		n += len(names)
	}
	return n
}

// Collect issues the deletions queued for ctx's namespace and returns how
// many names were deleted. ctx must be current.
func Collect(ctx device.Context) (int, error) {
	if ctx == nil || !ctx.IsCurrent() {
		return 0, fmt.Errorf("%w: collect", ErrNotCurrent)
	}

	registry.Lock()
	ns, ok := registry.spaces[ctx.Namespace()]
	var pending map[device.Class][]device.Name
	if ok && len(ns.pending) > 0 {
		pending = ns.pending
		ns.pending = make(map[device.Class][]device.Name)
	}
	registry.Unlock()

	n := 0
	dev := ctx.Device()
	for class, names := range pending {
		dev.DeleteNames(class, names...)
		n += len(names)
	}
	if n > 0 {
		Logger().Debug("gpures: collected deferred deletions",
			"namespace", ctx.Namespace(), "count", n)
	}
	return n, nil
}
