// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpures/device"
)

// State is the lifecycle state of a resource.
type State uint8

// Lifecycle states.
const (
	// StateUnconfigured is a resource with no metadata yet.
	StateUnconfigured State = iota

	// StateConfigured is a resource with metadata but no device identity.
	// Deleted resources return to this state and may be created again.
	StateConfigured

	// StateCreated is a resource with a device identity.
	StateCreated

	// StateDisposed is terminal.
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateCreated:
		return "created"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Managed is implemented by every resource type. It is satisfied by
// embedding Resource.
type Managed interface {
	Create(ctx device.Context) error
	Exists(ctx device.Context) bool
	Delete(ctx device.Context) error
	Dispose() error
	DisposeContext(ctx device.Context) error
	IncRef()
	DecRef()
	RefCount() int

	resource() *Resource
}

// kind holds the class-specific parts of the lifecycle.
type kind interface {
	// requiresName reports whether Create needs a device name. When false
	// the resource gets a fake name.
	requiresName(ctx device.Context) bool

	// createObject populates a freshly named or re-created object.
	createObject(ctx device.Context) error

	// existsObject asks the device for the object.
	existsObject(ctx device.Context) bool

	// forgetObject drops state tied to the device object after the
	// identity is cleared.
	forgetObject()

	// releaseHost drops host storage on disposal.
	releaseHost()
}

// Resource is the lifecycle core embedded by every resource type.
//
// A Resource is used from one logical thread per context and is not safe
// for concurrent use.
type Resource struct {
	id    Identity
	refs  int
	links []*Resource
	state State
	label string
	kind  kind
}

func (r *Resource) setup(class device.Class, k kind) {
	r.id.class = class
	r.kind = k
}

func (r *Resource) resource() *Resource { return r }

func (r *Resource) configured() {
	if r.state == StateUnconfigured {
		r.state = StateConfigured
	}
}

// SetLabel sets a label used in log output.
func (r *Resource) SetLabel(label string) { r.label = label }

// Label returns the label.
func (r *Resource) Label() string { return r.label }

// Identity returns the current identity.
func (r *Resource) Identity() Identity { return r.id }

// State returns the lifecycle state.
func (r *Resource) State() State { return r.state }

// IncRef adds an owner.
func (r *Resource) IncRef() { r.refs++ }

// DecRef removes an owner. It never deletes the resource. Removing more
// owners than were added is a double free and panics.
func (r *Resource) DecRef() {
	if r.refs == 0 {
		panic(fmt.Sprintf("gpures: DecRef below zero on %s %q", r.id, r.label))
	}
	r.refs--
}

// RefCount returns the number of owners beyond the creator.
func (r *Resource) RefCount() int { return r.refs }

// Links returns the linked sub-resources in link order.
func (r *Resource) Links() []Managed {
	out := make([]Managed, len(r.links))
	for i, l := range r.links {
		out[i] = l.managed()
	}
	return out
}

// managed returns the outermost value for r. Every kind embeds Resource
// and implements Managed through it.
func (r *Resource) managed() Managed {
	if m, ok := r.kind.(Managed); ok {
		return m
	}
	return r
}

func (r *Resource) errDisposed(op string) error {
	return fmt.Errorf("%w: %s %s %q", ErrDisposed, op, r.id.class, r.label)
}

// Create gives the resource a device identity in ctx's namespace and
// populates it. Sub-resources are created first. On failure the identity
// assigned by this call is released again.
func (r *Resource) Create(ctx device.Context) error {
	if r.state == StateDisposed {
		return r.errDisposed("create")
	}
	if ctx == nil || !ctx.IsCurrent() {
		return fmt.Errorf("%w: create %s", ErrNotCurrent, r.id.class)
	}
	ns := ctx.Namespace()
	if r.id.Bound() && r.id.ns != ns {
		return fmt.Errorf("%w: %s is bound to namespace %d, context has %d",
			ErrCrossContextLeak, r.id, r.id.ns, ns)
	}

	remember(ctx)
	if _, err := Collect(ctx); err != nil {
		return err
	}

	assigned := false
	if !r.id.Bound() {
		if r.kind.requiresName(ctx) {
			name := ctx.Device().GenName(r.id.class)
			if name == device.InvalidName {
				return fmt.Errorf("%w: %s in namespace %d", ErrNameExhausted, r.id.class, ns)
			}
			r.id.bind(name, ns, false)
		} else {
			r.id.bind(fakeName(r.id.class), ns, true)
		}
		assigned = true
	}

	for _, l := range r.links {
		if err := l.Create(ctx); err != nil {
			r.rollback(ctx, assigned)
			return fmt.Errorf("gpures: create %s sub-resource: %w", r.id.class, err)
		}
	}
	if err := r.kind.createObject(ctx); err != nil {
		r.rollback(ctx, assigned)
		return err
	}

	r.state = StateCreated
	Logger().Debug("gpures: created",
		"class", r.id.class.String(), "name", r.id.name, "namespace", r.id.ns,
		"fake", r.id.fake, "label", r.label)
	return nil
}

func (r *Resource) rollback(ctx device.Context, assigned bool) {
	if !assigned {
		return
	}
	if !r.id.fake {
		ctx.Device().DeleteNames(r.id.class, r.id.name)
	}
	r.id.clear()
	r.kind.forgetObject()
}

// Exists reports whether the resource and all its sub-resources exist for
// ctx.
func (r *Resource) Exists(ctx device.Context) bool {
	if ctx == nil || !r.id.Bound() || r.id.ns != ctx.Namespace() {
		return false
	}
	if !r.kind.existsObject(ctx) {
		return false
	}
	for _, l := range r.links {
		if !l.Exists(ctx) {
			return false
		}
	}
	return true
}

// boundTo reports whether the resource holds a name in ctx's namespace.
func (r *Resource) boundTo(ctx device.Context) bool {
	return r.id.Bound() && r.id.ns == ctx.Namespace()
}

// checkCurrent validates ctx for a device operation on a created resource.
func (r *Resource) checkCurrent(ctx device.Context, op string) error {
	if r.state == StateDisposed {
		return r.errDisposed(op)
	}
	if ctx == nil || !ctx.IsCurrent() {
		return fmt.Errorf("%w: %s", ErrNotCurrent, op)
	}
	if !r.boundTo(ctx) {
		return fmt.Errorf("%w: %s %s", ErrNotCreated, op, r.id)
	}
	return nil
}

// Delete releases the device identity. The resource keeps its host state
// and may be created again.
func (r *Resource) Delete(ctx device.Context) error {
	if r.state == StateDisposed {
		return r.errDisposed("delete")
	}
	if r.refs > 0 {
		return fmt.Errorf("%w: %s has %d owners", ErrStillReferenced, r.id, r.refs)
	}
	if !r.id.Bound() {
		return nil
	}
	if ctx == nil || !ctx.IsCurrent() {
		return fmt.Errorf("%w: delete %s", ErrNotCurrent, r.id)
	}
	if r.id.ns != ctx.Namespace() {
		return fmt.Errorf("%w: delete %s from namespace %d", ErrCrossContextLeak, r.id, ctx.Namespace())
	}

	if !r.id.fake {
		ctx.Device().DeleteNames(r.id.class, r.id.name)
	}
	Logger().Debug("gpures: deleted",
		"class", r.id.class.String(), "name", r.id.name, "namespace", r.id.ns, "label", r.label)
	r.id.clear()
	r.kind.forgetObject()
	r.state = StateConfigured
	return nil
}

// Dispose releases one reference. When it was the last one, linked
// sub-resources are released, the device name is deleted through a current
// context of its namespace or queued for that namespace, host storage is
// freed and the resource becomes unusable.
func (r *Resource) Dispose() error { return r.dispose(nil) }

// DisposeContext is Dispose with a preferred context for the deletion.
func (r *Resource) DisposeContext(ctx device.Context) error { return r.dispose(ctx) }

func (r *Resource) dispose(ctx device.Context) error {
	if r.state == StateDisposed {
		return r.errDisposed("dispose")
	}
	if r.refs > 0 {
		r.refs--
		return nil
	}

	var errs []error
	links := r.links
	r.links = nil
	for i := len(links) - 1; i >= 0; i-- {
		if err := links[i].dispose(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if r.id.Bound() && !r.id.fake {
		r.deleteName(ctx)
	}
	r.id.clear()
	r.kind.forgetObject()
	r.kind.releaseHost()
	r.state = StateDisposed
	return errors.Join(errs...)
}

func (r *Resource) deleteName(ctx device.Context) {
	ns := r.id.ns
	if ctx == nil || !ctx.IsCurrent() || ctx.Namespace() != ns {
		ctx = currentContext(ns)
	}
	if ctx == nil {
		enqueueDeletion(ns, r.id.class, r.id.name)
		Logger().Warn("gpures: deletion deferred, no current context",
			"class", r.id.class.String(), "name", r.id.name, "namespace", ns, "label", r.label)
		return
	}
	ctx.Device().DeleteNames(r.id.class, r.id.name)
	Logger().Debug("gpures: disposed",
		"class", r.id.class.String(), "name", r.id.name, "namespace", ns, "label", r.label)
}

// LinkResource makes other a sub-resource: r becomes one of its owners,
// creates it before itself and releases it on disposal.
func (r *Resource) LinkResource(other Managed) error {
	o := other.resource()
	if r.state == StateDisposed || o.state == StateDisposed {
		return r.errDisposed("link")
	}
	if o == r {
		return fmt.Errorf("%w: %s linked to itself", ErrOwnershipCycle, r.id)
	}
	if r.id.Bound() && o.id.Bound() && r.id.ns != o.id.ns {
		return fmt.Errorf("%w: %s and %s", ErrNamespaceMismatch, r.id, o.id)
	}
	if slices.Contains(r.links, o) {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, o.id)
	}
	if o.reaches(r) {
		return fmt.Errorf("%w: %s already owns %s", ErrOwnershipCycle, o.id, r.id)
	}
	o.IncRef()
	r.links = append(r.links, o)
	return nil
}

// UnlinkResource removes a sub-resource and drops r's ownership of it.
func (r *Resource) UnlinkResource(other Managed) error {
	o := other.resource()
	i := slices.Index(r.links, o)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotLinked, o.id)
	}
	r.links = slices.Delete(r.links, i, i+1)
	o.DecRef()
	return nil
}

func (r *Resource) isLinked(other Managed) bool {
	return slices.Contains(r.links, other.resource())
}

// reaches reports whether target is reachable from r through links.
func (r *Resource) reaches(target *Resource) bool {
	seen := make(map[*Resource]bool)
	stack := []*Resource{r}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.links...)
	}
	return false
}
