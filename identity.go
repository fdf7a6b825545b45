// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"

	"github.com/gogpu/gpures/device"
)

// Identity is the device name of a resource and the namespace it lives in.
// Name and namespace are always set and cleared together.
type Identity struct {
	name  device.Name
	ns    device.NamespaceID
	class device.Class
	fake  bool
}

// Name returns the device name, or device.InvalidName.
func (id Identity) Name() device.Name { return id.name }

// Namespace returns the namespace, or device.NoNamespace.
func (id Identity) Namespace() device.NamespaceID { return id.ns }

// Class returns the resource class.
func (id Identity) Class() device.Class { return id.class }

// Fake reports whether the name came from the NameAllocator rather than
// the device.
func (id Identity) Fake() bool { return id.fake }

// Bound reports whether the identity holds a name.
func (id Identity) Bound() bool { return id.name != device.InvalidName }

func (id Identity) String() string {
	if !id.Bound() {
		return fmt.Sprintf("%s(unnamed)", id.class)
	}
	return fmt.Sprintf("%s(%d@%d)", id.class, id.name, id.ns)
}

func (id *Identity) bind(name device.Name, ns device.NamespaceID, fake bool) {
	id.name, id.ns, id.fake = name, ns, fake
}

func (id *Identity) clear() {
	id.name, id.ns, id.fake = device.InvalidName, device.NoNamespace, false
}
