// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"sync/atomic"

	"github.com/gogpu/gpures/device"
)

// capsPtr holds the capability table configuration-time checks use.
var capsPtr atomic.Pointer[device.Caps]

func init() {
	capsPtr.Store(device.DefaultCaps())
}

// SetCaps sets the capabilities that configuration calls validate against,
// typically the Caps of the device resources will be created on. The table
// is copied. Pass nil to restore the defaults.
func SetCaps(c *device.Caps) {
	if c == nil {
		c = device.DefaultCaps()
	} else {
		c = c.Clone()
	}
	capsPtr.Store(c)
}

// Caps returns the active capability table. It must not be modified.
func Caps() *device.Caps { return capsPtr.Load() }
