// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpures/device"
)

// NameAllocator hands out fake names for resources that need no device
// identity. Names must be unique per class for the life of the process.
type NameAllocator interface {
	Next(class device.Class) device.Name
}

// SequentialNames is the default allocator: a counter per class behind one
// mutex.
type SequentialNames struct {
	mu   sync.Mutex
	next map[device.Class]device.Name
}

// NewSequentialNames returns an allocator whose first name is 1 for every
// class.
func NewSequentialNames() *SequentialNames {
	return &SequentialNames{next: make(map[device.Class]device.Name)}
}

// Next implements NameAllocator.
func (s *SequentialNames) Next(class device.Class) device.Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[class]++
	return s.next[class]
}

type allocatorBox struct{ a NameAllocator }

var allocatorPtr atomic.Pointer[allocatorBox]

func init() {
	allocatorPtr.Store(&allocatorBox{a: NewSequentialNames()})
}

// SetNameAllocator replaces the process-wide fake name allocator. Pass nil
// to install a fresh SequentialNames.
func SetNameAllocator(a NameAllocator) {
	if a == nil {
		a = NewSequentialNames()
	}
	allocatorPtr.Store(&allocatorBox{a: a})
}

func fakeName(class device.Class) device.Name {
	return allocatorPtr.Load().a.Next(class)
}
