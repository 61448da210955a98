// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build arm64 && baremetal

package physmem

import (
	"unsafe"

	"jerryos.dev/jerry/pkg/hostarch"
)

// Direct is physical RAM addressed in place. Until At is used it is only
// valid while the range is identity mapped or translation is disabled.
type Direct struct {
	base   hostarch.PhysAddr
	length uint64

	// addr is the address at which base is accessed.
	addr uintptr
}

var _ Remappable = (*Direct)(nil)

// NewDirect returns RAM at [base, base+length).
func NewDirect(base hostarch.PhysAddr, length uint64) *Direct {
	return &Direct{base: base, length: length, addr: uintptr(base)}
}

// Base implements Memory.Base.
func (d *Direct) Base() hostarch.PhysAddr { return d.base }

// Len implements Memory.Len.
func (d *Direct) Len() uint64 { return d.length }

// At implements Remappable.At.
func (d *Direct) At(va hostarch.VirtAddr) Memory {
	return &Direct{base: d.base, length: d.length, addr: uintptr(va)}
}

// Slice implements Memory.Slice.
//
//go:nocheckptr
func (d *Direct) Slice(pa hostarch.PhysAddr, n uint64) ([]byte, error) {
	if err := checkRange(d, pa, n); err != nil {
		return nil, err
	}
	// The address names RAM outside the Go heap, never a Go-allocated
	// object, so the uintptr conversion cannot hide a pointer from the
	// garbage collector.
	return unsafe.Slice((*byte)(unsafe.Pointer(d.addr+uintptr(pa-d.base))), n), nil
}
