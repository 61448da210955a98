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

package physmem

import (
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
)

// Remappable is memory that can be addressed at another virtual address once
// translation is enabled.
type Remappable interface {
	Memory

	// At returns the same RAM accessed with Base() at virtual address va.
	At(va hostarch.VirtAddr) Memory
}

// Linear is RAM accessed through a linear virtual map: physical address pa
// is at VirtBase() + (pa - Base()).
type Linear struct {
	phys     Memory
	virt     Memory
	virtBase hostarch.VirtAddr
}

var _ Memory = (*Linear)(nil)

// NewLinear returns mem as seen through a linear map at virtBase. If mem is
// not Remappable its addresses are used unchanged.
func NewLinear(mem Memory, virtBase hostarch.VirtAddr) *Linear {
	virt := mem
	if r, ok := mem.(Remappable); ok {
		virt = r.At(virtBase)
	}
	return &Linear{phys: mem, virt: virt, virtBase: virtBase}
}

// Base implements Memory.Base.
func (l *Linear) Base() hostarch.PhysAddr { return l.phys.Base() }

// Len implements Memory.Len.
func (l *Linear) Len() uint64 { return l.phys.Len() }

// VirtBase returns the virtual address of Base().
func (l *Linear) VirtBase() hostarch.VirtAddr { return l.virtBase }

// Virt returns the virtual address at which pa is accessed.
func (l *Linear) Virt(pa hostarch.PhysAddr) hostarch.VirtAddr {
	return l.virtBase + hostarch.VirtAddr(pa-l.phys.Base())
}

// Slice implements Memory.Slice.
func (l *Linear) Slice(pa hostarch.PhysAddr, n uint64) ([]byte, error) {
	if err := checkRange(l, pa, n); err != nil {
		return nil, err
	}
	return l.virt.Slice(pa, n)
}

// Unmapped is RAM that has no mapping in the active translation regime.
// Every access fails.
type Unmapped struct {
	Memory
}

// Slice implements Memory.Slice.
func (u Unmapped) Slice(pa hostarch.PhysAddr, n uint64) ([]byte, error) {
	return nil, fmt.Errorf("[%v, +%#x) has no virtual mapping: %w", pa, n, memerr.ErrInvalidAddress)
}
