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

// Package mm brings up kernel memory management at boot: the physical page
// allocator, the kernel translation tables and the MMU.
package mm

import (
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/pgalloc"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// MMIORegion is a device register window to identity map.
type MMIORegion struct {
	Name string
	Base hostarch.PhysAddr
	Len  uint64
}

// BootInfo is what the boot code knows about the machine and the loaded
// kernel.
type BootInfo struct {
	RAMBase hostarch.PhysAddr
	RAMLen  uint64

	// DTBStart and DTBLen locate the device tree blob. DTBLen is zero if
	// there is none.
	DTBStart hostarch.PhysAddr
	DTBLen   uint64

	// RootTables is the physical address of the two root tables, TTBR0's
	// followed by TTBR1's. They are part of the kernel image.
	RootTables hostarch.PhysAddr

	Kernel pagetables.KernelImage

	// MMIO regions are identity mapped as device memory.
	MMIO []MMIORegion

	// MapRAMHigh maps all of RAM into the TTBR1 half, starting at the
	// bottom of the half.
	MapRAMHigh bool
}

// RAMEnd returns the first address past RAM.
func (b *BootInfo) RAMEnd() hostarch.PhysAddr {
	return b.RAMBase + hostarch.PhysAddr(b.RAMLen)
}

// PreReservedPages returns the number of pages from the start of RAM
// through the end of the kernel image.
func (b *BootInfo) PreReservedPages() uint64 {
	return uint64(b.Kernel.End()-b.RAMBase) >> hostarch.PageShift
}

// BitmapRange returns the pages the page allocator places its free list in,
// directly after the kernel image.
func (b *BootInfo) BitmapRange() hostarch.PageRange {
	start := b.Kernel.End()
	return hostarch.PageRange{
		Start: start,
		End:   start + hostarch.PhysAddr(pgalloc.BitmapPages(b.RAMLen)*hostarch.PageSize),
	}
}

// Validate checks that the layout is self-consistent.
func (b *BootInfo) Validate() error {
	if !b.RAMBase.IsPageAligned() || b.RAMLen == 0 {
		return fmt.Errorf("RAM [%v, +%#x) must be page aligned and non-empty: %w", b.RAMBase, b.RAMLen, memerr.ErrInvalidConfig)
	}
	if end, ok := b.RAMBase.AddLength(b.RAMLen); !ok || end > hostarch.MaxPhysAddr {
		return fmt.Errorf("RAM [%v, +%#x) exceeds the output range: %w", b.RAMBase, b.RAMLen, memerr.ErrInvalidConfig)
	}
	if err := b.Kernel.Validate(); err != nil {
		return err
	}
	if b.Kernel.BinStart < b.RAMBase || b.Kernel.End() > b.RAMEnd() {
		return fmt.Errorf("kernel image [%v, %v) is not inside RAM [%v, %v): %w", b.Kernel.BinStart, b.Kernel.End(), b.RAMBase, b.RAMEnd(), memerr.ErrInvalidConfig)
	}
	rootEnd := b.RootTables + hostarch.PhysAddr(2*pagetables.RootSize)
	if uint64(b.RootTables)%pagetables.RootSize != 0 || b.RootTables < b.Kernel.BinStart || rootEnd > b.Kernel.End() {
		return fmt.Errorf("root tables at %v must be %d-byte aligned and inside the kernel image: %w", b.RootTables, pagetables.RootSize, memerr.ErrInvalidConfig)
	}
	if b.DTBLen != 0 {
		dtb, ok := hostarch.PagesCovering(b.DTBStart, b.DTBLen)
		if !ok {
			return fmt.Errorf("device tree [%v, +%#x) wraps: %w", b.DTBStart, b.DTBLen, memerr.ErrInvalidConfig)
		}
		if bm := b.BitmapRange(); dtb.Start < bm.End && bm.Start < dtb.End {
			return fmt.Errorf("device tree %v overlaps the page bitmap %v: %w", dtb, bm, memerr.ErrInvalidConfig)
		}
	}
	if b.MapRAMHigh && b.RAMLen > uint64(hostarch.LowerTop) {
		return fmt.Errorf("RAM of %#x bytes does not fit the TTBR1 half: %w", b.RAMLen, memerr.ErrInvalidConfig)
	}
	for _, r := range b.MMIO {
		if r.Len == 0 {
			return fmt.Errorf("MMIO region %s at %v is empty: %w", r.Name, r.Base, memerr.ErrInvalidConfig)
		}
		if _, ok := r.Base.AddLength(r.Len); !ok || !hostarch.IdentityVirt(r.Base).IsLower() {
			return fmt.Errorf("MMIO region %s at %v cannot be identity mapped: %w", r.Name, r.Base, memerr.ErrInvalidConfig)
		}
	}
	return nil
}
