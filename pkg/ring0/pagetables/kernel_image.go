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

package pagetables

import (
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
)

// KernelImage is the physical layout of the loaded kernel, as exported by the
// linker script. End addresses are the last byte of each section or the
// address just past it; the page holding the end address is mapped either
// way.
type KernelImage struct {
	BinStart    hostarch.PhysAddr
	TextStart   hostarch.PhysAddr
	TextEnd     hostarch.PhysAddr
	RodataStart hostarch.PhysAddr
	RodataEnd   hostarch.PhysAddr

	// StackBottom is the lowest address of the boot stack, which grows down
	// from InitSP. Zero if the stack is only known by its initial pointer.
	StackBottom hostarch.PhysAddr
	InitSP      hostarch.PhysAddr

	BssStart hostarch.PhysAddr
	BssEnd   hostarch.PhysAddr
}

// Region is a named inclusive physical range [Start, Last].
type Region struct {
	Name  string
	Start hostarch.PhysAddr
	Last  hostarch.PhysAddr
	Attrs Attrs
}

// KernelAttrs are the attributes of kernel code.
var KernelAttrs = Attrs{SH: InnerShareable, UXN: true}

// KernelDataAttrs are the attributes of kernel data.
var KernelDataAttrs = Attrs{SH: InnerShareable, PXN: true, UXN: true}

// DeviceAttrs are the attributes of memory-mapped I/O.
var DeviceAttrs = Attrs{MemoryType: hostarch.MemoryTypeDevice, PXN: true, UXN: true}

// Regions returns the ranges IdentityMapKernelImage maps: binary through
// text, read-only data, and stack through bss.
func (k KernelImage) Regions() []Region {
	regions := []Region{
		{Name: "text", Start: k.BinStart, Last: k.TextEnd, Attrs: KernelAttrs},
	}
	if k.RodataEnd > k.RodataStart {
		regions = append(regions, Region{Name: "rodata", Start: k.RodataStart, Last: k.RodataEnd, Attrs: KernelDataAttrs})
	}
	low, high := k.BssStart, k.BssEnd
	for _, a := range []hostarch.PhysAddr{k.StackBottom, k.InitSP} {
		if a == 0 {
			continue
		}
		low = min(low, a)
		high = max(high, a)
	}
	return append(regions, Region{Name: "stack+bss", Start: low, Last: high, Attrs: KernelDataAttrs})
}

// End returns the first page boundary past every kernel section.
func (k KernelImage) End() hostarch.PhysAddr {
	end := k.BinStart
	for _, r := range k.Regions() {
		end = max(end, r.Last+1)
	}
	return end.MustRoundUp()
}

// Validate checks the ordering of the section boundaries.
func (k KernelImage) Validate() error {
	for _, c := range []struct {
		lo, hi hostarch.PhysAddr
		what   string
	}{
		{k.BinStart, k.TextStart, "binary start after text start"},
		{k.TextStart, k.TextEnd, "text start after text end"},
		{k.RodataStart, k.RodataEnd, "rodata start after rodata end"},
		{k.BssStart, k.BssEnd, "bss start after bss end"},
	} {
		if c.lo > c.hi {
			return fmt.Errorf("kernel image: %s (%v > %v): %w", c.what, c.lo, c.hi, memerr.ErrInvalidConfig)
		}
	}
	return nil
}

// IdentityMapKernelImage maps every page of the kernel image at its own
// address, so execution continues unchanged once translation is enabled. A
// page already mapped elsewhere fails the operation.
func (p *PageTables) IdentityMapKernelImage(k KernelImage) error {
	if err := k.Validate(); err != nil {
		return err
	}
	for _, r := range k.Regions() {
		if err := p.IdentityMapRegion(r); err != nil {
			return fmt.Errorf("kernel %s: %w", r.Name, err)
		}
	}
	return nil
}

// IdentityMapRegion maps every page overlapping r at its own address.
func (p *PageTables) IdentityMapRegion(r Region) error {
	if r.Last < r.Start {
		return fmt.Errorf("%s [%v, %v]: %w", r.Name, r.Start, r.Last, memerr.ErrInvalidRange)
	}
	pages, ok := hostarch.PagesCovering(r.Start, uint64(r.Last-r.Start)+1)
	if !ok {
		return fmt.Errorf("%s [%v, %v] wraps: %w", r.Name, r.Start, r.Last, memerr.ErrInvalidRange)
	}
	log.Infof("%v: identity mapping %s %v (%d pages)", p.half, r.Name, pages, pages.Pages())
	return p.MapRange(pages.Start, hostarch.IdentityVirt(pages.Start), pages.Pages(), r.Attrs)
}

// IdentityMapRange maps every page overlapping [pa, pa+length) at its own
// address.
func (p *PageTables) IdentityMapRange(name string, pa hostarch.PhysAddr, length uint64, attrs Attrs) error {
	if length == 0 {
		return nil
	}
	return p.IdentityMapRegion(Region{Name: name, Start: pa, Last: pa + hostarch.PhysAddr(length-1), Attrs: attrs})
}

// MapRange maps n consecutive pages starting at pa to consecutive pages
// starting at va. Existing mappings to the same output address are kept;
// an existing mapping to any other address fails with ErrMappingFailed.
// Pages mapped before a failure stay mapped.
func (p *PageTables) MapRange(pa hostarch.PhysAddr, va hostarch.VirtAddr, n uint64, attrs Attrs) error {
	for i := uint64(0); i < n; i++ {
		off := i << hostarch.PageShift
		want := pa + hostarch.PhysAddr(off)
		at := va + hostarch.VirtAddr(off)
		got, err := p.MapPage(want, at, MapOpts{Attrs: attrs})
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: %v already maps %v, not %v", memerr.ErrMappingFailed, at, got, want)
		}
	}
	return nil
}
