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

// Package pagetables provides a generic implementation of ARM64 stage-1
// translation tables for the 16K granule.
//
// Each half of the 39-bit address space (TTBR0 below, TTBR1 above) is
// translated by three levels:
//
//	level 1: VA[38:36],    8 entries (the root, 64 bytes)
//	level 2: VA[35:25], 2048 entries (one page)
//	level 3: VA[24:14], 2048 entries (one page)
//
// Tables live in physical memory and are allocated from an Allocator. Root
// tables are fixed and supplied by the caller.
package pagetables

import (
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/physmem"
)

// Level describes one level of the walk.
type Level struct {
	// Num is the architectural level number.
	Num int

	// Shift is the position of the lowest VA bit indexing this level.
	Shift uint

	// Bits is the number of VA bits indexing this level.
	Bits uint
}

// Entries returns the number of entries of a table at this level.
func (l Level) Entries() uint64 {
	return 1 << l.Bits
}

// Index returns the entry index for va at this level.
func (l Level) Index(va hostarch.VirtAddr) uint64 {
	return (uint64(va) >> l.Shift) & (l.Entries() - 1)
}

// Size returns the span of VA covered by one entry at this level.
func (l Level) Size() uint64 {
	return 1 << l.Shift
}

// levels is the walk, root first.
var levels = []Level{
	{Num: 1, Shift: 36, Bits: 3},
	{Num: 2, Shift: hostarch.BlockShift, Bits: 11},
	{Num: 3, Shift: hostarch.PageShift, Bits: 11},
}

// lastLevel is the index in levels of the page level.
var lastLevel = len(levels) - 1

// Levels returns a copy of the walk layout, root first.
func Levels() []Level {
	return append([]Level(nil), levels...)
}

// RootSize is the size in bytes of a root table.
var RootSize = levels[0].Entries() * 8

// Allocator provides pages for subordinate tables.
type Allocator interface {
	// Allocate returns a page. The contents are not cleared.
	Allocate() (hostarch.PhysAddr, error)

	// Free returns a page obtained from Allocate.
	Free(pa hostarch.PhysAddr, zero bool) error
}

// Half selects the translation table base register.
type Half int

const (
	// Lower is translated through TTBR0_EL1.
	Lower Half = iota

	// Upper is translated through TTBR1_EL1.
	Upper
)

// String implements fmt.Stringer.String.
func (h Half) String() string {
	if h == Upper {
		return "ttbr1"
	}
	return "ttbr0"
}

// Contains returns true if va is translated by this half.
func (h Half) Contains(va hostarch.VirtAddr) bool {
	if h == Upper {
		return va.IsUpper()
	}
	return va.IsLower()
}

// Base returns the lowest virtual address of the half.
func (h Half) Base() hostarch.VirtAddr {
	if h == Upper {
		return hostarch.UpperBottom
	}
	return 0
}

// PageTables is one translation regime: a fixed root table and the tables
// reachable from it.
type PageTables struct {
	mem   physmem.Memory
	alloc Allocator
	root  hostarch.PhysAddr
	half  Half

	// tables is the number of subordinate tables allocated by MapPage.
	tables uint64
}

// New returns page tables rooted at root. The root table is used as is; call
// Reset to clear it.
func New(mem physmem.Memory, alloc Allocator, root hostarch.PhysAddr, half Half) (*PageTables, error) {
	if uint64(root)%RootSize != 0 {
		return nil, fmt.Errorf("root table %v is not %d-byte aligned: %w", root, RootSize, memerr.ErrInvalidAddress)
	}
	if !physmem.Contains(mem, root, RootSize) {
		return nil, fmt.Errorf("root table %v is outside RAM: %w", root, memerr.ErrInvalidAddress)
	}
	return &PageTables{
		mem:   mem,
		alloc: alloc,
		root:  root,
		half:  half,
	}, nil
}

// Reset invalidates every root entry. Subordinate tables are not freed.
func (p *PageTables) Reset() error {
	return physmem.Zero(p.mem, p.root, RootSize)
}

// SetMemory changes how table memory is reached, as when translation is
// enabled and RAM is only reachable through a virtual mapping.
func (p *PageTables) SetMemory(mem physmem.Memory) { p.mem = mem }

// Root returns the physical address of the root table, the value for the
// translation table base register.
func (p *PageTables) Root() hostarch.PhysAddr { return p.root }

// Half returns the half translated by p.
func (p *PageTables) Half() Half { return p.half }

// TablePages returns the number of subordinate tables allocated.
func (p *PageTables) TablePages() uint64 { return p.tables }

// entries returns the table at pa for the given level index.
func (p *PageTables) entries(pa hostarch.PhysAddr, level int) ([]uint64, error) {
	return physmem.Words(p.mem, pa, levels[level].Entries())
}
