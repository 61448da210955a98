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

// Package pgalloc contains the physical page allocator.
//
// The allocator tracks every page of RAM in a bitmap that itself lives in
// RAM, in the first page after the pages reserved at boot (kernel image,
// stack and anything else the boot code already occupies):
//
//	ramBase
//	|  pre-reserved pages  |  bitmap pages  |  free pages ...  |
//	0                      preReserved      preReserved+bitmapPages
//
// Pages are identified by their index relative to ramBase. A set bit means
// the page is in use. The allocator is the sole mutator of the bitmap.
//
// The allocator is not synchronized. The kernel is single threaded while it
// manages memory; callers that share an Allocator must serialize access.
package pgalloc

import (
	"fmt"
	"time"

	"jerryos.dev/jerry/pkg/bitmap"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
	"jerryos.dev/jerry/pkg/physmem"
)

// oomLog reports exhaustion without flooding the console when a caller
// retries in a loop.
var oomLog = log.BasicRateLimitedLogger(time.Second)

// Allocator is the physical page manager.
type Allocator struct {
	mem physmem.Memory

	// ramBase is the physical address of page 0.
	ramBase hostarch.PhysAddr

	// numPages is the number of pages of RAM.
	numPages uint64

	// preReserved is the number of pages reserved at init, not counting
	// the bitmap.
	preReserved uint64

	// bitmapAddr is the physical address of the bitmap.
	bitmapAddr hostarch.PhysAddr

	// bitmapPages is the number of pages holding the bitmap.
	bitmapPages uint64

	// used is the page free list, a view of RAM at bitmapAddr.
	used bitmap.Bytes
}

// BitmapPages returns the number of pages the free list for ramLen bytes of
// RAM occupies.
func BitmapPages(ramLen uint64) uint64 {
	return (bitmap.BytesFor(ramLen/hostarch.PageSize) + hostarch.PageSize - 1) / hostarch.PageSize
}

// New initializes the allocator over [ramBase, ramBase+ramLen).
//
// The first preReserved pages are marked used, the bitmap is placed directly
// after them and the pages it occupies are marked used as well. Any
// remainder of ramLen smaller than a page is ignored.
func New(mem physmem.Memory, ramBase hostarch.PhysAddr, ramLen, preReserved uint64) (*Allocator, error) {
	if !ramBase.IsPageAligned() {
		return nil, fmt.Errorf("RAM base %v is not page aligned: %w", ramBase, memerr.ErrInvalidAddress)
	}
	if !physmem.Contains(mem, ramBase, ramLen) {
		return nil, fmt.Errorf("RAM [%v, +%#x) is not backed by memory [%v, +%#x): %w", ramBase, ramLen, mem.Base(), mem.Len(), memerr.ErrInvalidAddress)
	}

	numPages := ramLen / hostarch.PageSize
	bitmapBytes := bitmap.BytesFor(numPages)
	bitmapPages := BitmapPages(ramLen)
	if numPages == 0 || preReserved+bitmapPages > numPages {
		return nil, fmt.Errorf("%d pages of RAM cannot hold %d reserved pages and a %d page bitmap: %w", numPages, preReserved, bitmapPages, memerr.ErrOutOfMemory)
	}

	a := &Allocator{
		mem:         mem,
		ramBase:     ramBase,
		numPages:    numPages,
		preReserved: preReserved,
		bitmapAddr:  ramBase + hostarch.PhysAddr(preReserved*hostarch.PageSize),
		bitmapPages: bitmapPages,
	}
	data, err := mem.Slice(a.bitmapAddr, bitmapBytes)
	if err != nil {
		return nil, fmt.Errorf("bitmap at %v: %w", a.bitmapAddr, err)
	}
	if a.used, err = bitmap.New(data, numPages); err != nil {
		return nil, err
	}
	a.used.Reset()
	a.used.SetTail()
	if err := a.MarkRangeUsed(0, preReserved+bitmapPages-1); err != nil {
		return nil, err
	}

	log.Infof("Physical pages: %d pages at %v, %d pre-reserved, bitmap at %v (%d pages), %d free", numPages, ramBase, preReserved, a.bitmapAddr, bitmapPages, a.FreePages())
	return a, nil
}

// Allocate returns the lowest free page and marks it used. The page contents
// are not cleared.
func (a *Allocator) Allocate() (hostarch.PhysAddr, error) {
	idx, ok := a.used.FirstZero()
	if !ok {
		oomLog.Warningf("Physical page allocation failed: all %d pages in use", a.numPages)
		return 0, memerr.ErrOutOfMemory
	}
	a.used.Set(idx)
	return a.PageAddr(idx), nil
}

// AllocateZeroed is like Allocate, but clears the page first.
func (a *Allocator) AllocateZeroed() (hostarch.PhysAddr, error) {
	pa, err := a.Allocate()
	if err != nil {
		return 0, err
	}
	if err := physmem.ZeroPage(a.mem, pa); err != nil {
		a.used.Clear(a.mustIndex(pa))
		return 0, err
	}
	return pa, nil
}

// Free returns the page at pa to the free list, clearing it first if zero is
// set. Freeing a page that is already free fails with ErrDoubleFree and
// leaves the bitmap unchanged.
func (a *Allocator) Free(pa hostarch.PhysAddr, zero bool) error {
	idx, err := a.PageIndex(pa)
	if err != nil {
		return err
	}
	if !a.used.Test(idx) {
		return fmt.Errorf("page %d at %v: %w", idx, pa, memerr.ErrDoubleFree)
	}
	if zero {
		if err := physmem.ZeroPage(a.mem, pa); err != nil {
			return err
		}
	}
	a.used.Clear(idx)
	return nil
}

func (a *Allocator) checkRange(low, high uint64) error {
	if high < low || high >= a.numPages {
		return fmt.Errorf("pages [%d, %d] of %d: %w", low, high, a.numPages, memerr.ErrInvalidRange)
	}
	return nil
}

// MarkRangeUsed marks the inclusive page index range [low, high] used.
func (a *Allocator) MarkRangeUsed(low, high uint64) error {
	if err := a.checkRange(low, high); err != nil {
		return err
	}
	a.used.SetRange(low, high)
	return nil
}

// MarkRangeFree marks the inclusive page index range [low, high] free. It
// does not check for double frees.
func (a *Allocator) MarkRangeFree(low, high uint64) error {
	if err := a.checkRange(low, high); err != nil {
		return err
	}
	a.used.ClearRange(low, high)
	return nil
}

// ReserveRange marks every page overlapping [pa, pa+length) used. The part of
// the range outside RAM is ignored, so a device tree placed outside RAM is a
// no-op.
func (a *Allocator) ReserveRange(pa hostarch.PhysAddr, length uint64) error {
	if length == 0 {
		return nil
	}
	r, ok := hostarch.PagesCovering(pa, length)
	if !ok {
		return fmt.Errorf("range [%v, +%#x) wraps: %w", pa, length, memerr.ErrInvalidRange)
	}
	if r.Start < a.ramBase {
		r.Start = a.ramBase
	}
	if end := a.PageAddr(a.numPages - 1) + hostarch.PageSize; r.End > end {
		r.End = end
	}
	if r.End <= r.Start {
		return nil
	}
	low := uint64(r.Start-a.ramBase) >> hostarch.PageShift
	return a.MarkRangeUsed(low, low+r.Pages()-1)
}

// PageIndex returns the index of the page at pa. pa must be page aligned
// relative to the RAM base and inside RAM.
func (a *Allocator) PageIndex(pa hostarch.PhysAddr) (uint64, error) {
	if pa < a.ramBase || !(pa - a.ramBase).IsPageAligned() {
		return 0, fmt.Errorf("page address %v: %w", pa, memerr.ErrInvalidAddress)
	}
	idx := uint64(pa-a.ramBase) >> hostarch.PageShift
	if idx >= a.numPages {
		return 0, fmt.Errorf("page address %v beyond %d pages of RAM: %w", pa, a.numPages, memerr.ErrInvalidAddress)
	}
	return idx, nil
}

func (a *Allocator) mustIndex(pa hostarch.PhysAddr) uint64 {
	idx, err := a.PageIndex(pa)
	if err != nil {
		panic(err)
	}
	return idx
}

// PageAddr returns the physical address of page idx.
func (a *Allocator) PageAddr(idx uint64) hostarch.PhysAddr {
	return a.ramBase + hostarch.PhysAddr(idx<<hostarch.PageShift)
}

// IsUsed returns true if page idx is in use.
func (a *Allocator) IsUsed(idx uint64) bool {
	return a.used.Test(idx)
}

// Base returns the physical address of page 0.
func (a *Allocator) Base() hostarch.PhysAddr { return a.ramBase }

// NumPages returns the number of pages of RAM.
func (a *Allocator) NumPages() uint64 { return a.numPages }

// PreReserved returns the number of pages reserved at init, not counting the
// bitmap.
func (a *Allocator) PreReserved() uint64 { return a.preReserved }

// BitmapAddr returns the physical address of the bitmap.
func (a *Allocator) BitmapAddr() hostarch.PhysAddr { return a.bitmapAddr }

// BitmapPages returns the number of pages holding the bitmap.
func (a *Allocator) BitmapPages() uint64 { return a.bitmapPages }

// FreePages returns the number of free pages.
func (a *Allocator) FreePages() uint64 {
	return a.numPages - a.used.Count()
}

// Memory returns the memory the allocator manages.
func (a *Allocator) Memory() physmem.Memory { return a.mem }

// SetMemory changes how page contents are reached for zeroing. The bitmap
// keeps the view it was created with, so it must stay reachable at that
// address.
func (a *Allocator) SetMemory(mem physmem.Memory) { a.mem = mem }
