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

package hostarch

import "fmt"

// PhysAddr is a physical (output) address.
type PhysAddr uint64

// VirtAddr is a virtual (input) address.
type VirtAddr uint64

// String implements fmt.Stringer.String.
func (p PhysAddr) String() string {
	return fmt.Sprintf("%#x", uint64(p))
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (p PhysAddr) RoundDown() PhysAddr {
	return p &^ (PageSize - 1)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (p PhysAddr) RoundUp() (addr PhysAddr, ok bool) {
	addr = PhysAddr(p + PageSize - 1).RoundDown()
	ok = addr >= p
	return
}

// MustRoundUp is equivalent to RoundUp, but panics if rounding up wraps
// around.
func (p PhysAddr) MustRoundUp() PhysAddr {
	addr, ok := p.RoundUp()
	if !ok {
		panic(fmt.Sprintf("PhysAddr %#x RoundUp overflows", p))
	}
	return addr
}

// PageOffset returns the offset of p into its page.
func (p PhysAddr) PageOffset() uint64 {
	return uint64(p & (PageSize - 1))
}

// IsPageAligned returns true if p is a multiple of the page size.
func (p PhysAddr) IsPageAligned() bool {
	return p.PageOffset() == 0
}

// IsBlockAligned returns true if p is a multiple of the block size.
func (p PhysAddr) IsBlockAligned() bool {
	return p&(BlockSize-1) == 0
}

// InOutputRange returns true if p fits in the output address width.
func (p PhysAddr) InOutputRange() bool {
	return p < MaxPhysAddr
}

// AddLength adds the given length to start and returns the result. ok is true
// iff adding the length did not overflow.
func (p PhysAddr) AddLength(length uint64) (end PhysAddr, ok bool) {
	end = p + PhysAddr(length)
	ok = end >= p
	return
}

// String implements fmt.Stringer.String.
func (v VirtAddr) String() string {
	return fmt.Sprintf("%#x", uint64(v))
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (v VirtAddr) RoundDown() VirtAddr {
	return v &^ (PageSize - 1)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v VirtAddr) RoundUp() (addr VirtAddr, ok bool) {
	addr = VirtAddr(v + PageSize - 1).RoundDown()
	ok = addr >= v
	return
}

// PageOffset returns the offset of v into its page.
func (v VirtAddr) PageOffset() uint64 {
	return uint64(v & (PageSize - 1))
}

// IsPageAligned returns true if v is a multiple of the page size.
func (v VirtAddr) IsPageAligned() bool {
	return v.PageOffset() == 0
}

// IsLower returns true if v is translated through TTBR0.
func (v VirtAddr) IsLower() bool {
	return v < LowerTop
}

// IsUpper returns true if v is translated through TTBR1.
func (v VirtAddr) IsUpper() bool {
	return v >= UpperBottom
}

// IsCanonical returns true if v is translated by either half.
func (v VirtAddr) IsCanonical() bool {
	return v.IsLower() || v.IsUpper()
}

// IdentityVirt returns the virtual address equal to p, for identity maps.
func IdentityVirt(p PhysAddr) VirtAddr {
	return VirtAddr(p)
}

// PageRange is a half-open range of page-aligned physical addresses.
type PageRange struct {
	Start PhysAddr
	End   PhysAddr
}

// PagesCovering returns the page-aligned range covering [start, start+length).
// ok is false if the range wraps around.
func PagesCovering(start PhysAddr, length uint64) (PageRange, bool) {
	end, ok := start.AddLength(length)
	if !ok {
		return PageRange{}, false
	}
	end, ok = end.RoundUp()
	if !ok {
		return PageRange{}, false
	}
	return PageRange{Start: start.RoundDown(), End: end}, true
}

// Pages returns the number of pages in r.
func (r PageRange) Pages() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End-r.Start) >> PageShift
}

// String implements fmt.Stringer.String.
func (r PageRange) String() string {
	return fmt.Sprintf("[%#x, %#x)", uint64(r.Start), uint64(r.End))
}
