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

// Package hostarch describes the translation granule and address types of
// the ARM64 stage-1 configuration used by the kernel.
package hostarch

const (
	// PageShift is the binary log of the translation granule (16K).
	PageShift = 14

	// PageSize is the size of a page and of every subordinate table.
	PageSize = 1 << PageShift

	// BlockShift is the binary log of a level 2 block mapping (32M).
	BlockShift = 25

	// BlockSize is the size of a level 2 block mapping.
	BlockSize = 1 << BlockShift

	// OutputAddressBits is the width of the output address space.
	OutputAddressBits = 48

	// VirtualAddressBits is the width of each translated half, derived from
	// T0SZ = T1SZ = 25.
	VirtualAddressBits = 39
)

const (
	// MaxPhysAddr is the first physical address beyond the output range.
	MaxPhysAddr PhysAddr = 1 << OutputAddressBits

	// LowerTop is the first virtual address beyond the TTBR0 half.
	LowerTop VirtAddr = 1 << VirtualAddressBits

	// UpperBottom is the lowest virtual address of the TTBR1 half.
	UpperBottom VirtAddr = ^(LowerTop - 1)
)
