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

// MemoryType specifies CPU memory access behavior. Each MemoryType is also
// the attribute index (AttrIndx) of its MAIR_EL1 slot.
type MemoryType uint8

const (
	// MemoryTypeWriteBack is normal write-back cacheable memory. It is the
	// zero value so RAM mappings need no explicit attribute.
	MemoryTypeWriteBack MemoryType = iota

	// MemoryTypeDevice is Device-nGnRnE memory, used for MMIO.
	MemoryTypeDevice

	// MemoryTypeNonCacheable is normal non-cacheable memory.
	MemoryTypeNonCacheable

	// NumMemoryTypes is the number of memory types.
	NumMemoryTypes
)

// MAIRAttr returns the 8-bit MAIR_EL1 attribute encoding for mt.
func (mt MemoryType) MAIRAttr() uint8 {
	switch mt {
	case MemoryTypeWriteBack:
		return 0xff
	case MemoryTypeDevice:
		return 0x00
	case MemoryTypeNonCacheable:
		return 0x44
	default:
		panic(fmt.Sprintf("unknown memory type %d", mt))
	}
}

// String implements fmt.Stringer.String.
func (mt MemoryType) String() string {
	switch mt {
	case MemoryTypeWriteBack:
		return "WriteBack"
	case MemoryTypeDevice:
		return "Device"
	case MemoryTypeNonCacheable:
		return "NonCacheable"
	default:
		return fmt.Sprintf("%d", mt)
	}
}

// ShortString returns a two-character string compactly representing the
// MemoryType.
func (mt MemoryType) ShortString() string {
	switch mt {
	case MemoryTypeWriteBack:
		return "WB"
	case MemoryTypeDevice:
		return "DV"
	case MemoryTypeNonCacheable:
		return "NC"
	default:
		return fmt.Sprintf("%02d", mt)
	}
}
