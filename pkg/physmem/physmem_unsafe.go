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
	"unsafe"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
)

// Words returns the n 64-bit words starting at pa. pa must be 8-byte
// aligned. Stores through the returned slice are single aligned 64-bit
// stores, which is what the table walker requires of descriptor updates.
func Words(mem Memory, pa hostarch.PhysAddr, n uint64) ([]uint64, error) {
	if pa%8 != 0 {
		return nil, fmt.Errorf("word access at %v: %w", pa, memerr.ErrInvalidAddress)
	}
	b, err := mem.Slice(pa, n*8)
	if err != nil {
		return nil, err
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)%8 != 0 {
		panic(fmt.Sprintf("backing store for %v is not 8-byte aligned", pa))
	}
	return unsafe.Slice((*uint64)(p), n), nil
}
