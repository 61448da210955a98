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

package ring0

import (
	"fmt"

	"jerryos.dev/jerry/pkg/hostarch"
)

// MAIR is a MAIR_EL1 value. Attribute index i is byte i.
type MAIR uint64

// DefaultMAIR returns the attribute layout assumed by descriptors: each
// hostarch.MemoryType at its own index.
func DefaultMAIR() MAIR {
	var m MAIR
	for mt := hostarch.MemoryType(0); mt < hostarch.NumMemoryTypes; mt++ {
		m = m.With(mt)
	}
	return m
}

// With returns m with the slot for mt programmed.
func (m MAIR) With(mt hostarch.MemoryType) MAIR {
	shift := 8 * uint(mt)
	return m&^(0xff<<shift) | MAIR(mt.MAIRAttr())<<shift
}

// Attr returns the attribute byte at index i.
func (m MAIR) Attr(i int) uint8 {
	return uint8(m >> (8 * uint(i)))
}

// String implements fmt.Stringer.String.
func (m MAIR) String() string {
	return fmt.Sprintf("%#016x", uint64(m))
}
