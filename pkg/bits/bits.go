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

// Package bits contains helpers for working with bit fields of 64-bit
// registers and descriptors.
package bits

// IsOn64 returns true if *all* bits set in 'bits' are set in 'mask'.
func IsOn64(mask, bits uint64) bool {
	return mask&bits == bits
}

// IsAnyOn64 returns true if *any* bit set in 'bits' is set in 'mask'.
func IsAnyOn64(mask, bits uint64) bool {
	return mask&bits != 0
}

// Mask64 returns a uint64 with all of the given bits set.
func Mask64(is ...int) uint64 {
	ret := uint64(0)
	for _, i := range is {
		ret |= MaskOf64(i)
	}
	return ret
}

// MaskOf64 is like Mask64, but sets only a single bit (more efficiently).
func MaskOf64(i int) uint64 {
	return uint64(1) << uint64(i)
}

// Field is an inclusive bit range [MSB:LSB] of a 64-bit word, written the
// way the architecture manuals name register fields.
type Field struct {
	MSB uint
	LSB uint
}

// Bit returns the single bit field [i:i].
func Bit(i uint) Field {
	return Field{MSB: i, LSB: i}
}

// Width returns the number of bits in f.
func (f Field) Width() uint {
	return f.MSB - f.LSB + 1
}

// Mask returns the in-place mask of f.
func (f Field) Mask() uint64 {
	if f.Width() == 64 {
		return ^uint64(0)
	}
	return ((uint64(1) << f.Width()) - 1) << f.LSB
}

// Max returns the largest value that fits in f.
func (f Field) Max() uint64 {
	return f.Mask() >> f.LSB
}

// Get extracts f from w, shifted down to bit 0.
func (f Field) Get(w uint64) uint64 {
	return (w & f.Mask()) >> f.LSB
}

// Set returns w with f replaced by v. Bits of v that do not fit in f are
// discarded.
func (f Field) Set(w, v uint64) uint64 {
	return (w &^ f.Mask()) | ((v << f.LSB) & f.Mask())
}

// IsSet returns true if any bit of f is set in w.
func (f Field) IsSet(w uint64) bool {
	return w&f.Mask() != 0
}

// SetBool sets a single bit field to 1 when v is true and clears it
// otherwise.
func (f Field) SetBool(w uint64, v bool) uint64 {
	if v {
		return f.Set(w, f.Max())
	}
	return f.Set(w, 0)
}

// Fits returns true if v can be stored in f without truncation.
func (f Field) Fits(v uint64) bool {
	return v <= f.Max()
}
