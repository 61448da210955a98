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

// Package bitmap provides a byte-granular bitmap over caller-provided
// storage.
//
// Bit i lives in byte i/8 at position i%8 (least significant bit first).
// The storage is typically a view of physical memory, so the bitmap never
// allocates and never grows.
package bitmap

import (
	"fmt"
	"math/bits"
)

// Bytes is a bitmap of Size() bits.
type Bytes struct {
	data []byte
	size uint64
}

// BytesFor returns the number of bytes needed to hold size bits.
func BytesFor(size uint64) uint64 {
	return (size + 7) / 8
}

// New returns a bitmap of size bits stored in data. The contents of data are
// left untouched.
func New(data []byte, size uint64) (Bytes, error) {
	if need := BytesFor(size); uint64(len(data)) < need {
		return Bytes{}, fmt.Errorf("bitmap of %d bits needs %d bytes, have %d", size, need, len(data))
	}
	return Bytes{data: data[:BytesFor(size)], size: size}, nil
}

// Size returns the number of bits in the bitmap.
func (b *Bytes) Size() uint64 {
	return b.size
}

// Data returns the backing bytes.
func (b *Bytes) Data() []byte {
	return b.data
}

func (b *Bytes) check(i uint64) {
	if i >= b.size {
		panic(fmt.Sprintf("bit %d out of range [0, %d)", i, b.size))
	}
}

// Test returns true if bit i is set.
func (b *Bytes) Test(i uint64) bool {
	b.check(i)
	return b.data[i/8]&(1<<(i%8)) != 0
}

// Set sets bit i.
func (b *Bytes) Set(i uint64) {
	b.check(i)
	b.data[i/8] |= 1 << (i % 8)
}

// Clear clears bit i.
func (b *Bytes) Clear(i uint64) {
	b.check(i)
	b.data[i/8] &^= 1 << (i % 8)
}

// Reset clears every bit, including the unused tail of the last byte.
func (b *Bytes) Reset() {
	clear(b.data)
}

// SetTail sets the bits of the last byte beyond Size(), so a byte-wise scan
// never reports them as zero.
func (b *Bytes) SetTail() {
	if r := b.size % 8; r != 0 {
		b.data[len(b.data)-1] |= 0xff << r
	}
}

// rangeMasks returns the masks for the first and last bytes of the
// inclusive range [low, high].
func rangeMasks(low, high uint64) (lowByte, highByte uint64, lowMask, highMask byte) {
	lowByte, highByte = low/8, high/8
	if lowByte == highByte {
		width := high%8 - low%8 + 1
		mask := byte(((uint16(1) << width) - 1) << (low % 8))
		return lowByte, highByte, mask, mask
	}
	return lowByte, highByte, byte(0xff) << (low % 8), byte(0xff) >> (7 - high%8)
}

func (b *Bytes) checkRange(low, high uint64) {
	if high < low || high >= b.size {
		panic(fmt.Sprintf("range [%d, %d] invalid for %d bits", low, high, b.size))
	}
}

// SetRange sets every bit in the inclusive range [low, high]. Whole bytes
// between the partial first and last bytes are filled in bulk.
func (b *Bytes) SetRange(low, high uint64) {
	b.checkRange(low, high)
	lowByte, highByte, lowMask, highMask := rangeMasks(low, high)
	if lowByte == highByte {
		b.data[lowByte] |= lowMask
		return
	}
	b.data[lowByte] |= lowMask
	fill(b.data[lowByte+1:highByte], 0xff)
	b.data[highByte] |= highMask
}

// ClearRange clears every bit in the inclusive range [low, high].
func (b *Bytes) ClearRange(low, high uint64) {
	b.checkRange(low, high)
	lowByte, highByte, lowMask, highMask := rangeMasks(low, high)
	if lowByte == highByte {
		b.data[lowByte] &^= lowMask
		return
	}
	b.data[lowByte] &^= lowMask
	clear(b.data[lowByte+1 : highByte])
	b.data[highByte] &^= highMask
}

func fill(d []byte, v byte) {
	for i := range d {
		d[i] = v
	}
}

// FirstZero returns the lowest clear bit. It scans for the first byte that is
// not 0xff and then for the first clear bit in that byte. ok is false if every
// bit is set.
func (b *Bytes) FirstZero() (i uint64, ok bool) {
	for n, v := range b.data {
		if v == 0xff {
			continue
		}
		i = uint64(n)*8 + uint64(bits.TrailingZeros8(^v))
		if i >= b.size {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Count returns the number of set bits below Size().
func (b *Bytes) Count() uint64 {
	if b.size == 0 {
		return 0
	}
	var n uint64
	last := len(b.data) - 1
	for _, v := range b.data[:last] {
		n += uint64(bits.OnesCount8(v))
	}
	tail := b.data[last]
	if r := b.size % 8; r != 0 {
		tail &= byte(0xff) >> (8 - r)
	}
	return n + uint64(bits.OnesCount8(tail))
}
