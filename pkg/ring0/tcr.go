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

// Package ring0 drives the EL1 system registers that control stage-1
// translation.
package ring0

import (
	"fmt"

	"jerryos.dev/jerry/pkg/bits"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
)

// Granule is a translation granule size.
type Granule int

// Granules.
const (
	Granule4K Granule = iota
	Granule16K
	Granule64K
)

// String implements fmt.Stringer.String.
func (g Granule) String() string {
	switch g {
	case Granule4K:
		return "4K"
	case Granule16K:
		return "16K"
	case Granule64K:
		return "64K"
	default:
		return fmt.Sprintf("Granule(%d)", int(g))
	}
}

// TG0 and TG1 encode the same granules differently.
var (
	tg0Encoding = map[Granule]uint64{Granule4K: 0b00, Granule64K: 0b01, Granule16K: 0b10}
	tg1Encoding = map[Granule]uint64{Granule16K: 0b01, Granule4K: 0b10, Granule64K: 0b11}
)

// ipsEncoding maps an output address width to TCR_EL1.IPS.
var ipsEncoding = map[int]uint64{32: 0b000, 36: 0b001, 40: 0b010, 42: 0b011, 44: 0b100, 48: 0b101, 52: 0b110}

// TCR_EL1 fields.
var (
	t0szField  = bits.Field{MSB: 5, LSB: 0}
	epd0Field  = bits.Bit(7)
	irgn0Field = bits.Field{MSB: 9, LSB: 8}
	orgn0Field = bits.Field{MSB: 11, LSB: 10}
	sh0Field   = bits.Field{MSB: 13, LSB: 12}
	tg0Field   = bits.Field{MSB: 15, LSB: 14}
	t1szField  = bits.Field{MSB: 21, LSB: 16}
	a1Field    = bits.Bit(22)
	epd1Field  = bits.Bit(23)
	irgn1Field = bits.Field{MSB: 25, LSB: 24}
	orgn1Field = bits.Field{MSB: 27, LSB: 26}
	sh1Field   = bits.Field{MSB: 29, LSB: 28}
	tg1Field   = bits.Field{MSB: 31, LSB: 30}
	ipsField   = bits.Field{MSB: 34, LSB: 32}
	dsField    = bits.Bit(59)
)

// TCR is the translation control configuration (TCR_EL1).
type TCR struct {
	// T0SZ and T1SZ are 64 minus the width of each half.
	T0SZ uint8
	T1SZ uint8

	TG0 Granule
	TG1 Granule

	// IPSBits is the intermediate physical (output) address width.
	IPSBits int

	// Walk cacheability and shareability, per half.
	IRGN0, ORGN0, SH0 uint8
	IRGN1, ORGN1, SH1 uint8

	// EPD0 and EPD1 disable walks through the respective half.
	EPD0 bool
	EPD1 bool

	// A1 selects the ASID from TTBR1 instead of TTBR0.
	A1 bool

	// DS enables 52-bit output addresses for the 4K and 16K granules.
	DS bool
}

// DefaultTCR returns the configuration matching the walker: 16K granule, a
// 39-bit address space per half and a 48-bit output address.
func DefaultTCR() TCR {
	return TCR{
		T0SZ:    64 - hostarch.VirtualAddressBits,
		T1SZ:    64 - hostarch.VirtualAddressBits,
		TG0:     Granule16K,
		TG1:     Granule16K,
		IPSBits: hostarch.OutputAddressBits,
	}
}

// Encode returns the register value. The configuration must be valid.
func (t TCR) Encode() uint64 {
	var w uint64
	w = t0szField.Set(w, uint64(t.T0SZ))
	w = epd0Field.SetBool(w, t.EPD0)
	w = irgn0Field.Set(w, uint64(t.IRGN0))
	w = orgn0Field.Set(w, uint64(t.ORGN0))
	w = sh0Field.Set(w, uint64(t.SH0))
	w = tg0Field.Set(w, tg0Encoding[t.TG0])
	w = t1szField.Set(w, uint64(t.T1SZ))
	w = a1Field.SetBool(w, t.A1)
	w = epd1Field.SetBool(w, t.EPD1)
	w = irgn1Field.Set(w, uint64(t.IRGN1))
	w = orgn1Field.Set(w, uint64(t.ORGN1))
	w = sh1Field.Set(w, uint64(t.SH1))
	w = tg1Field.Set(w, tg1Encoding[t.TG1])
	w = ipsField.Set(w, ipsEncoding[t.IPSBits])
	w = dsField.SetBool(w, t.DS)
	return w
}

func lookup[K comparable](m map[K]uint64, v uint64) (K, bool) {
	for k, e := range m {
		if e == v {
			return k, true
		}
	}
	var zero K
	return zero, false
}

// DecodeTCR decodes a TCR_EL1 value. Fields this package does not model are
// ignored.
func DecodeTCR(w uint64) (TCR, error) {
	t := TCR{
		T0SZ:  uint8(t0szField.Get(w)),
		EPD0:  epd0Field.IsSet(w),
		IRGN0: uint8(irgn0Field.Get(w)),
		ORGN0: uint8(orgn0Field.Get(w)),
		SH0:   uint8(sh0Field.Get(w)),
		T1SZ:  uint8(t1szField.Get(w)),
		A1:    a1Field.IsSet(w),
		EPD1:  epd1Field.IsSet(w),
		IRGN1: uint8(irgn1Field.Get(w)),
		ORGN1: uint8(orgn1Field.Get(w)),
		SH1:   uint8(sh1Field.Get(w)),
		DS:    dsField.IsSet(w),
	}
	var ok bool
	if t.TG0, ok = lookup(tg0Encoding, tg0Field.Get(w)); !ok {
		return TCR{}, fmt.Errorf("TG0 %#b is reserved: %w", tg0Field.Get(w), memerr.ErrInvalidConfig)
	}
	if t.TG1, ok = lookup(tg1Encoding, tg1Field.Get(w)); !ok {
		return TCR{}, fmt.Errorf("TG1 %#b is reserved: %w", tg1Field.Get(w), memerr.ErrInvalidConfig)
	}
	if t.IPSBits, ok = lookup(ipsEncoding, ipsField.Get(w)); !ok {
		return TCR{}, fmt.Errorf("IPS %#b is reserved: %w", ipsField.Get(w), memerr.ErrInvalidConfig)
	}
	return t, nil
}

// Validate checks that t describes the tables built by package pagetables.
func (t TCR) Validate() error {
	want := uint8(64 - hostarch.VirtualAddressBits)
	switch {
	case t.TG0 != Granule16K || t.TG1 != Granule16K:
		return fmt.Errorf("granules %v/%v, tables use 16K: %w", t.TG0, t.TG1, memerr.ErrInvalidConfig)
	case t.T0SZ != want || t.T1SZ != want:
		return fmt.Errorf("T0SZ/T1SZ %d/%d, tables use %d: %w", t.T0SZ, t.T1SZ, want, memerr.ErrInvalidConfig)
	case t.IPSBits != hostarch.OutputAddressBits:
		return fmt.Errorf("IPS %d bits, descriptors hold %d: %w", t.IPSBits, hostarch.OutputAddressBits, memerr.ErrInvalidConfig)
	case t.DS:
		return fmt.Errorf("52-bit output addresses are not supported: %w", memerr.ErrInvalidConfig)
	}
	for _, f := range []uint8{t.IRGN0, t.ORGN0, t.IRGN1, t.ORGN1} {
		if f > 0b11 {
			return fmt.Errorf("cacheability %#b does not fit 2 bits: %w", f, memerr.ErrInvalidConfig)
		}
	}
	for _, sh := range []uint8{t.SH0, t.SH1} {
		if sh == 0b01 || sh > 0b11 {
			return fmt.Errorf("shareability %#b is reserved: %w", sh, memerr.ErrInvalidConfig)
		}
	}
	return nil
}

// String implements fmt.Stringer.String.
func (t TCR) String() string {
	return fmt.Sprintf("t0sz=%d t1sz=%d tg0=%v tg1=%v ips=%d ds=%t (%#x)", t.T0SZ, t.T1SZ, t.TG0, t.TG1, t.IPSBits, t.DS, t.Encode())
}
