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

package pagetables

import (
	"fmt"

	"jerryos.dev/jerry/pkg/bits"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
)

// PTE is a raw stage-1 translation table descriptor.
type PTE uint64

// Descriptor fields for the 16K granule with a 48-bit output address.
var (
	validField = bits.Bit(0)
	typeField  = bits.Bit(1)

	// Next-level table address and page output address share a position.
	addrField      = bits.Field{MSB: 47, LSB: 14}
	blockAddrField = bits.Field{MSB: 47, LSB: 25}

	// Leaf attributes.
	attrIndxField   = bits.Field{MSB: 4, LSB: 2}
	apField         = bits.Field{MSB: 7, LSB: 6}
	shField         = bits.Field{MSB: 9, LSB: 8}
	afField         = bits.Bit(10)
	nGField         = bits.Bit(11)
	contiguousField = bits.Bit(52)
	pxnField        = bits.Bit(53)
	uxnField        = bits.Bit(54)

	// Table attributes.
	pxnTableField = bits.Bit(59)
	uxnTableField = bits.Bit(60)
	apTableField  = bits.Field{MSB: 62, LSB: 61}
)

// AccessPermission is the AP[2:1] field of a leaf.
type AccessPermission uint8

// Access permissions.
const (
	ReadWriteEL1 AccessPermission = 0b00
	ReadWriteAll AccessPermission = 0b01
	ReadOnlyEL1  AccessPermission = 0b10
	ReadOnlyAll  AccessPermission = 0b11
)

// String implements fmt.Stringer.String.
func (ap AccessPermission) String() string {
	switch ap {
	case ReadWriteEL1:
		return "rw-el1"
	case ReadWriteAll:
		return "rw-all"
	case ReadOnlyEL1:
		return "ro-el1"
	default:
		return "ro-all"
	}
}

// Shareability is the SH[1:0] field of a leaf.
type Shareability uint8

// Shareability domains. 0b01 is reserved.
const (
	NonShareable   Shareability = 0b00
	OuterShareable Shareability = 0b10
	InnerShareable Shareability = 0b11
)

// Attrs are the attributes of a page or block descriptor.
type Attrs struct {
	MemoryType hostarch.MemoryType
	AP         AccessPermission
	SH         Shareability
	AccessFlag bool
	NotGlobal  bool
	Contiguous bool
	PXN        bool
	UXN        bool
}

// String implements fmt.Stringer.String.
func (a Attrs) String() string {
	flags := ""
	for _, f := range []struct {
		on   bool
		name string
	}{
		{a.AccessFlag, " af"},
		{a.NotGlobal, " ng"},
		{a.Contiguous, " cont"},
		{a.PXN, " pxn"},
		{a.UXN, " uxn"},
	} {
		if f.on {
			flags += f.name
		}
	}
	return fmt.Sprintf("%s %s sh=%d%s", a.MemoryType.ShortString(), a.AP, a.SH, flags)
}

// TableAttrs are the hierarchical attributes of a table descriptor. They
// restrict every mapping below the table.
type TableAttrs struct {
	PXNTable bool
	UXNTable bool
	APTable  uint8
}

// TableDescriptor is a decoded table descriptor.
type TableDescriptor struct {
	Valid   bool
	IsTable bool
	NLTA    hostarch.PhysAddr
	Attrs   TableAttrs
}

// LeafDescriptor is a decoded page or block descriptor. IsPage reports the
// type bit, which is set for pages and clear for blocks.
type LeafDescriptor struct {
	Valid  bool
	IsPage bool
	OA     hostarch.PhysAddr
	Attrs  Attrs
}

// checkAddr checks that pa can be the output of a page, or of a block if
// block is set.
func checkAddr(pa hostarch.PhysAddr, block bool) error {
	if !pa.InOutputRange() {
		return fmt.Errorf("%v exceeds the %d-bit output range: %w", pa, hostarch.OutputAddressBits, memerr.ErrInvalidAddress)
	}
	aligned, size := pa.IsPageAligned(), uint64(hostarch.PageSize)
	if block {
		aligned, size = pa.IsBlockAligned(), hostarch.BlockSize
	}
	if !aligned {
		return fmt.Errorf("%v is not %#x aligned: %w", pa, size, memerr.ErrInvalidAddress)
	}
	return nil
}

// EncodeTable returns a valid table descriptor pointing at nlta.
func EncodeTable(nlta hostarch.PhysAddr, attrs TableAttrs) (PTE, error) {
	if err := checkAddr(nlta, false); err != nil {
		return 0, err
	}
	if attrs.APTable > 0b11 {
		return 0, fmt.Errorf("APTable %#b does not fit in 2 bits", attrs.APTable)
	}
	var w uint64
	w = validField.SetBool(w, true)
	w = typeField.SetBool(w, true)
	w = addrField.Set(w, uint64(nlta)>>addrField.LSB)
	w = pxnTableField.SetBool(w, attrs.PXNTable)
	w = uxnTableField.SetBool(w, attrs.UXNTable)
	w = apTableField.Set(w, uint64(attrs.APTable))
	return PTE(w), nil
}

// DecodeTable decodes e as a table descriptor.
func DecodeTable(e PTE) TableDescriptor {
	w := uint64(e)
	return TableDescriptor{
		Valid:   validField.IsSet(w),
		IsTable: typeField.IsSet(w),
		NLTA:    hostarch.PhysAddr(addrField.Get(w) << addrField.LSB),
		Attrs: TableAttrs{
			PXNTable: pxnTableField.IsSet(w),
			UXNTable: uxnTableField.IsSet(w),
			APTable:  uint8(apTableField.Get(w)),
		},
	}
}

func encodeAttrs(w uint64, a Attrs) (uint64, error) {
	if a.MemoryType >= hostarch.NumMemoryTypes {
		return 0, fmt.Errorf("memory type %d has no attribute index", a.MemoryType)
	}
	if a.AP > ReadOnlyAll || a.SH > InnerShareable {
		return 0, fmt.Errorf("attributes %+v do not fit their fields", a)
	}
	w = attrIndxField.Set(w, uint64(a.MemoryType))
	w = apField.Set(w, uint64(a.AP))
	w = shField.Set(w, uint64(a.SH))
	w = afField.SetBool(w, a.AccessFlag)
	w = nGField.SetBool(w, a.NotGlobal)
	w = contiguousField.SetBool(w, a.Contiguous)
	w = pxnField.SetBool(w, a.PXN)
	w = uxnField.SetBool(w, a.UXN)
	return w, nil
}

func decodeAttrs(w uint64) Attrs {
	return Attrs{
		MemoryType: hostarch.MemoryType(attrIndxField.Get(w)),
		AP:         AccessPermission(apField.Get(w)),
		SH:         Shareability(shField.Get(w)),
		AccessFlag: afField.IsSet(w),
		NotGlobal:  nGField.IsSet(w),
		Contiguous: contiguousField.IsSet(w),
		PXN:        pxnField.IsSet(w),
		UXN:        uxnField.IsSet(w),
	}
}

// EncodeLeaf returns a valid last-level page descriptor mapping oa.
func EncodeLeaf(oa hostarch.PhysAddr, attrs Attrs) (PTE, error) {
	if err := checkAddr(oa, false); err != nil {
		return 0, err
	}
	var w uint64
	w = validField.SetBool(w, true)
	w = typeField.SetBool(w, true)
	w = addrField.Set(w, uint64(oa)>>addrField.LSB)
	w, err := encodeAttrs(w, attrs)
	if err != nil {
		return 0, err
	}
	return PTE(w), nil
}

// DecodeLeaf decodes e as a last-level page descriptor.
func DecodeLeaf(e PTE) LeafDescriptor {
	w := uint64(e)
	return LeafDescriptor{
		Valid:  validField.IsSet(w),
		IsPage: typeField.IsSet(w),
		OA:     hostarch.PhysAddr(addrField.Get(w) << addrField.LSB),
		Attrs:  decodeAttrs(w),
	}
}

// EncodeBlock returns a valid level 2 block descriptor mapping the 32M
// region at oa.
func EncodeBlock(oa hostarch.PhysAddr, attrs Attrs) (PTE, error) {
	if err := checkAddr(oa, true); err != nil {
		return 0, err
	}
	var w uint64
	w = validField.SetBool(w, true)
	w = blockAddrField.Set(w, uint64(oa)>>blockAddrField.LSB)
	w, err := encodeAttrs(w, attrs)
	if err != nil {
		return 0, err
	}
	return PTE(w), nil
}

// DecodeBlock decodes e as a level 2 block descriptor.
func DecodeBlock(e PTE) LeafDescriptor {
	w := uint64(e)
	return LeafDescriptor{
		Valid:  validField.IsSet(w),
		IsPage: typeField.IsSet(w),
		OA:     hostarch.PhysAddr(blockAddrField.Get(w) << blockAddrField.LSB),
		Attrs:  decodeAttrs(w),
	}
}

// Valid returns true iff this entry is valid.
func (e PTE) Valid() bool {
	return validField.IsSet(uint64(e))
}

// IsTable returns true if e, found in a table at the given level, points at
// a next-level table.
func (e PTE) IsTable(level int) bool {
	return e.Valid() && level < lastLevel && typeField.IsSet(uint64(e))
}

// IsBlock returns true if e, found in a table at the given level, is a block
// mapping. Only level 2 holds blocks with this granule.
func (e PTE) IsBlock(level int) bool {
	return e.Valid() && levels[level].Num == 2 && !typeField.IsSet(uint64(e))
}

// IsPage returns true if e, found in a table at the given level, is a page
// mapping.
func (e PTE) IsPage(level int) bool {
	return e.Valid() && level == lastLevel && typeField.IsSet(uint64(e))
}

// Address returns the next-level table or page address held by e.
func (e PTE) Address() hostarch.PhysAddr {
	return hostarch.PhysAddr(addrField.Get(uint64(e)) << addrField.LSB)
}

// String implements fmt.Stringer.String.
func (e PTE) String() string {
	return fmt.Sprintf("%#016x", uint64(e))
}

// Describe decodes e as found in a table at the given level.
func (e PTE) Describe(level int) string {
	switch {
	case !e.Valid():
		return fmt.Sprintf("%v invalid", e)
	case e.IsTable(level):
		d := DecodeTable(e)
		return fmt.Sprintf("%v table -> %v pxnt=%t uxnt=%t apt=%#b", e, d.NLTA, d.Attrs.PXNTable, d.Attrs.UXNTable, d.Attrs.APTable)
	case e.IsPage(level):
		d := DecodeLeaf(e)
		return fmt.Sprintf("%v page -> %v %v", e, d.OA, d.Attrs)
	case e.IsBlock(level):
		d := DecodeBlock(e)
		return fmt.Sprintf("%v block -> %v %v", e, d.OA, d.Attrs)
	default:
		return fmt.Sprintf("%v reserved at level %d", e, levels[level].Num)
	}
}
