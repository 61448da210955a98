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

import "testing"

func TestPhysRounding(t *testing.T) {
	for _, test := range []struct {
		in   PhysAddr
		down PhysAddr
		up   PhysAddr
	}{
		{0, 0, 0},
		{1, 0, PageSize},
		{PageSize - 1, 0, PageSize},
		{PageSize, PageSize, PageSize},
		{0x40003fff, 0x40000000, 0x40004000},
	} {
		if got := test.in.RoundDown(); got != test.down {
			t.Errorf("%v.RoundDown() = %v, want %v", test.in, got, test.down)
		}
		if got, ok := test.in.RoundUp(); !ok || got != test.up {
			t.Errorf("%v.RoundUp() = %v, %t, want %v, true", test.in, got, ok, test.up)
		}
	}
	if _, ok := PhysAddr(^uint64(0)).RoundUp(); ok {
		t.Errorf("RoundUp of the top address did not report overflow")
	}
}

func TestHalfBounds(t *testing.T) {
	if LowerTop != 0x8000000000 {
		t.Errorf("LowerTop = %v, want 0x8000000000", LowerTop)
	}
	if UpperBottom != 0xffffff8000000000 {
		t.Errorf("UpperBottom = %v, want 0xffffff8000000000", UpperBottom)
	}
}

func TestVirtHalves(t *testing.T) {
	for _, test := range []struct {
		va    VirtAddr
		lower bool
		upper bool
	}{
		{0, true, false},
		{0x40000000, true, false},
		{LowerTop - 1, true, false},
		{LowerTop, false, false},
		{UpperBottom - 1, false, false},
		{UpperBottom, false, true},
		{0xffffff8040000000, false, true},
	} {
		if got := test.va.IsLower(); got != test.lower {
			t.Errorf("%v.IsLower() = %t, want %t", test.va, got, test.lower)
		}
		if got := test.va.IsUpper(); got != test.upper {
			t.Errorf("%v.IsUpper() = %t, want %t", test.va, got, test.upper)
		}
		if got, want := test.va.IsCanonical(), test.lower || test.upper; got != want {
			t.Errorf("%v.IsCanonical() = %t, want %t", test.va, got, want)
		}
	}
}

func TestBlockAligned(t *testing.T) {
	for _, test := range []struct {
		pa   PhysAddr
		want bool
	}{
		{0, true},
		{0x40000000, true},
		{0x40000000 + PageSize, false},
		{BlockSize, true},
		{BlockSize - 1, false},
	} {
		if got := test.pa.IsBlockAligned(); got != test.want {
			t.Errorf("%v.IsBlockAligned() = %t, want %t", test.pa, got, test.want)
		}
	}
}

func TestPagesCovering(t *testing.T) {
	r, ok := PagesCovering(0x40001000, 0x4000)
	if !ok {
		t.Fatalf("PagesCovering overflowed")
	}
	if r.Start != 0x40000000 || r.End != 0x40008000 || r.Pages() != 2 {
		t.Errorf("PagesCovering = %v (%d pages), want [0x40000000, 0x40008000) (2 pages)", r, r.Pages())
	}
	if _, ok := PagesCovering(PhysAddr(^uint64(0)-10), 100); ok {
		t.Errorf("PagesCovering did not report overflow")
	}
}

func TestMAIRAttr(t *testing.T) {
	want := []uint8{0xff, 0x00, 0x44}
	for mt := MemoryType(0); mt < NumMemoryTypes; mt++ {
		if got := mt.MAIRAttr(); got != want[mt] {
			t.Errorf("%v.MAIRAttr() = %#x, want %#x", mt, got, want[mt])
		}
	}
}
