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

package bits

import "testing"

func TestIsOn(t *testing.T) {
	type fieldTest struct {
		mask uint64
		bits uint64
		any  bool
		all  bool
	}
	for _, s := range []fieldTest{
		{Mask64(0), Mask64(0), true, true},
		{Mask64(63), Mask64(63), true, true},
		{Mask64(0), Mask64(1), false, false},
		{Mask64(0), Mask64(0, 1), true, false},

		{Mask64(1, 63), Mask64(1), true, true},
		{Mask64(1, 63), Mask64(1, 63), true, true},
		{Mask64(1, 63), Mask64(0, 1, 63), true, false},
		{Mask64(1, 63), Mask64(0, 62), false, false},
	} {
		if ok := IsAnyOn64(s.mask, s.bits); ok != s.any {
			t.Errorf("IsAnyOn64(%#x, %#x) = %v, wanted: %v", s.mask, s.bits, ok, s.any)
		}
		if ok := IsOn64(s.mask, s.bits); ok != s.all {
			t.Errorf("IsOn64(%#x, %#x) = %v, wanted: %v", s.mask, s.bits, ok, s.all)
		}
	}
}

func TestFieldMask(t *testing.T) {
	for _, test := range []struct {
		f    Field
		want uint64
	}{
		{Bit(0), 0x1},
		{Bit(63), 0x8000000000000000},
		{Field{MSB: 47, LSB: 14}, 0x0000ffffffffc000},
		{Field{MSB: 62, LSB: 61}, 0x6000000000000000},
		{Field{MSB: 63, LSB: 0}, ^uint64(0)},
	} {
		if got := test.f.Mask(); got != test.want {
			t.Errorf("%+v.Mask() = %#x, want %#x", test.f, got, test.want)
		}
	}
}

func TestFieldGetSet(t *testing.T) {
	f := Field{MSB: 34, LSB: 32}
	var w uint64 = 0xffffffff
	w = f.Set(w, 0b101)
	if got, want := w, uint64(0x5ffffffff); got != want {
		t.Errorf("Set: got %#x, want %#x", got, want)
	}
	if got := f.Get(w); got != 0b101 {
		t.Errorf("Get: got %#b, want 0b101", got)
	}

	// Oversized values are truncated to the field.
	w = f.Set(0, 0xff)
	if got, want := w, uint64(0x700000000); got != want {
		t.Errorf("Set(0xff): got %#x, want %#x", got, want)
	}
	if f.Fits(8) {
		t.Errorf("Fits(8) = true for a 3-bit field")
	}
}

func TestFieldSetBool(t *testing.T) {
	af := Bit(10)
	w := af.SetBool(0, true)
	if !af.IsSet(w) || w != 0x400 {
		t.Errorf("SetBool(true) = %#x, want 0x400", w)
	}
	if w = af.SetBool(w, false); w != 0 {
		t.Errorf("SetBool(false) = %#x, want 0", w)
	}
}
