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

package bitmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newBitmap(t *testing.T, size uint64) Bytes {
	t.Helper()
	b, err := New(make([]byte, BytesFor(size)), size)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", size, err)
	}
	return b
}

func TestNewTooSmall(t *testing.T) {
	if _, err := New(make([]byte, 1), 9); err == nil {
		t.Errorf("New accepted 1 byte for 9 bits")
	}
}

// TestSetRangeBoundary checks the partial first/last byte masks.
func TestSetRangeBoundary(t *testing.T) {
	b := newBitmap(t, 64)
	b.SetRange(5, 20)
	want := []byte{0xe0, 0xff, 0x1f, 0, 0, 0, 0, 0}
	if diff := cmp.Diff(want, b.Data()); diff != "" {
		t.Errorf("SetRange(5, 20) mismatch (-want +got):\n%s", diff)
	}
	b.ClearRange(5, 20)
	if diff := cmp.Diff(make([]byte, 8), b.Data()); diff != "" {
		t.Errorf("ClearRange(5, 20) mismatch (-want +got):\n%s", diff)
	}
}

func TestSetRangeSingleByte(t *testing.T) {
	for _, test := range []struct {
		low, high uint64
		want      byte
	}{
		{0, 0, 0x01},
		{0, 7, 0xff},
		{3, 5, 0x38},
		{7, 7, 0x80},
	} {
		b := newBitmap(t, 8)
		b.SetRange(test.low, test.high)
		if got := b.Data()[0]; got != test.want {
			t.Errorf("SetRange(%d, %d) = %#x, want %#x", test.low, test.high, got, test.want)
		}
	}
}

// TestRangeExhaustive sets and clears every inclusive range of a 64-bit map
// on top of a background pattern and checks each bit individually.
func TestRangeExhaustive(t *testing.T) {
	const size = 64
	for low := uint64(0); low < size; low++ {
		for high := low; high < size; high++ {
			b := newBitmap(t, size)
			b.SetRange(low, high)
			for i := uint64(0); i < size; i++ {
				if got, want := b.Test(i), i >= low && i <= high; got != want {
					t.Fatalf("after SetRange(%d, %d): bit %d = %t, want %t", low, high, i, got, want)
				}
			}
			if got, want := b.Count(), high-low+1; got != want {
				t.Fatalf("after SetRange(%d, %d): Count() = %d, want %d", low, high, got, want)
			}
			b.ClearRange(low, high)
			if got := b.Count(); got != 0 {
				t.Fatalf("after ClearRange(%d, %d): Count() = %d, want 0", low, high, got)
			}
		}
	}
}

func TestFirstZero(t *testing.T) {
	b := newBitmap(t, 20)
	b.SetTail()
	for want := uint64(0); want < 20; want++ {
		got, ok := b.FirstZero()
		if !ok || got != want {
			t.Fatalf("FirstZero() = %d, %t, want %d, true", got, ok, want)
		}
		b.Set(got)
	}
	if i, ok := b.FirstZero(); ok {
		t.Errorf("FirstZero() on a full bitmap = %d, true", i)
	}
	b.Clear(13)
	b.Clear(4)
	if got, _ := b.FirstZero(); got != 4 {
		t.Errorf("FirstZero() = %d, want lowest clear bit 4", got)
	}
}

func TestFirstZeroIgnoresTail(t *testing.T) {
	b := newBitmap(t, 12)
	b.SetRange(0, 11)
	if i, ok := b.FirstZero(); ok {
		t.Errorf("FirstZero() = %d, true; bits past Size() must not be reported", i)
	}
	if got := b.Count(); got != 12 {
		t.Errorf("Count() = %d, want 12", got)
	}
}

func TestOutOfRangePanics(t *testing.T) {
	b := newBitmap(t, 16)
	defer func() {
		if recover() == nil {
			t.Errorf("SetRange past the end did not panic")
		}
	}()
	b.SetRange(8, 16)
}
