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

//go:build linux

package physmem

import "testing"

func TestBackingRoundsToHostPages(t *testing.T) {
	const length = 100
	buf, free, err := newBacking(length)
	if err != nil {
		t.Fatalf("newBacking failed: %v", err)
	}
	if len(buf) != length || cap(buf) != length {
		t.Errorf("len, cap = %d, %d, want %d, %d", len(buf), cap(buf), length, length)
	}
	buf[length-1] = 0xaa
	if err := free(buf); err != nil {
		t.Errorf("free failed: %v", err)
	}
}
