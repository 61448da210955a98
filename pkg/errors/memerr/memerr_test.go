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

package memerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	for _, test := range []struct {
		err  error
		want string
	}{
		{nil, "None"},
		{errors.New("plain"), "None"},
		{ErrDoubleFree, "DoubleFree"},
		{fmt.Errorf("page %#x: %w", 0x40000000, ErrInvalidAddress), "InvalidAddress"},
		{fmt.Errorf("%w: level 1 table: %w", ErrMappingFailed, ErrOutOfMemory), "MappingFailed"},
	} {
		if got := KindName(KindOf(test.err)); got != test.want {
			t.Errorf("KindOf(%v) = %s, want %s", test.err, got, test.want)
		}
	}
}

func TestWrappedIs(t *testing.T) {
	err := fmt.Errorf("%w: level 2 table: %w", ErrMappingFailed, ErrOutOfMemory)
	if !errors.Is(err, ErrMappingFailed) || !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("errors.Is lost a wrapped kind in %v", err)
	}
	if errors.Is(err, ErrDoubleFree) {
		t.Errorf("errors.Is(%v, ErrDoubleFree) = true", err)
	}
}
