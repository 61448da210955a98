// Copyright 2020 The gVisor Authors.
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

package cleanup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testCleanupHelper(clean, cleanAdd *bool, release bool) func() {
	cu := Make(func() {
		*clean = true
	})
	cu.Add(func() {
		*cleanAdd = true
	})
	defer cu.Clean()
	if release {
		return cu.Release()
	}
	return nil
}

func TestCleanup(t *testing.T) {
	clean := false
	cleanAdd := false
	testCleanupHelper(&clean, &cleanAdd, false)
	if !clean {
		t.Fatalf("cleanup function was not called.")
	}
	if !cleanAdd {
		t.Fatalf("added cleanup function was not called.")
	}
}

func TestRelease(t *testing.T) {
	clean := false
	cleanAdd := false
	cleaner := testCleanupHelper(&clean, &cleanAdd, true)

	if clean || cleanAdd {
		t.Fatalf("cleanup function was called after release.")
	}

	cleaner()
	if !clean || !cleanAdd {
		t.Fatalf("released cleaner did not call every function: clean=%t add=%t", clean, cleanAdd)
	}
}

func TestCleanOrder(t *testing.T) {
	var got []int
	cu := Make(func() { got = append(got, 1) })
	cu.Add(func() { got = append(got, 2) })
	cu.Add(func() { got = append(got, 3) })
	if cu.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cu.Len())
	}
	cu.Clean()
	cu.Clean()
	if diff := cmp.Diff([]int{3, 2, 1}, got); diff != "" {
		t.Errorf("clean order mismatch (-want +got):\n%s", diff)
	}
}
