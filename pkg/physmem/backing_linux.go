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

import "jerryos.dev/jerry/pkg/memutil"

// newBacking maps length bytes rounded up to whole host pages. The returned
// slice is exactly length bytes; the free func unmaps the whole mapping.
func newBacking(length uint64) ([]byte, func([]byte) error, error) {
	hostPage := uint64(memutil.HostPageSize())
	buf, err := memutil.MapSlice(uintptr((length + hostPage - 1) &^ (hostPage - 1)))
	if err != nil {
		return nil, nil, err
	}
	return buf[:length:length], func([]byte) error { return memutil.UnmapSlice(buf) }, nil
}
