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

// Package memutil provides utilities for working with anonymous memory
// mappings.
package memutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MapSlice maps size bytes of private, zero-filled, anonymous memory and
// returns it as a slice. Pages are not reserved until touched, so large
// simulated RAM sizes are cheap.
func MapSlice(size uintptr) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("zero-length mapping")
	}
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("mmap(%d bytes): %w", size, err)
	}
	return b, nil
}

// UnmapSlice unmaps a mapping returned by MapSlice.
func UnmapSlice(slice []byte) error {
	return unix.Munmap(slice)
}

// HostPageSize returns the page size of the host running the simulation.
func HostPageSize() int {
	return unix.Getpagesize()
}
