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

// Package physmem provides byte access to physical RAM.
//
// On bare metal the kernel runs identity mapped (or with the MMU off), so a
// physical address is directly dereferenceable. Hosted builds substitute a
// Simulated region that stands in for [base, base+len).
package physmem

import (
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
)

// Memory is a contiguous range of physical RAM.
type Memory interface {
	// Base returns the physical address of the first byte.
	Base() hostarch.PhysAddr

	// Len returns the number of bytes.
	Len() uint64

	// Slice returns the n bytes starting at pa. Writes to the slice are
	// writes to physical memory.
	Slice(pa hostarch.PhysAddr, n uint64) ([]byte, error)
}

// Contains returns true if [pa, pa+n) lies inside mem.
func Contains(mem Memory, pa hostarch.PhysAddr, n uint64) bool {
	end, ok := pa.AddLength(n)
	if !ok {
		return false
	}
	limit, ok := mem.Base().AddLength(mem.Len())
	return ok && pa >= mem.Base() && end <= limit
}

// Zero clears [pa, pa+n).
func Zero(mem Memory, pa hostarch.PhysAddr, n uint64) error {
	b, err := mem.Slice(pa, n)
	if err != nil {
		return err
	}
	clear(b)
	return nil
}

// ZeroPage clears the page at pa.
func ZeroPage(mem Memory, pa hostarch.PhysAddr) error {
	return Zero(mem, pa, hostarch.PageSize)
}

func checkRange(mem Memory, pa hostarch.PhysAddr, n uint64) error {
	if !Contains(mem, pa, n) {
		return fmt.Errorf("[%v, +%#x) outside RAM [%v, +%#x): %w", pa, n, mem.Base(), mem.Len(), memerr.ErrInvalidAddress)
	}
	return nil
}
