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

package physmem

import (
	"fmt"

	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
)

// Simulated is host memory standing in for physical RAM at a fixed base.
type Simulated struct {
	base hostarch.PhysAddr
	buf  []byte
	free func([]byte) error
}

var _ Remappable = (*Simulated)(nil)

// NewSimulated returns zeroed memory standing in for [base, base+length).
// base must be page aligned.
func NewSimulated(base hostarch.PhysAddr, length uint64) (*Simulated, error) {
	if !base.IsPageAligned() {
		return nil, fmt.Errorf("RAM base %v is not page aligned", base)
	}
	if length == 0 || length%hostarch.PageSize != 0 {
		return nil, fmt.Errorf("RAM length %#x is not a non-zero multiple of the page size", length)
	}
	if end, ok := base.AddLength(length); !ok || end > hostarch.MaxPhysAddr {
		return nil, fmt.Errorf("RAM [%v, +%#x) exceeds the output address range", base, length)
	}
	buf, free, err := newBacking(length)
	if err != nil {
		return nil, err
	}
	log.Debugf("Simulated RAM [%v, +%#x) backed by %d host bytes", base, length, len(buf))
	return &Simulated{base: base, buf: buf, free: free}, nil
}

// Base implements Memory.Base.
func (s *Simulated) Base() hostarch.PhysAddr { return s.base }

// Len implements Memory.Len.
func (s *Simulated) Len() uint64 { return uint64(len(s.buf)) }

// Slice implements Memory.Slice.
func (s *Simulated) Slice(pa hostarch.PhysAddr, n uint64) ([]byte, error) {
	if err := checkRange(s, pa, n); err != nil {
		return nil, err
	}
	off := uint64(pa - s.base)
	return s.buf[off : off+n : off+n], nil
}

// At implements Remappable.At. Host memory does not move when the simulated
// machine enables translation.
func (s *Simulated) At(hostarch.VirtAddr) Memory { return s }

// Release returns the backing memory to the host. s must not be used
// afterwards.
func (s *Simulated) Release() error {
	if s.buf == nil {
		return nil
	}
	err := s.free(s.buf)
	s.buf = nil
	return err
}
