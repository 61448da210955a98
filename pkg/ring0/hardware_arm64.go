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

//go:build arm64 && baremetal

package ring0

// Hardware is the EL1 register file of the executing core.
type Hardware struct{}

var _ SystemRegisters = Hardware{}

// Implemented in sysregs_arm64.s.
func writeMAIR(v uint64)
func writeTTBR0(v uint64)
func writeTTBR1(v uint64)
func writeTCR(v uint64)
func readSCTLR() uint64
func writeSCTLR(v uint64)
func dsb()
func isb()

// WriteMAIR implements SystemRegisters.WriteMAIR.
//
//go:nosplit
func (Hardware) WriteMAIR(v uint64) { writeMAIR(v) }

// WriteTTBR0 implements SystemRegisters.WriteTTBR0.
//
//go:nosplit
func (Hardware) WriteTTBR0(v uint64) { writeTTBR0(v) }

// WriteTTBR1 implements SystemRegisters.WriteTTBR1.
//
//go:nosplit
func (Hardware) WriteTTBR1(v uint64) { writeTTBR1(v) }

// WriteTCR implements SystemRegisters.WriteTCR.
//
//go:nosplit
func (Hardware) WriteTCR(v uint64) { writeTCR(v) }

// ReadSCTLR implements SystemRegisters.ReadSCTLR.
//
//go:nosplit
func (Hardware) ReadSCTLR() uint64 { return readSCTLR() }

// WriteSCTLR implements SystemRegisters.WriteSCTLR.
//
//go:nosplit
func (Hardware) WriteSCTLR(v uint64) { writeSCTLR(v) }

// DSB implements SystemRegisters.DSB.
//
//go:nosplit
func (Hardware) DSB() { dsb() }

// ISB implements SystemRegisters.ISB.
//
//go:nosplit
func (Hardware) ISB() { isb() }
