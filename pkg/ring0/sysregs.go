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

package ring0

import (
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
)

// SCTLR_EL1 bits.
const (
	// SCTLRM enables stage-1 translation.
	SCTLRM = 1 << 0
)

// SystemRegisters is access to the EL1 translation registers and the
// barriers that order writes to them.
type SystemRegisters interface {
	WriteMAIR(v uint64)
	WriteTTBR0(v uint64)
	WriteTTBR1(v uint64)
	WriteTCR(v uint64)
	ReadSCTLR() uint64
	WriteSCTLR(v uint64)

	// DSB is a full-system data synchronization barrier.
	DSB()

	// ISB is an instruction synchronization barrier.
	ISB()
}

// EnableMMU installs the translation tables and turns on stage-1
// translation:
//
//	dsb sy                 // table stores complete
//	msr mair_el1, mair
//	msr ttbr0_el1, ttbr0
//	msr ttbr1_el1, ttbr1
//	msr tcr_el1, tcr
//	dsb sy
//	isb                    // registers visible to the walker
//	mrs x0, sctlr_el1
//	orr x0, x0, #1
//	msr sctlr_el1, x0
//	isb                    // following fetches are translated
//
// Only SCTLR.M is changed. The caller must have identity mapped the code
// executing this sequence and the current stack.
func EnableMMU(regs SystemRegisters, ttbr0, ttbr1 hostarch.PhysAddr, tcr TCR, mair MAIR) {
	log.Infof("Enabling MMU: ttbr0=%v ttbr1=%v tcr=%v mair=%v", ttbr0, ttbr1, tcr, mair)
	regs.DSB()
	regs.WriteMAIR(uint64(mair))
	regs.WriteTTBR0(uint64(ttbr0))
	regs.WriteTTBR1(uint64(ttbr1))
	regs.WriteTCR(tcr.Encode())
	regs.DSB()
	regs.ISB()
	sctlr := regs.ReadSCTLR()
	regs.WriteSCTLR(sctlr | SCTLRM)
	regs.ISB()
}

// MMUEnabled returns true if SCTLR.M is set.
func MMUEnabled(regs SystemRegisters) bool {
	return regs.ReadSCTLR()&SCTLRM != 0
}
