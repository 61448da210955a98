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

import "fmt"

// SCTLRReset is the architectural SCTLR_EL1 value with only the RES1 bits
// of ARMv8.0 set.
const SCTLRReset = 0x30d00800

// OpKind identifies a recorded register access.
type OpKind int

// Operations recorded by Simulated.
const (
	OpWriteMAIR OpKind = iota
	OpWriteTTBR0
	OpWriteTTBR1
	OpWriteTCR
	OpReadSCTLR
	OpWriteSCTLR
	OpDSB
	OpISB
)

var opNames = [...]string{
	OpWriteMAIR:  "msr mair_el1",
	OpWriteTTBR0: "msr ttbr0_el1",
	OpWriteTTBR1: "msr ttbr1_el1",
	OpWriteTCR:   "msr tcr_el1",
	OpReadSCTLR:  "mrs sctlr_el1",
	OpWriteSCTLR: "msr sctlr_el1",
	OpDSB:        "dsb sy",
	OpISB:        "isb",
}

// String implements fmt.Stringer.String.
func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one recorded register access.
type Op struct {
	Kind  OpKind
	Value uint64
}

// String implements fmt.Stringer.String.
func (o Op) String() string {
	switch o.Kind {
	case OpDSB, OpISB:
		return o.Kind.String()
	default:
		return fmt.Sprintf("%v %#x", o.Kind, o.Value)
	}
}

// Simulated is a register file for hosted runs. It records every access in
// program order.
type Simulated struct {
	MAIR  uint64
	TTBR0 uint64
	TTBR1 uint64
	TCR   uint64
	SCTLR uint64

	// Ops is the access log.
	Ops []Op
}

var _ SystemRegisters = (*Simulated)(nil)

// NewSimulated returns registers in their reset state.
func NewSimulated() *Simulated {
	return &Simulated{SCTLR: SCTLRReset}
}

func (s *Simulated) record(k OpKind, v uint64) {
	s.Ops = append(s.Ops, Op{Kind: k, Value: v})
}

// WriteMAIR implements SystemRegisters.WriteMAIR.
func (s *Simulated) WriteMAIR(v uint64) { s.MAIR = v; s.record(OpWriteMAIR, v) }

// WriteTTBR0 implements SystemRegisters.WriteTTBR0.
func (s *Simulated) WriteTTBR0(v uint64) { s.TTBR0 = v; s.record(OpWriteTTBR0, v) }

// WriteTTBR1 implements SystemRegisters.WriteTTBR1.
func (s *Simulated) WriteTTBR1(v uint64) { s.TTBR1 = v; s.record(OpWriteTTBR1, v) }

// WriteTCR implements SystemRegisters.WriteTCR.
func (s *Simulated) WriteTCR(v uint64) { s.TCR = v; s.record(OpWriteTCR, v) }

// ReadSCTLR implements SystemRegisters.ReadSCTLR.
func (s *Simulated) ReadSCTLR() uint64 { s.record(OpReadSCTLR, s.SCTLR); return s.SCTLR }

// WriteSCTLR implements SystemRegisters.WriteSCTLR.
func (s *Simulated) WriteSCTLR(v uint64) { s.SCTLR = v; s.record(OpWriteSCTLR, v) }

// DSB implements SystemRegisters.DSB.
func (s *Simulated) DSB() { s.record(OpDSB, 0) }

// ISB implements SystemRegisters.ISB.
func (s *Simulated) ISB() { s.record(OpISB, 0) }
