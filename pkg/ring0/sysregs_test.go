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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnableMMUSequence(t *testing.T) {
	regs := NewSimulated()
	tcr := DefaultTCR()
	EnableMMU(regs, 0x40110000, 0x40110040, tcr, DefaultMAIR())

	want := []Op{
		{Kind: OpDSB},
		{Kind: OpWriteMAIR, Value: 0x4400ff},
		{Kind: OpWriteTTBR0, Value: 0x40110000},
		{Kind: OpWriteTTBR1, Value: 0x40110040},
		{Kind: OpWriteTCR, Value: 0x540198019},
		{Kind: OpDSB},
		{Kind: OpISB},
		{Kind: OpReadSCTLR, Value: SCTLRReset},
		{Kind: OpWriteSCTLR, Value: SCTLRReset | SCTLRM},
		{Kind: OpISB},
	}
	if diff := cmp.Diff(want, regs.Ops); diff != "" {
		t.Errorf("register accesses (-want +got):\n%s", diff)
	}
	if !MMUEnabled(regs) {
		t.Errorf("MMUEnabled() = false after EnableMMU")
	}
}

func TestEnableMMUPreservesSCTLR(t *testing.T) {
	regs := NewSimulated()
	// Caches on, alignment checking on.
	regs.SCTLR = SCTLRReset | 1<<2 | 1<<12 | 1<<1
	before := regs.SCTLR
	EnableMMU(regs, 0x40110000, 0x40110040, DefaultTCR(), DefaultMAIR())
	if got, want := regs.SCTLR, before|SCTLRM; got != want {
		t.Errorf("SCTLR = %#x, want %#x", got, want)
	}
}

func TestOpString(t *testing.T) {
	for _, test := range []struct {
		op   Op
		want string
	}{
		{Op{Kind: OpISB}, "isb"},
		{Op{Kind: OpWriteTCR, Value: 0x540198019}, "msr tcr_el1 0x540198019"},
	} {
		if got := test.op.String(); got != test.want {
			t.Errorf("String() = %q, want %q", got, test.want)
		}
	}
}
