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

package mm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/physmem"
	"jerryos.dev/jerry/pkg/ring0"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

const page = hostarch.PageSize

// testBoard is laid out like a QEMU virt machine: the device tree at the
// start of RAM and the kernel 1M above it.
func testBoard() BootInfo {
	return BootInfo{
		RAMBase:    0x40000000,
		RAMLen:     64 << 20,
		DTBStart:   0x40000000,
		DTBLen:     0x100000,
		RootTables: 0x40114000,
		Kernel: pagetables.KernelImage{
			BinStart:    0x40100000,
			TextStart:   0x40100000,
			TextEnd:     0x40107fff,
			RodataStart: 0x40108000,
			RodataEnd:   0x40109fff,
			StackBottom: 0x4010c000,
			InitSP:      0x40114000,
			BssStart:    0x40114000,
			BssEnd:      0x40117fff,
		},
		MMIO:       []MMIORegion{{Name: "pl011", Base: 0x09000000, Len: 0x1000}},
		MapRAMHigh: true,
	}
}

func newMemory(t *testing.T, info BootInfo) *physmem.Simulated {
	t.Helper()
	mem, err := physmem.NewSimulated(info.RAMBase, info.RAMLen)
	if err != nil {
		t.Fatalf("NewSimulated failed: %v", err)
	}
	t.Cleanup(func() { mem.Release() })
	return mem
}

func TestSetup(t *testing.T) {
	info := testBoard()
	regs := ring0.NewSimulated()
	c, err := Setup(info, newMemory(t, info), regs)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !c.MMUEnabled() {
		t.Errorf("MMU not enabled after Setup")
	}
	got := []uint64{regs.TTBR0, regs.TTBR1, regs.TCR}
	want := []uint64{0x40114000, 0x40114040, 0x540198019}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ttbr0, ttbr1, tcr (-want +got):\n%s", diff)
	}

	if got, want := info.PreReservedPages(), uint64(70); got != want {
		t.Errorf("PreReservedPages() = %d, want %d", got, want)
	}
	if got, want := c.Pages.BitmapAddr(), hostarch.PhysAddr(0x40118000); got != want {
		t.Errorf("BitmapAddr() = %v, want %v", got, want)
	}

	for _, r := range []struct {
		name        string
		start, last hostarch.PhysAddr
	}{
		{"kernel", 0x40100000, 0x40117fff},
		{"dtb", 0x40000000, 0x400fffff},
		{"bitmap", 0x40118000, 0x4011bfff},
	} {
		for pa := r.start; pa <= r.last; pa += page {
			if got, _, ok := c.Lower.Translate(hostarch.IdentityVirt(pa)); !ok || got != pa {
				t.Fatalf("%s page %v translates to %v, %t", r.name, pa, got, ok)
			}
		}
	}
	if _, attrs, ok := c.Lower.Translate(0x09000000); !ok || attrs.MemoryType != hostarch.MemoryTypeDevice {
		t.Errorf("UART not mapped as device memory: %v %t", attrs, ok)
	}

	// All of RAM is reachable through the high map.
	for _, pa := range []hostarch.PhysAddr{0x40000000, 0x42000123, 0x43ffc008} {
		va, err := c.RAMVirt(pa)
		if err != nil {
			t.Fatalf("RAMVirt(%v) failed: %v", pa, err)
		}
		if got, _, ok := c.Upper.Translate(va); !ok || got != pa {
			t.Errorf("high map of %v at %v translates to %v, %t", pa, va, got, ok)
		}
	}

	stats := c.Stats()
	used := 70 + 1 + stats.LowerTables + stats.UpperTables
	if stats.NumPages != 4096 || stats.FreePages != 4096-used {
		t.Errorf("Stats() = %+v, want 4096 pages with %d used", stats, used)
	}
	// 64M of 16K pages needs two level 3 tables plus one level 2 table.
	if stats.UpperTables != 3 {
		t.Errorf("UpperTables = %d, want 3", stats.UpperTables)
	}
}

func TestSetupWithoutHighMap(t *testing.T) {
	info := testBoard()
	info.MapRAMHigh = false
	info.MMIO = nil
	c, err := Setup(info, newMemory(t, info), ring0.NewSimulated())
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if c.Stats().UpperTables != 0 {
		t.Errorf("TTBR1 tables allocated without a high map")
	}
	// Kernel, device tree and bitmap share one level 3 table.
	if got := c.Stats().LowerTables; got != 2 {
		t.Errorf("LowerTables = %d, want 2", got)
	}
}

func TestSetupOutOfMemory(t *testing.T) {
	info := testBoard()
	// Room for the kernel, the bitmap and one page: not enough for the two
	// tables the first identity mapping needs.
	info.RAMLen = 72 * page
	info.MapRAMHigh = false
	regs := ring0.NewSimulated()
	_, err := Setup(info, newMemory(t, info), regs)
	if !errors.Is(err, memerr.ErrMappingFailed) || !errors.Is(err, memerr.ErrOutOfMemory) {
		t.Errorf("Setup = %v, want MappingFailed wrapping OutOfMemory", err)
	}
	if len(regs.Ops) != 0 {
		t.Errorf("registers touched by a failed Setup: %v", regs.Ops)
	}
}

func TestEnableMMURequiresIdentityMap(t *testing.T) {
	info := testBoard()
	regs := ring0.NewSimulated()
	c, err := Prepare(info, newMemory(t, info), regs)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if c.MMUEnabled() {
		t.Fatalf("Prepare enabled the MMU")
	}
	c.Lower.Reset()
	if err := c.EnableMMU(); !errors.Is(err, memerr.ErrInvalidConfig) {
		t.Errorf("EnableMMU without identity maps = %v, want ErrInvalidConfig", err)
	}
	if c.MMUEnabled() {
		t.Errorf("MMU enabled despite failed check")
	}
}

func TestBootInfoValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(*BootInfo)
	}{
		{"unaligned RAM", func(b *BootInfo) { b.RAMBase += 0x1000 }},
		{"empty RAM", func(b *BootInfo) { b.RAMLen = 0 }},
		{"kernel below RAM", func(b *BootInfo) { b.RAMBase = 0x40200000 }},
		{"kernel past RAM", func(b *BootInfo) { b.RAMLen = 0x100000 }},
		{"unaligned roots", func(b *BootInfo) { b.RootTables += 8 }},
		{"roots outside image", func(b *BootInfo) { b.RootTables = 0x40200000 }},
		{"text reversed", func(b *BootInfo) { b.Kernel.TextEnd = 0x400fffff }},
		{"MMIO in upper half", func(b *BootInfo) { b.MMIO = []MMIORegion{{Name: "bad", Base: 0x8000000000, Len: 1}} }},
		{"empty MMIO region", func(b *BootInfo) { b.MMIO = []MMIORegion{{Name: "gic", Base: 0x08000000}} }},
	} {
		t.Run(test.name, func(t *testing.T) {
			info := testBoard()
			test.modify(&info)
			if err := info.Validate(); !errors.Is(err, memerr.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRAMVirt(t *testing.T) {
	info := testBoard()
	c := &Context{Info: info}
	va, err := c.RAMVirt(0x40004000)
	if err != nil || va != hostarch.UpperBottom+0x4000 {
		t.Fatalf("RAMVirt = %v, %v, want %v", va, err, hostarch.UpperBottom+0x4000)
	}
	if pa, err := c.RAMPhys(va); err != nil || pa != 0x40004000 {
		t.Errorf("RAMPhys(%v) = %v, %v, want 0x40004000", va, pa, err)
	}
	if _, err := c.RAMVirt(info.RAMEnd()); !errors.Is(err, memerr.ErrInvalidAddress) {
		t.Errorf("RAMVirt past RAM = %v, want ErrInvalidAddress", err)
	}
	if _, err := c.RAMPhys(0x40000000); !errors.Is(err, memerr.ErrInvalidAddress) {
		t.Errorf("RAMPhys of a lower address = %v, want ErrInvalidAddress", err)
	}
}

func TestDeviceTreeAfterKernel(t *testing.T) {
	magic := []byte{0xd0, 0x0d, 0xfe, 0xed}
	for _, test := range []struct {
		name     string
		dtbStart hostarch.PhysAddr
		ok       bool
	}{
		// The page bitmap starts at the end of the kernel image.
		{"on the bitmap", 0x40118000, false},
		{"inside the bitmap page", 0x40118000 + 0x100, false},
		{"after the bitmap", 0x4011c000, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			info := testBoard()
			info.DTBStart = test.dtbStart
			info.DTBLen = 0x2000
			mem := newMemory(t, info)
			dtb, err := mem.Slice(info.DTBStart, uint64(len(magic)))
			if err != nil {
				t.Fatalf("Slice failed: %v", err)
			}
			copy(dtb, magic)

			c, err := Setup(info, mem, ring0.NewSimulated())
			if test.ok != (err == nil) {
				t.Fatalf("Setup = %v, want success %t", err, test.ok)
			}
			if !test.ok && !errors.Is(err, memerr.ErrInvalidConfig) {
				t.Errorf("Setup = %v, want ErrInvalidConfig", err)
			}
			if diff := cmp.Diff(magic, dtb); diff != "" {
				t.Errorf("device tree header changed (-want +got):\n%s", diff)
			}
			if test.ok {
				idx, err := c.Pages.PageIndex(info.DTBStart.RoundDown())
				if err != nil || !c.Pages.IsUsed(idx) {
					t.Errorf("device tree page %v not reserved: %v", info.DTBStart, err)
				}
			}
		})
	}
}

func TestMapAfterEnable(t *testing.T) {
	info := testBoard()
	c, err := Setup(info, newMemory(t, info), ring0.NewSimulated())
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	lin, ok := c.Mem.(*physmem.Linear)
	if !ok || lin.VirtBase() != hostarch.UpperBottom {
		t.Fatalf("Mem after enable = %T, want the ttbr1 RAM map", c.Mem)
	}

	// A device discovered after boot needs a new level 3 table.
	tables := c.Stats().LowerTables
	if err := c.Lower.IdentityMapRange("virtio", 0x0a000000, 0x200, pagetables.DeviceAttrs); err != nil {
		t.Fatalf("IdentityMapRange after enable failed: %v", err)
	}
	if got := c.Stats().LowerTables; got != tables+1 {
		t.Errorf("LowerTables = %d, want %d", got, tables+1)
	}
	if pa, attrs, ok := c.Lower.Translate(0x0a000100); !ok || pa != 0x0a000100 || attrs.MemoryType != hostarch.MemoryTypeDevice {
		t.Errorf("Translate(0x0a000100) = %v, %v, %t, want identity device memory", pa, attrs, ok)
	}
}

func TestMapAfterEnableWithoutHighMap(t *testing.T) {
	info := testBoard()
	info.MapRAMHigh = false
	c, err := Setup(info, newMemory(t, info), ring0.NewSimulated())
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	err = c.Lower.IdentityMapRange("virtio", 0x0a000000, 0x200, pagetables.DeviceAttrs)
	if !errors.Is(err, memerr.ErrInvalidAddress) {
		t.Errorf("IdentityMapRange with RAM unreachable = %v, want ErrInvalidAddress", err)
	}
}
