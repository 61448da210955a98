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

package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/mm"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// Kernel gives the linker symbols of the loaded kernel image. End addresses
// are inclusive.
type Kernel struct {
	BinStart    uint64 `toml:"bin_start"`
	TextStart   uint64 `toml:"text_start"`
	TextEnd     uint64 `toml:"text_end"`
	RodataStart uint64 `toml:"rodata_start"`
	RodataEnd   uint64 `toml:"rodata_end"`
	StackBottom uint64 `toml:"stack_bottom"`
	InitSP      uint64 `toml:"init_sp"`
	BssStart    uint64 `toml:"bss_start"`
	BssEnd      uint64 `toml:"bss_end"`
}

// MMIO is a device register window.
type MMIO struct {
	Name string `toml:"name"`
	Base uint64 `toml:"base"`
	Len  uint64 `toml:"len"`
}

// Board describes a machine and the kernel loaded on it.
type Board struct {
	Name       string `toml:"name"`
	RAMBase    uint64 `toml:"ram_base"`
	RAMLen     uint64 `toml:"ram_len"`
	DTBStart   uint64 `toml:"dtb_start"`
	DTBLen     uint64 `toml:"dtb_len"`
	RootTables uint64 `toml:"root_tables"`
	MapRAMHigh bool   `toml:"map_ram_high"`
	Kernel     Kernel `toml:"kernel"`
	MMIO       []MMIO `toml:"mmio"`
}

// DefaultBoard returns a QEMU virt machine with 64M of RAM, the device tree
// at the start of RAM and a small kernel loaded 1M above it.
func DefaultBoard() *Board {
	return &Board{
		Name:       "qemu-virt",
		RAMBase:    0x40000000,
		RAMLen:     64 << 20,
		DTBStart:   0x40000000,
		DTBLen:     0x100000,
		RootTables: 0x40114000,
		MapRAMHigh: true,
		Kernel: Kernel{
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
		MMIO: []MMIO{
			{Name: "pl011", Base: 0x09000000, Len: 0x1000},
			{Name: "gic", Base: 0x08000000, Len: 0x20000},
		},
	}
}

// LoadBoard reads a board description from a TOML file.
func LoadBoard(path string) (*Board, error) {
	var b Board
	md, err := toml.DecodeFile(path, &b)
	if err != nil {
		return nil, fmt.Errorf("reading board %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("board %q has unknown keys %v: %w", path, undecoded, memerr.ErrInvalidConfig)
	}
	if b.Name == "" {
		b.Name = path
	}
	return &b, nil
}

// Load returns the board named by the configuration with its overrides
// applied.
func (c *Config) Load() (*Board, error) {
	b := DefaultBoard()
	if c.Board != "" {
		var err error
		if b, err = LoadBoard(c.Board); err != nil {
			return nil, err
		}
	}
	if c.RAMLen != 0 {
		b.RAMLen = c.RAMLen
	}
	return b, nil
}

// BootInfo converts the board to the boot information consumed by mm.
func (b *Board) BootInfo() mm.BootInfo {
	k := b.Kernel
	info := mm.BootInfo{
		RAMBase:    hostarch.PhysAddr(b.RAMBase),
		RAMLen:     b.RAMLen,
		DTBStart:   hostarch.PhysAddr(b.DTBStart),
		DTBLen:     b.DTBLen,
		RootTables: hostarch.PhysAddr(b.RootTables),
		MapRAMHigh: b.MapRAMHigh,
		Kernel: pagetables.KernelImage{
			BinStart:    hostarch.PhysAddr(k.BinStart),
			TextStart:   hostarch.PhysAddr(k.TextStart),
			TextEnd:     hostarch.PhysAddr(k.TextEnd),
			RodataStart: hostarch.PhysAddr(k.RodataStart),
			RodataEnd:   hostarch.PhysAddr(k.RodataEnd),
			StackBottom: hostarch.PhysAddr(k.StackBottom),
			InitSP:      hostarch.PhysAddr(k.InitSP),
			BssStart:    hostarch.PhysAddr(k.BssStart),
			BssEnd:      hostarch.PhysAddr(k.BssEnd),
		},
	}
	for _, r := range b.MMIO {
		info.MMIO = append(info.MMIO, mm.MMIORegion{Name: r.Name, Base: hostarch.PhysAddr(r.Base), Len: r.Len})
	}
	return info
}
