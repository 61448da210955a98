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
	"fmt"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
	"jerryos.dev/jerry/pkg/pgalloc"
	"jerryos.dev/jerry/pkg/physmem"
	"jerryos.dev/jerry/pkg/ring0"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// Context is the kernel's memory management state.
type Context struct {
	Info BootInfo

	// Mem is RAM as currently reachable: physical addresses until the MMU
	// is enabled, the high RAM map afterwards.
	Mem   physmem.Memory
	Pages *pgalloc.Allocator

	// Lower holds the identity maps; Upper holds the high RAM map.
	Lower *pagetables.PageTables
	Upper *pagetables.PageTables

	TCR  ring0.TCR
	MAIR ring0.MAIR
	Regs ring0.SystemRegisters
}

// Setup runs the boot sequence: Prepare followed by EnableMMU. Any error
// leaves the MMU off; the caller is expected to halt.
func Setup(info BootInfo, mem physmem.Memory, regs ring0.SystemRegisters) (*Context, error) {
	c, err := Prepare(info, mem, regs)
	if err != nil {
		return nil, err
	}
	if err := c.EnableMMU(); err != nil {
		return nil, err
	}
	return c, nil
}

// Prepare initializes the page allocator and builds the kernel translation
// tables without touching the MMU.
func Prepare(info BootInfo, mem physmem.Memory, regs ring0.SystemRegisters) (*Context, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	c := &Context{
		Info: info,
		Mem:  mem,
		TCR:  ring0.DefaultTCR(),
		MAIR: ring0.DefaultMAIR(),
		Regs: regs,
	}

	var err error
	if c.Pages, err = pgalloc.New(mem, info.RAMBase, info.RAMLen, info.PreReservedPages()); err != nil {
		return nil, fmt.Errorf("initializing page allocator: %w", err)
	}
	if err := c.Pages.ReserveRange(info.DTBStart, info.DTBLen); err != nil {
		return nil, fmt.Errorf("reserving device tree: %w", err)
	}

	if c.Lower, err = pagetables.New(mem, c.Pages, info.RootTables, pagetables.Lower); err != nil {
		return nil, err
	}
	if c.Upper, err = pagetables.New(mem, c.Pages, info.RootTables+hostarch.PhysAddr(pagetables.RootSize), pagetables.Upper); err != nil {
		return nil, err
	}
	for _, pt := range []*pagetables.PageTables{c.Lower, c.Upper} {
		if err := pt.Reset(); err != nil {
			return nil, err
		}
	}

	if err := c.mapKernel(); err != nil {
		return nil, err
	}
	if info.MapRAMHigh {
		if err := c.mapRAMHigh(); err != nil {
			return nil, err
		}
	}
	log.Infof("Translation tables ready: %d ttbr0 tables, %d ttbr1 tables, %d pages free", c.Lower.TablePages(), c.Upper.TablePages(), c.Pages.FreePages())
	return c, nil
}

// mapKernel identity maps everything the kernel touches right after the MMU
// is enabled.
func (c *Context) mapKernel() error {
	if err := c.Lower.IdentityMapKernelImage(c.Info.Kernel); err != nil {
		return err
	}
	if err := c.Lower.IdentityMapRange("dtb", c.Info.DTBStart, c.Info.DTBLen, pagetables.KernelDataAttrs); err != nil {
		return fmt.Errorf("device tree: %w", err)
	}
	if err := c.Lower.IdentityMapRange("page bitmap", c.Pages.BitmapAddr(), c.Pages.BitmapPages()*hostarch.PageSize, pagetables.KernelDataAttrs); err != nil {
		return fmt.Errorf("page bitmap: %w", err)
	}
	for _, r := range c.Info.MMIO {
		if err := c.Lower.IdentityMapRange(r.Name, r.Base, r.Len, pagetables.DeviceAttrs); err != nil {
			return fmt.Errorf("MMIO %s: %w", r.Name, err)
		}
	}
	return nil
}

func (c *Context) mapRAMHigh() error {
	va, err := c.RAMVirt(c.Info.RAMBase)
	if err != nil {
		return err
	}
	n := c.Info.RAMLen >> hostarch.PageShift
	log.Infof("ttbr1: mapping RAM [%v, %v) at %v (%d pages)", c.Info.RAMBase, c.Info.RAMEnd(), va, n)
	if err := c.Upper.MapRange(c.Info.RAMBase, va, n, pagetables.KernelDataAttrs); err != nil {
		return fmt.Errorf("high RAM map: %w", err)
	}
	return nil
}

// RAMVirt returns the TTBR1 address at which pa is mapped when RAM is mapped
// high.
func (c *Context) RAMVirt(pa hostarch.PhysAddr) (hostarch.VirtAddr, error) {
	if pa < c.Info.RAMBase || pa >= c.Info.RAMEnd() {
		return 0, fmt.Errorf("%v is not RAM: %w", pa, memerr.ErrInvalidAddress)
	}
	return hostarch.UpperBottom + hostarch.VirtAddr(pa-c.Info.RAMBase), nil
}

// RAMPhys is the inverse of RAMVirt.
func (c *Context) RAMPhys(va hostarch.VirtAddr) (hostarch.PhysAddr, error) {
	if !va.IsUpper() || uint64(va-hostarch.UpperBottom) >= c.Info.RAMLen {
		return 0, fmt.Errorf("%v is not in the high RAM map: %w", va, memerr.ErrInvalidAddress)
	}
	return c.Info.RAMBase + hostarch.PhysAddr(va-hostarch.UpperBottom), nil
}

// requiredMapping is an address that must be identity mapped before
// translation is enabled.
type requiredMapping struct {
	name string
	pa   hostarch.PhysAddr
}

// Check verifies the preconditions for enabling the MMU: a valid
// configuration and identity mappings for the code, stack and page bitmap.
func (c *Context) Check() error {
	if err := c.TCR.Validate(); err != nil {
		return err
	}
	k := c.Info.Kernel
	required := []requiredMapping{
		{"text start", k.TextStart},
		{"text end", k.TextEnd},
		{"page bitmap", c.Pages.BitmapAddr()},
	}
	if k.InitSP != 0 {
		required = append(required, requiredMapping{"initial stack", k.InitSP - 8})
	}
	for _, p := range required {
		got, _, ok := c.Lower.Translate(hostarch.IdentityVirt(p.pa))
		if !ok || got != p.pa {
			return fmt.Errorf("%s %v is not identity mapped: %w", p.name, p.pa, memerr.ErrInvalidConfig)
		}
	}
	if !c.Info.MapRAMHigh {
		return nil
	}
	// Tables are edited through the high RAM map once translation is on.
	for _, pa := range []hostarch.PhysAddr{c.Info.RAMBase, c.Info.RAMEnd() - hostarch.PageSize} {
		va, err := c.RAMVirt(pa)
		if err != nil {
			return err
		}
		if got, _, ok := c.Upper.Translate(va); !ok || got != pa {
			return fmt.Errorf("RAM page %v is not mapped at %v: %w", pa, va, memerr.ErrInvalidConfig)
		}
	}
	return nil
}

// EnableMMU checks the tables and turns on translation.
func (c *Context) EnableMMU() error {
	if err := c.Check(); err != nil {
		return err
	}
	ring0.EnableMMU(c.Regs, c.Lower.Root(), c.Upper.Root(), c.TCR, c.MAIR)
	c.useTranslatedMemory()
	return nil
}

// useTranslatedMemory switches table and page accesses to the addresses
// that are valid with translation on. The page bitmap keeps its physical
// view; it is identity mapped.
func (c *Context) useTranslatedMemory() {
	var mem physmem.Memory
	if c.Info.MapRAMHigh {
		mem = physmem.NewLinear(c.Mem, hostarch.UpperBottom)
		log.Infof("RAM is accessed through the ttbr1 map at %v", hostarch.UpperBottom)
	} else {
		mem = physmem.Unmapped{Memory: c.Mem}
		log.Infof("RAM is not mapped high: translation tables can no longer be reached")
	}
	c.Mem = mem
	c.Pages.SetMemory(mem)
	c.Lower.SetMemory(mem)
	c.Upper.SetMemory(mem)
}

// MMUEnabled returns true once translation is on.
func (c *Context) MMUEnabled() bool {
	return ring0.MMUEnabled(c.Regs)
}

// Stats summarizes memory use.
type Stats struct {
	NumPages    uint64
	FreePages   uint64
	LowerTables uint64
	UpperTables uint64
}

// Stats returns current memory use.
func (c *Context) Stats() Stats {
	return Stats{
		NumPages:    c.Pages.NumPages(),
		FreePages:   c.Pages.FreePages(),
		LowerTables: c.Lower.TablePages(),
		UpperTables: c.Upper.TablePages(),
	}
}
