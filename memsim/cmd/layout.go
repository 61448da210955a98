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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"jerryos.dev/jerry/memsim/config"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/mm"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// Layout implements subcommands.Command for the "layout" command.
type Layout struct{}

// Name implements subcommands.Command.Name.
func (*Layout) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Layout) Synopsis() string {
	return "print the physical memory layout without enabling the MMU"
}

// Usage implements subcommands.Command.Usage.
func (*Layout) Usage() string {
	return `layout [flags] - print where the kernel, page bitmap and tables live.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Layout) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Layout) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	m, err := newMachine(conf)
	if err != nil {
		Fatalf("creating machine: %v", err)
	}
	defer m.release()
	c, err := m.boot(false)
	if err != nil {
		fatalErr("preparing tables", err)
	}
	printLayout(os.Stdout, c)
	return subcommands.ExitSuccess
}

func printLayout(w io.Writer, c *mm.Context) {
	info := c.Info
	line := func(name string, start hostarch.PhysAddr, length uint64, extra string) {
		fmt.Fprintf(w, "%-14s %v-%v %s\n", name, start, start+hostarch.PhysAddr(length-1), extra)
	}
	line("ram", info.RAMBase, info.RAMLen, fmt.Sprintf("%d pages", c.Pages.NumPages()))
	if info.DTBLen != 0 {
		line("dtb", info.DTBStart, info.DTBLen, "")
	}
	for _, r := range info.Kernel.Regions() {
		line("kernel "+r.Name, r.Start, uint64(r.Last-r.Start)+1, r.Attrs.String())
	}
	line("root tables", info.RootTables, 2*pagetables.RootSize, "ttbr0, ttbr1")
	line("page bitmap", c.Pages.BitmapAddr(), c.Pages.BitmapPages()*hostarch.PageSize, fmt.Sprintf("%d pre-reserved pages", c.Pages.PreReserved()))
	for _, r := range info.MMIO {
		line("mmio "+r.Name, r.Base, r.Len, "")
	}
	if info.MapRAMHigh {
		va, _ := c.RAMVirt(info.RAMBase)
		fmt.Fprintf(w, "%-14s %v-%v\n", "ram (ttbr1)", va, va+hostarch.VirtAddr(info.RAMLen-1))
	}
	s := c.Stats()
	fmt.Fprintf(w, "tables: %d ttbr0, %d ttbr1; %d pages free; mmu %s\n", s.LowerTables, s.UpperTables, s.FreePages, onOff(c.MMUEnabled()))
}
