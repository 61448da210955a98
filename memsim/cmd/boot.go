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
	"jerryos.dev/jerry/pkg/ring0"
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// Boot implements subcommands.Command for the "boot" command.
type Boot struct {
	dump bool
	ops  bool
}

// Name implements subcommands.Command.Name.
func (*Boot) Name() string {
	return "boot"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Boot) Synopsis() string {
	return "build the kernel translation tables and enable the MMU"
}

// Usage implements subcommands.Command.Usage.
func (*Boot) Usage() string {
	return `boot [flags] - run the memory management boot sequence on the board.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (b *Boot) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&b.dump, "dump", false, "print every valid descriptor after boot.")
	f.BoolVar(&b.ops, "ops", false, "print the system register accesses made by enable.")
}

// Execute implements subcommands.Command.Execute.
func (b *Boot) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
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

	c, err := m.boot(true)
	if err != nil {
		fatalErr("boot failed", err)
	}
	printSummary(os.Stdout, c)
	if b.ops {
		printOps(os.Stdout, m.regs)
	}
	if b.dump {
		for _, pt := range []*pagetables.PageTables{c.Lower, c.Upper} {
			if err := dumpTables(os.Stdout, pt); err != nil {
				Fatalf("walking %v tables: %v", pt.Half(), err)
			}
		}
	}
	return subcommands.ExitSuccess
}

func printSummary(w io.Writer, c *mm.Context) {
	s := c.Stats()
	fmt.Fprintf(w, "mmu:          %s\n", onOff(c.MMUEnabled()))
	fmt.Fprintf(w, "ttbr0:        %v\n", c.Lower.Root())
	fmt.Fprintf(w, "ttbr1:        %v\n", c.Upper.Root())
	fmt.Fprintf(w, "tcr:          %v\n", c.TCR)
	fmt.Fprintf(w, "mair:         %v\n", c.MAIR)
	fmt.Fprintf(w, "pages:        %d total, %d free\n", s.NumPages, s.FreePages)
	fmt.Fprintf(w, "tables:       %d ttbr0, %d ttbr1\n", s.LowerTables, s.UpperTables)
}

func printOps(w io.Writer, regs *ring0.Simulated) {
	for _, op := range regs.Ops {
		fmt.Fprintf(w, "  %v\n", op)
	}
}

// dumpTables prints one line per valid leaf or block descriptor, merging
// runs of contiguous pages with equal attributes.
func dumpTables(w io.Writer, pt *pagetables.PageTables) error {
	type run struct {
		va    hostarch.VirtAddr
		pa    hostarch.PhysAddr
		size  uint64
		attrs pagetables.Attrs
	}
	var cur *run
	flush := func() {
		if cur != nil {
			fmt.Fprintf(w, "%v %v-%v -> %v %s\n", pt.Half(), cur.va, cur.va+hostarch.VirtAddr(cur.size-1), cur.pa, cur.attrs)
		}
	}
	err := pt.Walk(func(va hostarch.VirtAddr, e pagetables.PTE, size uint64) {
		leaf := pagetables.DecodeLeaf(e)
		if cur != nil && cur.va+hostarch.VirtAddr(cur.size) == va && cur.pa+hostarch.PhysAddr(cur.size) == e.Address() && cur.attrs == leaf.Attrs {
			cur.size += size
			return
		}
		flush()
		cur = &run{va: va, pa: e.Address(), size: size, attrs: leaf.Attrs}
	})
	flush()
	return err
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
