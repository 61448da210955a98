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
	"os"

	"github.com/google/subcommands"
	"jerryos.dev/jerry/memsim/config"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/mm"
)

// Translate implements subcommands.Command for the "translate" command.
type Translate struct{}

// Name implements subcommands.Command.Name.
func (*Translate) Name() string {
	return "translate"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Translate) Synopsis() string {
	return "boot the board and translate virtual addresses"
}

// Usage implements subcommands.Command.Usage.
func (*Translate) Usage() string {
	return `translate [flags] <va>... - boot, then walk the tables for each address.

Addresses below 1<<39 use TTBR0, addresses at or above 0xffffff8000000000
use TTBR1.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Translate) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Translate) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	var vas []hostarch.VirtAddr
	for _, arg := range f.Args() {
		v, err := parseUint(arg)
		if err != nil {
			Fatalf("invalid address %q: %v", arg, err)
		}
		vas = append(vas, hostarch.VirtAddr(v))
	}

	m, err := newMachine(conf)
	if err != nil {
		Fatalf("creating machine: %v", err)
	}
	defer m.release()
	c, err := m.boot(true)
	if err != nil {
		fatalErr("boot failed", err)
	}

	status := subcommands.ExitSuccess
	for _, va := range vas {
		line, ok := translate(c, va)
		fmt.Fprintln(os.Stdout, line)
		if !ok {
			status = subcommands.ExitFailure
		}
	}
	return status
}

// translate describes what va maps to in c.
func translate(c *mm.Context, va hostarch.VirtAddr) (string, bool) {
	if !va.IsCanonical() {
		return fmt.Sprintf("%v: not canonical", va), false
	}
	pt := c.Lower
	if va.IsUpper() {
		pt = c.Upper
	}
	pa, attrs, ok := pt.Translate(va)
	if !ok {
		return fmt.Sprintf("%v: not mapped (%v)", va, pt.Half()), false
	}
	return fmt.Sprintf("%v -> %v %s (%v)", va, pa, attrs, pt.Half()), true
}
