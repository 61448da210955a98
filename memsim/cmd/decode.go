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
	"jerryos.dev/jerry/pkg/ring0/pagetables"
)

// Decode implements subcommands.Command for the "decode" command.
type Decode struct {
	level int
}

// Name implements subcommands.Command.Name.
func (*Decode) Name() string {
	return "decode"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Decode) Synopsis() string {
	return "decode raw translation table descriptors"
}

// Usage implements subcommands.Command.Usage.
func (*Decode) Usage() string {
	return `decode [flags] <descriptor>... - print the fields of each descriptor.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Decode) SetFlags(f *flag.FlagSet) {
	f.IntVar(&d.level, "level", 3, "translation level (1-3) the descriptors were read from.")
}

// Execute implements subcommands.Command.Execute.
func (d *Decode) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	idx, ok := levelIndex(d.level)
	if !ok {
		Fatalf("invalid level %d", d.level)
	}
	for _, arg := range f.Args() {
		v, err := parseUint(arg)
		if err != nil {
			Fatalf("invalid descriptor %q: %v", arg, err)
		}
		fmt.Fprintln(os.Stdout, pagetables.PTE(v).Describe(idx))
	}
	return subcommands.ExitSuccess
}

// levelIndex maps an architectural level number to its index in the walk.
func levelIndex(num int) (int, bool) {
	for i, l := range pagetables.Levels() {
		if l.Num == num {
			return i, true
		}
	}
	return 0, false
}
