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

// Package cmd holds implementations of the memsim commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"jerryos.dev/jerry/memsim/config"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/log"
	"jerryos.dev/jerry/pkg/mm"
	"jerryos.dev/jerry/pkg/physmem"
	"jerryos.dev/jerry/pkg/ring0"
)

// ErrorLogger is where fatal errors are written in addition to stderr.
var ErrorLogger io.Writer

// Fatalf logs to stderr and the error log, then exits with a failure status.
func Fatalf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	log.Warningf("FATAL ERROR: %s", s)
	fmt.Fprintf(os.Stderr, "memsim: %s\n", s)
	if ErrorLogger != nil {
		fmt.Fprintf(ErrorLogger, "%s\n", s)
	}
	os.Exit(128)
}

// fatalErr reports err together with its memory error kind.
func fatalErr(what string, err error) {
	Fatalf("%s: %v (%s)", what, err, memerr.KindName(memerr.KindOf(err)))
}

// machine is a simulated board: RAM backed by host memory and a recording
// register file.
type machine struct {
	board *config.Board
	mem   *physmem.Simulated
	regs  *ring0.Simulated
}

// newMachine allocates RAM for the configured board.
func newMachine(conf *config.Config) (*machine, error) {
	b, err := conf.Load()
	if err != nil {
		return nil, err
	}
	info := b.BootInfo()
	mem, err := physmem.NewSimulated(info.RAMBase, info.RAMLen)
	if err != nil {
		return nil, err
	}
	log.Infof("Board %q: RAM [%v, %v)", b.Name, info.RAMBase, info.RAMEnd())
	return &machine{board: b, mem: mem, regs: ring0.NewSimulated()}, nil
}

func (m *machine) release() {
	if err := m.mem.Release(); err != nil {
		log.Warningf("Releasing simulated RAM: %v", err)
	}
}

// boot builds the translation tables and, if enable is set, turns on the
// MMU.
func (m *machine) boot(enable bool) (*mm.Context, error) {
	if enable {
		return mm.Setup(m.board.BootInfo(), m.mem, m.regs)
	}
	return mm.Prepare(m.board.BootInfo(), m.mem, m.regs)
}

// parseUint accepts decimal or 0x prefixed hex, with optional '_'
// separators.
func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
}
