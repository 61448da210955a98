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
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"jerryos.dev/jerry/pkg/errors/memerr"
)

func newFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return fs
}

func TestDefault(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t))
	if err != nil {
		t.Fatalf("NewFromFlags failed: %v", err)
	}
	want := &Config{LogFormat: "text"}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("default config (-want +got):\n%s", diff)
	}
}

func TestFromFlags(t *testing.T) {
	c, err := NewFromFlags(newFlagSet(t, "--board=/tmp/b.toml", "--alsologtostderr", "--log-format=json", "--debug", "--ram-len=1048576"))
	if err != nil {
		t.Fatalf("NewFromFlags failed: %v", err)
	}
	want := &Config{Board: "/tmp/b.toml", AlsoLogToStderr: true, LogFormat: "json", Debug: true, RAMLen: 1 << 20}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	got := c.ToFlags()
	wantFlags := []string{"--board=/tmp/b.toml", "--log=", "--alsologtostderr=true", "--log-format=json", "--debug=true", "--ram-len=1048576"}
	if diff := cmp.Diff(wantFlags, got); diff != "" {
		t.Errorf("ToFlags() (-want +got):\n%s", diff)
	}
}

func TestInvalidLogFormat(t *testing.T) {
	if _, err := NewFromFlags(newFlagSet(t, "--log-format=xml")); !errors.Is(err, memerr.ErrInvalidConfig) {
		t.Errorf("NewFromFlags = %v, want ErrInvalidConfig", err)
	}
}

const testBoardTOML = `
name = "virt-128"
ram_base = 0x40000000
ram_len = 0x8000000
dtb_start = 0x40000000
dtb_len = 0x100000
root_tables = 0x40114000
map_ram_high = false

[kernel]
bin_start = 0x40100000
text_start = 0x40100000
text_end = 0x40107fff
rodata_start = 0x40108000
rodata_end = 0x40109fff
stack_bottom = 0x4010c000
init_sp = 0x40114000
bss_start = 0x40114000
bss_end = 0x40117fff

[[mmio]]
name = "pl011"
base = 0x09000000
len = 0x1000
`

func writeBoard(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadBoard(t *testing.T) {
	b, err := LoadBoard(writeBoard(t, testBoardTOML))
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}
	want := DefaultBoard()
	want.Name = "virt-128"
	want.RAMLen = 128 << 20
	want.MapRAMHigh = false
	want.MMIO = want.MMIO[:1]
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("LoadBoard (-want +got):\n%s", diff)
	}
	info := b.BootInfo()
	if err := info.Validate(); err != nil {
		t.Errorf("board does not validate: %v", err)
	}
	if got, want := uint64(info.Kernel.End()), uint64(0x40118000); got != want {
		t.Errorf("kernel end = %#x, want %#x", got, want)
	}
}

func TestLoadBoardErrors(t *testing.T) {
	if _, err := LoadBoard(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("LoadBoard of a missing file succeeded")
	}
	if _, err := LoadBoard(writeBoard(t, "ram_base = \"high\"\n")); err == nil {
		t.Errorf("LoadBoard with a mistyped key succeeded")
	}
	if _, err := LoadBoard(writeBoard(t, "ram_bsae = 0x40000000\n")); !errors.Is(err, memerr.ErrInvalidConfig) {
		t.Errorf("LoadBoard with an unknown key = %v, want ErrInvalidConfig", err)
	}
}

func TestConfigLoad(t *testing.T) {
	c := &Config{RAMLen: 32 << 20}
	b, err := c.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b.Name != "qemu-virt" || b.RAMLen != 32<<20 {
		t.Errorf("Load() = %q with %#x bytes of RAM, want qemu-virt with 32M", b.Name, b.RAMLen)
	}
	info := DefaultBoard().BootInfo()
	if err := info.Validate(); err != nil {
		t.Errorf("default board does not validate: %v", err)
	}
}
