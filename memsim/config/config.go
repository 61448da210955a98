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

// Package config holds the memsim configuration: command line flags and the
// board description file.
package config

import (
	"flag"
	"fmt"
	"reflect"
	"strings"

	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/log"
)

// Config holds the configuration shared by every memsim command.
type Config struct {
	// Board is the path of a TOML board description. Empty means the
	// built in QEMU virt layout.
	Board string `flag:"board"`

	// LogFilename is the file logs are written to. Empty means stderr.
	LogFilename string `flag:"log"`

	// AlsoLogToStderr sends log messages to stderr as well as LogFilename.
	AlsoLogToStderr bool `flag:"alsologtostderr"`

	// LogFormat is the log format, "text" or "json".
	LogFormat string `flag:"log-format"`

	// Debug enables debug logging.
	Debug bool `flag:"debug"`

	// RAMLen overrides the board's RAM size when non-zero.
	RAMLen uint64 `flag:"ram-len"`
}

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("board", "", "path of a TOML board description, default is a QEMU virt machine.")
	flagSet.String("log", "", "file path where log messages are written, default is stderr.")
	flagSet.Bool("alsologtostderr", false, "send log messages to stderr as well as --log.")
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.Uint64("ram-len", 0, "override the board's RAM size in bytes.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		x := reflect.ValueOf(fl.Value.(flag.Getter).Get())
		obj.Field(i).Set(x)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json': %w", c.LogFormat, memerr.ErrInvalidConfig)
	}
	return nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
func (c *Config) ToFlags() []string {
	var rv []string
	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		name, ok := st.Field(i).Tag.Lookup("flag")
		if !ok {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%v", name, obj.Field(i).Interface()))
	}
	return rv
}

// Log logs important aspects of the configuration.
func (c *Config) Log() {
	log.Infof("Config: %s", strings.Join(c.ToFlags(), " "))
}
