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

// Package memerr contains the memory manager error kinds exported as error
// interface pointers. Call sites wrap them with fmt.Errorf("...: %w", ...)
// and callers compare with errors.Is.
package memerr

import (
	goerrors "errors"

	"jerryos.dev/jerry/pkg/errors"
)

// Kinds.
const (
	KindNone errors.Kind = iota
	KindOutOfMemory
	KindInvalidAddress
	KindDoubleFree
	KindInvalidRange
	KindMappingFailed
	KindInvalidConfig
)

var (
	// ErrOutOfMemory is returned when no physical page is free.
	ErrOutOfMemory = errors.New(KindOutOfMemory, "out of memory")

	// ErrInvalidAddress is returned for a misaligned, out-of-range or
	// too-wide address.
	ErrInvalidAddress = errors.New(KindInvalidAddress, "invalid address")

	// ErrDoubleFree is returned when freeing a page that is already free.
	ErrDoubleFree = errors.New(KindDoubleFree, "double free")

	// ErrInvalidRange is returned for a page range with high < low or past
	// the end of RAM.
	ErrInvalidRange = errors.New(KindInvalidRange, "invalid range")

	// ErrMappingFailed is returned when a translation could not be installed.
	ErrMappingFailed = errors.New(KindMappingFailed, "mapping failed")

	// ErrInvalidConfig is returned when the MMU configuration or boot
	// layout is inconsistent.
	ErrInvalidConfig = errors.New(KindInvalidConfig, "invalid configuration")
)

// KindOf returns the kind of the first *errors.Error in err's chain, or
// KindNone.
func KindOf(err error) errors.Kind {
	var e *errors.Error
	if goerrors.As(err, &e) {
		return e.Kind()
	}
	return KindNone
}

// KindName returns a short name for k.
func KindName(k errors.Kind) string {
	switch k {
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindInvalidAddress:
		return "InvalidAddress"
	case KindDoubleFree:
		return "DoubleFree"
	case KindInvalidRange:
		return "InvalidRange"
	case KindMappingFailed:
		return "MappingFailed"
	case KindInvalidConfig:
		return "InvalidConfig"
	default:
		return "None"
	}
}
