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

package pagetables

import (
	"fmt"

	"jerryos.dev/jerry/pkg/cleanup"
	"jerryos.dev/jerry/pkg/errors/memerr"
	"jerryos.dev/jerry/pkg/hostarch"
	"jerryos.dev/jerry/pkg/log"
	"jerryos.dev/jerry/pkg/physmem"
)

// MapOpts are options for MapPage.
type MapOpts struct {
	// Overwrite replaces an existing page mapping. Without it, mapping an
	// already mapped address returns the existing output address and
	// changes nothing.
	Overwrite bool

	// Attrs are the leaf attributes. The access flag is always set.
	Attrs Attrs
}

func (p *PageTables) checkVirt(va hostarch.VirtAddr) error {
	if !va.IsPageAligned() {
		return fmt.Errorf("virtual address %v is not page aligned: %w", va, memerr.ErrInvalidAddress)
	}
	if !p.half.Contains(va) {
		return fmt.Errorf("virtual address %v is not translated by %v: %w", va, p.half, memerr.ErrInvalidAddress)
	}
	return nil
}

// MapPage maps the page at va to the page at pa and returns the output
// address now mapped at va.
//
// Missing intermediate tables are allocated before anything is written to a
// reachable table. The new chain is filled in from the leaf upwards and then
// published with a single store into the deepest existing table, so a
// concurrent walk sees either no mapping or the complete one. If a table
// cannot be allocated, every page allocated by this call is freed, the tree
// is unchanged and the error wraps ErrMappingFailed.
func (p *PageTables) MapPage(pa hostarch.PhysAddr, va hostarch.VirtAddr, opts MapOpts) (hostarch.PhysAddr, error) {
	if err := p.checkVirt(va); err != nil {
		return 0, err
	}
	attrs := opts.Attrs
	attrs.AccessFlag = true
	leaf, err := EncodeLeaf(pa, attrs)
	if err != nil {
		return 0, err
	}

	// Descend through existing tables.
	table := p.root
	level := 0
	for ; level < lastLevel; level++ {
		words, err := p.entries(table, level)
		if err != nil {
			return 0, fmt.Errorf("%w: level %d table %v: %w", memerr.ErrMappingFailed, levels[level].Num, table, err)
		}
		e := PTE(words[levels[level].Index(va)])
		if !e.Valid() {
			break
		}
		if !e.IsTable(level) {
			return 0, fmt.Errorf("%w: %v is covered by a level %d block", memerr.ErrMappingFailed, va, levels[level].Num)
		}
		table = e.Address()
	}

	if level == lastLevel {
		words, err := p.entries(table, level)
		if err != nil {
			return 0, fmt.Errorf("%w: level %d table %v: %w", memerr.ErrMappingFailed, levels[level].Num, table, err)
		}
		slot := &words[levels[level].Index(va)]
		if e := PTE(*slot); e.IsPage(level) && !opts.Overwrite {
			return e.Address(), nil
		}
		*slot = uint64(leaf)
		return pa, nil
	}

	// Allocate every missing table up front.
	newTables := make([]hostarch.PhysAddr, lastLevel-level)
	var cu cleanup.Cleanup
	defer cu.Clean()
	for i := range newTables {
		t, err := p.alloc.Allocate()
		if err != nil {
			return 0, fmt.Errorf("%w: level %d table for %v: %w", memerr.ErrMappingFailed, levels[level+1+i].Num, va, err)
		}
		cu.Add(func() {
			if err := p.alloc.Free(t, false); err != nil {
				log.Warningf("%v: releasing table %v after failed map of %v: %v", p.half, t, va, err)
			}
		})
		if err := physmem.ZeroPage(p.mem, t); err != nil {
			return 0, fmt.Errorf("%w: clearing table %v: %w", memerr.ErrMappingFailed, t, err)
		}
		newTables[i] = t
	}

	// Fill the unreachable chain bottom-up.
	last := len(newTables) - 1
	words, err := p.entries(newTables[last], lastLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", memerr.ErrMappingFailed, err)
	}
	words[levels[lastLevel].Index(va)] = uint64(leaf)
	for i := last; i > 0; i-- {
		parent := level + i
		words, err := p.entries(newTables[i-1], parent)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", memerr.ErrMappingFailed, err)
		}
		link, err := EncodeTable(newTables[i], TableAttrs{})
		if err != nil {
			return 0, fmt.Errorf("%w: %w", memerr.ErrMappingFailed, err)
		}
		words[levels[parent].Index(va)] = uint64(link)
	}

	// Publish.
	link, err := EncodeTable(newTables[0], TableAttrs{})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", memerr.ErrMappingFailed, err)
	}
	words, err = p.entries(table, level)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", memerr.ErrMappingFailed, err)
	}
	words[levels[level].Index(va)] = uint64(link)
	cu.Release()

	p.tables += uint64(len(newTables))
	if log.IsLogging(log.Debug) {
		log.Debugf("%v: mapped %v -> %v with %d new tables %v", p.half, va, pa, len(newTables), newTables)
	}
	return pa, nil
}

// Translate walks the tables for va. ok is false if va is not mapped.
func (p *PageTables) Translate(va hostarch.VirtAddr) (pa hostarch.PhysAddr, attrs Attrs, ok bool) {
	if !p.half.Contains(va) {
		return 0, Attrs{}, false
	}
	table := p.root
	for level := range levels {
		words, err := p.entries(table, level)
		if err != nil {
			return 0, Attrs{}, false
		}
		e := PTE(words[levels[level].Index(va)])
		switch {
		case !e.Valid():
			return 0, Attrs{}, false
		case e.IsTable(level):
			table = e.Address()
		case e.IsPage(level):
			d := DecodeLeaf(e)
			return d.OA + hostarch.PhysAddr(va.PageOffset()), d.Attrs, true
		case e.IsBlock(level):
			d := DecodeBlock(e)
			return d.OA + hostarch.PhysAddr(uint64(va)&(hostarch.BlockSize-1)), d.Attrs, true
		default:
			return 0, Attrs{}, false
		}
	}
	return 0, Attrs{}, false
}

// Visitor is called for each valid leaf with the first virtual address it
// maps, the descriptor and the size of the mapping.
type Visitor func(va hostarch.VirtAddr, e PTE, size uint64)

// Walk visits every valid leaf in ascending virtual address order.
func (p *PageTables) Walk(fn Visitor) error {
	return p.walk(p.root, 0, p.half.Base(), fn)
}

func (p *PageTables) walk(table hostarch.PhysAddr, level int, base hostarch.VirtAddr, fn Visitor) error {
	words, err := p.entries(table, level)
	if err != nil {
		return err
	}
	l := levels[level]
	for i, w := range words {
		e := PTE(w)
		if !e.Valid() {
			continue
		}
		va := base + hostarch.VirtAddr(uint64(i)*l.Size())
		switch {
		case e.IsTable(level):
			if err := p.walk(e.Address(), level+1, va, fn); err != nil {
				return err
			}
		case e.IsPage(level), e.IsBlock(level):
			fn(va, e, l.Size())
		}
	}
	return nil
}
