// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package keymap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/usedbytes/rkmap/lib/catalog"
)

// Slots shown when there's no catalog to say which ones matter
var DefaultSampleSlots = []int{0, 1, 2, 3, 4, 5, 10, 20, 50, 53}

type Entry struct {
	Name   string
	VKCode string
	Slot   int
	Code   Code
}

func (e Entry) Offset() int {
	return Offset(e.Slot)
}

// Table is the decoded key mapping, sorted by slot
type Table struct {
	Order ByteOrder
	// Named is true when the entries came from a catalog
	Named   bool
	Entries []Entry
	// Requested slots which aren't in the blob
	Missing []int
}

func (t *Table) add(blob []byte, e Entry) {
	code, ok := Extract(blob, e.Slot, t.Order)
	if !ok {
		t.Missing = append(t.Missing, e.Slot)
		return
	}
	e.Code = code
	t.Entries = append(t.Entries, e)
}

// FromCatalog looks up every catalog key in the blob. Keys whose slot
// isn't available are left out of the table and listed in Missing.
func FromCatalog(blob []byte, keys []catalog.Key, order ByteOrder) *Table {
	t := &Table{
		Order: order,
		Named: true,
	}

	sorted := append([]catalog.Key(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Slot < sorted[j].Slot
	})

	for _, k := range sorted {
		t.add(blob, Entry{
			Name:   k.Name,
			VKCode: k.VKCode,
			Slot:   k.Slot,
		})
	}

	return t
}

// FromSlots looks up a list of slots, in the order given
func FromSlots(blob []byte, slots []int, order ByteOrder) *Table {
	t := &Table{
		Order: order,
	}

	for _, s := range slots {
		t.add(blob, Entry{Slot: s})
	}

	return t
}

func (t *Table) String() string {
	str := fmt.Sprintf("Byte order: %s (unverified)\n", t.Order)

	if !t.Named {
		str += "Sample firmware codes (use a catalog file for full mapping):\n\n"
		for _, e := range t.Entries {
			str += fmt.Sprintf("bIndex %3d (offset %3d) → %s\n", e.Slot, e.Offset(), e.Code)
		}
		return str
	}

	str += fmt.Sprintf("%-8s %-10s %-8s %-8s %-12s\n", "Key", "VK Code", "bIndex", "Offset", "Firmware Code")
	str += strings.Repeat("-", 60) + "\n"
	for _, e := range t.Entries {
		str += fmt.Sprintf("%-8s %-10s %-8d %-8d %s\n", e.Name, e.VKCode, e.Slot, e.Offset(), e.Code)
	}

	return str
}
