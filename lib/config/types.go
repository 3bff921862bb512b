// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"fmt"

	"github.com/usedbytes/rkmap/lib/keymap"
)

func stringIfNotEmpty(prefix, val string) string {
	if len(val) > 0 {
		return fmt.Sprintf("%s %s\n", prefix, val)
	}
	return ""
}

// Profile holds the decode settings for one keyboard model
type Profile struct {
	Name      string           `toml:"name,omitempty"`
	ByteOrder keymap.ByteOrder `toml:"byte_order"`
	// Relative paths are relative to the profile file
	Catalog     string `toml:"catalog,omitempty"`
	SampleSlots []int  `toml:"sample_slots,omitempty"`
}

func DefaultProfile() *Profile {
	return &Profile{
		ByteOrder:   keymap.DefaultByteOrder,
		SampleSlots: append([]int(nil), keymap.DefaultSampleSlots...),
	}
}

func (p *Profile) String() string {
	var s string
	s += "Profile:\n"
	s += stringIfNotEmpty("   Name:", p.Name)
	s += stringIfNotEmpty("   ByteOrder:", p.ByteOrder.String())
	s += stringIfNotEmpty("   Catalog:", p.Catalog)
	s += fmt.Sprintf("   SampleSlots: %v\n", p.SampleSlots)
	return s
}
