// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func replaceFilenameChars(in string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' {
			return '_'
		}

		if strings.ContainsRune("\t\n\f\r%<>/'\"\\`:{}()$+*?|@!", r) {
			return -1
		}

		return r
	}, in)
}

// ExportFilename names the TOML export for a capture, so that exports of
// different captures (or different contents) don't collide.
func (p *Profile) ExportFilename(captureFile string, crc uint16) string {
	var parts []string

	parts = append(parts, "keymap")

	if len(p.Name) != 0 {
		parts = append(parts, p.Name)
	}

	base := filepath.Base(captureFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if len(base) != 0 {
		parts = append(parts, base)
	}

	fname := fmt.Sprintf("%s.%04x.toml", strings.Join(parts, "_"), crc)

	return replaceFilenameChars(fname)
}
