// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package catalog

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/usedbytes/log"
)

const keySection = "[KEY]"

const maxLineLen = 16 * 1024 * 1024

// Key lines look like:
//   K1=left,top,right,bottom,flags,vkcode,unknown,bIndex
const (
	vkField   = 5
	slotField = 7
	minFields = 8
)

// Key is one key from a keyboard descriptor (KB.ini)
type Key struct {
	Name   string
	VKCode string
	Slot   int
}

type Catalog struct {
	Keys []Key
	// Lines inside [KEY] which couldn't be used
	Skipped int
}

func Parse(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Opening catalog file")
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader extracts the keys from the [KEY] section of a descriptor.
// Malformed key lines are skipped; only read errors are returned.
func ParseReader(r io.Reader) (*Catalog, error) {
	c := &Catalog{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLen)
	inKeys := false
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == keySection {
			inKeys = true
			continue
		} else if strings.HasPrefix(line, "[") {
			inKeys = false
		}

		if !inKeys || !strings.HasPrefix(line, "K") {
			continue
		}

		key, err := parseKey(line)
		if err != nil {
			log.Verbosef("Skipping catalog line %d: %v\n", lineNum, err)
			c.Skipped++
			continue
		}

		c.Keys = append(c.Keys, key)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Reading catalog")
	}

	return c, nil
}

func parseKey(line string) (Key, error) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return Key{}, errors.New("no '='")
	}

	fields := strings.Split(line[eq+1:], ",")
	if len(fields) < minFields {
		return Key{}, errors.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	slot, err := strconv.Atoi(strings.TrimSpace(fields[slotField]))
	if err != nil {
		return Key{}, errors.Wrap(err, "parsing bIndex")
	} else if slot < 0 {
		return Key{}, errors.Errorf("negative bIndex %d", slot)
	}

	return Key{
		Name:   strings.TrimSpace(line[:eq]),
		VKCode: strings.TrimSpace(fields[vkField]),
		Slot:   slot,
	}, nil
}
