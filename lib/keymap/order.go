// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package keymap

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder selects how the 4 bytes of a slot are composed into a
// firmware code. The order used by the keyboard hasn't been confirmed, so
// it's always up to the caller.
type ByteOrder string

const (
	BigEndian    ByteOrder = "big"
	LittleEndian ByteOrder = "little"

	DefaultByteOrder = BigEndian
)

func ParseByteOrder(str string) (ByteOrder, error) {
	switch ByteOrder(str) {
	case BigEndian, "be", "msb":
		return BigEndian, nil
	case LittleEndian, "le", "lsb":
		return LittleEndian, nil
	}

	return "", fmt.Errorf("unrecognised byte order: '%s'", str)
}

func (o ByteOrder) String() string {
	return string(o) + "-endian"
}

func (o *ByteOrder) UnmarshalText(text []byte) error {
	parsed, err := ParseByteOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o ByteOrder) MarshalText() ([]byte, error) {
	return []byte(o), nil
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
