// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package keymap

import "fmt"

// SlotLen is the number of bytes per key slot in the configuration blob
const SlotLen int = 4

// Code is the firmware code assigned to a key slot
type Code uint32

func (c Code) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// Offset returns the byte offset of slot 'index' in the blob
func Offset(index int) int {
	return index * SlotLen
}

func Compose(b [4]byte, order ByteOrder) Code {
	return Code(order.binary().Uint32(b[:]))
}

func Decompose(c Code, order ByteOrder) [4]byte {
	var b [4]byte
	order.binary().PutUint32(b[:], uint32(c))
	return b
}

// Extract returns the code stored for slot 'index'. The second return value
// is false if the slot lies (even partially) outside of the blob, which is
// expected for partial captures.
func Extract(blob []byte, index int, order ByteOrder) (Code, bool) {
	// Bounds are checked in slots so huge indexes can't wrap the offset
	if index < 0 || index >= len(blob)/SlotLen {
		return 0, false
	}
	offs := Offset(index)

	var b [4]byte
	copy(b[:], blob[offs:offs+SlotLen])

	return Compose(b, order), true
}
