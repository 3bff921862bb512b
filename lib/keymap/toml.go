// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package keymap

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/usedbytes/rkmap/lib/capture"
)

type tomlKey struct {
	Name   string `toml:"name,omitempty"`
	VKCode string `toml:"vk_code,omitempty"`
	Slot   int    `toml:"bindex"`
	Offset int    `toml:"offset"`
	Code   string `toml:"code"`
}

type tomlKeymap struct {
	Source          string    `toml:"source,omitempty"`
	ByteOrder       ByteOrder `toml:"byte_order"`
	Header          string    `toml:"header"`
	HeaderConfident bool      `toml:"header_confident"`
	BlobLen         int       `toml:"blob_length"`
	BlobCRC         uint16    `toml:"blob_crc"`
	DataFile        string    `toml:"data_file"`
	Missing         []int     `toml:"missing,omitempty"`
	Keys            []tomlKey `toml:"key"`
}

func removeIfTrue(file string, cond *bool) {
	if *cond {
		os.Remove(file)
	}
}

// WriteTOML writes the table to 'file', and the raw blob alongside it as
// <base>.blob.bin. Nothing is left behind on failure.
func (t *Table) WriteTOML(file, source string, blob *capture.Blob) error {
	tk := tomlKeymap{
		Source:          source,
		ByteOrder:       t.Order,
		Header:          blob.Header.String(),
		HeaderConfident: blob.Header.Confident(),
		BlobLen:         len(blob.Data),
		BlobCRC:         blob.Fingerprint(),
		Missing:         t.Missing,
	}

	for _, e := range t.Entries {
		tk.Keys = append(tk.Keys, tomlKey{
			Name:   e.Name,
			VKCode: e.VKCode,
			Slot:   e.Slot,
			Offset: e.Offset(),
			Code:   e.Code.String(),
		})
	}

	fail := true

	dir := filepath.Dir(file)
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	tk.DataFile = base + ".blob.bin"
	fullname := filepath.Join(dir, tk.DataFile)

	err := ioutil.WriteFile(fullname, blob.Data, 0644)
	if err != nil {
		return errors.Wrap(err, "Writing blob")
	}
	defer removeIfTrue(fullname, &fail)

	f, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "Creating keymap file")
	}
	defer removeIfTrue(file, &fail)

	enc := toml.NewEncoder(f)
	err = enc.Encode(&tk)
	if err != nil {
		f.Close()
		return errors.Wrap(err, "Encoding keymap")
	}

	err = f.Close()
	if err != nil {
		return errors.Wrap(err, "Closing keymap file")
	}

	// Prevent cleanup
	fail = false

	return nil
}
