// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/usedbytes/log"
)

// LoadProfile reads a TOML profile. Anything not set in the file keeps
// its default.
func LoadProfile(filename string) (*Profile, error) {
	p := DefaultProfile()

	md, err := toml.DecodeFile(filename, p)
	if err != nil {
		return nil, errors.Wrap(err, "Loading profile")
	}

	for _, k := range md.Undecoded() {
		log.Println("WARNING: Unknown profile key:", k)
	}

	for _, s := range p.SampleSlots {
		if s < 0 {
			return nil, errors.Errorf("negative sample slot %d", s)
		}
	}

	if len(p.Catalog) != 0 && !filepath.IsAbs(p.Catalog) {
		abs, err := filepath.Abs(filename)
		if err != nil {
			return nil, errors.New("couldn't determine absolute path")
		}
		p.Catalog = filepath.Join(filepath.Dir(abs), p.Catalog)
	}

	return p, nil
}

func (p *Profile) WriteTOML(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "Creating profile")
	}

	enc := toml.NewEncoder(f)
	err = enc.Encode(p)
	if err != nil {
		f.Close()
		return errors.Wrap(err, "Encoding profile")
	}

	return errors.Wrap(f.Close(), "Closing profile")
}
