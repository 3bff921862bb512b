// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package capture

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/usedbytes/log"
)

// Lines carrying key mapping reports start with this
const linePrefix = "0a09"

// Longest line read from a capture. Unrelated lines can be long (pasted
// dumps), so this is well beyond any report.
const maxLineLen = 16 * 1024 * 1024

// Capture holds the reports read from a capture dump.
type Capture struct {
	Reports []Report
	// Number of qualifying lines seen, which may be more than len(Reports)
	Lines       int
	Diagnostics []Diagnostic
}

// Parse reads the capture dump at path
func Parse(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Opening capture file")
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader reads a capture dump: one hex-encoded report per line,
// optionally space-separated. Only the first NumReports lines starting
// with 0a09 are decoded, everything else is ignored.
func ParseReader(r io.Reader) (*Capture, error) {
	c := &Capture{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLen)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.ReplaceAll(strings.TrimSpace(scanner.Text()), " ", "")
		if !strings.HasPrefix(strings.ToLower(line), linePrefix) {
			continue
		}

		c.Lines++
		if c.Lines > NumReports {
			continue
		}

		data, err := hex.DecodeString(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid hex", lineNum)
		}

		log.Verbosef("Line %d: report %d (%d bytes)\n", lineNum, len(c.Reports), len(data))

		c.Reports = append(c.Reports, Report{
			Position: len(c.Reports),
			Data:     data,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Reading capture")
	}

	if c.Lines != NumReports {
		c.Diagnostics = append(c.Diagnostics,
			diag(ReportCount, -1, "expected %d buffers, found %d", NumReports, c.Lines))
	}

	return c, nil
}

// Reassemble builds the blob from the capture's reports. The capture's
// own diagnostics come first, and a report count problem is only reported
// once.
func (c *Capture) Reassemble() *Blob {
	blob := Reassemble(c.Reports)

	diags := append([]Diagnostic(nil), c.Diagnostics...)
	for _, d := range blob.Diagnostics {
		if d.Kind == ReportCount && len(c.Diagnostics) != 0 {
			continue
		}
		diags = append(diags, d)
	}
	blob.Diagnostics = diags

	return blob
}
