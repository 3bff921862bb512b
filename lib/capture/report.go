// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package capture

import (
	"encoding/hex"
	"fmt"
)

const (
	// ReportLen is the size of a single HID report buffer, report ID included
	ReportLen int = 65
	// NumReports is the number of reports carrying the key mapping
	NumReports int = 9
	// BlobLen is the expected size of the reassembled configuration
	BlobLen int = 585
)

var sentinel = [2]byte{0x0a, 0x09}

// Report is one captured HID report buffer and its position in the
// capture.
type Report struct {
	Position int
	Data     []byte
}

func (r Report) HasSentinel() bool {
	return len(r.Data) >= 2 && r.Data[0] == sentinel[0] && r.Data[1] == sentinel[1]
}

func leadingBytes(a []byte, n int) string {
	if len(a) < n {
		n = len(a)
	}
	return hex.EncodeToString(a[:n])
}

func (r Report) String() string {
	return fmt.Sprintf("report %d: %d bytes, %s...", r.Position, len(r.Data), leadingBytes(r.Data, 5))
}

type DiagnosticKind int

const (
	ReportCount DiagnosticKind = iota
	UnrecognizedHeader
	BadSentinel
	ShortReport
	ReportLength
	BlobLength
)

func (k DiagnosticKind) String() string {
	switch k {
	case ReportCount:
		return "report count"
	case UnrecognizedHeader:
		return "unrecognised header"
	case BadSentinel:
		return "bad sentinel"
	case ShortReport:
		return "short report"
	case ReportLength:
		return "report length"
	case BlobLength:
		return "blob length"
	}

	return "???"
}

// Diagnostic is a non-fatal problem found while reading or reassembling a
// capture. Position is -1 when it doesn't relate to a single report.
type Diagnostic struct {
	Kind     DiagnosticKind
	Position int
	Msg      string
}

func (d Diagnostic) String() string {
	if d.Position < 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Msg)
	}
	return fmt.Sprintf("%s (report %d): %s", d.Kind, d.Position, d.Msg)
}

func diag(kind DiagnosticKind, pos int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Position: pos,
		Msg:      fmt.Sprintf(format, args...),
	}
}
