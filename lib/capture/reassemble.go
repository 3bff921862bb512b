// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package capture

import "github.com/sigurn/crc16"

// HeaderVariant describes how many leading bytes of a report are header
type HeaderVariant int

const (
	// Positions 1-8: 0a 09 <pos>
	HeaderFixed HeaderVariant = iota
	// Position 0: 0a 09 01 01 f8
	Header5
	// Position 0: 0a 09 01 f8
	Header4
	// Position 0, neither of the above. 3 bytes is a guess.
	HeaderUnknown
)

func (h HeaderVariant) Len() int {
	switch h {
	case Header5:
		return 5
	case Header4:
		return 4
	}

	return 3
}

// Confident is false only for the fallback guess
func (h HeaderVariant) Confident() bool {
	return h != HeaderUnknown
}

func (h HeaderVariant) String() string {
	switch h {
	case HeaderFixed:
		return "fixed (3 bytes)"
	case Header5:
		return "01 f8 (5 bytes)"
	case Header4:
		return "f8 (4 bytes)"
	case HeaderUnknown:
		return "unknown (guessed 3 bytes)"
	}

	return "???"
}

func firstHeader(data []byte) HeaderVariant {
	if len(data) >= 5 && data[3] == 0x01 && data[4] == 0xf8 {
		return Header5
	} else if len(data) >= 4 && data[3] == 0xf8 {
		return Header4
	}

	return HeaderUnknown
}

// Blob is the configuration data reassembled from a set of reports.
type Blob struct {
	Data        []byte
	Header      HeaderVariant
	Diagnostics []Diagnostic
}

// Complete reports whether the blob has exactly the expected length
func (b *Blob) Complete() bool {
	return len(b.Data) == BlobLen
}

func (b *Blob) warn(d Diagnostic) {
	b.Diagnostics = append(b.Diagnostics, d)
}

// Reassemble strips the per-report headers and concatenates the payloads
// of the first NumReports reports, in order. It never fails: anything
// unexpected is recorded in the returned Blob's Diagnostics.
func Reassemble(reports []Report) *Blob {
	blob := &Blob{
		Data:   make([]byte, 0, BlobLen),
		Header: HeaderUnknown,
	}

	if len(reports) != NumReports {
		blob.warn(diag(ReportCount, -1, "expected %d reports, got %d", NumReports, len(reports)))
	}
	if len(reports) > NumReports {
		reports = reports[:NumReports]
	}

	for i, r := range reports {
		hdr := HeaderFixed
		if i == 0 {
			hdr = firstHeader(r.Data)
			blob.Header = hdr
			if !hdr.Confident() {
				blob.warn(diag(UnrecognizedHeader, i, "unexpected leading bytes %s, guessing %d byte header",
					leadingBytes(r.Data, 5), hdr.Len()))
			}
		}

		if !r.HasSentinel() {
			blob.warn(diag(BadSentinel, i, "expected leading bytes 0a09, got %s", leadingBytes(r.Data, 2)))
			continue
		}

		if len(r.Data) != ReportLen {
			blob.warn(diag(ReportLength, i, "expected %d bytes, got %d", ReportLen, len(r.Data)))
		}

		if len(r.Data) < hdr.Len() {
			blob.warn(diag(ShortReport, i, "%d bytes is shorter than the %d byte header", len(r.Data), hdr.Len()))
			continue
		}

		blob.Data = append(blob.Data, r.Data[hdr.Len():]...)
	}

	if len(blob.Data) != BlobLen {
		blob.warn(diag(BlobLength, -1, "expected %d bytes, reassembled %d", BlobLen, len(blob.Data)))
	}

	return blob
}

var crct = crc16.MakeTable(crc16.CRC16_XMODEM)

// Fingerprint is the CRC-16/XMODEM of the blob data. It's only for telling
// captures apart, the device doesn't check it.
func (b *Blob) Fingerprint() uint16 {
	return crc16.Checksum(b.Data, crct)
}
