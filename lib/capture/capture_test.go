// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package capture

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

// makeReport builds a ReportLen report starting with hdr, the rest filled
// with fill.
func makeReport(pos int, hdr []byte, fill byte) Report {
	data := bytes.Repeat([]byte{fill}, ReportLen)
	copy(data, hdr)
	return Report{Position: pos, Data: data}
}

func makeReports(first []byte) []Report {
	reports := []Report{makeReport(0, first, 0xa0)}
	for i := 1; i < NumReports; i++ {
		reports = append(reports, makeReport(i, []byte{0x0a, 0x09, byte(i)}, 0xa0+byte(i)))
	}
	return reports
}

func hasDiag(diags []Diagnostic, kind DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestReassembleLength(t *testing.T) {
	tests := []struct {
		name   string
		first  []byte
		header HeaderVariant
	}{
		{"01 f8", []byte{0x0a, 0x09, 0x01, 0x01, 0xf8}, Header5},
		{"f8", []byte{0x0a, 0x09, 0x01, 0xf8}, Header4},
		{"unknown", []byte{0x0a, 0x09, 0x01, 0x02, 0x03}, HeaderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := Reassemble(makeReports(tt.first))

			if blob.Header != tt.header {
				t.Fatalf("header: expected %s, got %s", tt.header, blob.Header)
			}

			expected := (ReportLen - tt.header.Len()) + (NumReports-1)*(ReportLen-3)
			if len(blob.Data) != expected {
				t.Fatalf("length: expected %d, got %d", expected, len(blob.Data))
			}

			if !bytes.Equal(blob.Data[:ReportLen-tt.header.Len()], makeReports(tt.first)[0].Data[tt.header.Len():]) {
				t.Errorf("report 0 payload mismatch")
			}
		})
	}
}

func TestReassembleScenario(t *testing.T) {
	// 5 byte header: 60 + 8 * 62
	blob := Reassemble(makeReports([]byte{0x0a, 0x09, 0x01, 0x01, 0xf8}))
	if len(blob.Data) != 556 {
		t.Fatalf("expected 556 bytes, got %d", len(blob.Data))
	}

	if blob.Complete() {
		t.Errorf("556 bytes shouldn't be complete")
	}
	if !hasDiag(blob.Diagnostics, BlobLength) {
		t.Errorf("expected a blob length diagnostic")
	}
	if hasDiag(blob.Diagnostics, UnrecognizedHeader) || hasDiag(blob.Diagnostics, ReportCount) {
		t.Errorf("unexpected diagnostics: %v", blob.Diagnostics)
	}
}

func TestReassembleUnknownHeader(t *testing.T) {
	reports := makeReports([]byte{0x0a, 0x09, 0x01, 0x55, 0x66})
	blob := Reassemble(reports)

	if blob.Header.Confident() {
		t.Fatalf("fallback header reported as confident")
	}
	if !hasDiag(blob.Diagnostics, UnrecognizedHeader) {
		t.Fatalf("expected an unrecognised header diagnostic")
	}

	for _, d := range blob.Diagnostics {
		if d.Kind == UnrecognizedHeader && !strings.Contains(d.Msg, "0a09015566") {
			t.Errorf("diagnostic should name the leading bytes: %s", d)
		}
	}

	if !bytes.Equal(blob.Data[:2], []byte{0x55, 0x66}) {
		t.Errorf("expected payload from byte 3, got %s", hex.EncodeToString(blob.Data[:2]))
	}
}

func TestReassembleOrder(t *testing.T) {
	first := []byte{0x0a, 0x09, 0x01, 0x01, 0xf8}
	a := Reassemble(makeReports(first)).Data

	swapped := makeReports(first)
	swapped[2], swapped[5] = swapped[5], swapped[2]
	b := Reassemble(swapped).Data

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}

	payload := ReportLen - 3
	rangeOf := func(pos int) (int, int) {
		start := (ReportLen - 5) + (pos-1)*payload
		return start, start + payload
	}

	s2, e2 := rangeOf(2)
	s5, e5 := rangeOf(5)
	for i := range a {
		inSwapped := (i >= s2 && i < e2) || (i >= s5 && i < e5)
		if inSwapped && a[i] == b[i] {
			t.Fatalf("byte %d should have changed", i)
		} else if !inSwapped && a[i] != b[i] {
			t.Fatalf("byte %d shouldn't have changed", i)
		}
	}

	if !bytes.Equal(a[s2:e2], b[s5:e5]) || !bytes.Equal(a[s5:e5], b[s2:e2]) {
		t.Errorf("payloads weren't moved with their reports")
	}
}

func TestReassembleCount(t *testing.T) {
	first := []byte{0x0a, 0x09, 0x01, 0xf8}

	short := makeReports(first)[:4]
	blob := Reassemble(short)
	if !hasDiag(blob.Diagnostics, ReportCount) {
		t.Errorf("expected a report count diagnostic")
	}
	if len(blob.Data) != (ReportLen-4)+3*(ReportLen-3) {
		t.Errorf("unexpected length %d", len(blob.Data))
	}

	long := append(makeReports(first), makeReport(9, []byte{0x0a, 0x09, 0x09}, 0xff))
	blob = Reassemble(long)
	if !hasDiag(blob.Diagnostics, ReportCount) {
		t.Errorf("expected a report count diagnostic")
	}
	if bytes.IndexByte(blob.Data, 0xff) >= 0 {
		t.Errorf("tenth report shouldn't be used")
	}

	blob = Reassemble(nil)
	if len(blob.Data) != 0 {
		t.Errorf("expected empty blob, got %d bytes", len(blob.Data))
	}
}

func TestReassembleBadReports(t *testing.T) {
	reports := makeReports([]byte{0x0a, 0x09, 0x01, 0xf8})
	reports[3].Data[0] = 0x0b
	reports[6].Data = reports[6].Data[:2]
	reports[7].Data = reports[7].Data[:40]

	blob := Reassemble(reports)

	for _, kind := range []DiagnosticKind{BadSentinel, ShortReport, ReportLength, BlobLength} {
		if !hasDiag(blob.Diagnostics, kind) {
			t.Errorf("expected a %s diagnostic", kind)
		}
	}

	expected := (ReportLen - 4) + 5*(ReportLen-3) + (40 - 3)
	if len(blob.Data) != expected {
		t.Errorf("expected %d bytes, got %d", expected, len(blob.Data))
	}
	if bytes.IndexByte(blob.Data, 0xa3) >= 0 {
		t.Errorf("report with bad sentinel shouldn't be used")
	}
}

func captureText(n int) string {
	var sb strings.Builder
	sb.WriteString("Frame 1: 65 bytes on wire\n\n")
	for i := 0; i < n; i++ {
		r := makeReport(i, []byte{0x0a, 0x09, byte(i + 1)}, byte(i))
		if i == 0 {
			r = makeReport(0, []byte{0x0a, 0x09, 0x01, 0xf8}, 0x00)
		}
		h := hex.EncodeToString(r.Data)
		// Spaces inside a line are allowed
		fmt.Fprintf(&sb, "  %s %s\n", h[:10], h[10:])
		sb.WriteString("0b0900000000\n")
	}
	return sb.String()
}

func TestParseReader(t *testing.T) {
	c, err := ParseReader(strings.NewReader(captureText(NumReports)))
	if err != nil {
		t.Fatal(err)
	}

	if len(c.Reports) != NumReports || c.Lines != NumReports {
		t.Fatalf("expected %d reports, got %d (%d lines)", NumReports, len(c.Reports), c.Lines)
	}
	if len(c.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", c.Diagnostics)
	}

	for i, r := range c.Reports {
		if r.Position != i {
			t.Errorf("report %d has position %d", i, r.Position)
		}
		if len(r.Data) != ReportLen {
			t.Errorf("report %d has %d bytes", i, len(r.Data))
		}
	}

	blob := c.Reassemble()
	if blob.Header != Header4 {
		t.Errorf("expected %s, got %s", Header4, blob.Header)
	}
	if len(blob.Data) != 557 {
		t.Errorf("expected 557 bytes, got %d", len(blob.Data))
	}
}

func TestParseReaderCount(t *testing.T) {
	c, err := ParseReader(strings.NewReader(captureText(11)))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Reports) != NumReports || c.Lines != 11 {
		t.Fatalf("expected %d of 11 reports, got %d of %d", NumReports, len(c.Reports), c.Lines)
	}
	if !hasDiag(c.Diagnostics, ReportCount) {
		t.Errorf("expected a report count diagnostic")
	}

	c, err = ParseReader(strings.NewReader(captureText(3)))
	if err != nil {
		t.Fatal(err)
	}

	blob := c.Reassemble()
	n := 0
	for _, d := range blob.Diagnostics {
		if d.Kind == ReportCount {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected one report count diagnostic, got %d", n)
	}
}

func TestParseReaderInvalidHex(t *testing.T) {
	text := "0a0901f8\n0a09zz00\n"
	_, err := ParseReader(strings.NewReader(text))
	if err == nil {
		t.Fatal("expected an error for invalid hex")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
}

func TestParseReaderUpperCase(t *testing.T) {
	text := strings.ToUpper(captureText(NumReports))
	c, err := ParseReader(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Reports) != NumReports {
		t.Fatalf("expected %d reports, got %d", NumReports, len(c.Reports))
	}
	if blob := c.Reassemble(); len(blob.Data) != 557 {
		t.Errorf("expected 557 bytes, got %d", len(blob.Data))
	}
}

func TestParseReaderLongLine(t *testing.T) {
	text := strings.Repeat("ff ", 100*1024) + "\n" + captureText(NumReports)
	c, err := ParseReader(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Reports) != NumReports {
		t.Errorf("expected %d reports, got %d", NumReports, len(c.Reports))
	}
}
