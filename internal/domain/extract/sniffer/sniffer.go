// Package sniffer provides content-based detection of payroll statement
// formats. The provincial payroll system emits plain-text payloads with a
// .pdf extension, so the filename is never trusted: only the leading bytes
// of the document decide how it is read.
package sniffer

import "bytes"

// Classification is the detected on-disk format of a statement.
type Classification int

const (
	// PlainText is a text payload, regardless of how the file is named.
	PlainText Classification = iota
	// RealDocument is a genuine PDF, identified by its magic signature.
	RealDocument
)

// pdfMagic is the signature every real PDF starts with.
var pdfMagic = []byte("%PDF-")

// Classify inspects the leading bytes of data and reports whether it is a
// real PDF or a plain-text payload. Empty input classifies as PlainText;
// Classify never fails.
func Classify(data []byte) Classification {
	if bytes.HasPrefix(data, pdfMagic) {
		return RealDocument
	}
	return PlainText
}

func (c Classification) String() string {
	switch c {
	case RealDocument:
		return "pdf"
	default:
		return "text"
	}
}
