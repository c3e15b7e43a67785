package imgutil

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies a supported image format.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatSVG
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatSVG:
		return "svg"
	default:
		return "unknown"
	}
}

const headerLen = 16

var (
	pngSig  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig = []byte{0xff, 0xd8, 0xff}
	riffSig = []byte("RIFF")
	webpSig = []byte("WEBP")
)

// DetectHeader inspects the first bytes of a file for known signatures.
// SVG has no binary magic; any header starting with an XML declaration
// or an <svg> tag is treated as SVG.
func DetectHeader(header []byte) (Format, error) {
	if len(header) < 8 {
		return FormatUnknown, errors.New("header too short")
	}

	if bytes.HasPrefix(header, jpegSig) {
		return FormatJPEG, nil
	}
	if bytes.HasPrefix(header, pngSig) {
		return FormatPNG, nil
	}
	if len(header) >= 12 && bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], webpSig) {
		return FormatWebP, nil
	}
	if looksLikeSVG(header) {
		return FormatSVG, nil
	}

	return FormatUnknown, nil
}

func looksLikeSVG(header []byte) bool {
	trimmed := bytes.TrimLeft(header, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(trimmed, []byte("<?xml")) ||
		bytes.HasPrefix(trimmed, []byte("<svg")) ||
		bytes.HasPrefix(trimmed, []byte("<!DOCTYPE svg")) ||
		bytes.HasPrefix(trimmed, []byte("<!--"))
}

// SniffBytes determines the format of in-memory file data.
func SniffBytes(data []byte) (Format, error) {
	if len(data) > headerLen {
		data = data[:headerLen]
	}
	return DetectHeader(data)
}

// FormatForExtension maps a file extension to its format. The extension
// may be passed with or without the leading dot; matching is
// case-insensitive.
func FormatForExtension(ext string) Format {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "webp":
		return FormatWebP
	case "svg":
		return FormatSVG
	default:
		return FormatUnknown
	}
}

// FormatForPath maps a file path to a format based on its extension.
func FormatForPath(path string) Format {
	return FormatForExtension(filepath.Ext(path))
}
