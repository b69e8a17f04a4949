// Package fileversion reads the fixed version resource of PE images.
package fileversion

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"
)

// fixedFileInfoSignature is VS_FIXEDFILEINFO.dwSignature
const fixedFileInfoSignature = 0xFEEF04BD

// vsVersionInfoKey is "VS_VERSION_INFO" in UTF-16LE
var vsVersionInfoKey = utf16le("VS_VERSION_INFO")

// Read returns the file version of the image at path as "major.minor.build.revision".
// It returns an empty string when the file is not a PE image or has no version resource.
func Read(path string) string {
	f, err := pe.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	section := f.Section(".rsrc")
	if section == nil {
		return ""
	}

	data, err := section.Data()
	if err != nil {
		return ""
	}

	version, _ := parseFixedFileInfo(data)
	return version
}

// HasVersion reports whether the image at path carries a version resource
func HasVersion(path string) bool {
	return Read(path) != ""
}

// parseFixedFileInfo finds VS_FIXEDFILEINFO inside raw resource data
func parseFixedFileInfo(data []byte) (string, bool) {
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], fixedFileInfoSignature)

	// Prefer the copy that follows a VS_VERSION_INFO key
	start := 0
	if i := bytes.Index(data, vsVersionInfoKey); i >= 0 {
		start = i
	}

	for offset := start; offset < len(data); {
		i := bytes.Index(data[offset:], sig[:])
		if i < 0 {
			break
		}
		pos := offset + i

		// signature, struct version, file version MS, file version LS
		if pos+16 <= len(data) {
			ms := binary.LittleEndian.Uint32(data[pos+8:])
			ls := binary.LittleEndian.Uint32(data[pos+12:])
			return fmt.Sprintf("%d.%d.%d.%d", ms>>16, ms&0xFFFF, ls>>16, ls&0xFFFF), true
		}
		offset = pos + 4
	}

	if start > 0 {
		return parseFixedFileInfo(data[:start])
	}
	return "", false
}

func utf16le(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}
