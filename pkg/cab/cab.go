// Package cab reads and writes Microsoft cabinet archives.
//
// Stored and MSZIP folders are supported. Quantum and LZX folders can be
// listed but not extracted.
package cab

import (
	"errors"
	"time"
)

// Signature is the magic number at the start of every cabinet
const Signature = "MSCF"

// Compression identifies how a folder's data blocks are encoded
type Compression uint16

const (
	CompressNone    Compression = 0
	CompressMSZIP   Compression = 1
	CompressQuantum Compression = 2
	CompressLZX     Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressMSZIP:
		return "mszip"
	case CompressQuantum:
		return "quantum"
	case CompressLZX:
		return "lzx"
	default:
		return "unknown"
	}
}

const (
	flagPrevCabinet    = 0x0001
	flagNextCabinet    = 0x0002
	flagReservePresent = 0x0004

	attribNameIsUTF8 = 0x80
	attribArchive    = 0x20

	// folder indexes at or above this value continue into another cabinet
	folderContinued = 0xFFFD

	maxBlockSize = 32768
)

var (
	// ErrNotCabinet is returned when the signature does not match
	ErrNotCabinet = errors.New("not a cabinet file")
	// ErrUnsupportedCompression is returned when extracting Quantum or LZX data
	ErrUnsupportedCompression = errors.New("unsupported cabinet compression")
	// ErrSpanned is returned when a file continues into another cabinet
	ErrSpanned = errors.New("file spans multiple cabinets")
	// ErrCorrupt is returned for structurally invalid archives
	ErrCorrupt = errors.New("corrupt cabinet")
)

// File is a member of a cabinet
type File struct {
	Name        string
	Size        uint32
	Offset      uint32 // uncompressed offset inside the folder
	FolderIndex uint16
	Date        uint16
	Time        uint16
	Attributes  uint16
}

// ModTime decodes the DOS date and time stamps
func (f *File) ModTime() time.Time {
	return fromDOSTime(f.Date, f.Time)
}

// Folder is a run of data blocks sharing one compression method
type Folder struct {
	DataOffset  uint32
	DataBlocks  uint16
	Compression Compression
}

func fromDOSTime(d, t uint16) time.Time {
	return time.Date(
		int(d>>9)+1980, time.Month((d>>5)&0x0F), int(d&0x1F),
		int(t>>11), int((t>>5)&0x3F), int(t&0x1F)*2,
		0, time.UTC,
	)
}

func toDOSTime(ts time.Time) (uint16, uint16) {
	if ts.Year() < 1980 {
		ts = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	d := uint16(ts.Year()-1980)<<9 | uint16(ts.Month())<<5 | uint16(ts.Day())
	t := uint16(ts.Hour())<<11 | uint16(ts.Minute())<<5 | uint16(ts.Second()/2)
	return d, t
}
