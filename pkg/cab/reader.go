package cab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"
)

type header struct {
	Signature    [4]byte
	Reserved1    uint32
	CabinetSize  uint32
	Reserved2    uint32
	FilesOffset  uint32
	Reserved3    uint32
	VersionMinor uint8
	VersionMajor uint8
	Folders      uint16
	Files        uint16
	Flags        uint16
	SetID        uint16
	Index        uint16
}

type folderEntry struct {
	DataOffset  uint32
	DataBlocks  uint16
	Compression uint16
}

type fileEntry struct {
	Size         uint32
	FolderOffset uint32
	Folder       uint16
	Date         uint16
	Time         uint16
	Attributes   uint16
}

// Cabinet is an opened cabinet archive
type Cabinet struct {
	Folders []Folder
	Files   []*File
	SetID   uint16
	Index   uint16

	r           io.ReaderAt
	size        int64
	dataReserve int
	closer      io.Closer
}

// IsCabinet reports whether r starts with the cabinet signature
func IsCabinet(r io.Reader) bool {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return false
	}
	return string(sig[:]) == Signature
}

// IsCabinetFile reports whether the file at path starts with the cabinet signature
func IsCabinetFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return IsCabinet(f)
}

// Open opens a cabinet file from disk
func Open(path string) (*Cabinet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cabinet: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat cabinet: %w", err)
	}

	c, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.closer = f
	return c, nil
}

// NewReader parses the cabinet directory from r
func NewReader(r io.ReaderAt, size int64) (*Cabinet, error) {
	sr := io.NewSectionReader(r, 0, size)

	var h header
	if err := binary.Read(sr, binary.LittleEndian, &h); err != nil {
		return nil, ErrNotCabinet
	}
	if string(h.Signature[:]) != Signature {
		return nil, ErrNotCabinet
	}

	c := &Cabinet{r: r, size: size, SetID: h.SetID, Index: h.Index}

	folderReserve := 0
	if h.Flags&flagReservePresent != 0 {
		var reserve struct {
			Header uint16
			Folder uint8
			Data   uint8
		}
		if err := binary.Read(sr, binary.LittleEndian, &reserve); err != nil {
			return nil, fmt.Errorf("%w: truncated reserve fields", ErrCorrupt)
		}
		if _, err := sr.Seek(int64(reserve.Header), io.SeekCurrent); err != nil {
			return nil, err
		}
		folderReserve = int(reserve.Folder)
		c.dataReserve = int(reserve.Data)
	}

	// Names of neighbouring cabinets are skipped
	skip := 0
	if h.Flags&flagPrevCabinet != 0 {
		skip += 2
	}
	if h.Flags&flagNextCabinet != 0 {
		skip += 2
	}
	for i := 0; i < skip; i++ {
		if _, err := readCString(sr); err != nil {
			return nil, fmt.Errorf("%w: truncated cabinet set names", ErrCorrupt)
		}
	}

	for i := 0; i < int(h.Folders); i++ {
		var fe folderEntry
		if err := binary.Read(sr, binary.LittleEndian, &fe); err != nil {
			return nil, fmt.Errorf("%w: truncated folder table", ErrCorrupt)
		}
		if _, err := sr.Seek(int64(folderReserve), io.SeekCurrent); err != nil {
			return nil, err
		}
		c.Folders = append(c.Folders, Folder{
			DataOffset:  fe.DataOffset,
			DataBlocks:  fe.DataBlocks,
			Compression: Compression(fe.Compression & 0x000F),
		})
	}

	if _, err := sr.Seek(int64(h.FilesOffset), io.SeekStart); err != nil {
		return nil, err
	}
	for i := 0; i < int(h.Files); i++ {
		var fe fileEntry
		if err := binary.Read(sr, binary.LittleEndian, &fe); err != nil {
			return nil, fmt.Errorf("%w: truncated file table", ErrCorrupt)
		}
		raw, err := readCString(sr)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated file name", ErrCorrupt)
		}

		name := string(raw)
		if fe.Attributes&attribNameIsUTF8 == 0 {
			if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
				name = string(decoded)
			}
		}

		c.Files = append(c.Files, &File{
			Name:        name,
			Size:        fe.Size,
			Offset:      fe.FolderOffset,
			FolderIndex: fe.Folder,
			Date:        fe.Date,
			Time:        fe.Time,
			Attributes:  fe.Attributes,
		})
	}

	return c, nil
}

// Close releases the underlying file when the cabinet was opened from disk
func (c *Cabinet) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Extract writes the contents of a member to w
func (c *Cabinet) Extract(f *File, w io.Writer) error {
	if f.FolderIndex >= folderContinued {
		return fmt.Errorf("%s: %w", f.Name, ErrSpanned)
	}
	if int(f.FolderIndex) >= len(c.Folders) {
		return fmt.Errorf("%w: %s references folder %d", ErrCorrupt, f.Name, f.FolderIndex)
	}

	folder := c.Folders[f.FolderIndex]
	switch folder.Compression {
	case CompressNone, CompressMSZIP:
	default:
		return fmt.Errorf("%s uses %s: %w", f.Name, folder.Compression, ErrUnsupportedCompression)
	}

	fr := newFolderReader(c, folder)
	if _, err := io.CopyN(io.Discard, fr, int64(f.Offset)); err != nil {
		return fmt.Errorf("failed to seek to %s: %w", f.Name, err)
	}
	if _, err := io.CopyN(w, fr, int64(f.Size)); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return nil
}

func readCString(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if b[0] == 0 {
			return buf.Bytes(), nil
		}
		if buf.Len() >= 256 {
			return nil, ErrCorrupt
		}
		buf.WriteByte(b[0])
	}
}
