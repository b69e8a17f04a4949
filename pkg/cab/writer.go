package cab

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Entry is a file to add to a new cabinet
type Entry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Write creates a single-folder cabinet holding entries in order
func Write(w io.Writer, entries []Entry, compression Compression) error {
	switch compression {
	case CompressNone, CompressMSZIP:
	default:
		return fmt.Errorf("cannot write %s folders: %w", compression, ErrUnsupportedCompression)
	}

	// Lay out the uncompressed folder stream
	var stream bytes.Buffer
	var files bytes.Buffer
	for _, e := range entries {
		if len(e.Name) == 0 || len(e.Name) > 255 {
			return fmt.Errorf("invalid member name %q", e.Name)
		}

		attribs := uint16(attribArchive)
		if !isASCII(e.Name) && utf8.ValidString(e.Name) {
			attribs |= attribNameIsUTF8
		}
		d, t := toDOSTime(e.ModTime)

		fe := fileEntry{
			Size:         uint32(len(e.Data)),
			FolderOffset: uint32(stream.Len()),
			Folder:       0,
			Date:         d,
			Time:         t,
			Attributes:   attribs,
		}
		binary.Write(&files, binary.LittleEndian, fe)
		files.WriteString(e.Name)
		files.WriteByte(0)

		stream.Write(e.Data)
	}

	blocks, err := encodeBlocks(stream.Bytes(), compression)
	if err != nil {
		return err
	}

	const headerSize = 36
	const folderSize = 8
	dataOffset := headerSize + folderSize + files.Len()
	total := dataOffset
	for _, b := range blocks {
		total += 8 + len(b.data)
	}

	h := header{
		CabinetSize:  uint32(total),
		FilesOffset:  headerSize + folderSize,
		VersionMinor: 3,
		VersionMajor: 1,
		Folders:      1,
		Files:        uint16(len(entries)),
	}
	copy(h.Signature[:], Signature)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, h)
	binary.Write(&out, binary.LittleEndian, folderEntry{
		DataOffset:  uint32(dataOffset),
		DataBlocks:  uint16(len(blocks)),
		Compression: uint16(compression),
	})
	out.Write(files.Bytes())
	for _, b := range blocks {
		binary.Write(&out, binary.LittleEndian, dataHeader{
			Compressed:   uint16(len(b.data)),
			Uncompressed: uint16(b.size),
		})
		out.Write(b.data)
	}

	_, err = w.Write(out.Bytes())
	return err
}

type block struct {
	data []byte
	size int
}

func encodeBlocks(stream []byte, compression Compression) ([]block, error) {
	var blocks []block
	var window []byte
	for off := 0; off < len(stream); off += maxBlockSize {
		end := off + maxBlockSize
		if end > len(stream) {
			end = len(stream)
		}
		chunk := stream[off:end]

		if compression == CompressNone {
			blocks = append(blocks, block{data: chunk, size: len(chunk)})
			continue
		}

		var buf bytes.Buffer
		buf.WriteString("CK")
		zw, err := flate.NewWriterDict(&buf, flate.DefaultCompression, window)
		if err != nil {
			return nil, fmt.Errorf("failed to create MSZIP encoder: %w", err)
		}
		if _, err := zw.Write(chunk); err != nil {
			return nil, fmt.Errorf("failed to compress block: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to compress block: %w", err)
		}
		if buf.Len() > maxBlockSize+12 {
			return nil, fmt.Errorf("compressed block too large: %d bytes", buf.Len())
		}
		blocks = append(blocks, block{data: buf.Bytes(), size: len(chunk)})
		window = chunk
	}
	return blocks, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
