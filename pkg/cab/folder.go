package cab

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"io"
)

type dataHeader struct {
	Checksum     uint32
	Compressed   uint16
	Uncompressed uint16
}

// folderReader streams the uncompressed bytes of one folder
type folderReader struct {
	c         *Cabinet
	folder    Folder
	sr        *io.SectionReader
	remaining int
	buf       []byte
	pos       int
	window    []byte // previous MSZIP block, the dictionary for the next one
}

func newFolderReader(c *Cabinet, folder Folder) *folderReader {
	return &folderReader{
		c:         c,
		folder:    folder,
		sr:        io.NewSectionReader(c.r, int64(folder.DataOffset), c.size-int64(folder.DataOffset)),
		remaining: int(folder.DataBlocks),
	}
}

func (fr *folderReader) Read(p []byte) (int, error) {
	for fr.pos >= len(fr.buf) {
		if fr.remaining == 0 {
			return 0, io.EOF
		}
		if err := fr.nextBlock(); err != nil {
			return 0, err
		}
	}
	n := copy(p, fr.buf[fr.pos:])
	fr.pos += n
	return n, nil
}

func (fr *folderReader) nextBlock() error {
	var dh dataHeader
	if err := binary.Read(fr.sr, binary.LittleEndian, &dh); err != nil {
		return fmt.Errorf("%w: truncated data block", ErrCorrupt)
	}
	if _, err := fr.sr.Seek(int64(fr.c.dataReserve), io.SeekCurrent); err != nil {
		return err
	}

	data := make([]byte, dh.Compressed)
	if _, err := io.ReadFull(fr.sr, data); err != nil {
		return fmt.Errorf("%w: truncated data block", ErrCorrupt)
	}

	switch fr.folder.Compression {
	case CompressNone:
		fr.buf = data
	case CompressMSZIP:
		if len(data) < 2 || data[0] != 'C' || data[1] != 'K' {
			return fmt.Errorf("%w: missing MSZIP block signature", ErrCorrupt)
		}
		zr := flate.NewReaderDict(bytes.NewReader(data[2:]), fr.window)
		out := make([]byte, dh.Uncompressed)
		if _, err := io.ReadFull(zr, out); err != nil {
			zr.Close()
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		zr.Close()
		fr.window = out
		fr.buf = out
	default:
		return ErrUnsupportedCompression
	}

	fr.pos = 0
	fr.remaining--
	return nil
}
