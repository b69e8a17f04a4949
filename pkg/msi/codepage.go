package msi

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// CodepageUTF8 marks a database whose strings are stored as UTF-8
const CodepageUTF8 = 65001

var codepages = map[int]encoding.Encoding{
	0:    charmap.Windows1252,
	437:  charmap.CodePage437,
	850:  charmap.CodePage850,
	852:  charmap.CodePage852,
	866:  charmap.CodePage866,
	874:  charmap.Windows874,
	932:  japanese.ShiftJIS,
	936:  simplifiedchinese.GBK,
	949:  korean.EUCKR,
	950:  traditionalchinese.Big5,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
}

// stringCodec converts pool strings between the database codepage and UTF-8
type stringCodec struct {
	codepage int
	enc      encoding.Encoding
}

func newStringCodec(codepage int) (stringCodec, error) {
	if codepage == CodepageUTF8 {
		return stringCodec{codepage: codepage}, nil
	}
	enc, ok := codepages[codepage]
	if !ok {
		return stringCodec{}, fmt.Errorf("unsupported codepage %d", codepage)
	}
	return stringCodec{codepage: codepage, enc: enc}, nil
}

func (c stringCodec) decode(b []byte) (string, error) {
	if c.enc == nil {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("invalid UTF-8 string")
		}
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c stringCodec) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(s))
}
