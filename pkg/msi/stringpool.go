package msi

import (
	"encoding/binary"
	"fmt"
)

const longStringRefs = 0x8000

// stringPool maps string ids to the strings stored in _StringData
type stringPool struct {
	codepage int
	refSize  int
	strings  map[uint32]string
}

// parseStringPool decodes the _StringPool and _StringData streams
func parseStringPool(pool, data []byte) (*stringPool, error) {
	if len(pool) < 4 {
		return nil, fmt.Errorf("string pool too short: %d bytes", len(pool))
	}
	word := func(i int) int {
		if 2*i+2 > len(pool) {
			return 0
		}
		return int(binary.LittleEndian.Uint16(pool[2*i:]))
	}

	header := word(1)
	p := &stringPool{
		codepage: word(0) | (header&^longStringRefs)<<16,
		refSize:  2,
		strings:  make(map[uint32]string),
	}
	if header&longStringRefs != 0 {
		p.refSize = 3
	}
	codec, err := newStringCodec(p.codepage)
	if err != nil {
		return nil, err
	}

	count := len(pool) / 4
	offset := 0
	n := uint32(1)
	for i := 1; i < count; {
		length, refs := word(i*2), word(i*2+1)
		if length == 0 && refs == 0 {
			i++
			n++
			continue
		}
		if length == 0 {
			length = word(i*2+3)<<16 + word(i*2+2)
			i += 2
		} else {
			i++
		}
		if offset+length > len(data) {
			return nil, fmt.Errorf("string %d overruns string data", n)
		}
		s, err := codec.decode(data[offset : offset+length])
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", n, err)
		}
		p.strings[n] = s
		offset += length
		n++
	}
	return p, nil
}

func (p *stringPool) lookup(id uint32) (string, error) {
	if id == 0 {
		return "", nil
	}
	s, ok := p.strings[id]
	if !ok {
		return "", fmt.Errorf("string id %d not in pool", id)
	}
	return s, nil
}
