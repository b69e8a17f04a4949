package msi

import "strings"

const (
	tableMarker   = 0x4840
	pairBase      = 0x3800
	singleBase    = 0x4800
	mimeAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz._"
	summaryMarker = 0x05
)

func mimeIndex(r rune) int {
	return strings.IndexRune(mimeAlphabet, r)
}

// decodeStreamName expands a compound file stream name. Table streams carry
// a leading marker which is removed and reported.
func decodeStreamName(name string) (string, bool) {
	runes := []rune(name)
	isTable := false
	if len(runes) > 0 && runes[0] == tableMarker {
		isTable = true
		runes = runes[1:]
	}
	var b strings.Builder
	for _, r := range runes {
		switch {
		case r >= singleBase && r < tableMarker:
			b.WriteByte(mimeAlphabet[r-singleBase])
		case r >= pairBase && r < singleBase:
			v := r - pairBase
			b.WriteByte(mimeAlphabet[v&0x3F])
			b.WriteByte(mimeAlphabet[(v>>6)&0x3F])
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), isTable
}

// encodeStreamName packs a stream name the way the installer stores it
func encodeStreamName(name string, isTable bool) string {
	runes := []rune(name)
	var out []rune
	if isTable {
		out = append(out, tableMarker)
	}
	for i := 0; i < len(runes); i++ {
		c := mimeIndex(runes[i])
		if c < 0 {
			out = append(out, runes[i])
			continue
		}
		if i+1 < len(runes) {
			if n := mimeIndex(runes[i+1]); n >= 0 {
				out = append(out, rune(pairBase+c+n<<6))
				i++
				continue
			}
		}
		out = append(out, rune(singleBase+c))
	}
	return string(out)
}
