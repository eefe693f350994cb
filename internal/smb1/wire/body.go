package wire

import (
	"encoding/binary"
	"fmt"
)

// Body is one decoded {wordCount, params, byteCount, data} triple, per
// spec §4.1 "Body: WordCount/ByteCount shape".
type Body struct {
	Params []byte // wordCount*2 bytes
	Data   []byte
}

// ParseBody reads one WordCount/ByteCount body starting at the front of
// data and returns it along with the number of bytes consumed.
func ParseBody(data []byte) (Body, int, error) {
	if len(data) < 1 {
		return Body{}, 0, fmt.Errorf("wire: truncated wordCount")
	}
	wordCount := int(data[0])
	paramsEnd := 1 + wordCount*2
	if len(data) < paramsEnd+2 {
		return Body{}, 0, fmt.Errorf("wire: truncated params/byteCount")
	}
	params := data[1:paramsEnd]
	byteCount := int(binary.LittleEndian.Uint16(data[paramsEnd : paramsEnd+2]))
	dataStart := paramsEnd + 2
	dataEnd := dataStart + byteCount
	if len(data) < dataEnd {
		return Body{}, 0, fmt.Errorf("wire: truncated data block")
	}
	return Body{Params: params, Data: data[dataStart:dataEnd]}, dataEnd, nil
}

// EncodeBody serializes a Body back into its WordCount/ByteCount wire shape.
// len(params) must be even.
func EncodeBody(b Body) []byte {
	wordCount := len(b.Params) / 2
	buf := make([]byte, 1+len(b.Params)+2+len(b.Data))
	buf[0] = byte(wordCount)
	copy(buf[1:], b.Params)
	binary.LittleEndian.PutUint16(buf[1+len(b.Params):], uint16(len(b.Data)))
	copy(buf[1+len(b.Params)+2:], b.Data)
	return buf
}
