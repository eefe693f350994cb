package notify

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/wire"
)

// EncodeChunks builds the back-to-back FILE_NOTIFY_INFORMATION records
// NT_TRANSACT_NOTIFY_CHANGE's delayed response carries: each record is
// {NextEntryOffset, Action, FileNameLength, FileName(UTF-16LE)}, 4-byte
// aligned between records, per spec §4.7.
func EncodeChunks(events []registry.ChangeEvent) []byte {
	var out []byte
	for i, ev := range events {
		nameBytes := utf16LE(ev.FileName)

		record := make([]byte, 12+len(nameBytes))
		binary.LittleEndian.PutUint32(record[4:8], ev.Action)
		binary.LittleEndian.PutUint32(record[8:12], uint32(len(nameBytes)))
		copy(record[12:], nameBytes)

		pad := wire.AlignPad(len(record), 4)
		record = append(record, make([]byte, pad)...)

		if i < len(events)-1 {
			binary.LittleEndian.PutUint32(record[0:4], uint32(len(record)))
		}
		// last record's NextEntryOffset stays 0

		out = append(out, record...)
	}
	return out
}

func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}
