package wire

import "unicode/utf16"

// ReadUTF16String extracts a UTF-16LE NUL-terminated string from buf
// starting at off, returning the decoded string and the byte length of the
// span excluding the terminator.
func ReadUTF16String(buf []byte, off int) (string, int) {
	end := off
	for end+1 < len(buf) {
		if buf[end] == 0 && buf[end+1] == 0 {
			break
		}
		end += 2
	}
	units := make([]uint16, 0, (end-off)/2)
	for i := off; i < end && i+1 < len(buf); i += 2 {
		units = append(units, uint16(buf[i])|uint16(buf[i+1])<<8)
	}
	return string(utf16.Decode(units)), end - off
}

// ReadASCIIString extracts an ASCII NUL-terminated string from buf starting
// at off, returning the decoded string and the byte length excluding the
// terminator.
func ReadASCIIString(buf []byte, off int) (string, int) {
	end := off
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(buf[off:end]), end - off
}

// WriteUTF16String encodes s as UTF-16LE with a trailing 0x0000 terminator.
func WriteUTF16String(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2+2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// WriteASCIIString encodes s as ASCII with a trailing 0x00 terminator.
func WriteASCIIString(s string) []byte {
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}

// AlignPad returns the number of pad bytes needed so that absoluteOffset,
// once advanced by the pad, lands on a boundary-byte alignment. Per spec
// §9 ("Strings on the wire"), the offset MUST be the absolute offset
// within the whole SMB message, not a local slice offset — getting this
// wrong is, per the spec, the single biggest source of interop bugs with
// Windows clients.
func AlignPad(absoluteOffset int, boundary int) int {
	rem := absoluteOffset % boundary
	if rem == 0 {
		return 0
	}
	return boundary - rem
}
