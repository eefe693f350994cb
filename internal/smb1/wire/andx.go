package wire

import (
	"encoding/binary"
	"fmt"
)

// CommandEntry is one decoded (commandId, params, data) tuple from an AndX
// chain, per spec §4.1. For AndX-style commands, Params includes the
// leading 4-byte {next_cmd_id, reserved, next_offset} linkage — callers
// that care about those fields read them off the front of Params; callers
// that don't (most handlers) simply index past them.
type CommandEntry struct {
	Command Command
	Params  []byte
	Data    []byte
}

// Message is one fully-decoded SMB1 request or response: a header plus an
// ordered, possibly multi-element AndX chain.
type Message struct {
	Header   *Header
	Commands []CommandEntry
}

// andxNext extracts the {next_cmd_id, next_offset} linkage from the front
// of an AndX command's parameter block. Returns ok=false if params is too
// short to carry the linkage (malformed message).
func andxNext(params []byte) (nextCmd Command, nextOffset uint16, ok bool) {
	if len(params) < 4 {
		return 0, 0, false
	}
	return Command(params[0]), binary.LittleEndian.Uint16(params[2:4]), true
}

// DecodeChain walks the AndX chain starting at the header's command,
// reading bodies from payload at successive offsets. payload is the whole
// NetBIOS-framed SMB message (so that next_offset, which is absolute
// within the message, indexes it directly) per spec §4.1.
func DecodeChain(payload []byte, h *Header) ([]CommandEntry, error) {
	var commands []CommandEntry
	cmd := h.Command
	offset := HeaderSize

	for {
		if offset > len(payload) {
			return nil, fmt.Errorf("wire: andx next_offset %d beyond message length %d", offset, len(payload))
		}
		body, consumed, err := ParseBody(payload[offset:])
		if err != nil {
			return nil, fmt.Errorf("wire: parse body at offset %d: %w", offset, err)
		}
		commands = append(commands, CommandEntry{Command: cmd, Params: body.Params, Data: body.Data})

		if !cmd.IsAndX() {
			break
		}
		nextCmd, nextOffset, ok := andxNext(body.Params)
		if !ok || nextCmd == types_AndXNone || nextOffset == 0 {
			break
		}
		cmd = nextCmd
		offset = int(nextOffset)
		_ = consumed // next position comes from next_offset, not sequential consumption
	}
	return commands, nil
}

// types_AndXNone avoids importing the types package twice under two names;
// it is the 0xFF "no further command" sentinel.
const types_AndXNone Command = 0xFF

// EncodeChain re-serializes an ordered command list into one message body
// (everything after the header), rewriting each AndX command's next_offset
// to the absolute offset of the following command and terminating the
// chain with next_cmd_id=0xFF, next_offset=0 on the final command.
func EncodeChain(commands []CommandEntry) []byte {
	// First pass: encode each body independently to learn its size.
	encoded := make([][]byte, len(commands))
	for i, c := range commands {
		encoded[i] = EncodeBody(Body{Params: append([]byte(nil), c.Params...), Data: c.Data})
	}

	// Second pass: compute absolute offsets (relative to the start of the
	// message, i.e. including the HeaderSize prefix) and patch the AndX
	// linkage in each command that has one.
	offset := HeaderSize
	offsets := make([]int, len(commands))
	for i, enc := range encoded {
		offsets[i] = offset
		offset += len(enc)
	}

	for i, c := range commands {
		if !c.Command.IsAndX() || len(encoded[i]) < 1+4 {
			continue
		}
		paramsStart := 1 // wordCount byte
		if i+1 < len(commands) {
			encoded[i][paramsStart] = byte(commands[i+1].Command)
			encoded[i][paramsStart+1] = 0
			binary.LittleEndian.PutUint16(encoded[i][paramsStart+2:paramsStart+4], uint16(offsets[i+1]))
		} else {
			encoded[i][paramsStart] = byte(types_AndXNone)
			encoded[i][paramsStart+1] = 0
			binary.LittleEndian.PutUint16(encoded[i][paramsStart+2:paramsStart+4], 0)
		}
	}

	out := make([]byte, 0, offset-HeaderSize)
	for _, enc := range encoded {
		out = append(out, enc...)
	}
	return out
}
