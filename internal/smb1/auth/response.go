package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
)

// GenerateChallenge returns 8 cryptographically random bytes for a
// NEGOTIATE response. It has no anonymous variant: every successful call
// returns a fresh 8-byte challenge, and nil is returned only together with
// an error from the random source.
func GenerateChallenge() ([]byte, error) {
	c := make([]byte, 8)
	if _, err := rand.Read(c); err != nil {
		return nil, err
	}
	return c, nil
}

// CalculateV1Response implements the shared LM/NTLM v1 response recipe:
// grow the 16-byte hash to 21 bytes by zero-padding, split into three
// 7-byte DES keys, encrypt the 8-byte challenge under each, concatenate.
// Used for both LM and NTLM depending on which hash is passed in.
func CalculateV1Response(hash16 []byte, challenge []byte) []byte {
	padded := make([]byte, 21)
	copy(padded, hash16)

	out := make([]byte, 24)
	copy(out[0:8], desEncryptBlock(expandDESKey(padded[0:7]), challenge))
	copy(out[8:16], desEncryptBlock(expandDESKey(padded[7:14]), challenge))
	copy(out[16:24], desEncryptBlock(expandDESKey(padded[14:21]), challenge))
	return out
}

// CalculateLMv2Response computes HMAC-MD5(ntlmv2Hash, challenge||clientNonce) || clientNonce.
func CalculateLMv2Response(ntlmv2Hash, challenge, clientNonce []byte) []byte {
	mac := hmac.New(md5.New, ntlmv2Hash)
	mac.Write(challenge)
	mac.Write(clientNonce)
	proof := mac.Sum(nil)
	return append(proof, clientNonce...)
}

// CalculateNTLMv2Response computes HMAC-MD5(ntlmv2Hash, challenge||blob) || blob.
func CalculateNTLMv2Response(ntlmv2Hash, challenge, blob []byte) []byte {
	mac := hmac.New(md5.New, ntlmv2Hash)
	mac.Write(challenge)
	mac.Write(blob)
	proof := mac.Sum(nil)
	return append(proof, blob...)
}

// AV pair ids used in the NTLMv2 blob's target-info list.
const (
	AvEOL         uint16 = 0x0000
	AvNetbiosName uint16 = 0x0001
	AvTimestamp   uint16 = 0x0007
)

// BuildNTLMv2Blob builds the variable part of an NTLMv2 response: a fixed
// 8-byte header, a 64-bit Windows timestamp, an 8-byte client nonce, 4
// reserved zero bytes, the AV pair list, and a terminating 2-byte zero,
// per spec §4.3.
func BuildNTLMv2Blob(timestamp uint64, clientNonce []byte, avPairs []byte) []byte {
	blob := make([]byte, 0, 8+8+len(clientNonce)+len(avPairs)+2+4)
	blob = append(blob, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	blob = appendUint64LE(blob, timestamp)
	blob = append(blob, clientNonce...)
	blob = append(blob, 0, 0, 0, 0) // unknown/reserved
	blob = append(blob, avPairs...)
	blob = append(blob, 0, 0) // AV pair list terminator
	return blob
}

func appendUint64LE(b []byte, v uint64) []byte {
	return append(b,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// EncodeAVPair encodes one {id, value} AV pair (id, length, value), little
// endian, as used in the NTLMv2 target-info list.
func EncodeAVPair(id uint16, value []byte) []byte {
	out := make([]byte, 4+len(value))
	out[0], out[1] = byte(id), byte(id>>8)
	out[2], out[3] = byte(len(value)), byte(len(value)>>8)
	copy(out[4:], value)
	return out
}

// ConstantTimeEqual reports whether a and b are byte-identical, comparing
// in constant time so that a timing side-channel cannot leak how many
// leading bytes of a credential check matched, per spec §4.3.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
