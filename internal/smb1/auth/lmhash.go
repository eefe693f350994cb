// Package auth implements the SMB1 authentication engine: challenge
// generation and LM/NTLM v1/v2 hash and response computation/validation,
// plus the NTLMSSP token flow used under extended security, per spec §4.3.
package auth

import (
	"crypto/des"
	"strings"
)

// lmMagic is the constant DES-ECB plaintext used to derive the LM hash.
var lmMagic = []byte("KGS!@#$%")

// LMHash computes the legacy LAN Manager password hash: uppercase the
// ASCII password, truncate/pad to 14 bytes, split into two 7-byte DES
// keys, DES-ECB encrypt the magic constant under each, and concatenate.
func LMHash(password string) []byte {
	upper := strings.ToUpper(password)
	padded := make([]byte, 14)
	copy(padded, upper)
	// truncate/pad: strings longer than 14 bytes are cut, per spec §4.3.
	if len(upper) > 14 {
		copy(padded, upper[:14])
	}

	out := make([]byte, 16)
	copy(out[0:8], desEncryptBlock(expandDESKey(padded[0:7]), lmMagic))
	copy(out[8:16], desEncryptBlock(expandDESKey(padded[7:14]), lmMagic))
	return out
}

// expandDESKey expands a 7-byte key into the 8-byte form DES expects,
// inserting an odd-parity bit in the low bit of each byte.
func expandDESKey(key7 []byte) []byte {
	var key8 [8]byte
	key8[0] = key7[0] & 0xFE
	key8[1] = key7[0]<<7 | key7[1]>>1
	key8[2] = key7[1]<<6 | key7[2]>>2
	key8[3] = key7[2]<<5 | key7[3]>>3
	key8[4] = key7[3]<<4 | key7[4]>>4
	key8[5] = key7[4]<<3 | key7[5]>>5
	key8[6] = key7[5]<<2 | key7[6]>>6
	key8[7] = key7[6] << 1

	for i := range key8 {
		key8[i] = setOddParity(key8[i])
	}
	return key8[:]
}

func setOddParity(b byte) byte {
	b &^= 1 // clear parity bit
	parity := byte(0)
	for i := 1; i < 8; i++ {
		parity ^= (b >> i) & 1
	}
	if parity == 0 {
		b |= 1
	}
	return b
}

func desEncryptBlock(key8, plaintext []byte) []byte {
	block, err := des.NewCipher(key8)
	if err != nil {
		// key8 is always exactly 8 bytes by construction.
		panic(err)
	}
	out := make([]byte, 8)
	block.Encrypt(out, plaintext)
	return out
}
