package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/md4"
)

// NTLMHash computes MD4(UTF16LE(password)), no upper-casing or truncation,
// per spec §4.3.
func NTLMHash(password string) []byte {
	h := md4.New()
	h.Write(utf16LEBytes(password))
	return h.Sum(nil)
}

// NTLMv2Hash computes HMAC-MD5(ntlmHash, UTF16LE(uppercase(user)+uppercase(domain))),
// per spec §4.3.
func NTLMv2Hash(ntlmHash []byte, user, domain string) []byte {
	mac := hmac.New(md5.New, ntlmHash)
	mac.Write(utf16LEBytes(strings.ToUpper(user) + strings.ToUpper(domain)))
	return mac.Sum(nil)
}

func utf16LEBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}
