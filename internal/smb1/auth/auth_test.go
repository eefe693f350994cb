package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLMHashLength(t *testing.T) {
	h := LMHash("Password1")
	require.Len(t, h, 16)
}

func TestNTLMHashLength(t *testing.T) {
	h := NTLMHash("Password1")
	require.Len(t, h, 16)
}

func TestV1ResponseLength(t *testing.T) {
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	resp := CalculateV1Response(NTLMHash("Password1"), challenge)
	require.Len(t, resp, 24)
}

func TestLMv2ResponseLength(t *testing.T) {
	ntlmv2 := NTLMv2Hash(NTLMHash("Password1"), "alice", "WORKGROUP")
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	nonce := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	resp := CalculateLMv2Response(ntlmv2, challenge, nonce)
	require.Len(t, resp, 24)
}

func TestNTLMv2ResponseLengthAtLeast60(t *testing.T) {
	ntlmv2 := NTLMv2Hash(NTLMHash("Password1"), "alice", "WORKGROUP")
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	nonce := make([]byte, 8)
	avPairs := EncodeAVPair(AvEOL, nil)
	blob := BuildNTLMv2Blob(0, nonce, avPairs)
	resp := CalculateNTLMv2Response(ntlmv2, challenge, blob)
	require.GreaterOrEqual(t, len(resp), 60)
}

func TestValidateSessionSetupV1Succeeds(t *testing.T) {
	ntlmHash := NTLMHash("Password1")
	lmHash := LMHash("Password1")
	store := MapUserStore{
		"alice": {LMHash: lmHash, NTLMHash: ntlmHash},
	}
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ntResp := CalculateV1Response(ntlmHash, challenge)
	lmResp := CalculateV1Response(lmHash, challenge)

	err := ValidateSessionSetup(store, "alice", "WORKGROUP", challenge, lmResp, ntResp, false)
	require.NoError(t, err)
}

func TestValidateSessionSetupV2Succeeds(t *testing.T) {
	ntlmHash := NTLMHash("Password1")
	store := MapUserStore{
		"alice": {NTLMHash: ntlmHash},
	}
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ntlmv2Hash := NTLMv2Hash(ntlmHash, "alice", "WORKGROUP")

	nonce := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	lmv2Resp := CalculateLMv2Response(ntlmv2Hash, challenge, nonce)

	clientNonce := make([]byte, 8)
	avPairs := EncodeAVPair(AvEOL, nil)
	blob := BuildNTLMv2Blob(0, clientNonce, avPairs)
	ntlmv2Resp := CalculateNTLMv2Response(ntlmv2Hash, challenge, blob)

	err := ValidateSessionSetup(store, "alice", "WORKGROUP", challenge, lmv2Resp, ntlmv2Resp, false)
	require.NoError(t, err)
}

func TestValidateSessionSetupCorruptedResponseFails(t *testing.T) {
	ntlmHash := NTLMHash("Password1")
	store := MapUserStore{
		"alice": {NTLMHash: ntlmHash},
	}
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ntResp := CalculateV1Response(ntlmHash, challenge)
	ntResp[0] ^= 0xFF

	err := ValidateSessionSetup(store, "alice", "WORKGROUP", challenge, nil, ntResp, false)
	require.ErrorIs(t, err, ErrLogonFailure)
}

func TestValidateSessionSetupUnknownUserFails(t *testing.T) {
	store := MapUserStore{}
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	err := ValidateSessionSetup(store, "nobody", "WORKGROUP", challenge, nil, make([]byte, 24), false)
	require.ErrorIs(t, err, ErrLogonFailure)
}

func TestValidateSessionSetupAnonymousAllowed(t *testing.T) {
	store := MapUserStore{}
	challenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	err := ValidateSessionSetup(store, "", "", challenge, nil, nil, true)
	require.NoError(t, err)
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 3}))
	require.False(t, ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 4}))
	require.False(t, ConstantTimeEqual([]byte{1, 2}, []byte{1, 2, 3}))
}

func TestNTLMSSPChallengeRoundTrip(t *testing.T) {
	serverChallenge := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	avPairs := EncodeAVPair(AvNetbiosName, utf16LEBytes("FILESRV"))
	avPairs = append(avPairs, EncodeAVPair(AvEOL, nil)...)

	msg := BuildChallengeMessage(serverChallenge, "WORKGROUP", avPairs, NegotiateUnicode|NegotiateNTLM)
	require.True(t, len(msg) > 48)
}

func TestParseAuthenticateMessageRejectsShortMessage(t *testing.T) {
	_, err := ParseAuthenticateMessage([]byte("short"))
	require.ErrorIs(t, err, ErrMalformedNTLMSSP)
}
