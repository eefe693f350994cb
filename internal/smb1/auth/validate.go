package auth

import "errors"

// ErrLogonFailure is returned (after normalization by the caller into
// STATUS_LOGON_FAILURE) for any authentication failure, regardless of
// internal cause — spec §7 requires this to avoid leaking user existence.
var ErrLogonFailure = errors.New("auth: logon failure")

// UserRecord is what the configured user store holds per account: the
// stored LM and NTLM hashes a challenge-response is validated against.
type UserRecord struct {
	LMHash   []byte
	NTLMHash []byte
}

// UserStore resolves a lowercase account name to its stored credential
// hashes, per spec §6 configuration surface ("users: map from lowercase
// account name → {lmHash, ntlmHash}").
type UserStore interface {
	Lookup(user string) (UserRecord, bool)
}

// MapUserStore is the simplest UserStore: an in-memory map, as loaded
// directly from configuration.
type MapUserStore map[string]UserRecord

func (m MapUserStore) Lookup(user string) (UserRecord, bool) {
	rec, ok := m[user]
	return rec, ok
}

// ValidateSessionSetup implements the SESSION_SETUP_ANDX validation
// contract of spec §4.3: the authenticator is presented with both the
// case-insensitive (LM or LMv2) and case-sensitive (NTLM or NTLMv2)
// password blobs; authentication succeeds if any of the four validations
// succeeds against the stored hashes for user.
//
// allowAnonymous permits a zero-length pair with an empty user name to
// succeed without hash checks, per spec §8 scenario 2.
func ValidateSessionSetup(store UserStore, user, domain string, challenge, caseInsensitive, caseSensitive []byte, allowAnonymous bool) error {
	if allowAnonymous && user == "" && len(caseInsensitive) == 0 && len(caseSensitive) == 0 {
		return nil
	}

	rec, ok := store.Lookup(user)
	if !ok {
		return ErrLogonFailure
	}

	validV1 := len(caseInsensitive) == 24 || len(caseSensitive) == 24
	validV2 := len(caseInsensitive) >= 24 || len(caseSensitive) >= 60
	if !validV1 && !validV2 {
		return ErrLogonFailure
	}

	if len(caseSensitive) == 24 && rec.NTLMHash != nil {
		if ConstantTimeEqual(CalculateV1Response(rec.NTLMHash, challenge), caseSensitive) {
			return nil
		}
	}
	if len(caseInsensitive) == 24 && rec.LMHash != nil {
		if ConstantTimeEqual(CalculateV1Response(rec.LMHash, challenge), caseInsensitive) {
			return nil
		}
	}

	if rec.NTLMHash != nil {
		ntlmv2Hash := NTLMv2Hash(rec.NTLMHash, user, domain)

		if len(caseSensitive) >= 60 {
			blob := caseSensitive[16:]
			if ConstantTimeEqual(CalculateNTLMv2Response(ntlmv2Hash, challenge, blob), caseSensitive) {
				return nil
			}
		}
		if len(caseInsensitive) >= 24 {
			nonce := caseInsensitive[16:]
			if ConstantTimeEqual(CalculateLMv2Response(ntlmv2Hash, challenge, nonce), caseInsensitive) {
				return nil
			}
		}
	}

	return ErrLogonFailure
}
