// Package registry owns the server-wide identity tables described in the
// data model: logins, sessions, trees, files, and searches. Each kind is
// issued a 16-bit identifier from a single atomic counter, mirroring the
// dittofs session manager's sync.Map + atomic.Uint64 pattern generalized
// from a single session table to the four SMB1 registries.
package registry

import (
	"sync"
	"sync/atomic"
)

// Login is the transient record created by NEGOTIATE: it holds the server
// challenge handed to the client and is completed (or discarded) by the
// following SESSION_SETUP_ANDX.
type Login struct {
	Key       uint64
	Challenge []byte
	Anonymous bool
}

// LoginRegistry issues process-wide unique, monotonically increasing login
// keys. An anonymous login always carries key 0 and an empty challenge.
type LoginRegistry struct {
	logins  sync.Map // key uint64 -> *Login
	nextKey atomic.Uint64
}

func NewLoginRegistry() *LoginRegistry {
	return &LoginRegistry{}
}

// Create records a new login. challenge is nil for an anonymous login.
func (r *LoginRegistry) Create(challenge []byte) *Login {
	if challenge == nil {
		return &Login{Anonymous: true}
	}
	key := r.nextKey.Add(1)
	l := &Login{Key: key, Challenge: challenge}
	r.logins.Store(key, l)
	return l
}

func (r *LoginRegistry) Lookup(key uint64) (*Login, bool) {
	if key == 0 {
		return nil, false
	}
	v, ok := r.logins.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Login), true
}

// Destroy removes a login, called once the session it produced is
// destroyed (or immediately if SESSION_SETUP_ANDX never completed it).
func (r *LoginRegistry) Destroy(key uint64) {
	if key == 0 {
		return
	}
	r.logins.Delete(key)
}
