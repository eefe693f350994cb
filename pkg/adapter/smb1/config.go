// Package smb1 is the TCP/connection-lifecycle adapter that wires the
// internal/smb1 protocol core to a real net.Listener, following dittofs's
// pkg/adapter/smb layering (adapter.go + connection.go) generalized from
// its BaseAdapter-delegated SMB2 accept loop down to a single-protocol
// SMB1 server with no NFS sibling to share lifecycle code with.
package smb1

import "time"

// Config is the TCP-facing subset of the process configuration this
// adapter needs; internal/config.Config is translated into this shape by
// the caller (cmd/smb1d), keeping this package independent of the config
// file format.
type Config struct {
	BindAddress     string
	Port            int
	MaxConnections  int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 445
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}
