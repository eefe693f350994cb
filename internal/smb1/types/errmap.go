package types

import (
	"io"
	"syscall"
)

// These are the underlying system errors the SPI is expected to surface;
// FromSystemError matches against them with errors.Is so a wrapped error
// (fmt.Errorf("...: %w", syscall.ENOENT)) still maps correctly.
var (
	errNotExist     = syscall.ENOENT
	errPermission   = syscall.EPERM
	errBadHandle    = syscall.EBADF
	errExist        = syscall.EEXIST
	errAccessDenied = syscall.EACCES
	errInvalid      = syscall.EINVAL
	errEOF          = io.EOF
)
