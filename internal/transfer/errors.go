package transfer

import "errors"

// Connect failures. Every connect error wraps ErrConnect; the cause is
// narrowed further by ErrAuthRejected or ErrUnreachable when known.
var (
	ErrConnect      = errors.New("connection failed")
	ErrAuthRejected = errors.New("authentication rejected")
	ErrUnreachable  = errors.New("server unreachable")
)

// Operation failures.
var (
	ErrLocalFileMissing = errors.New("local file missing")
	ErrRemoteRejected   = errors.New("remote server rejected the operation")
	ErrTransferIO       = errors.New("transfer i/o failure")
	ErrNotConnected     = errors.New("session not connected")
	ErrBusy             = errors.New("session busy")
)

// ErrUnsupportedScheme is returned by NewDialer for unknown schemes.
var ErrUnsupportedScheme = errors.New("unsupported transfer scheme")
