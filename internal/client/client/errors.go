package client

import "errors"

var (
	ErrUnavailable = errors.New("peer unavailable")
	ErrClosed      = errors.New("messenger closed")
	ErrPeerBusy    = errors.New("peer already connected")
)
