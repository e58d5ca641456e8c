package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinHostPort(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"ftp.local", 2121, "ftp.local:2121"},
		{"ftp.local", 0, "ftp.local:21"},
		{"ftp.local", -1, "ftp.local:21"},
		{"::1", 21, "[::1]:21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinHostPort(tt.host, tt.port, 21))
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("dial: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(timeoutErr{}))
	assert.False(t, IsTimeout(errors.New("550 no such file")))
}

func TestIsConnectivity(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	assert.False(t, IsConnectivity(nil))
	assert.True(t, IsConnectivity(opErr))
	assert.True(t, IsConnectivity(fmt.Errorf("stor: %w", syscall.ECONNRESET)))
	assert.True(t, IsConnectivity(&net.DNSError{Err: "no such host", Name: "nope"}))
	assert.True(t, IsConnectivity(net.ErrClosed))
	assert.True(t, IsConnectivity(io.ErrUnexpectedEOF))
	assert.True(t, IsConnectivity(timeoutErr{}))
	assert.False(t, IsConnectivity(errors.New("553 could not create file")))
}
