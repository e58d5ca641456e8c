package models

import (
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/netx"
)

const (
	SchemeFTP = "ftp"
	SchemeS3  = "s3"
)

// ServerCredentials identify one file-transfer server. They are immutable
// per session and safe to share between goroutines.
type ServerCredentials struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
}

// EffectiveScheme returns Scheme, defaulting to ftp.
func (c ServerCredentials) EffectiveScheme() string {
	if c.Scheme == "" {
		return SchemeFTP
	}
	return c.Scheme
}

// EffectivePort returns Port, or the FTP default when Port is unset.
func (c ServerCredentials) EffectivePort() int {
	if c.Port <= 0 {
		return common.DefaultFTPPort
	}
	return c.Port
}

// Addr returns host:port for dialing.
func (c ServerCredentials) Addr() string {
	return netx.JoinHostPort(c.Host, c.Port, common.DefaultFTPPort)
}
