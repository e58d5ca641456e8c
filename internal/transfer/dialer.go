package transfer

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

// DialerOptions carry the backend settings that are not part of
// ServerCredentials.
type DialerOptions struct {
	Timeout  time.Duration
	S3Bucket string
	S3Region string
	S3Secure bool
}

// NewDialer selects the backend for scheme ("" means ftp).
func NewDialer(scheme string, opts DialerOptions) (Dialer, error) {
	switch scheme {
	case "", models.SchemeFTP:
		return FTPDialer{Timeout: opts.Timeout}, nil
	case models.SchemeS3:
		return S3Dialer{Bucket: opts.S3Bucket, Region: opts.S3Region, Secure: opts.S3Secure, Timeout: opts.Timeout}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}
