package transfer

import (
	"context"
	"io"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

// Conn is one authenticated connection to a file-transfer server. It is not
// safe for concurrent use; Session serializes access.
//
// Implementations wrap refusals reported by the server with
// ErrRemoteRejected. Any other error is treated as a connectivity failure.
type Conn interface {
	Store(ctx context.Context, remotePath string, r io.Reader) error
	Retrieve(ctx context.Context, remotePath string, w io.Writer) error
	// List returns the names of plain files in remoteDir, in server order.
	List(ctx context.Context, remoteDir string) ([]string, error)
	Close() error
}

// Dialer opens and authenticates a Conn.
//
// Implementations wrap credential refusals with ErrAuthRejected.
type Dialer interface {
	Dial(ctx context.Context, creds models.ServerCredentials) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, creds models.ServerCredentials) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, creds models.ServerCredentials) (Conn, error) {
	return f(ctx, creds)
}
