package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/netx"
)

// FTPDialer opens FTP control connections with github.com/jlaffaye/ftp.
// Login switches the session to binary (TYPE I) transfers.
type FTPDialer struct {
	// Timeout is the per-read/per-write inactivity limit on control and
	// data connections. Zero means common.DefaultTimeout.
	Timeout time.Duration
}

func (d FTPDialer) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return common.DefaultTimeout
}

func (d FTPDialer) Dial(ctx context.Context, creds models.ServerCredentials) (Conn, error) {
	t := &connTracker{ctx: ctx, dialer: net.Dialer{Timeout: d.timeout()}, idle: d.timeout()}

	stop := context.AfterFunc(ctx, t.abort)
	defer stop()

	sc, err := ftp.Dial(creds.Addr(),
		ftp.DialWithDialFunc(t.dial),
		ftp.DialWithShutTimeout(d.timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", creds.Addr(), err)
	}

	if err := sc.Login(creds.Username, creds.Password); err != nil {
		_ = sc.Quit()
		if netx.IsConnectivity(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return nil, fmt.Errorf("login as %q: %w: %v", creds.Username, ErrAuthRejected, err)
	}

	// the dial context is scoped to Connect; later data connections are
	// bounded by the idle timeout and per-operation contexts
	t.setContext(context.Background())

	return &ftpConn{sc: sc, tracker: t}, nil
}

type ftpConn struct {
	sc      *ftp.ServerConn
	tracker *connTracker
}

// run executes fn while ctx is live; cancelling ctx closes the sockets so a
// blocked call returns promptly.
func (c *ftpConn) run(ctx context.Context, fn func() error) error {
	stop := context.AfterFunc(ctx, c.tracker.abort)
	defer stop()

	err := fn()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return ftpError(err)
}

func (c *ftpConn) Store(ctx context.Context, remotePath string, r io.Reader) error {
	return c.run(ctx, func() error {
		return c.sc.Stor(remotePath, r)
	})
}

func (c *ftpConn) Retrieve(ctx context.Context, remotePath string, w io.Writer) error {
	return c.run(ctx, func() error {
		resp, err := c.sc.Retr(remotePath)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(w, resp)
		closeErr := resp.Close()
		return errors.Join(copyErr, closeErr)
	})
}

func (c *ftpConn) List(ctx context.Context, remoteDir string) ([]string, error) {
	var names []string
	err := c.run(ctx, func() error {
		entries, err := c.sc.List(remoteDir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Type == ftp.EntryTypeFile {
				names = append(names, e.Name)
			}
		}
		return nil
	})
	return names, err
}

func (c *ftpConn) Close() error {
	return c.sc.Quit()
}

// ftpError marks replies with a 4xx/5xx status as refusals. Everything else
// is left as is and treated as a connectivity failure.
func ftpError(err error) error {
	if err == nil {
		return nil
	}
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 400 {
		return fmt.Errorf("%w: %d %s", ErrRemoteRejected, tpErr.Code, tpErr.Msg)
	}
	return err
}

// connTracker dials control and data connections, applies an idle deadline
// to every read and write, and can close all live sockets at once.
type connTracker struct {
	dialer net.Dialer
	idle   time.Duration

	mu    sync.Mutex
	ctx   context.Context
	conns []net.Conn
}

func (t *connTracker) setContext(ctx context.Context) {
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()
}

func (t *connTracker) dial(network, addr string) (net.Conn, error) {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()

	c, err := t.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	ic := &idleConn{Conn: c, idle: t.idle}

	t.mu.Lock()
	live := t.conns[:0]
	for _, old := range t.conns {
		if !old.(*idleConn).isClosed() {
			live = append(live, old)
		}
	}
	t.conns = append(live, ic)
	t.mu.Unlock()

	return ic, nil
}

func (t *connTracker) abort() {
	t.mu.Lock()
	conns := append([]net.Conn(nil), t.conns...)
	t.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// idleConn pushes the deadline forward before every read and write so that
// a stalled peer surfaces as a timeout instead of hanging.
type idleConn struct {
	net.Conn
	idle time.Duration

	mu     sync.Mutex
	closed bool
}

func (c *idleConn) Read(b []byte) (int, error) {
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.idle))
	return c.Conn.Read(b)
}

func (c *idleConn) Write(b []byte) (int, error) {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(c.idle))
	return c.Conn.Write(b)
}

func (c *idleConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.Conn.Close()
}

func (c *idleConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
