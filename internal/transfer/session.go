package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/filex"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/netx"
)

// Session is a stateful client for one file-transfer server.
type Session struct {
	dialer  Dialer
	log     logging.Logger
	timeout time.Duration

	mu    sync.Mutex
	state State
	op    string
	conn  Conn
}

type Option func(*Session)

// WithConnectTimeout bounds how long Connect may take. Non-positive values
// are ignored.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewSession(d Dialer, log logging.Logger, opts ...Option) *Session {
	s := &Session{
		dialer:  d,
		log:     log.With("module", "transfer"),
		timeout: common.DefaultTimeout,
		state:   Disconnected,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials and authenticates. A live connection is closed first. On
// failure the session is left Disconnected and the error wraps ErrConnect.
func (s *Session) Connect(ctx context.Context, creds models.ServerCredentials) error {
	s.mu.Lock()
	if s.state == Busy {
		op := s.op
		s.mu.Unlock()
		return fmt.Errorf("connect: %w: %s in flight", ErrBusy, op)
	}
	old := s.conn
	s.conn = nil
	s.state = Busy
	s.op = "connect"
	s.mu.Unlock()

	if old != nil {
		s.closeConn(ctx, old)
	}

	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.log.Debug(ctx, "connecting", "addr", creds.Addr(), "scheme", creds.EffectiveScheme())
	conn, err := s.dialer.Dial(dctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.op = ""
	if err != nil {
		s.state = Disconnected
		return connectError(err)
	}
	s.conn = conn
	s.state = Connected
	return nil
}

func connectError(err error) error {
	switch {
	case errors.Is(err, ErrAuthRejected):
		return fmt.Errorf("%w: %w", ErrConnect, err)
	case netx.IsConnectivity(err):
		return fmt.Errorf("%w: %w: %w", ErrConnect, ErrUnreachable, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
}

// Upload stores the local file at remotePath, byte for byte.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string) error {
	f, err := openLocal(localPath)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer f.Close()

	conn, err := s.begin("upload")
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	s.log.Debug(ctx, "uploading", "local_path", localPath, "remote_path", remotePath)
	return s.finish(ctx, "upload", conn, conn.Store(ctx, remotePath, f))
}

func openLocal(path string) (*os.File, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.Mode().IsRegular()) {
		return nil, fmt.Errorf("%s: %w", path, ErrLocalFileMissing)
	}
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Download fetches remotePath into localDir/localFileName and returns the
// local path. localDir is created if absent. An existing file of the same
// name is replaced atomically; a failed download leaves it untouched.
func (s *Session) Download(ctx context.Context, remotePath, localDir, localFileName string) (string, error) {
	conn, err := s.begin("download")
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	dir, err := filex.EnsureDir(localDir)
	if err != nil {
		_ = s.finish(ctx, "download", conn, nil)
		return "", fmt.Errorf("download: %w", err)
	}
	target := filepath.Join(dir, localFileName)

	s.log.Debug(ctx, "downloading", "remote_path", remotePath, "local_path", target)

	var remoteErr error
	writeErr := filex.ReplaceFile(target, func(w io.Writer) error {
		remoteErr = conn.Retrieve(ctx, remotePath, w)
		return remoteErr
	})
	if err := s.finish(ctx, "download", conn, remoteErr); err != nil {
		return "", err
	}
	if writeErr != nil {
		return "", fmt.Errorf("download: %w", writeErr)
	}
	return target, nil
}

// List returns the plain file names in remoteDir in server order.
func (s *Session) List(ctx context.Context, remoteDir string) ([]string, error) {
	conn, err := s.begin("list")
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	names, err := conn.List(ctx, remoteDir)
	if err := s.finish(ctx, "list", conn, err); err != nil {
		return nil, err
	}
	return names, nil
}

// Disconnect tears the session down. Close failures are logged only.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = Disconnected
	s.op = ""
	s.mu.Unlock()

	if conn != nil {
		s.closeConn(ctx, conn)
	}
}

func (s *Session) begin(op string) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Busy:
		return nil, fmt.Errorf("%w: %s in flight", ErrBusy, s.op)
	case Connected:
		s.state = Busy
		s.op = op
		return s.conn, nil
	default:
		return nil, fmt.Errorf("%w (%s)", ErrNotConnected, s.state)
	}
}

// finish ends the in-flight operation on conn. Refusals keep the session
// Connected; any other failure drops the connection and marks it Failed.
func (s *Session) finish(ctx context.Context, op string, conn Conn, err error) error {
	s.mu.Lock()
	if s.conn != conn || s.state != Busy {
		// torn down while the operation was running
		s.mu.Unlock()
		if err == nil {
			return nil
		}
		return fmt.Errorf("%s: %w: %w", op, ErrTransferIO, err)
	}
	s.op = ""

	if err == nil || errors.Is(err, ErrRemoteRejected) {
		s.state = Connected
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}

	s.conn = nil
	s.state = Failed
	s.mu.Unlock()

	s.log.Warn(ctx, "transfer connection lost", "op", op, "error", err)
	s.closeConn(ctx, conn)
	return fmt.Errorf("%s: %w: %w", op, ErrTransferIO, err)
}

func (s *Session) closeConn(ctx context.Context, conn Conn) {
	if err := conn.Close(); err != nil {
		s.log.Warn(ctx, "disconnect failed", "error", err)
	}
}
