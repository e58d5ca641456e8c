package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dmitrijs2005/ftpchat/internal/client/client"
	"github.com/dmitrijs2005/ftpchat/internal/client/config"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/ftpchat/internal/client/services"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/filex"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/transfer"
)

// Peer is the messaging side of the app: a Messenger that can host or join.
type Peer interface {
	client.Messenger
	Listen(ctx context.Context, addr string) error
	Connect(ctx context.Context, target string, opts ...grpc.DialOption) error
}

type App struct {
	cfg      *config.Config
	creds    models.ServerCredentials
	chat     services.ChatService
	transfer services.TransferService
	peer     Peer
	db       *sql.DB
	view     *consoleView
	log      logging.Logger
	in       *bufio.Reader

	mu       sync.Mutex
	attached []models.LocalFileRef
	role     string

	downloads sync.WaitGroup
}

// Deps lets callers replace the collaborators NewApp would build.
type Deps struct {
	Peer     Peer
	Transfer services.TransferService
	Repo     messages.Repository
}

// NewApp wires the chat from cfg. Zero-valued Deps fields are built from
// cfg: a gRPC peer, a transfer service over the configured backend and an
// in-memory or SQLite history.
func NewApp(ctx context.Context, cfg *config.Config, deps Deps, in *bufio.Reader, out io.Writer, log logging.Logger) (*App, error) {
	a := &App{
		cfg:   cfg,
		creds: cfg.Credentials(),
		view:  newConsoleView(out),
		log:   log.With("module", "cli"),
		in:    in,
	}

	repo := deps.Repo
	if repo == nil {
		r, err := a.openHistory(ctx)
		if err != nil {
			return nil, err
		}
		repo = r
	}

	a.transfer = deps.Transfer
	if a.transfer == nil {
		d, err := transfer.NewDialer(cfg.Scheme, transfer.DialerOptions{
			Timeout:  cfg.Timeout,
			S3Bucket: cfg.S3Bucket,
			S3Region: cfg.S3Region,
			S3Secure: cfg.S3Secure,
		})
		if err != nil {
			a.closeDB()
			return nil, err
		}
		factory := func() services.Session {
			return transfer.NewSession(d, log, transfer.WithConnectTimeout(cfg.Timeout))
		}
		a.transfer = services.NewTransferService(factory, services.TransferSettings{
			RemoteDir:   cfg.RemoteDir,
			DownloadDir: cfg.DownloadDir,
			AppDir:      cfg.AppDir,
		}, log)
	}

	a.peer = deps.Peer
	if a.peer == nil {
		a.peer = client.NewGRPCPeer(log)
	}

	a.chat = services.NewChatService(a.creds, a.transfer, a.peer, repo, a.view, log)
	return a, nil
}

func (a *App) openHistory(ctx context.Context) (messages.Repository, error) {
	if a.cfg.HistoryDSN == "" {
		return messages.NewMemoryRepository(), nil
	}

	db, err := client.InitDatabase(ctx, a.cfg.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("history database: %w", err)
	}
	a.db = db
	return messages.NewSQLiteRepository(db), nil
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "closing history database", "error", err)
	}
	a.db = nil
}

// Run starts the peer link and the delivery pump, then blocks in the REPL
// until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.closeDB()

	if err := a.startPeer(ctx); err != nil {
		_ = a.peer.Close()
		return err
	}

	chatDone := make(chan error, 1)
	go func() { chatDone <- a.chat.Run(ctx) }()

	a.view.Printf("ftpchat, transfers via %s (type 'help' for commands)\n", transfer.ResourceURL(models.ServerCredentials{
		Scheme: a.creds.Scheme, Host: a.creds.Host, Port: a.creds.EffectivePort(),
	}, ""))
	runREPL(ctx, a, a.in)

	a.downloads.Wait()
	cancel()
	_ = a.peer.Close()
	return <-chatDone
}

func (a *App) startPeer(ctx context.Context) error {
	switch {
	case a.cfg.ListenAddr != "":
		a.setRole("hosting " + a.cfg.ListenAddr)
		go func() {
			if err := a.peer.Listen(ctx, a.cfg.ListenAddr); err != nil {
				a.log.Error(ctx, "peer server stopped", "error", err)
				a.view.Notice(ctx, common.NoticeConnectionFailed)
			}
		}()
		return nil

	case a.cfg.PeerAddr != "":
		a.setRole("joined " + a.cfg.PeerAddr)
		return a.peer.Connect(ctx, a.cfg.PeerAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))

	default:
		a.setRole("offline")
		return nil
	}
}

func (a *App) setRole(r string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.role = r
}

func (a *App) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var parts []string
	if a.role != "" {
		parts = append(parts, a.role)
	}
	if n := len(a.attached); n > 0 {
		parts = append(parts, fmt.Sprintf("%d attached", n))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (a *App) Attach(ctx context.Context, paths []string) error {
	var missing []string

	a.mu.Lock()
	for _, p := range paths {
		if !filex.Exists(p) {
			missing = append(missing, p)
			continue
		}
		a.attached = append(a.attached, models.NewLocalFileRef(p))
	}
	n := len(a.attached)
	a.mu.Unlock()

	for _, p := range missing {
		a.view.Notice(ctx, "no such file: "+p)
	}
	a.view.Printf("%d file(s) attached\n", n)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrorNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func (a *App) Detach(ctx context.Context) error {
	a.mu.Lock()
	a.attached = nil
	a.mu.Unlock()

	a.view.Printf("attachments cleared\n")
	return nil
}

func (a *App) Send(ctx context.Context, caption string) error {
	a.mu.Lock()
	files := append([]models.LocalFileRef(nil), a.attached...)
	a.mu.Unlock()

	outcomes, err := a.chat.Send(ctx, caption, files)
	if err != nil {
		a.log.Warn(ctx, "send failed", "error", err)
		return err
	}

	a.mu.Lock()
	a.attached = nil
	a.mu.Unlock()

	var errs []error
	for _, o := range outcomes {
		if o.Err == nil {
			continue
		}
		name := "message"
		if o.File != nil {
			name = o.File.DisplayName
		}
		a.view.Printf("  %s: %v\n", name, o.Err)
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

func (a *App) Files(ctx context.Context) error {
	names, err := a.transfer.ListRemote(ctx, a.creds)
	if err != nil {
		a.view.Notice(ctx, common.NoticeConnectionFailed)
		a.log.Warn(ctx, "list failed", "error", err)
		return err
	}

	if len(names) == 0 {
		a.view.Printf("no files in %s\n", a.cfg.RemoteDir)
		return nil
	}
	for _, n := range names {
		a.view.Printf("  %s\n", n)
	}
	return nil
}

// Download starts fetching the attachment of the message whose id starts
// with prefix. Completion is reported asynchronously.
func (a *App) Download(ctx context.Context, prefix string) error {
	id, err := a.resolveID(ctx, prefix)
	if err != nil {
		a.view.Notice(ctx, err.Error())
		return err
	}

	ch, err := a.chat.Download(ctx, id)
	if err != nil {
		a.view.Notice(ctx, common.NoticeDownloadFailed)
		return err
	}

	a.view.Printf("downloading [%s] ...\n", shortID(id))
	a.downloads.Add(1)
	go func() {
		defer a.downloads.Done()
		res := <-ch
		if res.Err != nil {
			a.view.Notice(ctx, common.NoticeDownloadFailed)
			return
		}
		a.view.Printf("[%s] saved to %s\n", shortID(res.MessageID), res.Path)
	}()
	return nil
}

func (a *App) resolveID(ctx context.Context, prefix string) (string, error) {
	recs, err := a.chat.History(ctx)
	if err != nil {
		return "", err
	}

	var found []string
	for _, r := range recs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			found = append(found, r.ID)
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("message %s: %w", prefix, common.ErrorNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("message %s: %w: ambiguous id", prefix, common.ErrorInvalidArgument)
	}
}

func (a *App) History(ctx context.Context) error {
	recs, err := a.chat.History(ctx)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		a.view.Printf("no messages yet\n")
		return nil
	}
	for _, r := range recs {
		arrow := ">"
		if r.Direction == models.Incoming {
			arrow = "<"
		}
		a.view.Printf("%s [%s] %s %-16s %s\n", arrow, shortID(r.ID), r.CreatedAt.Format("15:04:05"), r.State, r.Payload)
	}
	return nil
}
