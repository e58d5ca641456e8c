package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/cryptox"
	"github.com/dmitrijs2005/ftpchat/internal/filex"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/transfer"
)

// Session is the part of transfer.Session used by the services.
type Session interface {
	State() transfer.State
	Connect(ctx context.Context, creds models.ServerCredentials) error
	Upload(ctx context.Context, localPath, remotePath string) error
	Download(ctx context.Context, remotePath, localDir, localFileName string) (string, error)
	List(ctx context.Context, remoteDir string) ([]string, error)
	Disconnect(ctx context.Context)
}

// SessionFactory returns a fresh, disconnected Session.
type SessionFactory func() Session

// TransferSettings are the directories the orchestrator works with.
type TransferSettings struct {
	RemoteDir   string
	DownloadDir string
	AppDir      string
}

// UploadResult is the outcome for one file of a batch. Exactly one of Ref
// and Err is set.
type UploadResult struct {
	File models.LocalFileRef
	Ref  *models.RemoteReference
	Err  error
}

type TransferService interface {
	// UploadBatch uploads files in order over one session. A connect failure
	// is returned as an error and no upload is attempted.
	UploadBatch(ctx context.Context, creds models.ServerCredentials, files []models.LocalFileRef) ([]UploadResult, error)
	Download(ctx context.Context, ref models.RemoteReference, creds models.ServerCredentials) (string, error)
	ListRemote(ctx context.Context, creds models.ServerCredentials) ([]string, error)
	Exists(ctx context.Context, creds models.ServerCredentials, name string) (bool, error)
}

type transferService struct {
	newSession SessionFactory
	settings   TransferSettings
	log        logging.Logger
}

func NewTransferService(f SessionFactory, settings TransferSettings, log logging.Logger) TransferService {
	return &transferService{newSession: f, settings: settings, log: log.With("module", "transfer_service")}
}

// RemotePath derives the remote name of f: "{category}_{segment}{ext}" where
// segment is the second ':'-separated field of the local path, or "unknown"
// when the path has no ':'.
func RemotePath(f models.LocalFileRef) string {
	segment := "unknown"
	if strings.Contains(f.Path, ":") {
		segment = strings.Split(f.Path, ":")[1]
	}
	return fmt.Sprintf("%s_%s%s", f.Category(), segment, f.Extension)
}

func (t *transferService) UploadBatch(ctx context.Context, creds models.ServerCredentials, files []models.LocalFileRef) ([]UploadResult, error) {
	s := t.newSession()
	if err := s.Connect(ctx, creds); err != nil {
		t.log.Error(ctx, "connect failed", "addr", creds.Addr(), "error", err)
		return nil, err
	}
	defer s.Disconnect(ctx)

	results := make([]UploadResult, 0, len(files))
	var connErr error

	for _, f := range files {
		res := UploadResult{File: f}

		if connErr == nil && s.State() == transfer.Failed {
			t.log.Info(ctx, "reconnecting after transfer failure", "addr", creds.Addr())
			if err := s.Connect(ctx, creds); err != nil {
				t.log.Error(ctx, "reconnect failed", "addr", creds.Addr(), "error", err)
				connErr = err
			}
		}
		if connErr != nil {
			res.Err = connErr
			results = append(results, res)
			continue
		}

		remote := RemotePath(f)
		if err := s.Upload(ctx, f.Path, remote); err != nil {
			t.log.Warn(ctx, "upload failed", "local_path", f.Path, "remote_path", remote, "error", err)
			res.Err = err
			results = append(results, res)
			continue
		}

		digest, err := cryptox.FileDigest(f.Path)
		if err != nil {
			t.log.Warn(ctx, "digest failed", "local_path", f.Path, "error", err)
		}

		res.Ref = &models.RemoteReference{
			RemotePath: remote,
			URL:        transfer.ResourceURL(creds, remote),
			Digest:     digest,
		}
		t.log.Info(ctx, "uploaded", "remote_path", remote)
		results = append(results, res)
	}

	return results, nil
}

func (t *transferService) Download(ctx context.Context, ref models.RemoteReference, creds models.ServerCredentials) (string, error) {
	dir, err := filex.ResolveDownloadDir(t.settings.DownloadDir, t.settings.AppDir)
	if err != nil {
		return "", fmt.Errorf("download dir: %w", err)
	}

	s := t.newSession()
	if err := s.Connect(ctx, creds); err != nil {
		return "", err
	}
	defer s.Disconnect(ctx)

	local, err := s.Download(ctx, ref.RemotePath, dir, path.Base(ref.RemotePath))
	if err != nil {
		return "", err
	}
	t.log.Info(ctx, "downloaded", "remote_path", ref.RemotePath, "local_path", local)
	return local, nil
}

func (t *transferService) ListRemote(ctx context.Context, creds models.ServerCredentials) ([]string, error) {
	return t.list(ctx, creds, t.settings.RemoteDir)
}

// Exists reports whether name is a plain file on the server.
func (t *transferService) Exists(ctx context.Context, creds models.ServerCredentials, name string) (bool, error) {
	dir := path.Dir(name)
	if dir == "." {
		dir = ""
	}

	names, err := t.list(ctx, creds, dir)
	if err != nil {
		return false, err
	}

	base := path.Base(name)
	for _, n := range names {
		if n == base || n == name {
			return true, nil
		}
	}
	return false, nil
}

func (t *transferService) list(ctx context.Context, creds models.ServerCredentials, dir string) ([]string, error) {
	s := t.newSession()
	if err := s.Connect(ctx, creds); err != nil {
		return nil, err
	}
	defer s.Disconnect(ctx)

	return s.List(ctx, dir)
}
