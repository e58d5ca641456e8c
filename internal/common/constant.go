// Package common contains shared constants and sentinel errors used across
// ftpchat components.
package common

import "time"

const (
	// DefaultFTPPort is used when ServerCredentials carry no port.
	DefaultFTPPort = 21

	// DefaultTimeout bounds connect and per-operation I/O on transfer sessions.
	DefaultTimeout = 15 * time.Second

	// DefaultRemoteDir is the directory listed by the "files" command.
	DefaultRemoteDir = "/FTP_SERVER_ROOT"

	// NoticeConnectionFailed and friends are the short user-facing notices
	// printed for failures.
	NoticeConnectionFailed  = "connection failed"
	NoticeUploadFailed      = "upload failed"
	NoticeDownloadFailed    = "download failed"
	NoticeNothingToSend     = "nothing to send"
	NoticeNotDelivered      = "message not delivered"
	NoticeDuplicateUpload   = "file was already sent in this session"
	NoticeTransferInProcess = "file transfer in progress"
)
