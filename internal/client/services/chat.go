package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/client"
	"github.com/dmitrijs2005/ftpchat/internal/client/delivery"
	"github.com/dmitrijs2005/ftpchat/internal/client/history"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/cryptox"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/payload"
)

// View is the conversation surface the chat service draws on.
type View interface {
	Render(ctx context.Context, r history.Rendering)
	Mark(ctx context.Context, id string, state models.DeliveryState)
	Notice(ctx context.Context, text string)
}

// SendOutcome describes one message, or one failed attachment, produced by
// Send.
type SendOutcome struct {
	File      *models.LocalFileRef
	Record    *models.MessageRecord
	Rendering history.Rendering
	Duplicate bool
	Err       error
}

type ChatService interface {
	// Send uploads files and sends one message per uploaded file. The caption
	// travels with the first message only.
	Send(ctx context.Context, caption string, files []models.LocalFileRef) ([]SendOutcome, error)
	Receive(ctx context.Context, in client.InboundMessage) (history.Rendering, error)
	History(ctx context.Context) ([]models.MessageRecord, error)
	// Download activates the download action of a message.
	Download(ctx context.Context, id string) (<-chan history.DownloadResult, error)
	// Run pumps delivery states and inbound messages until ctx is done or
	// the messenger is closed.
	Run(ctx context.Context) error
	// Wait blocks until background attachment checks have finished.
	Wait()
}

type chatService struct {
	creds     models.ServerCredentials
	transfer  TransferService
	messenger client.Messenger
	repo      messages.Repository
	assembler *history.Assembler
	machine   *delivery.Machine
	view      View
	log       logging.Logger
	now       func() time.Time

	sentMu sync.Mutex
	sent   map[string]struct{}

	wg sync.WaitGroup
}

func NewChatService(
	creds models.ServerCredentials,
	ts TransferService,
	m client.Messenger,
	repo messages.Repository,
	view View,
	log logging.Logger,
) ChatService {
	c := &chatService{
		creds:     creds,
		transfer:  ts,
		messenger: m,
		repo:      repo,
		view:      view,
		log:       log.With("module", "chat_service"),
		now:       time.Now,
		sent:      make(map[string]struct{}),
	}
	c.assembler = history.NewAssembler(creds, ts, log)
	c.machine = delivery.NewMachine(hooks{c}, repo, log)
	return c
}

func (c *chatService) Send(ctx context.Context, caption string, files []models.LocalFileRef) ([]SendOutcome, error) {
	if caption == "" && len(files) == 0 {
		c.view.Notice(ctx, common.NoticeNothingToSend)
		return nil, history.ErrNothingToSend
	}

	if len(files) == 0 {
		return []SendOutcome{c.sendMessage(ctx, payload.Encode(caption, ""), nil)}, nil
	}

	results, err := c.transfer.UploadBatch(ctx, c.creds, files)
	if err != nil {
		c.view.Notice(ctx, common.NoticeConnectionFailed)
		return nil, err
	}

	outcomes := make([]SendOutcome, 0, len(results))
	pendingCaption := caption

	for _, r := range results {
		f := r.File
		if r.Err != nil {
			c.view.Notice(ctx, fmt.Sprintf("%s: %s", common.NoticeUploadFailed, f.DisplayName))
			outcomes = append(outcomes, SendOutcome{File: &f, Err: r.Err})
			continue
		}

		dup := c.markSent(*r.Ref)
		if dup {
			c.view.Notice(ctx, fmt.Sprintf("%s: %s", common.NoticeDuplicateUpload, f.DisplayName))
		}

		out := c.sendMessage(ctx, payload.Encode(pendingCaption, r.Ref.RemotePath), r.Ref)
		pendingCaption = ""
		out.File = &f
		out.Duplicate = dup

		if out.Err == nil {
			c.messenger.ReportTransfer(out.Record.ID, models.StateTransferDone)
		}
		outcomes = append(outcomes, out)
	}

	// every upload failed: the caption still goes out on its own
	if pendingCaption != "" {
		outcomes = append(outcomes, c.sendMessage(ctx, payload.Encode(pendingCaption, ""), nil))
	}

	return outcomes, nil
}

func (c *chatService) sendMessage(ctx context.Context, wire string, ref *models.RemoteReference) SendOutcome {
	h := c.messenger.CreateMessage(wire)
	rec := models.MessageRecord{
		ID:        h.ID,
		Direction: models.Outgoing,
		Payload:   wire,
		Ref:       ref,
		State:     models.StateQueued,
		CreatedAt: c.now(),
	}

	rendering, err := c.assembler.Outbound(rec)
	if err != nil {
		return SendOutcome{Err: err}
	}

	if err := c.repo.Append(ctx, rec); err != nil {
		c.log.Error(ctx, "history append failed", "id", rec.ID, "error", err)
	}
	c.machine.Track(rec)
	c.view.Render(ctx, rendering)

	out := SendOutcome{Record: &rec, Rendering: rendering}
	if err := c.messenger.Send(ctx, h); err != nil {
		out.Err = err
	}
	return out
}

func (c *chatService) markSent(ref models.RemoteReference) (duplicate bool) {
	if ref.Digest == "" {
		return false
	}
	key := cryptox.ReferenceKey(ref.RemotePath, ref.Digest)

	c.sentMu.Lock()
	defer c.sentMu.Unlock()

	if _, ok := c.sent[key]; ok {
		return true
	}
	c.sent[key] = struct{}{}
	return false
}

func (c *chatService) Receive(ctx context.Context, in client.InboundMessage) (history.Rendering, error) {
	p := payload.Decode(in.Text)

	rec := models.MessageRecord{
		ID:        in.ID,
		Direction: models.Incoming,
		Payload:   in.Text,
		State:     models.StateDeliveredToPeer,
		CreatedAt: in.ReceivedAt,
	}
	if p.HasAttachment() {
		ref := c.assembler.ReferenceFor(p.Attachment)
		rec.Ref = &ref
	}

	if err := c.repo.Append(ctx, rec); err != nil {
		return history.Rendering{}, fmt.Errorf("history append: %w", err)
	}
	c.machine.Track(rec)

	if !p.HasAttachment() {
		r := c.assembler.Inbound(rec)
		c.view.Render(ctx, r)
		if err := c.messenger.MarkDisplayed(ctx, rec.ID); err != nil {
			c.log.Warn(ctx, "mark displayed failed", "id", rec.ID, "error", err)
		}
		return r, nil
	}

	r := c.assembler.Pending(rec)
	c.view.Render(ctx, r)
	c.messenger.ReportTransfer(rec.ID, models.StateTransferInProgress)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.confirm(ctx, rec.ID, p.Attachment)
	}()

	return r, nil
}

// confirm checks that an inbound attachment can be fetched and reports the
// outcome as a transfer state.
func (c *chatService) confirm(ctx context.Context, id, name string) {
	ok, err := c.transfer.Exists(ctx, c.creds, name)
	switch {
	case err != nil:
		c.log.Warn(ctx, "attachment check failed", "id", id, "name", name, "error", err)
		c.messenger.ReportTransfer(id, models.StateTransferError)
	case !ok:
		c.log.Warn(ctx, "attachment missing on server", "id", id, "name", name)
		c.messenger.ReportTransfer(id, models.StateTransferError)
	default:
		c.messenger.ReportTransfer(id, models.StateTransferDone)
	}
}

func (c *chatService) History(ctx context.Context) ([]models.MessageRecord, error) {
	return c.repo.List(ctx)
}

func (c *chatService) Download(ctx context.Context, id string) (<-chan history.DownloadResult, error) {
	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var r history.Rendering
	if rec.Direction == models.Outgoing {
		r, err = c.assembler.Outbound(*rec)
		if err != nil {
			return nil, err
		}
	} else {
		r = c.assembler.Inbound(*rec)
	}

	el, ok := r.Action()
	if !ok {
		return nil, history.ErrNotDownloadable
	}
	return c.assembler.Activate(ctx, el), nil
}

func (c *chatService) Run(ctx context.Context) error {
	pumpErr := make(chan error, 1)
	go func() {
		pumpErr <- c.machine.Run(ctx, c.messenger.States())
	}()

	inbound := c.messenger.Received()
	for inbound != nil {
		select {
		case <-ctx.Done():
			inbound = nil
		case in, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			if _, err := c.Receive(ctx, in); err != nil {
				c.log.Error(ctx, "receive failed", "id", in.ID, "error", err)
			}
		}
	}

	err := <-pumpErr
	c.wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *chatService) Wait() {
	c.wg.Wait()
}

// hooks adapts the chat service to delivery.Hooks.
type hooks struct {
	c *chatService
}

func (h hooks) Marker(ctx context.Context, rec models.MessageRecord, state models.DeliveryState) {
	h.c.view.Mark(ctx, rec.ID, state)
}

func (h hooks) Notice(ctx context.Context, rec models.MessageRecord, text string) {
	h.c.view.Notice(ctx, text)
}

func (h hooks) Finalize(ctx context.Context, rec models.MessageRecord) {
	h.c.view.Render(ctx, h.c.assembler.Inbound(rec))
	if err := h.c.messenger.MarkDisplayed(ctx, rec.ID); err != nil {
		h.c.log.Warn(ctx, "mark displayed failed", "id", rec.ID, "error", err)
	}
}
