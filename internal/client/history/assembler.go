// Package history decides which renderable elements represent a message in
// the conversation view: text bubbles, download actions, media previews and
// in-progress indicators.
package history

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
	"github.com/dmitrijs2005/ftpchat/internal/payload"
	"github.com/dmitrijs2005/ftpchat/internal/transfer"
)

// ErrNothingToSend is returned for an outbound message with neither caption
// nor attachment. Its text doubles as the user notice.
var ErrNothingToSend = errors.New(common.NoticeNothingToSend)

// ErrNotDownloadable is reported by Activate for elements without a file.
var ErrNotDownloadable = errors.New("element has no downloadable file")

type ElementKind string

const (
	KindText     ElementKind = "text"
	KindDownload ElementKind = "download"
	KindPreview  ElementKind = "preview"
	KindPending  ElementKind = "pending"
)

// Element is one renderable piece of a message.
type Element struct {
	Kind      ElementKind
	MessageID string
	Text      string
	Ref       *models.RemoteReference
	Category  models.FileCategory
}

// Rendering is the ordered list of elements for one message.
type Rendering struct {
	MessageID string
	Direction models.Direction
	Elements  []Element
}

// Action returns the download element, if any.
func (r Rendering) Action() (Element, bool) {
	for _, el := range r.Elements {
		if el.Kind == KindDownload {
			return el, true
		}
	}
	return Element{}, false
}

// Downloader fetches a remote file and returns the local path.
type Downloader interface {
	Download(ctx context.Context, ref models.RemoteReference, creds models.ServerCredentials) (string, error)
}

// DownloadResult completes an activated download action.
type DownloadResult struct {
	MessageID string
	Path      string
	Err       error
}

type Assembler struct {
	creds      models.ServerCredentials
	downloader Downloader
	log        logging.Logger
}

// NewAssembler builds an Assembler that synthesizes references for inbound
// attachments from creds.
func NewAssembler(creds models.ServerCredentials, d Downloader, log logging.Logger) *Assembler {
	return &Assembler{creds: creds, downloader: d, log: log.With("module", "history")}
}

// ReferenceFor builds the RemoteReference of an attachment name on the
// currently configured server.
func (a *Assembler) ReferenceFor(name string) models.RemoteReference {
	return models.RemoteReference{RemotePath: name, URL: transfer.ResourceURL(a.creds, name)}
}

// Outbound renders a composed message. It fails with ErrNothingToSend when
// there is neither caption nor attachment.
func (a *Assembler) Outbound(rec models.MessageRecord) (Rendering, error) {
	p := payload.Decode(rec.Payload)
	if p.Empty() && rec.Ref == nil {
		return Rendering{}, ErrNothingToSend
	}

	r := Rendering{MessageID: rec.ID, Direction: models.Outgoing}
	if p.Caption != "" {
		r.Elements = append(r.Elements, Element{Kind: KindText, MessageID: rec.ID, Text: p.Caption})
	}

	ref := rec.Ref
	if ref == nil && p.HasAttachment() {
		synth := a.ReferenceFor(p.Attachment)
		ref = &synth
	}
	if ref != nil {
		r.Elements = append(r.Elements, a.fileElements(rec.ID, ref)...)
	}
	return r, nil
}

// Inbound renders a received message. Attachments get a reference on the
// configured server and a download action.
func (a *Assembler) Inbound(rec models.MessageRecord) Rendering {
	p := payload.Decode(rec.Payload)

	r := Rendering{MessageID: rec.ID, Direction: models.Incoming}
	if p.Caption != "" || !p.HasAttachment() {
		r.Elements = append(r.Elements, Element{Kind: KindText, MessageID: rec.ID, Text: p.Caption})
	}

	if p.HasAttachment() {
		ref := rec.Ref
		if ref == nil {
			synth := a.ReferenceFor(p.Attachment)
			ref = &synth
		}
		r.Elements = append(r.Elements, a.fileElements(rec.ID, ref)...)
	}
	return r
}

// Pending renders an inbound attachment that is not yet confirmed.
func (a *Assembler) Pending(rec models.MessageRecord) Rendering {
	p := payload.Decode(rec.Payload)
	return Rendering{
		MessageID: rec.ID,
		Direction: rec.Direction,
		Elements: []Element{{
			Kind:      KindPending,
			MessageID: rec.ID,
			Text:      fmt.Sprintf("receiving %s", p.Attachment),
			Category:  models.CategoryOfName(p.Attachment),
		}},
	}
}

func (a *Assembler) fileElements(id string, ref *models.RemoteReference) []Element {
	cat := models.CategoryOfName(ref.RemotePath)
	els := []Element{{
		Kind:      KindDownload,
		MessageID: id,
		Text:      path.Base(ref.RemotePath),
		Ref:       ref,
		Category:  cat,
	}}
	if cat.HasPreview() {
		els = append(els, Element{Kind: KindPreview, MessageID: id, Text: ref.URL, Ref: ref, Category: cat})
	}
	return els
}

// Activate runs the download bound to el on its own goroutine. The returned
// channel yields exactly one result and is then closed.
func (a *Assembler) Activate(ctx context.Context, el Element) <-chan DownloadResult {
	ch := make(chan DownloadResult, 1)

	if el.Kind != KindDownload || el.Ref == nil {
		ch <- DownloadResult{MessageID: el.MessageID, Err: ErrNotDownloadable}
		close(ch)
		return ch
	}

	ref := *el.Ref
	go func() {
		defer close(ch)
		p, err := a.downloader.Download(ctx, ref, a.creds)
		if err != nil {
			a.log.Warn(ctx, "download failed", "id", el.MessageID, "remote_path", ref.RemotePath, "error", err)
		}
		ch <- DownloadResult{MessageID: el.MessageID, Path: p, Err: err}
	}()
	return ch
}
