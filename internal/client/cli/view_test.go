package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/ftpchat/internal/client/history"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

func TestConsoleView(t *testing.T) {
	var buf bytes.Buffer
	v := newConsoleView(&buf)
	ctx := context.Background()

	ref := &models.RemoteReference{RemotePath: "image_1.png", URL: "ftp://h:21/image_1.png"}
	v.Render(ctx, history.Rendering{
		MessageID: "0123456789",
		Direction: models.Outgoing,
		Elements: []history.Element{
			{Kind: history.KindText, MessageID: "0123456789", Text: "hi"},
			{Kind: history.KindDownload, MessageID: "0123456789", Text: "image_1.png", Ref: ref, Category: models.CategoryImage},
			{Kind: history.KindPreview, MessageID: "0123456789", Text: ref.URL, Ref: ref, Category: models.CategoryImage},
		},
	})
	v.Render(ctx, history.Rendering{
		MessageID: "in",
		Direction: models.Incoming,
		Elements:  []history.Element{{Kind: history.KindPending, MessageID: "in", Text: "receiving a.pdf"}},
	})
	v.Mark(ctx, "0123456789", models.StateDeliveredToPeer)
	v.Mark(ctx, "in", models.StateTransferInProgress)
	v.Notice(ctx, "upload failed")

	want := "> [01234567] hi\n" +
		"> [01234567] file image_1.png (image), type 'download 01234567'\n" +
		"> [01234567] preview ftp://h:21/image_1.png\n" +
		"< [in] receiving a.pdf ...\n" +
		"  [01234567] peer has it\n" +
		"  [in] transfer_in_progress\n" +
		"! upload failed\n"
	assert.Equal(t, want, buf.String())
}
