package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/ftpchat/internal/client/history"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/client/services"
)

var stateLabels = map[models.DeliveryState]string{
	models.StateQueued:          "queued",
	models.StateInProgress:      "sending",
	models.StateDelivered:       "server acked",
	models.StateDeliveredToPeer: "peer has it",
	models.StateDisplayed:       "peer read it",
	models.StateNotDelivered:    "failed",
	models.StateTransferDone:    "file transferred",
}

// consoleView prints the conversation to a writer. Calls come from the REPL
// goroutine and the delivery pump, so writes are serialized.
type consoleView struct {
	mu sync.Mutex
	w  io.Writer
}

var _ services.View = (*consoleView)(nil)

func newConsoleView(w io.Writer) *consoleView {
	return &consoleView{w: w}
}

func (v *consoleView) Render(ctx context.Context, r history.Rendering) {
	v.mu.Lock()
	defer v.mu.Unlock()

	arrow := ">"
	if r.Direction == models.Incoming {
		arrow = "<"
	}
	for _, el := range r.Elements {
		fmt.Fprintf(v.w, "%s [%s] %s\n", arrow, shortID(r.MessageID), formatElement(el))
	}
}

func formatElement(el history.Element) string {
	switch el.Kind {
	case history.KindDownload:
		return fmt.Sprintf("file %s (%s), type 'download %s'", el.Text, el.Category, shortID(el.MessageID))
	case history.KindPreview:
		return fmt.Sprintf("preview %s", el.Text)
	case history.KindPending:
		return fmt.Sprintf("%s ...", el.Text)
	default:
		return el.Text
	}
}

func (v *consoleView) Mark(ctx context.Context, id string, state models.DeliveryState) {
	label, ok := stateLabels[state]
	if !ok {
		label = string(state)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "  [%s] %s\n", shortID(id), label)
}

func (v *consoleView) Notice(ctx context.Context, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "! %s\n", text)
}

func (v *consoleView) Printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, format, args...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
