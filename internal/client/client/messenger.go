package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/delivery"
	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

// Handle is a created, not yet sent message.
type Handle struct {
	ID   string
	Text string
}

// InboundMessage is a message received from the peer.
type InboundMessage struct {
	ID         string
	Text       string
	ReceivedAt time.Time
}

// Messenger is the messaging collaborator: create, send, observe state,
// receive.
type Messenger interface {
	CreateMessage(text string) Handle
	// Send transmits h. Its progress is reported on States: InProgress, then
	// Delivered or NotDelivered.
	Send(ctx context.Context, h Handle) error
	// States streams delivery notifications for sent and received messages.
	States() <-chan delivery.Notification
	// Received streams inbound messages.
	Received() <-chan InboundMessage
	// ReportTransfer injects a transfer state for id into the States stream,
	// keeping it ordered with the collaborator's own notifications.
	ReportTransfer(id string, state models.DeliveryState)
	// MarkDisplayed tells the peer that an inbound message was shown.
	MarkDisplayed(ctx context.Context, id string) error
	Close() error
}
