// Package delivery tracks the delivery and transfer progress of chat
// messages as asynchronous notifications arrive, and drives the matching
// presentation side effects through Hooks.
//
// Notifications for one message are applied in arrival order: Run pumps a
// single channel, and every record carries its own mutex so that callers
// applying notifications from other goroutines cannot lose updates.
//
// NotDelivered, TransferDone and TransferError end a message's visible
// lifecycle. After that only Displayed is still honoured, and only as a
// marker; the rendered content is never replaced again.
package delivery
