// Package services implements the client use cases on top of the transfer
// layer, the messaging collaborator and the local history.
//
// TransferService owns short-lived transfer sessions: one per upload batch,
// one per download, one per listing. ChatService composes uploads with
// outgoing messages, renders inbound ones and routes delivery notifications
// through the delivery state machine.
package services
