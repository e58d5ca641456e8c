package models

import "time"

// Direction tells whether a message was composed locally or received.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// DeliveryState is the lifecycle stage of a message as reported by the
// messaging collaborator or by the transfer layer.
type DeliveryState string

const (
	StateQueued             DeliveryState = "queued"
	StateInProgress         DeliveryState = "in_progress"
	StateDelivered          DeliveryState = "delivered"
	StateDeliveredToPeer    DeliveryState = "delivered_to_peer"
	StateDisplayed          DeliveryState = "displayed"
	StateNotDelivered       DeliveryState = "not_delivered"
	StateTransferInProgress DeliveryState = "transfer_in_progress"
	StateTransferDone       DeliveryState = "transfer_done"
	StateTransferError      DeliveryState = "transfer_error"
)

// Known reports whether s is one of the defined states.
func (s DeliveryState) Known() bool {
	switch s {
	case StateQueued, StateInProgress, StateDelivered, StateDeliveredToPeer, StateDisplayed,
		StateNotDelivered, StateTransferInProgress, StateTransferDone, StateTransferError:
		return true
	}
	return false
}

// Final reports whether s ends the visible lifecycle of a message.
func (s DeliveryState) Final() bool {
	return s == StateNotDelivered || s == StateTransferDone || s == StateTransferError
}

// RemoteReference locates an uploaded file. Digest is the hex content hash
// for outbound uploads and empty for references synthesized from inbound
// payloads.
type RemoteReference struct {
	RemotePath string
	URL        string
	Digest     string
}

// MessageRecord is one entry of the session history. Payload is the wire
// text exactly as sent or received.
type MessageRecord struct {
	ID        string
	Direction Direction
	Payload   string
	Ref       *RemoteReference
	State     DeliveryState
	CreatedAt time.Time
}
