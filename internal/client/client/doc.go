// Package client contains the client-side building blocks that talk to the
// outside world: the messaging collaborator and the local history database.
//
// # Overview
//
//  1. Messenger is the boundary to the chat channel: create a message, send
//     it, observe its delivery states, receive inbound messages.
//  2. GRPCPeer implements Messenger over a single bidirectional gRPC stream
//     shared by two peers. One side hosts (Serve/Listen), the other joins
//     (Connect). Frames are structpb.Struct values carried by the default
//     proto codec, so no generated code is involved.
//  3. InitDatabase and RunMigrations open the optional SQLite history and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable and can be matched with
// errors.Is.
//
// # Concurrency
//
// GRPCPeer is safe for concurrent use. State notifications for one message
// are emitted on States in the order they happen locally or arrive from the
// peer. ReportTransfer and MarkDisplayed never block: states and outgoing
// receipts go through unbounded queues drained by their own goroutines.
// Only Received applies backpressure, and Close releases it.
package client
