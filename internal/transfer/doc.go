// Package transfer implements the client side of a file-transfer session:
// connect, list, upload, download and disconnect against one remote server,
// plus construction of the resource URL that identifies a stored file.
//
// A Session owns exactly one live connection and permits one operation at a
// time. Operations started while another one is running fail with ErrBusy
// instead of queueing. Protocol details live behind Dialer and Conn; FTPDialer
// speaks FTP in binary mode and S3Dialer talks to an S3-compatible object
// store.
//
// States
//
//	Disconnected --Connect ok--> Connected
//	Connected --op ok / op rejected--> Connected
//	Connected --op I/O failure--> Failed
//	Failed --Connect ok--> Connected
//	any --Disconnect--> Disconnected
//
// The session never reconnects on its own; retry policy belongs to callers.
package transfer
