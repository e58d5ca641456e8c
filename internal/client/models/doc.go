// Package models defines the client-side value types shared by the transfer,
// delivery and history layers: server credentials, local and remote file
// references, message records and their delivery states.
package models
