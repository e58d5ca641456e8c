// Package cli provides the interactive ftpchat command-line client.
//
// It wires configuration, the transfer backend, the peer link, the local
// history and a REPL. Typical flow: host (-l) or join (-j) a chat, attach
// files, send them with an optional caption, and download attachments the
// peer sent.
//
// Commands:
//   - attach <path>... / detach
//   - send [caption]
//   - files
//   - download <id>
//   - history
//   - help / exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
