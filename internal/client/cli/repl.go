package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// captionPromptOut receives the caption prompt.
var captionPromptOut io.Writer = os.Stdout

// execIface is the command surface the REPL drives. App satisfies it; tests
// use a stub.
type execIface interface {
	Attach(ctx context.Context, paths []string) error
	Detach(ctx context.Context) error
	Send(ctx context.Context, caption string) error
	Files(ctx context.Context) error
	Download(ctx context.Context, id string) error
	History(ctx context.Context) error
	Status() string
}

const helpText = `Available commands:
  attach <path>...   add files to the next message
  detach             drop attached files
  send [caption]     upload attachments and send (caption prompted when omitted)
  files              list files on the server
  download <id>      fetch the attachment of a message
  history            show the conversation
  exit | quit        leave the program`

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, "exit" or "quit", or when ctx is done. Command errors
// are already reported by the handlers. A bare "send" reads a multi-line
// caption from the same reader.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ftpchat %s> ", a.Status()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "attach", "a":
			if len(args) == 0 {
				printlnFn("Usage: attach <path>...")
				continue
			}
			_ = a.Attach(ctx, args)

		case "detach":
			_ = a.Detach(ctx)

		case "send", "s":
			caption := strings.Join(args, " ")
			if caption == "" {
				c, err := GetMultiline(reader, "Caption", captionPromptOut)
				if err != nil {
					printlnFn("Error:", err)
					continue
				}
				caption = c
			}
			_ = a.Send(ctx, caption)

		case "files", "ls":
			_ = a.Files(ctx)

		case "download", "get":
			if len(args) != 1 {
				printlnFn("Usage: download <id>")
				continue
			}
			_ = a.Download(ctx, args[0])

		case "history", "h":
			_ = a.History(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
