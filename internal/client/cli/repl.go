package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to
// operate. The real App type satisfies this interface; tests can provide
// a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Chats(ctx context.Context) error
	Open(ctx context.Context, peerID string) error
	OpenChannel(ctx context.Context, channelID string) error
	CloseChat()
	Send(ctx context.Context, text string) error
	SendFile(ctx context.Context, path string) error
	Delete(ctx context.Context, id string) error
	Who(ctx context.Context) error
	Profile(ctx context.Context) error
	SetName(ctx context.Context, name string) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
// Any errors returned by command handlers are printed here so the loop
// itself stays resilient.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("echo %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: chats, open <user>, channel <id>, close, send <text>, file <path>, delete <id>, who, profile, name <display name>, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "chats":
			err = a.Chats(ctx)

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <user id>")
				continue
			}
			err = a.Open(ctx, args[0])

		case "channel":
			if len(args) == 0 {
				printlnFn("Usage: channel <channel id>")
				continue
			}
			err = a.OpenChannel(ctx, args[0])

		case "close":
			a.CloseChat()

		case "send":
			// A bare "send" enters compose mode; the handler prompts.
			err = a.Send(ctx, strings.Join(args, " "))

		case "file":
			if len(args) == 0 {
				printlnFn("Usage: file <path>")
				continue
			}
			err = a.SendFile(ctx, args[0])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <message id>")
				continue
			}
			err = a.Delete(ctx, args[0])

		case "who":
			err = a.Who(ctx)

		case "profile":
			err = a.Profile(ctx)

		case "name":
			if len(args) == 0 {
				printlnFn("Usage: name <display name>")
				continue
			}
			err = a.SetName(ctx, strings.Join(args, " "))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
