package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// execIface is the command surface the REPL dispatches to. Console
// implements it.
type execIface interface {
	User() string
	SwitchUser(ctx context.Context, args string) error
	Add(ctx context.Context, args string) error
	Complete(ctx context.Context, args string) error
	Tasks(ctx context.Context) error
	AllTasks(ctx context.Context) error
	GetTask(ctx context.Context) error
	Remove(ctx context.Context, args string) error
	Purge(ctx context.Context) error
	Timezone(ctx context.Context, args string) error
	Give(ctx context.Context, args string) error
	Pending(ctx context.Context) error
	Accept(ctx context.Context, args string) error
	Decline(ctx context.Context, args string) error
}

// Run reads commands from in until EOF, "exit" or ctx cancellation. The
// prompt is shown only when in is a terminal.
func Run(ctx context.Context, c *Console, in io.Reader) {
	f, ok := in.(*os.File)
	interactive := ok && isTerminal(int(f.Fd()))
	runREPL(ctx, c, interactive, bufio.NewScanner(in))
}

// runREPL dispatches one command per line. Handler errors are already
// reported to the user, so they are dropped here.
func runREPL(ctx context.Context, a execIface, prompt bool, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		if prompt {
			printlnFn(fmt.Sprintf("todo> %s > ", a.User()))
		}
		if !scanner.Scan() {
			return
		}
		cmd, args, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if cmd == "" {
			continue
		}
		// Commands may be typed with a chat-style prefix.
		cmd = strings.ToLower(strings.TrimLeft(cmd, "!/"))

		switch cmd {
		case "help":
			printlnFn("Available commands: add, complete, tasks, alltasks, gettask, remove, purge, timezone, give, pending, accept, decline, user, exit")
		case "add":
			_ = a.Add(ctx, args)
		case "complete":
			_ = a.Complete(ctx, args)
		case "tasks":
			_ = a.Tasks(ctx)
		case "alltasks":
			_ = a.AllTasks(ctx)
		case "gettask":
			_ = a.GetTask(ctx)
		case "remove":
			_ = a.Remove(ctx, args)
		case "purge":
			_ = a.Purge(ctx)
		case "timezone", "tz":
			_ = a.Timezone(ctx, args)
		case "give":
			_ = a.Give(ctx, args)
		case "pending":
			_ = a.Pending(ctx)
		case "accept":
			_ = a.Accept(ctx, args)
		case "decline":
			_ = a.Decline(ctx, args)
		case "user":
			_ = a.SwitchUser(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
