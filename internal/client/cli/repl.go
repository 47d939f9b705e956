package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
type execIface interface {
	Register(ctx context.Context) error
	Activate(ctx context.Context) error
	Resend(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF
// or "exit"/"quit".
//
//	help          show available commands
//	register      create an account
//	activate      submit an activation code
//	resend        request a new activation code
//	exit | quit   leave the program
//
// Command errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("act %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Available commands: register, activate, resend, exit")

		case "register":
			_ = a.Register(ctx)

		case "activate":
			_ = a.Activate(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
