package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Sync(ctx context.Context) error
	Export(ctx context.Context) error
	List(ctx context.Context, kind string) error
	AddSite(ctx context.Context) error
	AddTruck(ctx context.Context) error
	AddDriver(ctx context.Context) error
	AddUser(ctx context.Context) error
	AddLoad(ctx context.Context) error
	Finalize(ctx context.Context, id string) error
	Delete(ctx context.Context, kind, id string) error
}

const (
	helpGuest    = "Available commands: login, sync, exit"
	helpOperator = "Available commands: list <kind>, addload, finalize <id>, delete loads <id>, sync, export, logout, exit"
	helpAdmin    = "Available commands: list <kind>, addsite, addtruck, adddriver, adduser, addload, finalize <id>, delete <kind> <id>, sync, export, logout, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit". Handler
// errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cargotrack %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case a.isAdmin():
				printlnFn(helpAdmin)
			case a.isLoggedIn():
				printlnFn(helpOperator)
			default:
				printlnFn(helpGuest)
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "export":
			_ = a.Export(ctx)

		case "l", "list":
			if len(args) != 1 {
				printlnFn("Usage: list <sites|trucks|drivers|users|loads>")
				continue
			}
			_ = a.List(ctx, args[0])

		case "addsite":
			_ = a.AddSite(ctx)

		case "addtruck":
			_ = a.AddTruck(ctx)

		case "adddriver":
			_ = a.AddDriver(ctx)

		case "adduser":
			_ = a.AddUser(ctx)

		case "addload":
			_ = a.AddLoad(ctx)

		case "finalize":
			if len(args) != 1 {
				printlnFn("Usage: finalize <id>")
				continue
			}
			_ = a.Finalize(ctx, args[0])

		case "delete":
			if len(args) != 2 {
				printlnFn("Usage: delete <kind> <id>")
				continue
			}
			_ = a.Delete(ctx, args[0], args[1])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
