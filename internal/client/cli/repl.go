package cli

import (
	"context"
	"errors"
	"io"
	"strings"
)

const (
	helpLoggedOut = "Available commands: register, login, ping, exit"
	helpLoggedIn  = "Available commands: (l)ist, add, show <id>, update <id>, delete <id>, check, watch, unwatch, logout, ping, exit"
)

// runREPL reads one command per line and dispatches it. Handler errors are
// printed and the loop continues; EOF or "exit" ends it.
func runREPL(ctx context.Context, a *App) {
	for {
		a.printf("%s", a.prompt())
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			a.println()
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			a.println("Bye!")
			return
		}
		if err := a.dispatch(ctx, cmd, args); err != nil {
			a.println("error:", err)
		}
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.api.LoggedIn() {
			a.println(helpLoggedIn)
		} else {
			a.println(helpLoggedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "ping":
		return a.Ping(ctx)
	case "l", "list":
		return a.List(ctx)
	case "add":
		return a.Add(ctx)
	case "show":
		return a.Show(ctx, args)
	case "update":
		return a.Update(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "check":
		return a.Check(ctx)
	case "watch":
		return a.Watch(ctx)
	case "unwatch":
		a.stopWatching()
		return nil
	default:
		a.println("Unknown command:", cmd)
		return nil
	}
}
