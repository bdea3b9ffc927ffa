package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"fintrack/internal/apiclient"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/router"
)

var (
	errLoginRequired = errors.New("login required: run `fintrack login` first")
	errUsage         = errors.New("usage")
)

type command struct {
	// route is the view the command belongs to; the router guard decides
	// whether it may run. Empty means unguarded.
	route string
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"signup":       {route: "/signup", usage: "signup -email E -nickname N [-password P]", run: runSignup},
	"login":        {route: "/login", usage: "login -email E [-password P]", run: runLogin},
	"logout":       {usage: "logout", run: runLogout},
	"whoami":       {route: "/", usage: "whoami", run: runWhoami},
	"dashboard":    {route: "/", usage: "dashboard [-year Y -month M]", run: runDashboard},
	"accounts":     {route: "/accounts", usage: "accounts list|get|create|update|delete|summary", run: runAccounts},
	"categories":   {route: "/categories", usage: "categories list|create|update|delete", run: runCategories},
	"transactions": {route: "/transactions", usage: "transactions list|create|update|delete|summary|daily", run: runTransactions},
	"export":       {route: "/export", usage: "export -format csv|xlsx [-start D] [-end D] [-out DIR | -gcs-bucket B] [-sheet]", run: runExport},
	"events":       {route: "/", usage: "events [-queue Q]", run: runEvents},
	"sync":         {route: "/transactions", usage: "sync [-queue Q] [-months N] [-once]", run: runSync},
}

// env is what a command runs against.
type env struct {
	app *cli.App
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext()
	code := run(ctx, cfg, logger, cli.Options{}, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, opts cli.Options, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	ctx = log.NewContext(ctx, logger.With("command", args[0]))
	app, err := cli.Bootstrap(ctx, cfg, logger, opts)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()

	e := &env{app: app, in: bufio.NewReader(stdin), out: stdout, err: stderr}
	if cmd.route != "" {
		if err := e.enter(ctx, cmd.route); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}
	if err := cmd.run(ctx, e, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: fintrack %s\n", cmd.usage)
			return 2
		}
		fmt.Fprintln(stderr, "error:", describe(err))
		return 1
	}
	return 0
}

// enter navigates to route and reports a guard redirect as an error.
func (e *env) enter(ctx context.Context, route string) error {
	nav, err := e.app.Router.Push(ctx, route)
	if err != nil {
		return err
	}
	if !nav.Redirected() {
		return nil
	}
	switch nav.Route.Path {
	case router.LoginPath:
		return errLoginRequired
	case router.HomePath:
		return fmt.Errorf("already logged in as %s: run `fintrack logout` first", e.app.Session.User().DisplayName())
	}
	return fmt.Errorf("redirected to %s", nav.Route.Path)
}

// describe prefers the backend's message over transport detail.
func describe(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiclient.IsUnauthorized(err) {
			return "session expired: run `fintrack login` again"
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiclient.IsNotFound(err) {
			return fmt.Sprintf("%s not found", apiErr.Path)
		}
	}
	return err.Error()
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: fintrack <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// readSecret prompts for a value on the input stream when the flag was not
// given.
func (e *env) readSecret(prompt string) (string, error) {
	fmt.Fprint(e.err, prompt)
	line, err := e.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
