package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/billed/internal/client"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// rootConfig holds the flags shared by every subcommand
type rootConfig struct {
	url      *string
	email    *string
	authUser *string
	authPass *string
}

func (c rootConfig) clientConfig() client.Config {
	return client.Config{
		BaseURL:  *c.url,
		Email:    *c.email,
		Username: *c.authUser,
		Password: *c.authPass,
	}
}

func newRootCommand(stdout, stderr io.Writer) *ff.Command {
	rootFlags := ff.NewFlagSet("billed")
	cfg := rootConfig{
		url:      rootFlags.StringLong("url", "http://localhost:8080", "Bill service base URL"),
		email:    rootFlags.StringLong("email", "", "Employee email the bills belong to"),
		authUser: rootFlags.StringLong("auth-user", "", "Basic auth username (optional)"),
		authPass: rootFlags.StringLong("auth-pass", "", "Basic auth password (optional)"),
	}

	return &ff.Command{
		Name:      "billed",
		Usage:     "billed [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "submit expense bills and list them",
		Flags:     rootFlags,
		Subcommands: []*ff.Command{
			newServeCommand(rootFlags, cfg),
			newListCommand(rootFlags, cfg, stdout, stderr),
			newSubmitCommand(rootFlags, cfg, stdout, stderr),
		},
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.Parse(os.Args[1:], ff.WithEnvVarPrefix("BILLED")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := root.Run(ctx); err != nil {
		if errors.Is(err, ff.ErrNoExec) {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(root.GetSelected()))
			os.Exit(1)
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
