package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/z0gSh1u/wscrab/internal/certs"
	"github.com/z0gSh1u/wscrab/internal/config"
	"github.com/z0gSh1u/wscrab/internal/console"
	"github.com/z0gSh1u/wscrab/internal/session"
	"github.com/z0gSh1u/wscrab/internal/wsconn"
)

var version = "dev"

const (
	cReset = "\033[0m"
	cRed   = "\033[31m"
)

func main() {
	os.Exit(cli(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// cli runs wscrab with the given arguments and returns the exit status:
// 0 after a clean session or when only usage was printed, 1 otherwise.
func cli(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	fs := flag.NewFlagSet("wscrab", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "wscrab %s - WebSocket cat (connect-only)\n\nUsage: wscrab --connect <url> [flags]\n\nFlags:\n", version)
		fs.PrintDefaults()
	}
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if flags.Version {
		fmt.Fprintln(stdout, "wscrab", version)
		return 0
	}

	tty := false
	if f, ok := stdout.(*os.File); ok {
		tty = console.IsTerminal(f)
	}
	cfg, err := flags.Load(getenv, tty)
	if errors.Is(err, config.ErrNoTarget) {
		fs.SetOutput(stdout)
		fs.Usage()
		return 0
	}
	if err != nil {
		return fail(stderr, tty, err)
	}

	if err := run(cfg); err != nil {
		return fail(stderr, cfg.Color, err)
	}
	return 0
}

func fail(w io.Writer, color bool, err error) int {
	if color {
		fmt.Fprintf(w, "%serror:%s %v\n", cRed, cReset, err)
	} else {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return 1
}

func run(cfg config.Config) error {
	logger := log.New(io.Discard, "wscrab: ", log.LstdFlags)
	if cfg.Verbose {
		logger.SetOutput(os.Stderr)
	}

	// certificate problems abort before any network activity
	tlsConfig, err := certs.Build(cfg.CertPath, cfg.Insecure)
	if err != nil {
		return err
	}
	if cfg.Insecure {
		logger.Printf("server certificate verification disabled (--no-check)")
	}

	// Ctrl+C during the handshake cancels the dial only
	dialCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	conn, err := wsconn.Dial(dialCtx, cfg, tlsConfig, logger)
	stop()
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	printer := &session.Printer{Stdout: os.Stdout, Stderr: os.Stderr, Color: cfg.Color}
	var lines console.LineReader
	if console.IsTerminal(os.Stdin) {
		ed, err := console.NewEditor(session.OutPrefix, cfg.Slash)
		if err != nil {
			conn.Close()
			return err
		}
		defer ed.Close()
		lines = ed
		printer.Stdout = ed.Stdout()
		printer.Stderr = ed.Stderr()
	} else {
		lines = console.NewPlain(os.Stdin)
		printer.Echo = true
	}

	printer.Info("Connected (press CTRL+C to quit)")

	s := session.New(conn, lines, sig, printer, session.Options{
		ShowPingPong: cfg.ShowPingPong,
		Slash:        cfg.Slash,
	})
	return s.Run(context.Background())
}
