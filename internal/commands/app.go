package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/history"
	"github.com/tally-dev/tally/internal/logging"
	"github.com/tally-dev/tally/internal/venmo"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configDir string
	verbose   bool

	cfg    *config.Config
	log    *slog.Logger
	store  *auth.Store
	client *venmo.Client

	in *bufio.Reader
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		a.configDir = dir
	}

	cfg, err := config.LoadDir(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level})
	if err != nil {
		return err
	}
	a.log = logger

	store, err := auth.Load(a.configDir)
	if err != nil {
		return err
	}
	a.store = store

	a.client = venmo.New(store, venmo.Options{
		BaseURL:         cfg.API.BaseURL,
		DeviceID:        cfg.API.DeviceID,
		UserAgent:       buildinfo.UserAgent(),
		HTTPClient:      &http.Client{Timeout: cfg.API.Timeout},
		Logger:          logging.WithComponent(logger, logging.ComponentAPI),
		MaxCodeAttempts: cfg.Auth.MaxCodeAttempts,
	})
	a.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// requireAuth fails fast before any request when there are no credentials.
func (a *app) requireAuth() error {
	if !a.store.IsAuthenticated() {
		return auth.ErrUnauthenticated
	}
	return nil
}

// record appends to the history file. Failures are logged, not returned:
// the action itself already happened.
func (a *app) record(entries ...history.Entry) {
	for i := range entries {
		if entries[i].Timestamp.IsZero() {
			entries[i].Timestamp = time.Now()
		}
	}
	if err := history.Append(a.configDir, entries); err != nil {
		logging.WithComponent(a.log, logging.ComponentHistory).Warn("recording history", "error", err)
	}
}

// prompt reads one line after printing label. An empty answer is an error.
func (a *app) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return line, nil
}

// promptSecret reads without echo when stdin is a terminal.
func (a *app) promptSecret(cmd *cobra.Command, label string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.prompt(cmd, label)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return string(b), nil
}
