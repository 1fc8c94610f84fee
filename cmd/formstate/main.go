package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dwellio/go-formstate/internal/prompt"
	"github.com/dwellio/go-formstate/pkg/formerrors"
)

// errInvalid marks a run whose payload failed validation. The state has
// already been printed, so main only sets the exit status.
var errInvalid = errors.New("payload is invalid")

const (
	formatJSON  = "json"
	formatTable = "table"
	formatText  = "text"
)

// app carries the configuration shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
	driver prompt.Driver
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errInvalid) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(options ...func(*app)) *cobra.Command {
	a := &app{v: viper.New()}
	for _, opt := range options {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "formstate",
		Short: "Map validation issues and normalize action states",
		Long: `formstate turns validation issues into nested form error maps and
normalizes loosely typed mutation results into strict action states.
Input files may be JSON or YAML; without a file argument input is read from stdin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("format", formatText, "output format: json, table or text")
	flags.Int("depth", formerrors.DefaultMaxDepth, "deepest path that nests in error maps (0 nests every level)")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("jwt-secret", "", "HS256 key for bearer tokens (serve, token)")
	for _, name := range []string{"format", "depth", "log-level", "jwt-secret"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	a.v.SetEnvPrefix("FORMSTATE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(a.issuesCmd())
	root.AddCommand(a.stateCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.promptCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.tokenCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	switch a.format() {
	case formatJSON, formatTable, formatText:
	default:
		return fmt.Errorf("invalid --format %q: want json, table or text", a.v.GetString("format"))
	}
	return nil
}

func (a *app) format() string {
	return strings.ToLower(strings.TrimSpace(a.v.GetString("format")))
}

func (a *app) mapper() *formerrors.Mapper {
	return formerrors.New(formerrors.WithLogger(a.logger), formerrors.WithMaxDepth(a.v.GetInt("depth")))
}
