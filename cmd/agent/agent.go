// Package agent builds the gopher and weasel command lines and maps their
// failures to process exit codes.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cmon/internal/logging"
	"cmon/internal/record"
	"cmon/internal/settings"
	"cmon/internal/weasel"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInvalid     = 1
	ExitInterrupted = 10
	ExitFailure     = 10
)

// Streams is the process I/O of an agent. Out carries data only.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Stdio returns the process streams.
func Stdio() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Messages is the fatal-error text of one agent.
type Messages struct {
	Invalid     string
	NotFound    string
	Interrupted string
	Wrap        func(msg string) string
}

// GopherMessages are written by the fetch agent.
var GopherMessages = Messages{
	Invalid:     "** invalid settings file **\n",
	NotFound:    "** settings not found **\n",
	Interrupted: "\n** command interrupted **\n",
	Wrap:        func(msg string) string { return "** " + msg + " **\n" },
}

// WeaselMessages are written by the delivery agent.
var WeaselMessages = Messages{
	Invalid:     "\n** invalid JSON input **\n\n",
	NotFound:    "\n** settings not found **\n\n",
	Interrupted: "\n** weasel interrupted **\n\n",
	Wrap:        func(msg string) string { return "\n** " + msg + " **\n\n" },
}

// usageError marks a bad command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// flags are the options shared by both agents.
type flags struct {
	opts      []string
	keys      []string
	logLevel  string
	logFormat string
}

func (f *flags) has(opt string) bool {
	for _, o := range f.opts {
		if strings.EqualFold(strings.TrimSpace(o), opt) {
			return true
		}
	}
	return false
}

// newRoot builds an agent root command selecting one or more registered names.
func newRoot(s Streams, f *flags, use, short, kind string, maxArgs int, names func() []string, keys string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: fmt.Sprintf("%s\n\nSupported %ss: %s\n\nKeys accepted with -k:\n%s",
			short, kind, strings.Join(names(), ", "), keys),
		Args:          selectorArgs(kind, maxArgs, names),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetOutput(s.Err)
			logging.Configure(logging.LogConfig{
				Level:  logging.ParseLevel(f.logLevel),
				Format: logging.ParseFormat(f.logFormat),
			})
		},
	}
	cmd.SetIn(s.In)
	cmd.SetOut(s.Out)
	cmd.SetErr(s.Err)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.Flags().StringArrayVarP(&f.opts, "opt", "o", nil, "agent option (repeatable), e.g. progress")
	cmd.Flags().StringArrayVarP(&f.keys, "key", "k", nil, "key-value pair of the form <k>=<v> (repeatable)")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "WARN", "Set logging level (DEBUG, INFO, WARN, ERROR)")
	cmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "text", "Log output format (text or json)")
	return cmd
}

// selectorArgs accepts between one and max (zero for unlimited) registered names.
func selectorArgs(kind string, max int, names func() []string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return &usageError{fmt.Errorf("no %s specified", kind)}
		}
		if max > 0 && len(args) > max {
			return &usageError{fmt.Errorf("only %d %s may be specified", max, kind)}
		}
		known := make(map[string]bool)
		for _, n := range names() {
			known[n] = true
		}
		for _, a := range args {
			if !known[a] {
				return &usageError{fmt.Errorf("%s %q not supported", kind, a)}
			}
		}
		return nil
	}
}

// Execute runs cmd with args until it returns or ctx is cancelled and
// returns the exit code, writing any fatal message to stderr.
func Execute(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer, m Messages) int {
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var err error
	select {
	case err = <-done:
		if err != nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	case <-ctx.Done():
		err = ctx.Err()
	}
	code, msg := exitStatus(err, m)
	if msg != "" {
		fmt.Fprint(stderr, msg)
	}
	return code
}

func exitStatus(err error, m Messages) (int, string) {
	var usage *usageError
	switch {
	case err == nil, errors.Is(err, record.ErrBrokenPipe):
		return ExitOK, ""
	case errors.Is(err, context.Canceled):
		return ExitInterrupted, m.Interrupted
	case errors.As(err, &usage):
		return ExitInvalid, m.Wrap(usage.Error())
	case errors.Is(err, settings.ErrNotFound):
		return ExitInvalid, m.NotFound
	case errors.Is(err, settings.ErrInvalid), errors.Is(err, weasel.ErrInvalidInput):
		return ExitInvalid, m.Invalid
	default:
		return ExitFailure, m.Wrap(err.Error())
	}
}

// Main runs cmd as the process command line and returns the exit code.
// SIGINT and SIGTERM interrupt the run; SIGPIPE is turned into write errors
// so a closed reader ends the run quietly.
func Main(cmd *cobra.Command, m Messages) int {
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Execute(ctx, cmd, os.Args[1:], os.Stderr, m)
}
