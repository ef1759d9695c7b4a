package agent

import (
	"bufio"
	"net/http"
	"time"

	"cmon/cmd/list"
	"cmon/cmd/version"
	"cmon/internal/config"
	"cmon/internal/settings"
	"cmon/internal/weasel"
	_ "cmon/internal/weasel/services" // Import for side effects (service registration)

	"github.com/spf13/cobra"
)

// Weasel holds the dependencies of the delivery agent.
type Weasel struct {
	Registry   *weasel.Registry
	HTTPClient func(timeout time.Duration) *http.Client
}

// DefaultWeasel delivers through registered services over HTTP.
func DefaultWeasel() *Weasel {
	return &Weasel{
		Registry: weasel.DefaultRegistry,
		HTTPClient: func(timeout time.Duration) *http.Client {
			return &http.Client{Timeout: timeout}
		},
	}
}

// Command builds the weasel command line.
func (w *Weasel) Command(s Streams) *cobra.Command {
	f := &flags{}
	cmd := newRoot(s, f, "weasel [flags] service",
		"This weasel agent delivers Cloud Monitor content to external services",
		"service", 1, w.Registry.Names, config.WeaselOptions().Usage())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return w.run(cmd, s, f, args[0])
	}

	cmd.AddCommand(version.NewVersionCmd("weasel"))
	cmd.AddCommand(list.NewListCmd(list.NewCatalogCmd("services", "delivery services", w.entries)))
	return cmd
}

func (w *Weasel) entries() []list.Entry {
	names := w.Registry.Names()
	entries := make([]list.Entry, 0, len(names))
	for _, n := range names {
		svc, err := w.Registry.Get(n)
		if err != nil {
			continue
		}
		entries = append(entries, list.Entry{Name: n, Description: svc.Description()})
	}
	return entries
}

func (w *Weasel) run(cmd *cobra.Command, s Streams, f *flags, name string) error {
	opts, err := config.LoadWeasel(f.keys)
	if err != nil {
		return err
	}
	in := bufio.NewReader(s.In)
	cfg, err := settings.Load(in, opts.Settings)
	if err != nil {
		return err
	}
	svc, err := w.Registry.Get(name)
	if err != nil {
		return err
	}
	return svc.Deliver(cmd.Context(), &weasel.Env{
		Settings:   cfg,
		Options:    opts,
		In:         in,
		Out:        s.Out,
		HTTPClient: w.HTTPClient(time.Duration(opts.Timeout) * time.Second),
	})
}
