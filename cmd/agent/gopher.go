package agent

import (
	"bufio"
	"math/rand"
	"time"

	"cmon/cmd/list"
	"cmon/cmd/version"
	awslib "cmon/internal/aws"
	"cmon/internal/config"
	"cmon/internal/gopher"
	_ "cmon/internal/gopher/models" // Import for side effects (model registration)
	"cmon/internal/helper"
	"cmon/internal/logging"
	"cmon/internal/lookup"
	"cmon/internal/output"
	"cmon/internal/settings"

	"github.com/spf13/cobra"
)

// Gopher holds the dependencies of the fetch agent.
type Gopher struct {
	Registry *gopher.Registry
	Clients  func(s *settings.Settings) awslib.Clients
	Helper   helper.Runner
	Rand     func() float64
	Now      func() time.Time
}

// DefaultGopher fetches registered models from live providers.
func DefaultGopher() *Gopher {
	return &Gopher{
		Registry: gopher.DefaultRegistry,
		Clients: func(s *settings.Settings) awslib.Clients {
			return awslib.NewSessionClients(func(account string) string {
				if s.AWS == nil {
					return account
				}
				return s.AWS.Profile(account)
			})
		},
		Helper: helper.ExecRunner{},
		Rand:   rand.Float64,
		Now:    time.Now,
	}
}

// Command builds the gopher command line.
func (g *Gopher) Command(s Streams) *cobra.Command {
	f := &flags{}
	cmd := newRoot(s, f, "gopher [flags] model...",
		"This gopher agent fetches Cloud Monitor content from cloud providers and helpers",
		"model", 0, g.Registry.Names, config.GopherOptions().Usage())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return g.run(cmd, s, f, args)
	}

	cmd.AddCommand(version.NewVersionCmd("gopher"))
	cmd.AddCommand(list.NewListCmd(
		list.NewCatalogCmd("models", "fetch models", g.entries),
		list.NewProfilesCmd(),
	))
	return cmd
}

func (g *Gopher) entries() []list.Entry {
	names := g.Registry.Names()
	entries := make([]list.Entry, 0, len(names))
	for _, n := range names {
		m, err := g.Registry.Get(n)
		if err != nil {
			continue
		}
		entries = append(entries, list.Entry{Name: n, Description: m.Description()})
	}
	return entries
}

func (g *Gopher) run(cmd *cobra.Command, s Streams, f *flags, args []string) error {
	opts, err := config.LoadGopher(f.keys)
	if err != nil {
		return err
	}
	cfg, err := settings.Load(bufio.NewReader(s.In), opts.Settings)
	if err != nil {
		return err
	}
	tables, err := lookup.Load(opts.Lookup)
	if err != nil {
		return err
	}

	env := &gopher.Env{
		Settings: cfg,
		Options:  opts,
		Clients:  g.Clients(cfg),
		Helper:   g.Helper,
		Lookup:   tables,
		Tags:     cfg.Tags(),
		Rand:     g.Rand,
		Now:      g.Now,
	}

	if !f.has("progress") {
		return gopher.Run(cmd.Context(), g.Registry, env, args, s.Out, nil)
	}
	progress := output.NewProgress(s.Err, args[0])
	err = gopher.Run(cmd.Context(), g.Registry, env, args, s.Out, progress)
	count := progress.Count()
	progress.Done()
	logging.Progress("Fetch finished", map[string]interface{}{
		"models":  len(args),
		"records": count,
	})
	return err
}
