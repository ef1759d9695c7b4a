package gopher

import (
	"context"
	"io"
	"time"

	"cmon/internal/logging"
	"cmon/internal/output"
	"cmon/internal/record"
)

// Run fetches each named model in order, writing one framed stream per model
// to out. The first failure stops the run; a partially written stream is left
// without its end marker.
func Run(ctx context.Context, reg *Registry, env *Env, names []string, out io.Writer, progress *output.Progress) error {
	models := make([]Model, 0, len(names))
	for _, name := range names {
		m, err := reg.Get(name)
		if err != nil {
			return err
		}
		models = append(models, m)
	}

	for _, m := range models {
		start := time.Now()
		w := record.NewWriter(out, m.Name(), m.Columns(), env.Now)
		if progress != nil {
			progress.Describe(m.Name())
			w.OnEmit(func() { progress.Add(1) })
		}
		if err := m.Fetch(ctx, env, w); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		logging.FetchComplete(m.Name(), w.Count(), time.Since(start))
	}
	return nil
}
