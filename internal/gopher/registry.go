// Package gopher dispatches fetch models and streams their records.
package gopher

import (
	"context"
	"fmt"
	"sort"
	"time"

	awslib "cmon/internal/aws"
	"cmon/internal/config"
	"cmon/internal/helper"
	"cmon/internal/lookup"
	"cmon/internal/record"
	"cmon/internal/settings"
	"cmon/internal/tags"
)

// Env is everything a model needs for one invocation.
type Env struct {
	Settings *settings.Settings
	Options  *config.Gopher
	Clients  awslib.Clients
	Helper   helper.Runner
	Lookup   *lookup.Tables
	Tags     *tags.Set

	// Rand draws region-sampling values in [0, 1).
	Rand func() float64
	Now  func() time.Time
}

// Window returns the metrics window ending now.
func (e *Env) Window() awslib.MetricWindow {
	return awslib.NewMetricWindow(e.Now(), e.Options.MetricsRange, e.Options.MetricsPeriod)
}

// Model fetches one kind of resource and emits it as records
type Model interface {
	// Name returns the model name used on the command line, e.g. "ec2.aws"
	Name() string

	// Description is a one-line summary for help output
	Description() string

	// Columns returns the declared record columns in output order
	Columns() []string

	// Fetch emits every record of the model through w
	Fetch(ctx context.Context, env *Env, w *record.Writer) error
}

// Registry maintains a central registry of all available models
type Registry struct {
	models map[string]Model
}

// NewRegistry creates a new model registry
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Model),
	}
}

// Register adds a new model to the registry
func (r *Registry) Register(m Model) error {
	name := m.Name()
	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model '%s' already registered", name)
	}
	r.models[name] = m
	return nil
}

// MustRegister is Register for init functions.
func (r *Registry) MustRegister(m Model) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Get retrieves a model by name
func (r *Registry) Get(name string) (Model, error) {
	if m, ok := r.models[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no model found for '%s'", name)
}

// Names returns a sorted list of all registered model names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the default model registry instance
var DefaultRegistry = NewRegistry()
