// Package weasel dispatches delivery services that forward records read from
// standard input to external sinks.
package weasel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"cmon/internal/config"
	"cmon/internal/record"
	"cmon/internal/settings"
)

// ErrInvalidInput is returned when a record line is not valid JSON.
var ErrInvalidInput = errors.New("invalid JSON input")

// Env is everything a service needs for one invocation.
type Env struct {
	Settings   *settings.Settings
	Options    *config.Weasel
	In         *bufio.Reader
	Out        io.Writer
	HTTPClient *http.Client
}

// Records calls fn with each non-blank input line, trimmed, and stops at the
// first error fn returns.
func (e *Env) Records(ctx context.Context, fn func(line []byte) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := e.In.ReadBytes('\n')
		if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
			if ferr := fn([]byte(trimmed)); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading input: %w", err)
		}
	}
}

// Decode unmarshals one record line into v.
func Decode(line []byte, v interface{}) error {
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Println writes one line of service output.
func (e *Env) Println(s string) error {
	if _, err := io.WriteString(e.Out, s+"\n"); err != nil {
		return record.PipeError(err)
	}
	return nil
}

// Service delivers records to one kind of sink
type Service interface {
	// Name returns the service name used on the command line, e.g. "hook.slack"
	Name() string

	// Description is a one-line summary for help output
	Description() string

	// Deliver consumes every remaining input record
	Deliver(ctx context.Context, env *Env) error
}

// Registry maintains a central registry of all available services
type Registry struct {
	services map[string]Service
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
	}
}

// Register adds a new service to the registry
func (r *Registry) Register(s Service) error {
	name := s.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service '%s' already registered", name)
	}
	r.services[name] = s
	return nil
}

// MustRegister is Register for init functions.
func (r *Registry) MustRegister(s Service) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get retrieves a service by name
func (r *Registry) Get(name string) (Service, error) {
	if s, ok := r.services[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no service found for '%s'", name)
}

// Names returns a sorted list of all registered service names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the default service registry instance
var DefaultRegistry = NewRegistry()
