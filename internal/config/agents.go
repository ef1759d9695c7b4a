package config

import (
	"fmt"
	"os"

	"cmon/internal/settings"
)

// Gopher holds the resolved options of the fetch agent.
type Gopher struct {
	Settings      string `mapstructure:"settings"`
	MetricsRange  int    `mapstructure:"metricsrngM"`
	MetricsPeriod int    `mapstructure:"metricsperS"`
	Lookup        string `mapstructure:"lookup"`
}

// Weasel holds the resolved options of the delivery agent.
type Weasel struct {
	Settings string `mapstructure:"settings"`
	Timeout  int    `mapstructure:"timeoutS"`
}

func existingFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// GopherOptions returns the option table of the fetch agent.
func GopherOptions() *Options {
	return New(
		Text("settings", settings.StdinSource, "settings file, or ~stdin for the first input line", nil),
		Bounded("metricsrngM", 180, 10, 20160, "metrics window in minutes back from now"),
		Bounded("metricsperS", 300, 60, 86400, "metrics aggregation period in seconds"),
		Text("lookup", "", "YAML file extending the field-mapping tables", existingFile),
	)
}

// WeaselOptions returns the option table of the delivery agent.
func WeaselOptions() *Options {
	return New(
		Text("settings", settings.StdinSource, "settings file, or ~stdin for the first input line", nil),
		Bounded("timeoutS", 10, 1, 120, "sink request timeout in seconds"),
	)
}

// LoadGopher applies kvps to the gopher table and decodes the result.
func LoadGopher(kvps []string) (*Gopher, error) {
	opts := GopherOptions()
	if err := opts.Apply(kvps); err != nil {
		return nil, err
	}
	opts.LogSources()
	var g Gopher
	if err := opts.Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadWeasel applies kvps to the weasel table and decodes the result.
func LoadWeasel(kvps []string) (*Weasel, error) {
	opts := WeaselOptions()
	if err := opts.Apply(kvps); err != nil {
		return nil, err
	}
	opts.LogSources()
	var w Weasel
	if err := opts.Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}
