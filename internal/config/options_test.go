package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cmon/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGopherDefaults(t *testing.T) {
	g, err := LoadGopher(nil)
	require.NoError(t, err)

	assert.Equal(t, &Gopher{
		Settings:      settings.StdinSource,
		MetricsRange:  180,
		MetricsPeriod: 300,
	}, g)
}

func TestBoundedValuesAreClamped(t *testing.T) {
	tests := []struct {
		name string
		kvp  string
		want int
	}{
		{"below minimum", "metricsrngM=1", 10},
		{"above maximum", "metricsrngM=999999", 20160},
		{"in range", "metricsrngM=60", 60},
		{"fractional", "metricsrngM=42.9", 42},
		{"padded", " metricsrngM = 90 ", 90},
		{"huge exponent", "metricsrngM=1e30", 20160},
		{"past int range", "metricsrngM=99999999999999999999", 20160},
		{"past float range", "metricsrngM=1e400", 20160},
		{"infinity", "metricsrngM=Inf", 20160},
		{"negative infinity", "metricsrngM=-Inf", 10},
		{"huge negative", "metricsrngM=-1e30", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := LoadGopher([]string{tt.kvp})
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.MetricsRange)
		})
	}
}

func TestOverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		kvp  string
		msg  string
	}{
		{"unknown key", "bogus=1", "bogus key unrecognized"},
		{"missing value", "metricsperS=", "metricsperS needs a value in [60, 86400] (default 300)"},
		{"query value", "settings=?", `settings needs a value (default "~stdin")`},
		{"no separator", "settings", `settings needs a value (default "~stdin")`},
		{"not numeric", "metricsperS=fast", `metricsperS cannot be set (invalid value "fast")`},
		{"not a number", "metricsrngM=NaN", `metricsrngM cannot be set (invalid value "NaN")`},
		{"missing lookup file", "lookup=/nonexistent/tables.yaml", "lookup cannot be set (/nonexistent/tables.yaml not found)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGopher([]string{tt.kvp})
			require.Error(t, err)
			var optErr *OptionError
			assert.True(t, errors.As(err, &optErr))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestLaterOverridesWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services: {}\n"), 0o644))

	g, err := LoadGopher([]string{"settings=/etc/a.json", "settings=/etc/b.json", "lookup=" + path})
	require.NoError(t, err)
	assert.Equal(t, "/etc/b.json", g.Settings)
	assert.Equal(t, path, g.Lookup)
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("CMON_TIMEOUTS", "500")

	w, err := LoadWeasel(nil)
	require.NoError(t, err)
	assert.Equal(t, 120, w.Timeout)

	w, err = LoadWeasel([]string{"timeoutS=5"})
	require.NoError(t, err)
	assert.Equal(t, 5, w.Timeout)
}

func TestUsageListsKeys(t *testing.T) {
	opts := WeaselOptions()
	assert.Equal(t, []string{"settings", "timeoutS"}, opts.Keys())
	assert.Contains(t, opts.Usage(), "range 1-120")
}
