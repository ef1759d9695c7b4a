package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"cmon/internal/logging"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that supply option defaults.
const EnvPrefix = "CMON"

// OptionError reports an invalid key/value override.
type OptionError struct {
	Key string
	Msg string
}

func (e *OptionError) Error() string {
	return e.Key + " " + e.Msg
}

// Option describes one key/value setting accepted with -k.
type Option struct {
	Key     string
	Default interface{}
	Help    string

	bounded  bool
	min, max int
	check    func(string) error
}

// Text declares a string option; check may be nil.
func Text(key, def, help string, check func(string) error) Option {
	return Option{Key: key, Default: def, Help: help, check: check}
}

// Bounded declares an integer option whose values are clamped to [min, max].
func Bounded(key string, def, min, max int, help string) Option {
	return Option{Key: key, Default: def, Help: help, bounded: true, min: min, max: max}
}

func (o Option) envName() string {
	return EnvPrefix + "_" + strings.ToUpper(o.Key)
}

func (o Option) normalize(raw string) (interface{}, error) {
	v := strings.TrimSpace(raw)
	if v == "" || v == "?" {
		if o.bounded {
			return nil, &OptionError{o.Key, fmt.Sprintf("needs a value in [%d, %d] (default %v)", o.min, o.max, o.Default)}
		}
		return nil, &OptionError{o.Key, fmt.Sprintf("needs a value (default %q)", o.Default)}
	}
	if o.bounded {
		f, err := strconv.ParseFloat(v, 64)
		if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
			return nil, &OptionError{o.Key, fmt.Sprintf("cannot be set (invalid value %q)", v)}
		}
		// clamp before converting; int(f) is undefined past the int range
		if f < float64(o.min) {
			return o.min, nil
		}
		if f > float64(o.max) {
			return o.max, nil
		}
		return int(f), nil
	}
	if o.check != nil {
		if err := o.check(v); err != nil {
			return nil, &OptionError{o.Key, fmt.Sprintf("cannot be set (%v)", err)}
		}
	}
	return v, nil
}

// Options is a validated option table backed by a private viper instance.
type Options struct {
	v      *viper.Viper
	table  []Option
	index  map[string]Option
	source map[string]string
}

// New registers defaults for every option in table.
func New(table ...Option) *Options {
	o := &Options{
		v:      viper.New(),
		table:  table,
		index:  make(map[string]Option, len(table)),
		source: make(map[string]string, len(table)),
	}
	o.v.SetEnvPrefix(EnvPrefix)
	o.v.AutomaticEnv()
	for _, opt := range table {
		o.index[opt.Key] = opt
		o.v.SetDefault(opt.Key, opt.Default)
		o.source[opt.Key] = "default value"
	}
	return o
}

// Keys returns the accepted option keys in sorted order.
func (o *Options) Keys() []string {
	keys := make([]string, 0, len(o.table))
	for _, opt := range o.table {
		keys = append(keys, opt.Key)
	}
	sort.Strings(keys)
	return keys
}

// Usage describes each option and its default for command help.
func (o *Options) Usage() string {
	var b strings.Builder
	for _, k := range o.Keys() {
		opt := o.index[k]
		fmt.Fprintf(&b, "  %-12s %s (default %v", k, opt.Help, opt.Default)
		if opt.bounded {
			fmt.Fprintf(&b, ", range %d-%d", opt.min, opt.max)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// Apply validates environment defaults and then each "key=value" override in
// order; later overrides win.
func (o *Options) Apply(kvps []string) error {
	for _, opt := range o.table {
		if raw, ok := os.LookupEnv(opt.envName()); ok {
			if err := o.set(opt, raw, "environment variable"); err != nil {
				return err
			}
		}
	}
	for _, kvp := range kvps {
		k, v, _ := strings.Cut(kvp, "=")
		k = strings.TrimSpace(k)
		opt, ok := o.index[k]
		if !ok {
			return &OptionError{k, "key unrecognized"}
		}
		if err := o.set(opt, v, "key/value override"); err != nil {
			return err
		}
	}
	return nil
}

func (o *Options) set(opt Option, raw, source string) error {
	val, err := opt.normalize(raw)
	if err != nil {
		return err
	}
	o.v.Set(opt.Key, val)
	o.source[opt.Key] = source
	return nil
}

// Decode fills target, a pointer to a struct with mapstructure tags.
func (o *Options) Decode(target interface{}) error {
	if err := o.v.Unmarshal(target); err != nil {
		return fmt.Errorf("error decoding options: %w", err)
	}
	return nil
}

// LogSources logs where each option value came from.
func (o *Options) LogSources() {
	for _, k := range o.Keys() {
		logging.Debug(fmt.Sprintf("  %s = %v (from %s)", k, o.v.Get(k), o.source[k]))
	}
}
