// Package config loads formula parser settings from configuration files and
// the environment.
//
// A configuration file may be YAML, TOML, or JSON:
//
//	parser:
//	  decimal_separator: ","
//	  list_separator: ";"
//	  power_from_right: true
//	constants:
//	  rate: 0.05
//	logger:
//	  level: debug
//	  format: json
//	  output: stderr
//
// Any key can be overridden by an environment variable named with the prefix
// FORMULA_ and underscores for dots, e.g. FORMULA_PARSER_LIST_SEPARATOR.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/zephyrtronium/formula"
)

// Config holds settings for a formula.Parser.
type Config struct {
	DecimalSeparator byte
	ListSeparator    byte
	PowerFromRight   bool
	// Constants are added to parsers. Names are lowercase, since lookup is
	// case-insensitive anyway.
	Constants map[string]float64
	Logger    *Logger
	// Viper is the source of the configuration. It is nil for Default.
	Viper *viper.Viper
}

// Default returns the configuration used when no file or environment
// variable sets anything.
func Default() *Config {
	return &Config{
		DecimalSeparator: '.',
		ListSeparator:    ',',
		Constants:        map[string]float64{},
		Logger: &Logger{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("parser.decimal_separator", string(d.DecimalSeparator))
	v.SetDefault("parser.list_separator", string(d.ListSeparator))
	v.SetDefault("parser.power_from_right", d.PowerFromRight)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.output", d.Logger.Output)
}

// Load loads the configuration from the file at path. If path is empty, Load
// searches for a file named formula with a supported extension in the current
// directory, $HOME/.formula, and /etc/formula, and uses only defaults and the
// environment if there is none.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FORMULA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("formula")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.formula")
		v.AddConfigPath("/etc/formula")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

// fromViper extracts and validates the configuration held by v.
func fromViper(v *viper.Viper) (*Config, error) {
	dec, err := separator(v, "parser.decimal_separator")
	if err != nil {
		return nil, err
	}
	list, err := separator(v, "parser.list_separator")
	if err != nil {
		return nil, err
	}
	consts, err := getConstants(v)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		DecimalSeparator: dec,
		ListSeparator:    list,
		PowerFromRight:   v.GetBool("parser.power_from_right"),
		Constants:        consts,
		Logger:           getLoggerConfig(v),
		Viper:            v,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func separator(v *viper.Viper, key string) (byte, error) {
	s := v.GetString(key)
	if len(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, not %q", key, s)
	}
	return s[0], nil
}

func getConstants(v *viper.Viper) (map[string]float64, error) {
	raw := v.GetStringMap("constants")
	r := make(map[string]float64, len(raw))
	for name, val := range raw {
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		r[name] = f
	}
	return r, nil
}

// Validate checks that the configuration can be applied to a parser.
func (c *Config) Validate() error {
	// A throwaway parser applies the same checks as the real one.
	p := formula.New()
	if err := p.SetDecimalSeparator(c.DecimalSeparator); err != nil {
		return fmt.Errorf("invalid decimal separator: %w", err)
	}
	if err := p.SetListSeparator(c.ListSeparator); err != nil {
		return fmt.Errorf("invalid list separator: %w", err)
	}
	if c.DecimalSeparator == c.ListSeparator {
		return fmt.Errorf("decimal and list separators are both %q", c.DecimalSeparator)
	}
	for _, name := range c.constantNames() {
		if err := formula.ValidateName(name); err != nil {
			return fmt.Errorf("invalid constant: %w", err)
		}
	}
	if c.Logger != nil {
		if _, err := c.Logger.level(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) constantNames() []string {
	names := make([]string, 0, len(c.Constants))
	for name := range c.Constants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns options for formula.New that apply the configuration,
// including a logger if c.Logger is set.
func (c *Config) Options() ([]formula.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []formula.Option{
		formula.WithDecimalSeparator(c.DecimalSeparator),
		formula.WithListSeparator(c.ListSeparator),
	}
	if c.PowerFromRight {
		opts = append(opts, formula.WithPowerFromRight())
	}
	if len(c.Constants) != 0 {
		b := make([]formula.Binding, 0, len(c.Constants))
		for _, name := range c.constantNames() {
			b = append(b, formula.Constant(name, c.Constants[name]))
		}
		opts = append(opts, formula.WithBindings(b...))
	}
	if c.Logger != nil {
		l, err := c.Logger.New()
		if err != nil {
			return nil, err
		}
		opts = append(opts, formula.WithLogger(l))
	}
	return opts, nil
}

// Apply applies the separators, power associativity, and constants to an
// existing parser. Changing a constant recompiles the parser's formula.
func (c *Config) Apply(p *formula.Parser) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := p.SetDecimalSeparator(c.DecimalSeparator); err != nil {
		return err
	}
	if err := p.SetListSeparator(c.ListSeparator); err != nil {
		return err
	}
	p.SetPowerFromRight(c.PowerFromRight)
	for _, name := range c.constantNames() {
		if err := p.SetConstant(name, c.Constants[name]); err != nil {
			return err
		}
	}
	return nil
}

// Watch calls fn with the new configuration, or with the error loading it,
// each time the configuration file changes. It returns an error if the
// configuration was not loaded from a file.
func (c *Config) Watch(fn func(*Config, error)) error {
	if c.Viper == nil || c.Viper.ConfigFileUsed() == "" {
		return errors.New("no config file to watch")
	}
	c.Viper.OnConfigChange(func(e fsnotify.Event) {
		c.changed(e, fn)
	})
	c.Viper.WatchConfig()
	return nil
}

// changed handles a change to the configuration file. Viper has already
// reread the file.
func (c *Config) changed(e fsnotify.Event, fn func(*Config, error)) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	cfg, err := fromViper(c.Viper)
	if err != nil {
		fn(nil, fmt.Errorf("failed to reload %s: %w", e.Name, err))
		return
	}
	fn(cfg, nil)
}
