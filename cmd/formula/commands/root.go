package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formula"
	"github.com/zephyrtronium/formula/config"
)

// globals holds the flags shared by all subcommands.
type globals struct {
	conf string
	sets []string
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	g := new(globals)
	rootCmd := &cobra.Command{
		Use:           "formula",
		Short:         "Compile and evaluate spreadsheet-style formulas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.conf, "conf", "c", "", "config file (default: search for formula.yaml)")
	rootCmd.PersistentFlags().StringArrayVar(&g.sets, "set", nil, "name=value constant definition (any number of times)")

	rootCmd.AddCommand(
		newEvalCommand(g),
		newTreeCommand(g),
		newListCommand(g),
	)
	return rootCmd
}

// load loads the configuration and applies --set definitions to it.
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.conf)
	if err != nil {
		return nil, err
	}
	if err := g.define(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// define applies --set definitions to cfg in order.
func (g *globals) define(cfg *config.Config) error {
	for _, s := range g.sets {
		name, val, err := g.definition(cfg, s)
		if err != nil {
			return err
		}
		cfg.Constants[name] = val
	}
	return nil
}

// definition evaluates a name=value definition. The value may be a formula
// using constants defined earlier.
func (g *globals) definition(cfg *config.Config, s string) (string, float64, error) {
	name, expr, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf(`constant definitions must be "name=value", not %q`, s)
	}
	name = strings.TrimSpace(name)
	if err := formula.ValidateName(name); err != nil {
		return "", 0, fmt.Errorf("setting %s: %w", name, err)
	}
	p, err := g.parser(cfg)
	if err != nil {
		return "", 0, err
	}
	v := p.EvaluateString(expr)
	if !p.Success() {
		return "", 0, fmt.Errorf("setting %s: %w", name, p.LastError())
	}
	return strings.ToLower(name), v, nil
}

// parser creates a parser from the configuration.
func (g *globals) parser(cfg *config.Config) (*formula.Parser, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return formula.New(opts...), nil
}
