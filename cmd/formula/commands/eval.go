package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formula/config"
)

type evalFlags struct {
	in    string
	verb  string
	lines bool
	echo  bool
	watch bool
}

func newEvalCommand(g *globals) *cobra.Command {
	f := new(evalFlags)
	cmd := &cobra.Command{
		Use:     "eval [formula...]",
		Aliases: []string{"e"},
		Short:   "Evaluate formulas",
		Long: `Evaluate formulas given as arguments, or read from a file or standard input
if there are no arguments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			exprs, err := readFormulas(f.in, len(args) == 0, f.lines, cmd.InOrStdin())
			if err != nil {
				return err
			}
			exprs = append(exprs, args...)
			out := cmd.OutOrStdout()
			err = f.run(g, cfg, exprs, out)
			if !f.watch {
				return err
			}
			return f.rerun(cmd, g, cfg, exprs, out)
		},
	}
	cmd.Flags().StringVarP(&f.in, "in", "i", "", `input file, or "-" for stdin (default stdin if no args given)`)
	cmd.Flags().StringVar(&f.verb, "fmt", "%g", "result formatting verb")
	cmd.Flags().BoolVarP(&f.lines, "lines", "n", false, "evaluate separate input lines as separate formulas")
	cmd.Flags().BoolVar(&f.echo, "echo", false, "print compiled formulas before results")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "evaluate again whenever the config file changes")
	return cmd
}

// errFailed is returned when any formula fails to evaluate.
var errFailed = errors.New("some formulas failed")

// run evaluates each formula and writes the results to out.
func (f *evalFlags) run(g *globals, cfg *config.Config, exprs []string, out io.Writer) error {
	p, err := g.parser(cfg)
	if err != nil {
		return err
	}
	var failed bool
	verb := f.verb + "\n"
	for _, expr := range exprs {
		r := p.EvaluateString(expr)
		if !p.Success() {
			failed = true
			if pos := p.LastErrorPosition(); pos >= 0 {
				fmt.Fprintf(out, "%s\n%s^\n", p.Expression(), strings.Repeat(" ", pos))
			}
			fmt.Fprintln(out, p.LastError())
			continue
		}
		if f.echo {
			fmt.Fprintf(out, "%v : ", p)
		}
		fmt.Fprintf(out, verb, r)
	}
	if failed {
		return errFailed
	}
	return nil
}

// rerun watches the config file and evaluates exprs again on each change
// until interrupted.
func (f *evalFlags) rerun(cmd *cobra.Command, g *globals, cfg *config.Config, exprs []string, out io.Writer) error {
	var mu sync.Mutex
	err := cfg.Watch(func(cfg *config.Config, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			err = g.define(cfg)
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return
		}
		fmt.Fprintf(out, "# reloaded %s\n", cfg.Viper.ConfigFileUsed())
		if err := f.run(g, cfg, exprs, out); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	<-ctx.Done()
	return nil
}

// readFormulas reads formulas from the named file, or from stdin if inname
// is "-" or std is true and inname is empty. If lines is true, each non-empty
// line is a separate formula; otherwise the entire input is one.
func readFormulas(inname string, std, lines bool, stdin io.Reader) ([]string, error) {
	var r io.Reader
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	case inname == "-", std:
		r = stdin
	}
	if r == nil {
		return nil, nil
	}
	if !lines {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(b)) == "" {
			return nil, nil
		}
		return []string{string(b)}, nil
	}
	var exprs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			exprs = append(exprs, sc.Text())
		}
	}
	return exprs, sc.Err()
}
