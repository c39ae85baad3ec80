package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTreeCommand(g *globals) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "tree formula",
		Short: "Print the compiled form of a formula and the names it uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := g.parser(cfg)
			if err != nil {
				return err
			}
			if !p.Compile(args[0]) {
				return p.LastError()
			}
			out := cmd.OutOrStdout()
			if pretty {
				fmt.Fprintln(out, p.Pretty())
			} else {
				fmt.Fprintln(out, p)
			}
			fmt.Fprintf(out, "functions: %s\n", strings.Join(p.Funcs(), ", "))
			fmt.Fprintf(out, "variables: %s\n", strings.Join(p.Vars(), ", "))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "use mathematical symbols for operators")
	return cmd
}

func newListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List built-in functions and configured constants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := g.parser(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p.ListAvailableFunctionsAndVariables())
			return nil
		},
	}
}
