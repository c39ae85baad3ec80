// Command formula compiles and evaluates formulas.
package main

import (
	"fmt"
	"os"

	"github.com/zephyrtronium/formula/cmd/formula/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
