// Package cli implements the itemdex command-line interface. Commands
// are thin shells over the client's CRUD and search operations;
// presentation is deliberately minimal.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemdex/pkg/client"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
	jsonMode   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "itemdex" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "itemdex",
		Short: "A metadata index for instantiable items",
		Long: `Itemdex stores structured records describing real-world objects and
resolves them back into live instances. Records live in a pluggable
store (JSON file, SQLite, bbolt, or a fan-out composition).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: $ITEMDEX_CONFIG or itemdex.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newValidateCmd())

	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a client from the configured store selection.
func newClient() (*client.Client, error) {
	c, err := client.FromConfig(flags.configFile)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return c, nil
}
