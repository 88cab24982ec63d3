package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemdex/pkg/store/jsonfile"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init PATH",
		Short: "Create an empty JSON file store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := jsonfile.New(args[0])
			if err := st.Initialize(); err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty store at %s\n", args[0])
			return nil
		},
	}
}
