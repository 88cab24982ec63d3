package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Audit every stored record against its schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			bad, err := c.ValidateAll()
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			if flags.jsonMode {
				if bad == nil {
					bad = []string{}
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(bad); err != nil {
					return err
				}
			} else if len(bad) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all records valid")
			} else {
				for _, name := range bad {
					fmt.Fprintf(cmd.OutOrStdout(), "invalid: %s\n", name)
				}
			}
			if len(bad) > 0 {
				return fmt.Errorf("%d invalid record(s)", len(bad))
			}
			return nil
		},
	}
}
