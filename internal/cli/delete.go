package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemdex/pkg/client"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an item by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			c, err := newClient()
			if err != nil {
				return err
			}
			res, err := c.Get(name)
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			if sr, ok := res.(*client.SearchResult); ok {
				err = c.Remove(sr.Item())
			} else {
				// Malformed records cannot be resolved into a
				// container; drop the raw record directly.
				err = c.Store().Delete(name)
			}
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			return nil
		},
	}
}
