package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var (
		typeName string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "add --type TYPE --field KEY=VALUE ...",
		Short: "Add a new item to the database",
		Long: `Add creates an item of the given registered type from KEY=VALUE
pairs and saves it. Values are passed as strings; each field's
enforcement coerces them to the declared type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			item, err := c.CreateItem(typeName, values)
			if err != nil {
				return fmt.Errorf("create item: %w", err)
			}
			if err := c.Add(item); err != nil {
				return fmt.Errorf("add item: %w", err)
			}

			if flags.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(item.Post())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", item.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "Item", "registered container type")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field as KEY=VALUE (repeatable)")

	return cmd
}

// parseFields splits repeated KEY=VALUE pairs into a value map.
func parseFields(fields []string) (map[string]any, error) {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed field %q, want KEY=VALUE", f)
		}
		values[key] = value
	}
	return values, nil
}
