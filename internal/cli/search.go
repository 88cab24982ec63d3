package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/itemdex/pkg/client"
)

func newSearchCmd() *cobra.Command {
	var (
		regex    bool
		rangeKey string
		start    float64
		end      float64
	)

	cmd := &cobra.Command{
		Use:   "search [--regex | --range KEY --start N --end N] KEY=VALUE ...",
		Short: "Search the database by field values",
		Long: `Search lists items whose fields match every KEY=VALUE criterion.
With --regex, values are case-insensitive regular expressions that
must match the entire stored value. With --range, items whose numeric
value under KEY falls in [start, end) are listed, further narrowed by
the KEY=VALUE criteria. Without criteria, all items are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseFields(args)
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			var results []client.Result
			switch {
			case rangeKey != "":
				results, err = c.SearchRange(rangeKey, start, end, criteria)
			case regex && len(criteria) > 0:
				patterns := make(map[string]string, len(criteria))
				for k, v := range criteria {
					patterns[k] = fmt.Sprint(v)
				}
				results, err = c.SearchRegex(patterns)
			default:
				results, err = c.Search(criteria)
			}
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			return printResults(cmd, results)
		},
	}

	cmd.Flags().BoolVar(&regex, "regex", false, "treat values as regular expressions")
	cmd.Flags().StringVar(&rangeKey, "range", "", "field to range over")
	cmd.Flags().Float64Var(&start, "start", 0, "inclusive lower range bound")
	cmd.Flags().Float64Var(&end, "end", 0, "exclusive upper range bound")

	return cmd
}

// printResults renders search results as a name listing or, in JSON
// mode, as an array of record documents. Malformed records are
// reported on stderr and skipped.
func printResults(cmd *cobra.Command, results []client.Result) error {
	if flags.jsonMode {
		docs := make([]map[string]any, 0, len(results))
		for _, r := range results {
			if err := r.Err(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipping malformed record: %v\n", err)
				continue
			}
			docs = append(docs, r.Metadata())
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(docs)
	}

	for _, r := range results {
		if err := r.Err(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping malformed record: %v\n", err)
			continue
		}
		md := r.Metadata()
		fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", md["name"], md["device_class"])
	}
	return nil
}
