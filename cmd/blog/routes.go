package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewriabinin/blog/cmd/blog/internal/ui"
	"github.com/matthewriabinin/blog/internal/app"
)

func newRoutesCommand(c *cli) *cobra.Command {
	var asJSON bool
	var exactRoot bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(c.cfg, app.Options{Logger: c.logger, ExactRoot: exactRoot})
			if err != nil {
				return err
			}
			table := a.Router().ExportTable()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ui.RouteTable(table))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	cmd.Flags().BoolVar(&exactRoot, "exact-root", false, "Register / as an exact route")
	return cmd
}
