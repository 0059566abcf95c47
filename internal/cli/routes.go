package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/manager"
	"github.com/MrSnakeDoc/tenancy/internal/router"
)

func newRoutesCommand(v *viper.Viper) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of every service",
		Long: `Mount the routes file of every service and list the result.

Examples:
  tenancy routes
  tenancy routes --host shop.example.com
  tenancy routes --json | jq '.[].name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConsole(v)
			if err != nil {
				return err
			}
			m, err := c.manager()
			if err != nil {
				return err
			}

			rt := router.New(router.Options{
				FS:         c.fs,
				Middleware: mw.NewRegistry(logger.NewNop(), mw.Options{}).Lookup,
			})
			if err := m.Boot(rt, manager.ModeConsole); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rt.Routes())
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SERVICE\tMETHOD\tPATTERN\tNAME\tDOMAIN\tMIDDLEWARE")
			for _, r := range rt.Routes() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Service, r.Method, r.Pattern, dash(r.Name), dash(r.Domain), dash(strings.Join(r.Middleware, ",")))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print routes as JSON")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
