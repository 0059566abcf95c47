package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/tenancy/internal/domain"
)

func newServicesCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the catalog in matching order",
		Long: `List the catalog in the order services are tried against a request.

The service owning --host and --uri is marked with "*".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConsole(v)
			if err != nil {
				return err
			}

			current := ""
			m, err := c.manager()
			switch {
			case err == nil:
				current = m.Current().Name()
			case !errors.Is(err, domain.ErrNoMatchingService):
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, " \tSERVICE\tSUBDOMAIN\tPREFIX\tMIDDLEWARE\tPATH")
			for _, svc := range c.catalog.Services() {
				mark := " "
				if svc.Name() == current {
					mark = "*"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					mark, svc.Name(), dash(svc.Subdomain()), dash(svc.RoutePrefix()),
					dash(strings.Join(svc.Middleware(), ",")), svc.Path())
			}
			return tw.Flush()
		},
	}
}
