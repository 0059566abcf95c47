package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/tenancy/internal/app"
	"github.com/MrSnakeDoc/tenancy/internal/config"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve every service of the catalog over HTTP",
		Long: `Serve every service of the catalog over HTTP.

Each request is resolved to the service owning its host and path, and only
that service's routes answer it. Server settings come from TENANCY_*
environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.CatalogFile = v.GetString(keyConfig)
			cfg.RootPath = v.GetString(keyRoot)

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
}
