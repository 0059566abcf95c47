// Package cli is the tenancy command line: the HTTP server plus the console
// commands that scaffold, list and inspect the services of a catalog.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/tenancy/internal/version"
)

// Setting keys shared by flags and environment variables.
const (
	keyConfig = "config"
	keyRoot   = "root"
	keyHost   = "host"
	keyURI    = "uri"
)

// NewRootCommand builds the command tree. Output goes to out; every setting
// is read from its flag, then from the environment, then from the default.
func NewRootCommand(out io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "tenancy",
		Short: "Split one application into services selected by subdomain and path",
		Long: `tenancy reads a catalog of services from tenancy.yaml, resolves the service
owning each request from its host and path, and mounts only that service's
routes.

Console commands resolve the current service from --host and --uri.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringP(keyConfig, "c", "tenancy.yaml", "catalog file")
	pf.String(keyRoot, ".", "application root, every catalog path is resolved under it")
	pf.String(keyHost, "", "request host used to resolve the current service")
	pf.String(keyURI, "/", "request path used to resolve the current service")

	_ = v.BindPFlags(pf)
	_ = v.BindEnv(keyConfig, "TENANCY_CONFIG_FILE")
	_ = v.BindEnv(keyRoot, "TENANCY_ROOT_PATH")
	_ = v.BindEnv(keyHost, "TENANCY_HOST")
	_ = v.BindEnv(keyURI, "TENANCY_URI")

	root.AddCommand(
		newServeCommand(v),
		newInstallCommand(v),
		newCreateDirectoriesCommand(v),
		newCreateFilesCommand(v),
		newRoutesCommand(v),
		newServicesCommand(v),
	)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCommand(os.Stdout).Execute()
}
