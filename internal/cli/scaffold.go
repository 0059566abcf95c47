package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	msgDirectories = "Directories were created as defined in the configuration"
	msgFiles       = "Files were created as defined in the configuration"
	msgInstalled   = "Tenancy was installed successfully"
)

func newCreateDirectoriesCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "create-directories",
		Short: "Create the base, domains and service directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := managerFrom(v)
			if err != nil {
				return err
			}
			if err := m.EnsureDirectoriesExisting(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msgDirectories)
			return nil
		},
	}
}

func newCreateFilesCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "create-files",
		Short: "Seed the routes and service config files that do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := managerFrom(v)
			if err != nil {
				return err
			}
			if err := m.EnsureFilesExisting(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msgFiles)
			return nil
		},
	}
}

func newInstallCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create every directory and file of the catalog",
		Long: `Create every directory and file of the catalog.

Existing files are never overwritten, so install can run again after the
catalog gains a service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := managerFrom(v)
			if err != nil {
				return err
			}
			if err := m.EnsureDirectoriesExisting(); err != nil {
				return err
			}
			if err := m.EnsureFilesExisting(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msgInstalled)
			return nil
		},
	}
}
