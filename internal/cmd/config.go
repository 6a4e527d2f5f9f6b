package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/config"
)

func newConfigCmd() *cobra.Command {
	annotations := map[string]string{skipValidation: "true"}

	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect the effective configuration",
		Annotations: annotations,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:         "view",
			Short:       "Print the effective configuration with secrets masked",
			Args:        cobra.NoArgs,
			Annotations: annotations,
			RunE: instrument("config view", func(cmd *cobra.Command, args []string) error {
				app, err := appFrom(cmd)
				if err != nil {
					return err
				}
				return app.Print(configView(app.Config.Redacted()))
			}),
		},
		&cobra.Command{
			Use:         "path",
			Short:       "Print the config file in use",
			Args:        cobra.NoArgs,
			Annotations: annotations,
			RunE: instrument("config path", func(cmd *cobra.Command, args []string) error {
				app, err := appFrom(cmd)
				if err != nil {
					return err
				}
				if app.Config.File != "" {
					return app.Print(app.Config.File)
				}
				dir, err := config.Dir()
				if err != nil {
					return err
				}
				return app.Print(filepath.Join(dir, "config.yaml") + " (not found)")
			}),
		},
	)

	return configCmd
}
