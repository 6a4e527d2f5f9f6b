package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipValidation: "true"},
		RunE: instrument("version", func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			return app.Print(versionView{Info: version.GetInfo(), verbose: verbose})
		}),
	}
}
