package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/platform"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sitectl version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := output.New(deps.Stdout, jsonOutput)
		if out.JSONMode() {
			return out.JSON(map[string]string{"version": version, "platform": platform.Platform()})
		}
		out.Print("sitectl version %s (%s)", version, platform.Platform())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
