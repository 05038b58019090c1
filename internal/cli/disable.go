package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/errors"
)

var disableCmd = &cobra.Command{
	Use:   "disable <identifier>",
	Short: "Disable a site",
	Long: `Disable a site by removing its link from sites-enabled.
The definition is kept so the site can be enabled again.

Examples:
  sitectl disable hrayfi`,
	Args: cobra.ExactArgs(1),
	RunE: runDisable,
}

func init() {
	disableCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")

	rootCmd.AddCommand(disableCmd)
}

func runDisable(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	if err := validateIdentifier(identifier); err != nil {
		return err
	}

	s, err := loadSession()
	if err != nil {
		return err
	}
	enabled, err := s.drv.IsEnabled(identifier)
	if err != nil {
		return err
	}
	if !enabled {
		if !s.drv.Exists(identifier) {
			return errors.NotFound(identifier)
		}
		s.out.Info("Site %s is already disabled", identifier)
		return s.result(newSuccessResult(identifier, "disabled"), "Site %s disabled", identifier)
	}

	s.out.Info("Disabling site %s", identifier)
	if err := s.drv.Disable(identifier); err != nil {
		return err
	}

	rollback := func() error {
		return s.drv.Enable(identifier)
	}
	if err := s.testAndReload(!noReload, rollback); err != nil {
		return err
	}

	return s.result(newSuccessResult(identifier, "disabled"), "Site %s disabled", identifier)
}
