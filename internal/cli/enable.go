package cli

import (
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/errors"
)

var enableCmd = &cobra.Command{
	Use:   "enable <identifier>",
	Short: "Enable a site",
	Long: `Enable a site by linking its definition into sites-enabled.
The link is removed again if nginx rejects the configuration.

Examples:
  sitectl enable hrayfi`,
	Args: cobra.ExactArgs(1),
	RunE: runEnable,
}

func init() {
	enableCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")

	rootCmd.AddCommand(enableCmd)
}

func runEnable(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	if err := validateIdentifier(identifier); err != nil {
		return err
	}

	s, err := loadSession()
	if err != nil {
		return err
	}
	if !s.drv.Exists(identifier) {
		return errors.NotFound(identifier)
	}

	wasEnabled, err := s.drv.IsEnabled(identifier)
	if err != nil {
		return err
	}
	if wasEnabled {
		s.out.Info("Site %s is already enabled", identifier)
		return s.result(newSuccessResult(identifier, "enabled"), "Site %s enabled", identifier)
	}

	s.out.Info("Enabling site %s", identifier)
	if err := s.drv.Enable(identifier); err != nil {
		return err
	}

	rollback := func() error {
		return s.drv.Disable(identifier)
	}
	if err := s.testAndReload(!noReload, rollback); err != nil {
		return err
	}

	return s.result(newSuccessResult(identifier, "enabled"), "Site %s enabled", identifier)
}
