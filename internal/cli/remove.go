package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	forceRemove bool
	noReload    bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <identifier>",
	Aliases: []string{"rm"},
	Short:   "Remove a deployed site",
	Long: `Remove a site's activation link and definition, then reload nginx.

Examples:
  sitectl remove hrayfi
  sitectl rm hrayfi --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "Force removal without confirmation")
	removeCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx")

	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	if err := validateIdentifier(identifier); err != nil {
		return err
	}

	s, err := loadSession()
	if err != nil {
		return err
	}
	if err := s.requireSite(identifier); err != nil {
		return err
	}

	ok, err := s.confirm(forceRemove, fmt.Sprintf("Remove site %s?", identifier))
	if err != nil {
		return err
	}
	if !ok {
		s.out.Info("Removal cancelled")
		return nil
	}

	s.out.Info("Removing site %s", identifier)
	if err := s.drv.Remove(identifier); err != nil {
		return err
	}

	// The files are gone either way; a failing test is only reported.
	if err := s.testAndReload(!noReload, nil); err != nil {
		s.log.LogError(err, "post-removal check")
		s.out.Warn("Post-removal check failed: %v", err)
	}

	return s.result(newSuccessResult(identifier, "removed"), "Site %s removed", identifier)
}
