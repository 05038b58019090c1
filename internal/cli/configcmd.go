package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/output"
)

var (
	forceInit bool
	initEmail string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sitectl settings",
	Long: `Manage the sitectl config file.

Settings are read from the config file and SITECTL_* environment
variables, e.g. SITECTL_CERTIFICATE_EMAIL or SITECTL_PROBE_TIMEOUT.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write a config file with the default settings.

Examples:
  sitectl config init
  sitectl config init --email ops@example.com
  sitectl config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
	configInitCmd.Flags().StringVar(&initEmail, "email", "", "Contact e-mail for Let's Encrypt")

	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.ConfigPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := output.New(deps.Stdout, jsonOutput)

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.New()
	cfg.Certificate.Email = strings.TrimSpace(initEmail)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := deps.ConfigLoader.Save(cfg, path); err != nil {
		return err
	}

	if out.JSONMode() {
		return out.JSON(map[string]interface{}{
			"success": true,
			"path":    path,
		})
	}
	out.Success("Config written to %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := deps.ConfigLoader.Load(configFile)
	if err != nil {
		return err
	}

	out := output.New(deps.Stdout, jsonOutput)
	if out.JSONMode() {
		return out.JSON(cfg)
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	out.Print("%s", strings.TrimRight(string(data), "\n"))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	out := output.New(deps.Stdout, jsonOutput)
	if out.JSONMode() {
		return out.JSON(map[string]string{"path": path})
	}
	out.Print("%s", path)
	return nil
}
