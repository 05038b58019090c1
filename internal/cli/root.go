package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/output"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
)

var (
	jsonOutput bool
	verbose    bool
	configFile string
	version    = "dev"
)

// rootCmd represents the base command. Without a subcommand it deploys.
var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Deploy nginx reverse-proxy sites for local services",
	Long: `sitectl puts a service that already listens on a local port behind nginx.

It validates the input and the host, writes and enables the site definition,
tests and reloads nginx, and optionally obtains a Let's Encrypt certificate.
A failure after the definition is written is rolled back.

Running sitectl without a subcommand is the same as "sitectl deploy".`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(context.Background(), os.Args[1:])
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/sitectl/config.yaml)")
}

// run executes one CLI invocation with args.
func run(parent context.Context, args []string) int {
	resetFlags(rootCmd)

	ctx, watcher, stop := notifyContext(parent)
	defer stop()
	interrupts = watcher

	setContext(rootCmd, ctx)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)
	err := rootCmd.ExecuteContext(ctx)

	if code := watcher.code(); code != 0 {
		return code
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		reportError(err)
		return ExitError
	}
	return ExitOK
}

// reportError prints a command error unless the command already did.
func reportError(err error) {
	if _, ok := err.(*reportedError); ok {
		return
	}
	if jsonOutput {
		_ = output.New(deps.Stdout, true).JSON(CommandResult{Success: false, Message: err.Error()})
		return
	}
	outputStderr().Error("%v", err)
}

// resetFlags restores every flag to its default so repeated invocations in
// one process start clean.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setContext hands ctx to every command. Cobra only fills in a missing
// context, so a subcommand would otherwise keep the one from its first run.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContext(c, ctx)
	}
}
