package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/metrics"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/pipeline"
	"github.com/ksyq12/sitectl/internal/validate"
)

var (
	projectName string
	domainName  string
	portNumber  string
	forceDeploy bool
	assumeYes   bool
	sslMode     string
	dryRun      bool
)

// deployFlags is shared by the root command and "deploy".
var deployFlags = pflag.NewFlagSet("deploy", pflag.ContinueOnError)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a reverse-proxy site for a local service",
	Long: `Deploy a reverse-proxy site for a service listening on 127.0.0.1.

Missing values are asked for interactively unless --yes is given.

Examples:
  sitectl deploy --name hrayfi --domain hrayfi.example.com --port 3101
  sitectl deploy -n api -d api.example.com -p 8080 --ssl yes --yes
  sitectl deploy -n api -d api.example.com -p 8080 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	deployFlags.StringVarP(&projectName, "name", "n", "", "Project name, used to derive the site identifier")
	deployFlags.StringVarP(&domainName, "domain", "d", "", "Public domain name")
	deployFlags.StringVarP(&portNumber, "port", "p", "", "Local port the service listens on")
	deployFlags.BoolVarP(&forceDeploy, "force", "f", false, "Overwrite an existing site without asking")
	deployFlags.BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmations and never prompt for input")
	deployFlags.StringVar(&sslMode, "ssl", string(pipeline.SSLAsk), "Obtain a certificate after deploying (ask, yes, no)")
	deployFlags.BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")

	rootCmd.Flags().AddFlagSet(deployFlags)
	rootCmd.RunE = runDeploy

	deployCmd.Flags().AddFlagSet(deployFlags)
	rootCmd.AddCommand(deployCmd)
}

// promptSource fills the values not given as flags from the operator.
type promptSource struct {
	raw    config.RawConfig
	prompt *input.Prompter
	ask    bool
}

func (s promptSource) Capture(ctx context.Context) (config.RawConfig, error) {
	raw := s.raw
	fields := []struct {
		flag, question string
		value          *string
	}{
		{"--name", "Project name", &raw.ProjectName},
		{"--domain", "Domain name", &raw.DomainName},
		{"--port", "Port number", &raw.PortNumber},
	}

	var missing []string
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		if !s.ask {
			missing = append(missing, f.flag+" is required")
			continue
		}
		if err := ctx.Err(); err != nil {
			return raw, err
		}
		answer, err := s.prompt.Ask(f.question, "")
		if err != nil {
			return raw, err
		}
		*f.value = answer
	}
	if len(missing) > 0 {
		return raw, errors.Validation("missing input", missing...)
	}
	return raw, ctx.Err()
}

func runDeploy(cmd *cobra.Command, args []string) error {
	mode, err := pipeline.ParseSSLMode(sslMode)
	if err != nil {
		return err
	}

	s, err := loadSession()
	if err != nil {
		return err
	}

	minFree, err := s.cfg.MinFreeSpaceBytes()
	if err != nil {
		return err
	}

	engine := validate.New(validate.Options{
		Probe:          deps.ProbeFactory.Create(s.cfg.Probe.Timeout),
		Host:           deps.Host,
		Paths:          deps.Executor,
		Sites:          s.drv,
		Binary:         s.drv.Binary(),
		DefinitionsDir: s.drv.Paths().Available,
		MinFreeSpace:   minFree,
	})

	rec := metrics.NewRecorder(nil)
	if path := s.cfg.Metrics.Textfile; path != "" && !dryRun {
		if err := rec.Restore(path); err != nil {
			s.log.LogError(err, "restore metrics textfile")
			s.out.Warn("Could not read previous metrics from %s: %v", path, err)
		}
	}
	p := pipeline.New(pipeline.Deps{
		Validator:    engine,
		Driver:       s.drv,
		Certificates: s.certbot(),
		Source: promptSource{
			raw:    config.RawConfig{ProjectName: projectName, DomainName: domainName, PortNumber: portNumber},
			prompt: s.prompt,
			ask:    !assumeYes,
		},
		Prompter: s.prompt,
		Reporter: s.out,
		Logger:   s.log,
		Recorder: rec,
	}, pipeline.Options{
		Force:     forceDeploy,
		AssumeYes: assumeYes,
		SSL:       mode,
		Limits:    s.cfg.Proxy,
		DryRun:    dryRun,
	})

	interrupts.setForce(func(code int) {
		s.out.Flush()
		printLeftOnDisk(outputStderr(), p.Committed())
		os.Exit(code)
	})

	rep := p.Run(cmd.Context())

	if path := s.cfg.Metrics.Textfile; path != "" && !rep.DryRun {
		if err := rec.WriteTextfile(path); err != nil {
			s.log.LogError(err, "write metrics textfile")
			s.out.Warn("Could not write metrics to %s: %v", path, err)
		}
	}

	return reportDeploy(s.out, rep)
}

// DryRunOperation represents an operation that would be performed in dry-run mode
type DryRunOperation struct {
	Action  string `json:"action"`
	Target  string `json:"target"`
	Details string `json:"details,omitempty"`
}

// DryRunResult represents the result of a dry-run operation
type DryRunResult struct {
	DryRun     bool                        `json:"dry_run"`
	RunID      string                      `json:"run_id"`
	Summary    *pipeline.DeploymentSummary `json:"summary"`
	Operations []DryRunOperation           `json:"operations"`
	Definition string                      `json:"definition"`
}

func dryRunOperations(sum *pipeline.DeploymentSummary) []DryRunOperation {
	ops := []DryRunOperation{
		{Action: "create_file", Target: sum.ConfigFilePath, Details: fmt.Sprintf("Site definition for %s", sum.Config.Domain)},
		{Action: "create_symlink", Target: sum.EnabledLinkPath, Details: "Enable site"},
		{Action: "run_command", Target: "nginx -t", Details: "Test configuration"},
		{Action: "run_command", Target: "nginx -s reload", Details: "Reload nginx"},
	}
	if sum.Overwrote {
		ops[0].Action = "replace_file"
	}
	if !sum.CertificateEnabled && sslMode != string(pipeline.SSLNo) {
		ops = append(ops, DryRunOperation{
			Action:  "run_command",
			Target:  "certbot --nginx",
			Details: fmt.Sprintf("Obtain a certificate for %s (%s)", sum.Config.Domain, sslMode),
		})
	}
	return ops
}

// reportDeploy shows the outcome of a run and maps it to an error.
func reportDeploy(out *output.Printer, rep *pipeline.Report) error {
	switch {
	case rep.DryRun:
		return reportDryRun(out, rep)
	case rep.Succeeded():
		if out.JSONMode() {
			return out.JSON(rep)
		}
		sum := rep.Summary
		out.Success("Site %s deployed: http://%s -> 127.0.0.1:%d", sum.Config.Identifier, sum.Config.Domain, sum.Config.Port)
		if sum.CertificateEnabled {
			out.Success("HTTPS enabled for %s", sum.Config.Domain)
		}
		out.Print("  definition: %s", sum.ConfigFilePath)
		out.Print("  link:       %s", sum.EnabledLinkPath)
		return nil
	case rep.Cancelled:
		if out.JSONMode() {
			return out.JSON(rep)
		}
		return nil
	case rep.Interrupted:
		if out.JSONMode() {
			_ = out.JSON(rep)
		} else {
			out.Flush()
			printLeftOnDisk(outputStderr(), rep.Committed)
		}
		code := interrupts.code()
		if code == 0 {
			code = 130
		}
		return &exitError{code: code}
	}

	if out.JSONMode() {
		_ = out.JSON(rep)
		return &reportedError{err: rep.Err}
	}

	errOut := outputStderr()
	printError(errOut, rep.Err)
	if cmd := errors.CommandOf(rep.Err); cmd != "" {
		errOut.Print("  command: %s", cmd)
	}
	if rep.RolledBack {
		if len(rep.RollbackErrors) == 0 {
			errOut.Info("All changes were rolled back")
		} else {
			errOut.Warn("Rollback was incomplete:")
			for _, e := range rep.RollbackErrors {
				errOut.Print("  - %s", e)
			}
		}
	}
	return &reportedError{err: rep.Err}
}

func reportDryRun(out *output.Printer, rep *pipeline.Report) error {
	ops := dryRunOperations(rep.Summary)
	if out.JSONMode() {
		return out.JSON(DryRunResult{
			DryRun:     true,
			RunID:      rep.RunID,
			Summary:    rep.Summary,
			Operations: ops,
			Definition: rep.Definition,
		})
	}

	out.Info("Dry run: no changes were made")
	for _, op := range ops {
		out.Print("  %-15s %s", op.Action, op.Target)
	}
	out.Print("")
	out.Print("%s", strings.TrimRight(rep.Definition, "\n"))
	return nil
}

// printLeftOnDisk tells the operator what an interrupted run left behind.
func printLeftOnDisk(out *output.Printer, committed []string) {
	if len(committed) == 0 {
		out.Warn("Interrupted; nothing was written")
		return
	}
	out.Warn("Interrupted; these paths were left on disk:")
	for _, p := range committed {
		out.Print("  %s", p)
	}
	out.Info("Run \"sitectl remove %s\" to clean up", filepath.Base(committed[0]))
}
