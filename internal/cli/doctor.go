package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/template"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the host, the sitectl settings and every site.

Checks:
  - nginx installation, version and master process
  - Privileges and free space for site definitions
  - Certbot installation
  - Config file and nginx configuration syntax
  - Per site: activation link, backend liveness, certificate

Examples:
  sitectl doctor
  sitectl doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// Check statuses.
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

var nginxVersionPattern = regexp.MustCompile(`nginx/(\d+\.\d+\.\d+)`)

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// SiteStatus represents the status of a single site
type SiteStatus struct {
	Identifier string        `json:"identifier"`
	Domain     string        `json:"domain,omitempty"`
	Enabled    bool          `json:"enabled"`
	Checks     []CheckResult `json:"checks"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	SystemRequirements []CheckResult `json:"system_requirements"`
	Configuration      []CheckResult `json:"configuration"`
	Sites              []SiteStatus  `json:"sites"`
}

// Healthy reports whether no check failed.
func (r *DoctorReport) Healthy() bool {
	all := append(append([]CheckResult{}, r.SystemRequirements...), r.Configuration...)
	for _, s := range r.Sites {
		all = append(all, s.Checks...)
	}
	for _, c := range all {
		if c.Status == statusError {
			return false
		}
	}
	return true
}

func runDoctor(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}

	report := &DoctorReport{
		SystemRequirements: checkSystemRequirements(s),
		Configuration:      checkConfiguration(s),
		Sites:              checkSites(cmd.Context(), s),
	}

	if s.out.JSONMode() {
		if err := s.out.JSON(report); err != nil {
			return err
		}
	} else {
		displayDoctorResults(s.out, report)
	}
	if !report.Healthy() {
		return &reportedError{err: errors.New("doctor found problems")}
	}
	return nil
}

func checkSystemRequirements(s *session) []CheckResult {
	results := []CheckResult{}
	exec := deps.Executor
	binary := s.drv.Binary()

	if _, err := exec.LookPath(binary); err == nil {
		version := "unknown"
		// nginx -v prints to stderr.
		if out, err := exec.Run(executor.Command{Name: binary, Args: []string{"-v"}}); err == nil {
			text := string(out.Stdout) + string(out.Stderr)
			if m := nginxVersionPattern.FindStringSubmatch(text); len(m) >= 2 {
				version = m[1]
			}
		}
		results = append(results, CheckResult{statusSuccess, fmt.Sprintf("Nginx installed (%s)", version)})
	} else {
		results = append(results, CheckResult{statusError, "Nginx not installed"})
	}

	if deps.Host.DaemonRunning() {
		results = append(results, CheckResult{statusSuccess, "Nginx running"})
	} else {
		results = append(results, CheckResult{statusError, "Nginx not running"})
	}

	if deps.Host.IsPrivileged() {
		results = append(results, CheckResult{statusError, "Running as root; run sitectl as a regular user with sudo access"})
	} else {
		results = append(results, CheckResult{statusSuccess, "Running as a regular user"})
	}

	dir := s.drv.Paths().Available
	minFree, _ := s.cfg.MinFreeSpaceBytes()
	switch free, err := deps.Host.FreeSpace(dir); {
	case err != nil:
		results = append(results, CheckResult{statusWarning, fmt.Sprintf("Could not check free space for %s: %v", dir, err)})
	case free < minFree:
		results = append(results, CheckResult{statusError, fmt.Sprintf("Low disk space for %s (%s free, %s required)", dir, humanize.Bytes(free), humanize.Bytes(minFree))})
	default:
		results = append(results, CheckResult{statusSuccess, fmt.Sprintf("Disk space OK (%s free)", humanize.Bytes(free))})
	}

	if s.certbot().IsAvailable() {
		results = append(results, CheckResult{statusSuccess, "Certbot installed"})
	} else {
		results = append(results, CheckResult{statusWarning, "Certbot not installed (HTTPS unavailable)"})
	}

	return results
}

func checkConfiguration(s *session) []CheckResult {
	results := []CheckResult{}

	path := configFile
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			results = append(results, CheckResult{statusError, "Could not determine config path"})
		}
		path = p
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			displayPath := strings.Replace(path, os.Getenv("HOME"), "~", 1)
			results = append(results, CheckResult{statusSuccess, fmt.Sprintf("Config file exists (%s)", displayPath)})
		} else {
			results = append(results, CheckResult{statusWarning, "Config file not found, using defaults (sitectl config init)"})
		}
	}

	if err := s.drv.Test(); err == nil {
		results = append(results, CheckResult{statusSuccess, "Nginx config syntax OK"})
	} else {
		s.log.LogError(err, "nginx -t")
		results = append(results, CheckResult{statusError, "Nginx config syntax error"})
	}

	return results
}

func checkSites(ctx context.Context, s *session) []SiteStatus {
	statuses := []SiteStatus{}

	ids, err := s.drv.List()
	if err != nil {
		s.log.LogError(err, "list sites")
		return statuses
	}

	probe := deps.ProbeFactory.Create(s.cfg.Probe.Timeout)
	cb := s.certbot()

	for _, id := range ids {
		status := SiteStatus{Identifier: id, Checks: []CheckResult{}}
		status.Enabled, _ = s.drv.IsEnabled(id)

		text, err := s.drv.Read(id)
		if err != nil {
			status.Checks = append(status.Checks, CheckResult{statusError, fmt.Sprintf("definition unreadable: %v", err)})
			statuses = append(statuses, status)
			continue
		}
		d, err := template.Describe(text)
		if err != nil {
			status.Checks = append(status.Checks, CheckResult{statusError, fmt.Sprintf("definition invalid: %v", err)})
			statuses = append(statuses, status)
			continue
		}
		status.Domain = d.Domain

		allOK := true
		if d.Port != 0 && !probe.IsListening(ctx, d.Port) {
			status.Checks = append(status.Checks, CheckResult{statusWarning, fmt.Sprintf("backend not listening on port %d", d.Port)})
			allOK = false
		}
		if d.SSL && d.Domain != "" && !cb.Exists(d.Domain) {
			status.Checks = append(status.Checks, CheckResult{statusError, "SSL certificate missing"})
			allOK = false
		}

		if allOK {
			statusText := "disabled"
			if status.Enabled {
				statusText = "enabled"
			}
			status.Checks = append(status.Checks, CheckResult{statusSuccess, fmt.Sprintf("%s, backend up", statusText)})
		}

		statuses = append(statuses, status)
	}

	return statuses
}

func displayDoctorResults(out *output.Printer, report *DoctorReport) {
	out.Print("Checking system requirements...")
	for _, check := range report.SystemRequirements {
		displayCheck(out, check)
	}
	out.Print("")

	out.Print("Checking configuration...")
	for _, check := range report.Configuration {
		displayCheck(out, check)
	}
	out.Print("")

	if len(report.Sites) == 0 {
		out.Print("No sites deployed")
		return
	}
	out.Print("Checking sites...")
	for _, site := range report.Sites {
		for _, check := range site.Checks {
			displayCheck(out, CheckResult{check.Status, fmt.Sprintf("%s - %s", site.Identifier, check.Message)})
		}
	}
}

func displayCheck(out *output.Printer, check CheckResult) {
	switch check.Status {
	case statusSuccess:
		out.Success("%s", check.Message)
	case statusWarning:
		out.Warn("%s", check.Message)
	case statusError:
		out.Error("%s", check.Message)
	}
}
