package pipeline

import (
	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/metrics"
	"github.com/ksyq12/sitectl/internal/ssl"
)

// DeploymentSummary describes a site that went live. Only produced when a
// run reaches Complete.
type DeploymentSummary struct {
	Config             config.ProcessedConfig `json:"config"`
	ConfigFilePath     string                 `json:"config_file_path"`
	EnabledLinkPath    string                 `json:"enabled_link_path"`
	CertificateEnabled bool                   `json:"certificate_enabled"`
	Overwrote          bool                   `json:"overwrote,omitempty"`
}

// Report is the outcome of one run.
type Report struct {
	RunID   string             `json:"run_id"`
	Final   State              `json:"final"`
	Visited []State            `json:"visited"`
	Summary *DeploymentSummary `json:"summary,omitempty"`

	// Cancelled is set when the operator declined a confirmation. It is a
	// clean stop, not a failure.
	Cancelled bool `json:"cancelled,omitempty"`

	// Interrupted is set when the context was cancelled mid-run. Committed
	// lists the paths left on disk, which are not rolled back.
	Interrupted bool     `json:"interrupted,omitempty"`
	Committed   []string `json:"committed,omitempty"`

	RolledBack     bool     `json:"rolled_back,omitempty"`
	Err            error    `json:"-"`
	Error          string   `json:"error,omitempty"`
	RollbackErrors []string `json:"rollback_errors,omitempty"`

	// Certificate is the issuance result when one was attempted.
	Certificate *ssl.Result `json:"certificate,omitempty"`

	// DryRun reports carry the rendered definition instead of a summary.
	DryRun     bool   `json:"dry_run,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// Succeeded reports whether the site is live.
func (r *Report) Succeeded() bool {
	return r.Final == Complete && r.Err == nil
}

// Outcome maps the report to a metrics outcome label.
func (r *Report) Outcome() string {
	switch {
	case r.Succeeded():
		return metrics.OutcomeSuccess
	case r.Cancelled, r.Interrupted:
		return metrics.OutcomeCancelled
	case r.RolledBack:
		return metrics.OutcomeRolledBack
	default:
		return metrics.OutcomeFailed
	}
}

func (r *Report) visit(s State) {
	r.Final = s
	r.Visited = append(r.Visited, s)
}

func (r *Report) fail(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}
