package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/sanitize"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/template"
	"github.com/ksyq12/sitectl/internal/validate"
)

// Validator gates a run before anything is written.
type Validator interface {
	ValidateSystem(ctx context.Context) validate.Result
	ValidateConfig(ctx context.Context, raw config.RawConfig) validate.Result
	ValidateNotExists(identifier string) error
}

// Certificates issues TLS certificates once the site is live.
type Certificates interface {
	IsAvailable() bool
	Exists(domain string) bool
	Issue(domain string) ssl.Result
}

// Source supplies the operator's input.
type Source interface {
	Capture(ctx context.Context) (config.RawConfig, error)
}

// Prompter asks the operator yes/no questions.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
}

// Reporter shows progress to the operator. *output.Printer satisfies it.
type Reporter interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Progress(format string, args ...interface{})
	Done()
}

// Recorder receives step timings and the final outcome.
type Recorder interface {
	ObserveStep(step string, d time.Duration)
	ObserveOutcome(outcome string, rolledBack bool)
}

// StaticSource returns a fixed input.
type StaticSource config.RawConfig

// Capture returns the fixed input.
func (s StaticSource) Capture(ctx context.Context) (config.RawConfig, error) {
	return config.RawConfig(s), ctx.Err()
}

// SSLMode controls certificate issuance after the site is live.
type SSLMode string

const (
	SSLAsk SSLMode = "ask"
	SSLYes SSLMode = "yes"
	SSLNo  SSLMode = "no"
)

// ParseSSLMode validates a --ssl flag value.
func ParseSSLMode(s string) (SSLMode, error) {
	switch m := SSLMode(s); m {
	case SSLAsk, SSLYes, SSLNo:
		return m, nil
	case "":
		return SSLAsk, nil
	default:
		return "", errors.Validation(fmt.Sprintf("invalid --ssl value %q (want ask, yes or no)", s))
	}
}

// Deps are the collaborators of a Pipeline. Driver, Validator and Source
// are required.
type Deps struct {
	Validator    Validator
	Driver       driver.Driver
	Certificates Certificates
	Source       Source
	Prompter     Prompter
	Reporter     Reporter
	Logger       *logger.Logger
	Recorder     Recorder
}

// Options tune a run.
type Options struct {
	// Force overwrites an existing site without asking.
	Force bool
	// AssumeYes answers the proceed and certificate prompts with yes. It
	// does not consent to an overwrite; that needs Force.
	AssumeYes bool
	SSL       SSLMode
	Limits    config.ProxyConfig
	// DryRun stops after the definition is generated.
	DryRun bool
}

// Pipeline deploys one site.
type Pipeline struct {
	deps Deps
	opts Options
	out  Reporter
	log  *logger.Logger
	rec  Recorder

	mu      sync.Mutex
	current *tracker
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	p := &Pipeline{deps: deps, opts: opts, out: deps.Reporter, log: deps.Logger, rec: deps.Recorder}
	if p.out == nil {
		p.out = nopReporter{}
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	if p.rec == nil {
		p.rec = nopRecorder{}
	}
	if p.opts.SSL == "" {
		p.opts.SSL = SSLAsk
	}
	return p
}

// Committed returns the paths the in-flight run has committed. Safe to
// call from another goroutine.
func (p *Pipeline) Committed() []string {
	p.mu.Lock()
	t := p.current
	p.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.committed()
}

// errCancelled stops a run after a declined confirmation.
var errCancelled = errors.New("cancelled by operator")

// run is the per-run state.
type run struct {
	p     *Pipeline
	ctx   context.Context
	rep   *Report
	log   *logger.Logger
	track *tracker

	raw        config.RawConfig
	site       config.ProcessedConfig
	definition string
	sslVariant bool
	overwrite  bool
}

type step struct {
	name     string
	state    State
	progress string
	fn       func(*run) error
}

var steps = []step{
	{"validate_system", SystemValidated, "Checking system", (*run).validateSystem},
	{"capture", ConfigCaptured, "", (*run).capture},
	{"validate_config", ConfigValidated, "Validating configuration", (*run).validateConfig},
	{"generate", ConfigGenerated, "Generating site definition", (*run).generate},
	{"write", ConfigWritten, "Writing site definition", (*run).write},
	{"enable", SiteEnabled, "Enabling site", (*run).enable},
	{"test", ConfigTested, "Testing nginx configuration", (*run).test},
	{"reload", Reloaded, "Reloading nginx", (*run).reload},
}

// Run executes one deployment. It never panics on collaborator failure
// and always returns a report; the report's Err is the first fatal error.
func (p *Pipeline) Run(ctx context.Context) *Report {
	rep := &Report{RunID: uuid.NewString()}
	r := &run{
		p:     p,
		ctx:   ctx,
		rep:   rep,
		log:   p.log.With(map[string]interface{}{"run_id": rep.RunID}),
		track: &tracker{},
	}

	p.mu.Lock()
	p.current = r.track
	p.mu.Unlock()

	rep.visit(Init)
	r.log.Info("deployment started")
	r.execute()
	p.out.Done()

	r.log.InfoFields("deployment finished", map[string]interface{}{
		"final":   rep.Final.String(),
		"outcome": rep.Outcome(),
	})
	if !rep.DryRun {
		p.rec.ObserveOutcome(rep.Outcome(), rep.RolledBack)
	}
	return rep
}

func (r *run) execute() {
	for _, s := range steps {
		if r.ctx.Err() != nil {
			r.interrupt()
			return
		}
		if s.state == ConfigWritten && r.p.opts.DryRun {
			r.finishDryRun()
			return
		}

		if s.progress != "" {
			r.p.out.Progress("%s", s.progress)
		}
		start := time.Now()
		err := s.fn(r)
		r.p.rec.ObserveStep(s.name, time.Since(start))
		r.p.out.Done()

		switch {
		case err == nil:
			r.transition(s.state)
		case errors.Is(err, errCancelled):
			r.transition(s.state)
			r.rep.Cancelled = true
			return
		case r.ctx.Err() != nil:
			r.interrupt()
			return
		default:
			r.abort(s, err)
			return
		}
	}

	if r.ctx.Err() != nil {
		r.interrupt()
		return
	}
	start := time.Now()
	final := r.certify()
	r.p.rec.ObserveStep("certify", time.Since(start))
	r.transition(final)

	r.rep.Summary = &DeploymentSummary{
		Config:             r.site,
		ConfigFilePath:     r.p.deps.Driver.DefinitionPath(r.site.Identifier),
		EnabledLinkPath:    r.p.deps.Driver.LinkPath(r.site.Identifier),
		CertificateEnabled: final == Certified,
		Overwrote:          r.overwrite,
	}
	r.transition(Complete)
}

func (r *run) transition(s State) {
	r.rep.visit(s)
	r.log.DebugFields("transition", map[string]interface{}{"state": s.String()})
}

// abort records a fatal step error. A run whose last reached state lies in
// the commit stage is rolled back; before it nothing has been touched.
func (r *run) abort(s step, err error) {
	r.rep.fail(err)
	r.log.ErrorFields("step failed", map[string]interface{}{"step": s.name, "error": err})

	if !r.rep.Final.Committed() {
		return
	}

	for _, rbErr := range r.rollback() {
		r.rep.RollbackErrors = append(r.rep.RollbackErrors, rbErr.Error())
	}
	r.rep.RolledBack = true
	r.transition(RolledBack)
}

// interrupt stops the run without undoing anything and reports what is
// left on disk so the operator can remove it.
func (r *run) interrupt() {
	r.rep.Interrupted = true
	r.rep.Committed = r.track.committed()
	r.log.WarnFields("interrupted", map[string]interface{}{
		"state":     r.rep.Final.String(),
		"committed": r.rep.Committed,
	})
}

func (r *run) finishDryRun() {
	r.rep.DryRun = true
	r.rep.Definition = r.definition
	r.rep.Summary = &DeploymentSummary{
		Config:             r.site,
		ConfigFilePath:     r.p.deps.Driver.DefinitionPath(r.site.Identifier),
		EnabledLinkPath:    r.p.deps.Driver.LinkPath(r.site.Identifier),
		CertificateEnabled: r.sslVariant,
		Overwrote:          r.overwrite,
	}
}

// confirm asks a proceed-style question. AssumeYes answers yes; without a
// prompter the default is taken.
func (r *run) confirm(question string, def bool) (bool, error) {
	if r.p.opts.AssumeYes {
		return true, nil
	}
	if r.p.deps.Prompter == nil {
		return def, nil
	}
	return r.p.deps.Prompter.Confirm(question, def)
}

func (r *run) validateSystem() error {
	res := r.p.deps.Validator.ValidateSystem(r.ctx)
	if res.Valid {
		return nil
	}
	if r.p.opts.DryRun {
		for _, msg := range res.Errors {
			r.p.out.Warn("%s", msg)
		}
		return nil
	}
	return res.Err("system check failed")
}

func (r *run) capture() error {
	raw, err := r.p.deps.Source.Capture(r.ctx)
	if err != nil {
		return err
	}
	r.raw = raw
	return nil
}

func (r *run) validateConfig() error {
	res := r.p.deps.Validator.ValidateConfig(r.ctx, r.raw)
	if !res.Valid {
		return res.Err("configuration is invalid")
	}

	site, err := sanitize.Process(r.raw)
	if err != nil {
		return err
	}
	r.site = site
	r.log = r.log.With(map[string]interface{}{"site": site.Identifier})

	if err := r.p.deps.Validator.ValidateNotExists(site.Identifier); err != nil {
		if !errors.Is(err, errors.ErrSiteExists) {
			return err
		}
		r.overwrite = true
		if err := r.consentOverwrite(); err != nil {
			return err
		}
	}

	if r.p.opts.DryRun {
		return nil
	}
	ok, err := r.confirm(fmt.Sprintf("Deploy %s -> 127.0.0.1:%d as %s?", site.Domain, site.Port, site.Identifier), true)
	if err != nil {
		return err
	}
	if !ok {
		r.p.out.Info("Deployment cancelled")
		return errCancelled
	}
	return nil
}

func (r *run) consentOverwrite() error {
	id := r.site.Identifier
	switch {
	case r.p.opts.DryRun:
		r.p.out.Warn("Site %s exists and would be overwritten", id)
		return nil
	case r.p.opts.Force:
		r.log.Info("overwriting existing site")
		return nil
	case r.p.opts.AssumeYes || r.p.deps.Prompter == nil:
		r.p.out.Info("Site %s already exists; use --force to overwrite it", id)
		return errCancelled
	}

	ok, err := r.p.deps.Prompter.Confirm(fmt.Sprintf("Site %s already exists. Overwrite it?", id), false)
	if err != nil {
		return err
	}
	if !ok {
		r.p.out.Info("Keeping the existing site %s", id)
		return errCancelled
	}
	return nil
}

func (r *run) generate() error {
	certs := r.p.deps.Certificates
	if certs != nil && certs.Exists(r.site.Domain) {
		r.sslVariant = true
		r.definition = template.RenderSSL(r.site, r.p.opts.Limits, template.CertFor(r.site.Domain))
		r.log.Info("certificate material found, rendering HTTPS server block")
	} else {
		r.definition = template.Render(r.site, r.p.opts.Limits)
	}
	return template.ValidateSyntax(r.definition)
}

func (r *run) write() error {
	drv := r.p.deps.Driver
	id := r.site.Identifier

	var previous *string
	var previousLinked bool
	if r.overwrite {
		content, err := drv.Read(id)
		if err != nil {
			return err
		}
		previous = &content
		if previousLinked, err = drv.IsEnabled(id); err != nil {
			return err
		}
	}

	r.track.set(func(t *tracker) {
		t.definitionPath = drv.DefinitionPath(id)
		t.linkPath = drv.LinkPath(id)
		t.previous = previous
		t.previousLinked = previousLinked
	})

	if err := drv.Write(id, r.definition); err != nil {
		return err
	}
	r.track.set(func(t *tracker) { t.fileWritten = true })
	r.log.InfoFields("definition written", map[string]interface{}{"path": drv.DefinitionPath(id)})
	return nil
}

func (r *run) enable() error {
	if err := r.p.deps.Driver.Enable(r.site.Identifier); err != nil {
		return err
	}
	r.track.set(func(t *tracker) { t.linkEnabled = true })
	return nil
}

func (r *run) test() error {
	return r.p.deps.Driver.Test()
}

func (r *run) reload() error {
	if err := r.p.deps.Driver.Reload(); err != nil {
		return err
	}
	r.track.set(func(t *tracker) { t.reloaded = true })
	return nil
}

// certify tries to add HTTPS to the live site. It never fails the run.
func (r *run) certify() State {
	domain := r.site.Domain
	certs := r.p.deps.Certificates

	if r.sslVariant {
		r.p.out.Info("Using the existing certificate for %s", domain)
		return Certified
	}
	if r.p.opts.SSL == SSLNo || certs == nil {
		return CertSkipped
	}
	if !certs.IsAvailable() {
		r.p.out.Warn("certbot is not installed; skipping HTTPS for %s", domain)
		return CertSkipped
	}
	if r.p.opts.SSL == SSLAsk {
		ok, err := r.confirm(fmt.Sprintf("Obtain a Let's Encrypt certificate for %s?", domain), false)
		if err != nil {
			r.log.LogError(err, "certificate prompt")
			return CertSkipped
		}
		if !ok {
			return CertSkipped
		}
	}

	r.p.out.Progress("Requesting certificate for %s", domain)
	res := certs.Issue(domain)
	r.p.out.Done()
	r.rep.Certificate = &res

	if !res.Success {
		r.log.LogError(res.Err, "certificate issuance")
		r.p.out.Warn("%s; the site stays on plain HTTP", res.Message)
		if res.RetryCommand != "" {
			r.p.out.Info("Retry with: %s", res.RetryCommand)
		}
		return CertSkipped
	}
	r.p.out.Success("%s", res.Message)
	return Certified
}

type nopReporter struct{}

func (nopReporter) Info(string, ...interface{})     {}
func (nopReporter) Success(string, ...interface{})  {}
func (nopReporter) Warn(string, ...interface{})     {}
func (nopReporter) Progress(string, ...interface{}) {}
func (nopReporter) Done()                           {}

type nopRecorder struct{}

func (nopRecorder) ObserveStep(string, time.Duration) {}
func (nopRecorder) ObserveOutcome(string, bool)       {}
