// Package validate runs the field and host checks that gate a deployment.
// Every check in a group runs; failures are collected, not short-circuited.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/probe"
	"github.com/ksyq12/sitectl/internal/sanitize"
)

var (
	identifierPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	labelPattern      = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// Host answers the pre-flight questions about the machine.
type Host interface {
	IsPrivileged() bool
	DaemonRunning() bool
	FreeSpace(path string) (uint64, error)
}

// PathFinder resolves binaries on PATH.
type PathFinder interface {
	LookPath(file string) (string, error)
}

// SiteChecker reports whether a definition exists for an identifier.
type SiteChecker interface {
	Exists(identifier string) bool
}

// Options configures an Engine.
type Options struct {
	Probe          probe.PortProbe
	Host           Host
	Paths          PathFinder
	Sites          SiteChecker
	Binary         string // proxy binary, "nginx"
	DefinitionsDir string // directory whose filesystem must have room
	MinFreeSpace   uint64 // bytes
}

// Engine composes the individual checks.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Binary == "" {
		opts.Binary = "nginx"
	}
	return &Engine{opts: opts}
}

// ValidateConfig checks the operator input and that a backend is live on
// the requested port.
func (e *Engine) ValidateConfig(ctx context.Context, raw config.RawConfig) Result {
	res := NewResult()
	res.Merge(Identifier(raw.ProjectName))
	res.Merge(Domain(raw.DomainName))

	port, err := sanitize.Port(raw.PortNumber)
	if err != nil {
		res.AddErr(err)
		return res
	}
	if e.opts.Probe != nil && !e.opts.Probe.IsListening(ctx, port) {
		res.addCode(errors.ErrCodeNotListening,
			fmt.Sprintf("no backend is listening on port %d (checked 127.0.0.1 and 0.0.0.0)", port))
	}
	return res
}

// ValidateSystem checks the host can take a new site.
func (e *Engine) ValidateSystem(ctx context.Context) Result {
	res := NewResult()
	if err := ctx.Err(); err != nil {
		res.Add(err.Error())
		return res
	}

	if e.opts.Host != nil && e.opts.Host.IsPrivileged() {
		res.addCode(errors.ErrCodePrivileged,
			"running as root is not allowed; sitectl escalates individual commands with sudo")
	}

	if e.opts.Paths != nil {
		if _, err := e.opts.Paths.LookPath(e.opts.Binary); err != nil {
			res.addCode(errors.ErrCodeSystem, fmt.Sprintf("%s not found in PATH", e.opts.Binary))
		}
	}

	if e.opts.Host != nil {
		if !e.opts.Host.DaemonRunning() {
			res.addCode(errors.ErrCodeSystem, fmt.Sprintf("%s is not running", e.opts.Binary))
		}

		if e.opts.DefinitionsDir != "" && e.opts.MinFreeSpace > 0 {
			free, err := e.opts.Host.FreeSpace(e.opts.DefinitionsDir)
			switch {
			case err != nil:
				res.addCode(errors.ErrCodeSystem, fmt.Sprintf("cannot determine free space: %v", err))
			case free < e.opts.MinFreeSpace:
				res.addCode(errors.ErrCodeSystem, fmt.Sprintf("only %s free at %s, need %s",
					humanize.Bytes(free), e.opts.DefinitionsDir, humanize.Bytes(e.opts.MinFreeSpace)))
			}
		}
	}
	return res
}

// ValidateNotExists fails with ErrSiteExists when a definition is present.
func (e *Engine) ValidateNotExists(identifier string) error {
	if e.opts.Sites != nil && e.opts.Sites.Exists(identifier) {
		return errors.AlreadyExists(identifier)
	}
	return nil
}

// Identifier checks the sanitized form of a project name.
func Identifier(projectName string) Result {
	res := NewResult()
	id := sanitize.Identifier(projectName)
	switch {
	case id == "":
		res.Add(fmt.Sprintf("project name %q has no usable characters", projectName))
	case len(id) > sanitize.MaxIdentifierLength:
		res.Add(fmt.Sprintf("identifier %q is longer than %d characters", id, sanitize.MaxIdentifierLength))
	case !identifierPattern.MatchString(id):
		res.Add(fmt.Sprintf("identifier %q may only contain a-z, 0-9 and -", id))
	}
	return res
}

// Domain checks a domain name against the DNS label grammar.
func Domain(domainName string) Result {
	res := NewResult()
	d := sanitize.Domain(domainName)

	if len(d) < 3 || len(d) > 253 {
		res.Add(fmt.Sprintf("domain %q must be between 3 and 253 characters", domainName))
		return res
	}

	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		res.Add(fmt.Sprintf("domain %q needs at least two labels", domainName))
	}
	for _, l := range labels {
		if !labelPattern.MatchString(l) {
			res.Add(fmt.Sprintf("domain %q has invalid label %q", domainName, l))
			break
		}
	}
	return res
}
