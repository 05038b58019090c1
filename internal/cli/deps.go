package cli

import (
	"io"
	"os"
	"time"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/platform"
	"github.com/ksyq12/sitectl/internal/probe"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/validate"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader  ConfigLoader
	DriverFactory DriverFactory
	ProbeFactory  ProbeFactory
	Executor      executor.CommandExecutor
	Host          validate.Host

	// Identity supplies the operator e-mail when none is configured.
	Identity func() string
	// CertificateDir is the certbot live directory.
	CertificateDir string

	Stdin  input.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load(path string) (*config.Config, error)
	Save(cfg *config.Config, path string) error
}

// DriverFactory creates the proxy driver
type DriverFactory interface {
	Create(exec executor.CommandExecutor, log *logger.Logger) driver.Driver
}

// ProbeFactory creates the backend liveness probe
type ProbeFactory interface {
	Create(timeout time.Duration) probe.PortProbe
}

// Package-level dependencies (can be overridden for testing)
var deps = defaultDeps()

func defaultDeps() *Dependencies {
	return &Dependencies{
		ConfigLoader:   realConfigLoader{},
		DriverFactory:  realDriverFactory{},
		ProbeFactory:   realProbeFactory{},
		Executor:       executor.NewSystemExecutor(),
		Host:           platform.NewHost(),
		Identity:       ssl.GitEmail,
		CertificateDir: platform.LetsEncryptLive,
		Stdin:          input.NewStdinReader(),
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

type realConfigLoader struct{}

func (realConfigLoader) Load(path string) (*config.Config, error) {
	return config.Load(path)
}

func (realConfigLoader) Save(cfg *config.Config, path string) error {
	return cfg.Save(path)
}

type realDriverFactory struct{}

func (realDriverFactory) Create(exec executor.CommandExecutor, log *logger.Logger) driver.Driver {
	return driver.NewNginx(driver.Options{Executor: exec, Logger: log})
}

type realProbeFactory struct{}

func (realProbeFactory) Create(timeout time.Duration) probe.PortProbe {
	return probe.NewTCPProbe(timeout)
}
