package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/probe"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls int
	SavedPath string
}

func (m *MockConfigLoader) Load(path string) (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config, path string) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	m.SavedPath = path
	return nil
}

// MockDriverFactory is a test double for DriverFactory
type MockDriverFactory struct {
	Driver driver.Driver
}

func (m *MockDriverFactory) Create(executor.CommandExecutor, *logger.Logger) driver.Driver {
	if m.Driver == nil {
		m.Driver = driver.NewMockDriver("/etc/nginx/sites-available", "/etc/nginx/sites-enabled")
	}
	return m.Driver
}

// MockProbeFactory returns a fixed probe
type MockProbeFactory struct {
	Probe   probe.PortProbe
	Timeout time.Duration
}

func (m *MockProbeFactory) Create(timeout time.Duration) probe.PortProbe {
	m.Timeout = timeout
	if m.Probe == nil {
		return probe.Static{}
	}
	return m.Probe
}

// MockHost is a test double for the host facts used by pre-flight checks
type MockHost struct {
	Root    bool
	Running bool
	Free    uint64
	FreeErr error
}

func (m *MockHost) IsPrivileged() bool               { return m.Root }
func (m *MockHost) DaemonRunning() bool              { return m.Running }
func (m *MockHost) FreeSpace(string) (uint64, error) { return m.Free, m.FreeErr }

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults:
// an unprivileged host with nginx running and plenty of space, and
// nothing listening.
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:   &MockConfigLoader{Cfg: config.New()},
			DriverFactory:  &MockDriverFactory{},
			ProbeFactory:   &MockProbeFactory{},
			Executor:       &executor.MockExecutor{},
			Host:           &MockHost{Running: true, Free: 10 << 30},
			Identity:       func() string { return "" },
			CertificateDir: "/nonexistent/letsencrypt/live",
			Stdin:          input.NewStringReader(),
			Stdout:         &bytes.Buffer{},
			Stderr:         &bytes.Buffer{},
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithConfigLoader sets a custom config loader
func (b *MockDependenciesBuilder) WithConfigLoader(loader ConfigLoader) *MockDependenciesBuilder {
	b.deps.ConfigLoader = loader
	return b
}

// WithDriver sets the driver for the mock
func (b *MockDependenciesBuilder) WithDriver(drv driver.Driver) *MockDependenciesBuilder {
	b.deps.DriverFactory = &MockDriverFactory{Driver: drv}
	return b
}

// WithExecutor sets the command executor
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithHost sets the host facts
func (b *MockDependenciesBuilder) WithHost(host *MockHost) *MockDependenciesBuilder {
	b.deps.Host = host
	return b
}

// WithListening marks ports as having a live backend
func (b *MockDependenciesBuilder) WithListening(ports ...int) *MockDependenciesBuilder {
	open := probe.Static{}
	for _, p := range ports {
		open[p] = true
	}
	b.deps.ProbeFactory = &MockProbeFactory{Probe: open}
	return b
}

// WithStdinInput sets the answers read from stdin, one per line
func (b *MockDependenciesBuilder) WithStdinInput(lines ...string) *MockDependenciesBuilder {
	b.deps.Stdin = input.NewStringReader(lines...)
	return b
}

// WithCertificateDir sets the certbot live directory
func (b *MockDependenciesBuilder) WithCertificateDir(dir string) *MockDependenciesBuilder {
	b.deps.CertificateDir = dir
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
	}
	OldDeps    *Dependencies
	Deps       *Dependencies
	MockDriver *driver.MockDriver
	MockConfig *MockConfigLoader
	MockExec   *executor.MockExecutor
	Host       *MockHost
	Stdout     *bytes.Buffer
	Stderr     *bytes.Buffer
}

// NewTestHelper installs mock dependencies backed by an in-memory driver
// and restores the previous ones when the test ends.
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
}, availableDir, enabledDir string) *TestHelper {
	t.Helper()

	h := &TestHelper{
		T:          t,
		OldDeps:    deps,
		MockDriver: driver.NewMockDriver(availableDir, enabledDir),
		MockConfig: &MockConfigLoader{Cfg: config.New()},
		MockExec:   &executor.MockExecutor{},
		Host:       &MockHost{Running: true, Free: 10 << 30},
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	}

	h.Deps = NewMockDeps().
		WithDriver(h.MockDriver).
		WithConfigLoader(h.MockConfig).
		WithExecutor(h.MockExec).
		WithHost(h.Host).
		Build()
	h.Deps.Stdout = h.Stdout
	h.Deps.Stderr = h.Stderr
	deps = h.Deps

	t.Cleanup(func() {
		deps = h.OldDeps
	})
	return h
}

// SetStdinInput sets the answers read from stdin, one per line
func (h *TestHelper) SetStdinInput(lines ...string) {
	deps.Stdin = input.NewStringReader(lines...)
}

// SetListening marks ports as having a live backend
func (h *TestHelper) SetListening(ports ...int) {
	open := probe.Static{}
	for _, p := range ports {
		open[p] = true
	}
	deps.ProbeFactory = &MockProbeFactory{Probe: open}
}

// AddSite stores a definition, enabled or not
func (h *TestHelper) AddSite(identifier, content string, enabled bool) {
	h.MockDriver.Definitions[identifier] = content
	if enabled {
		h.MockDriver.Links[identifier] = true
	}
}

// Run executes the CLI with args and returns the exit code
func (h *TestHelper) Run(args ...string) int {
	h.T.Helper()
	h.Stdout.Reset()
	h.Stderr.Reset()
	return run(context.Background(), args)
}

// RunContext executes the CLI with a caller-supplied context
func (h *TestHelper) RunContext(ctx context.Context, args ...string) int {
	h.T.Helper()
	h.Stdout.Reset()
	h.Stderr.Reset()
	return run(ctx, args)
}
