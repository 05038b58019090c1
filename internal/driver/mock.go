package driver

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ksyq12/sitectl/internal/errors"
)

// MockDriver is a test double for Driver interface. Without function
// overrides it keeps definitions and links in memory.
type MockDriver struct {
	paths Paths

	Definitions map[string]string
	Links       map[string]bool
	Running     bool

	// Function mocks - set these to customize behavior
	WriteFunc   func(identifier, content string) error
	EnableFunc  func(identifier string) error
	DisableFunc func(identifier string) error
	RemoveFunc  func(identifier string) error
	DeleteFunc  func(identifier string) error
	TestFunc    func() error
	ReloadFunc  func() error

	// Calls records every mutating call in order, e.g. "write shop-api".
	Calls []string
}

// NewMockDriver creates a new MockDriver with default in-memory behavior
func NewMockDriver(availableDir, enabledDir string) *MockDriver {
	return &MockDriver{
		paths:       Paths{Available: availableDir, Enabled: enabledDir},
		Definitions: make(map[string]string),
		Links:       make(map[string]bool),
		Running:     true,
	}
}

func (m *MockDriver) record(op string, args ...string) {
	m.Calls = append(m.Calls, strings.TrimSpace(op+" "+strings.Join(args, " ")))
}

// Name returns the driver name
func (m *MockDriver) Name() string { return "nginx" }

// Binary returns the proxy executable name
func (m *MockDriver) Binary() string { return "nginx" }

// Paths returns the configured paths
func (m *MockDriver) Paths() Paths { return m.paths }

// DefinitionPath joins the available dir and identifier
func (m *MockDriver) DefinitionPath(identifier string) string {
	return filepath.Join(m.paths.Available, identifier)
}

// LinkPath joins the enabled dir and identifier
func (m *MockDriver) LinkPath(identifier string) string {
	return filepath.Join(m.paths.Enabled, identifier)
}

// Write records the call and stores the content
func (m *MockDriver) Write(identifier, content string) error {
	m.record("write", identifier)
	if m.WriteFunc != nil {
		if err := m.WriteFunc(identifier, content); err != nil {
			return err
		}
	}
	m.Definitions[identifier] = content
	return nil
}

// Read returns the stored content
func (m *MockDriver) Read(identifier string) (string, error) {
	c, ok := m.Definitions[identifier]
	if !ok {
		return "", errors.NotFound(identifier)
	}
	return c, nil
}

// Exists reports whether a definition is stored
func (m *MockDriver) Exists(identifier string) bool {
	_, ok := m.Definitions[identifier]
	return ok
}

// Enable records the call and marks the link
func (m *MockDriver) Enable(identifier string) error {
	m.record("enable", identifier)
	if m.EnableFunc != nil {
		if err := m.EnableFunc(identifier); err != nil {
			return err
		}
	}
	m.Links[identifier] = true
	return nil
}

// Disable records the call and drops the link
func (m *MockDriver) Disable(identifier string) error {
	m.record("disable", identifier)
	if m.DisableFunc != nil {
		if err := m.DisableFunc(identifier); err != nil {
			return err
		}
	}
	delete(m.Links, identifier)
	return nil
}

// Remove records the call and drops link and definition
func (m *MockDriver) Remove(identifier string) error {
	m.record("remove", identifier)
	if m.RemoveFunc != nil {
		if err := m.RemoveFunc(identifier); err != nil {
			return err
		}
	}
	if !m.Exists(identifier) && !m.Links[identifier] {
		return errors.NotFound(identifier)
	}
	delete(m.Links, identifier)
	delete(m.Definitions, identifier)
	return nil
}

// Delete records the call and drops the definition only
func (m *MockDriver) Delete(identifier string) error {
	m.record("delete", identifier)
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(identifier); err != nil {
			return err
		}
	}
	delete(m.Definitions, identifier)
	return nil
}

// List returns stored identifiers, sorted
func (m *MockDriver) List() ([]string, error) {
	ids := make([]string, 0, len(m.Definitions))
	for id := range m.Definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsEnabled reports whether the link is marked
func (m *MockDriver) IsEnabled(identifier string) (bool, error) {
	return m.Links[identifier], nil
}

// IsRunning returns the Running field
func (m *MockDriver) IsRunning() bool { return m.Running }

// Test records the call and invokes the mock function if set
func (m *MockDriver) Test() error {
	m.record("test")
	if m.TestFunc != nil {
		return m.TestFunc()
	}
	return nil
}

// Reload records the call and invokes the mock function if set
func (m *MockDriver) Reload() error {
	m.record("reload")
	if m.ReloadFunc != nil {
		return m.ReloadFunc()
	}
	return nil
}

// Reset clears all call tracking
func (m *MockDriver) Reset() {
	m.Calls = nil
}
