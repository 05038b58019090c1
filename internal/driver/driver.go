package driver

import "regexp"

// Driver manages site definitions for one reverse proxy.
type Driver interface {
	// Name returns the driver name (nginx)
	Name() string

	// Binary returns the proxy executable looked up on PATH
	Binary() string

	// Write stores a definition, replacing any existing one atomically
	Write(identifier, content string) error

	// Read returns the stored definition
	Read(identifier string) (string, error)

	// Exists reports whether a definition file is present
	Exists(identifier string) bool

	// Enable creates or replaces the activation link
	Enable(identifier string) error

	// Disable removes the activation link; a missing link is not an error
	Disable(identifier string) error

	// Remove deletes the link and then the definition
	Remove(identifier string) error

	// Delete removes the definition but leaves any link alone; a missing
	// definition is not an error
	Delete(identifier string) error

	// List returns all identifiers with a definition
	List() ([]string, error)

	// IsEnabled checks if the activation link exists
	IsEnabled(identifier string) (bool, error)

	// IsRunning reports whether the master process is alive
	IsRunning() bool

	// Test validates the proxy configuration syntax
	Test() error

	// Reload applies the configuration without dropping connections
	Reload() error

	// Paths returns the driver's config paths
	Paths() Paths

	// DefinitionPath returns where the definition for identifier lives
	DefinitionPath(identifier string) string

	// LinkPath returns where the activation link for identifier lives
	LinkPath(identifier string) string
}

// Paths contains the proxy config directory paths
type Paths struct {
	Available string // definitions directory
	Enabled   string // activation links directory
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9-]{1,50}$`)

// ValidIdentifier reports whether identifier is safe to use as a file name.
func ValidIdentifier(identifier string) bool {
	return identifierPattern.MatchString(identifier)
}
