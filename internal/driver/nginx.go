package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/platform"
)

// Options configures a NginxDriver. Zero values get production defaults.
type Options struct {
	Paths    Paths
	PIDFile  string
	Executor executor.CommandExecutor
	FS       SiteFS
	Logger   *logger.Logger
}

// NginxDriver implements the Driver interface for Nginx
type NginxDriver struct {
	paths   Paths
	pidFile string
	exec    executor.CommandExecutor
	fs      SiteFS
	log     *logger.Logger

	signal func(pid int, sig unix.Signal) error
}

// NewNginx creates a new Nginx driver. Without an explicit FS, direct
// syscalls are used when both directories are writable and sudo otherwise.
func NewNginx(opts Options) *NginxDriver {
	if opts.Paths == (Paths{}) {
		p := platform.NginxPaths()
		opts.Paths = Paths{Available: p.Available, Enabled: p.Enabled}
	}
	if opts.PIDFile == "" {
		opts.PIDFile = platform.NginxPIDFile
	}
	if opts.Executor == nil {
		opts.Executor = executor.NewSystemExecutor()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.FS == nil {
		if platform.Writable(opts.Paths.Available) && platform.Writable(opts.Paths.Enabled) {
			opts.FS = DirectFS{}
		} else {
			opts.FS = EscalatedFS{Exec: opts.Executor}
		}
	}

	return &NginxDriver{
		paths:   opts.Paths,
		pidFile: opts.PIDFile,
		exec:    opts.Executor,
		fs:      opts.FS,
		log:     opts.Logger,
		signal:  platform.Signal,
	}
}

// Name returns the driver name
func (n *NginxDriver) Name() string {
	return "nginx"
}

// Binary returns the nginx executable name
func (n *NginxDriver) Binary() string {
	return "nginx"
}

// Paths returns the config paths
func (n *NginxDriver) Paths() Paths {
	return n.paths
}

// DefinitionPath returns sites-available/<identifier>
func (n *NginxDriver) DefinitionPath(identifier string) string {
	return filepath.Join(n.paths.Available, identifier)
}

// LinkPath returns sites-enabled/<identifier>
func (n *NginxDriver) LinkPath(identifier string) string {
	return filepath.Join(n.paths.Enabled, identifier)
}

func checkIdentifier(op, identifier string) error {
	if !ValidIdentifier(identifier) {
		return errors.Operation(op, identifier, fmt.Errorf("invalid identifier %q", identifier))
	}
	return nil
}

// Write stores the definition, overwriting an existing one
func (n *NginxDriver) Write(identifier, content string) error {
	if err := checkIdentifier("write", identifier); err != nil {
		return err
	}
	if err := n.fs.MkdirAll(n.paths.Available); err != nil {
		return errors.Operation("write", identifier, err)
	}

	path := n.DefinitionPath(identifier)
	n.log.DebugFields("writing definition", map[string]interface{}{"path": path, "bytes": len(content)})
	if err := n.fs.WriteFile(path, []byte(content)); err != nil {
		return errors.Operation("write", identifier, err)
	}
	return nil
}

// Read returns the stored definition
func (n *NginxDriver) Read(identifier string) (string, error) {
	if err := checkIdentifier("read", identifier); err != nil {
		return "", err
	}
	data, err := n.fs.ReadFile(n.DefinitionPath(identifier))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound(identifier)
		}
		return "", errors.Operation("read", identifier, err)
	}
	return string(data), nil
}

// Exists reports whether the definition file is present
func (n *NginxDriver) Exists(identifier string) bool {
	if !ValidIdentifier(identifier) {
		return false
	}
	_, err := os.Stat(n.DefinitionPath(identifier))
	return err == nil
}

// Enable activates a site by creating or replacing its symlink
func (n *NginxDriver) Enable(identifier string) error {
	if err := checkIdentifier("enable", identifier); err != nil {
		return err
	}
	source := n.DefinitionPath(identifier)
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return errors.NotFound(identifier)
	}
	if err := n.fs.MkdirAll(n.paths.Enabled); err != nil {
		return errors.Operation("enable", identifier, err)
	}

	target := n.LinkPath(identifier)
	n.log.DebugFields("linking site", map[string]interface{}{"link": target, "target": source})
	if err := n.fs.Symlink(source, target); err != nil {
		return errors.Operation("enable", identifier, err)
	}
	return nil
}

// Disable deactivates a site by removing the symlink
func (n *NginxDriver) Disable(identifier string) error {
	if err := checkIdentifier("disable", identifier); err != nil {
		return err
	}
	target := n.LinkPath(identifier)

	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Operation("disable", identifier, err)
	}

	// Verify it's a symlink
	if info.Mode()&os.ModeSymlink == 0 {
		return errors.Operation("disable", identifier,
			fmt.Errorf("%s is not a symlink, refusing to remove", target))
	}

	if err := n.fs.Remove(target); err != nil {
		return errors.Operation("disable", identifier, err)
	}
	return nil
}

// Remove deletes the link and then the definition
func (n *NginxDriver) Remove(identifier string) error {
	if err := checkIdentifier("remove", identifier); err != nil {
		return err
	}
	enabled, _ := n.IsEnabled(identifier)
	if !enabled && !n.Exists(identifier) {
		return errors.NotFound(identifier)
	}

	if enabled {
		if err := n.Disable(identifier); err != nil {
			return err
		}
	}
	return n.Delete(identifier)
}

// Delete removes the definition file only. A missing file is not an error.
func (n *NginxDriver) Delete(identifier string) error {
	if err := checkIdentifier("delete", identifier); err != nil {
		return err
	}
	if err := n.fs.Remove(n.DefinitionPath(identifier)); err != nil {
		return errors.Operation("delete", identifier, err)
	}
	return nil
}

// List returns all identifiers from sites-available
func (n *NginxDriver) List() ([]string, error) {
	entries, err := os.ReadDir(n.paths.Available)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Operation("list", "", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// IsEnabled checks if a site is enabled
func (n *NginxDriver) IsEnabled(identifier string) (bool, error) {
	_, err := os.Lstat(n.LinkPath(identifier))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Operation("status", identifier, err)
	}
	return true, nil
}

// IsRunning reports whether the pid in the pid file is alive
func (n *NginxDriver) IsRunning() bool {
	pid, err := platform.ReadPID(n.pidFile)
	if err != nil {
		return false
	}
	return platform.ProcessAlive(pid)
}

// Test validates the nginx config syntax
func (n *NginxDriver) Test() error {
	if _, err := n.exec.Run(executor.Command{Name: "nginx", Args: []string{"-t"}, Privileged: true}); err != nil {
		return errors.Operation("test", "", err)
	}
	return nil
}

// Reload sends SIGHUP to the master process. When the pid is unreadable or
// the signal is not permitted, it falls back to an escalated nginx -s reload.
func (n *NginxDriver) Reload() error {
	pid, err := platform.ReadPID(n.pidFile)
	if err == nil {
		if err = n.signal(pid, unix.SIGHUP); err == nil {
			n.log.Debug("sent SIGHUP to nginx master %d", pid)
			return nil
		}
	}
	n.log.Debug("direct reload unavailable (%v), using nginx -s reload", err)

	if _, err := n.exec.Run(executor.Command{Name: "nginx", Args: []string{"-s", "reload"}, Privileged: true}); err != nil {
		return errors.Operation("reload", "", err)
	}
	return nil
}
