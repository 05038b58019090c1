// Package platform answers questions about the local host: who we run as,
// how much disk is free, and whether the nginx master process is alive.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Fixed nginx layout. Not configurable at runtime.
const (
	SitesAvailable  = "/etc/nginx/sites-available"
	SitesEnabled    = "/etc/nginx/sites-enabled"
	NginxPIDFile    = "/run/nginx.pid"
	LetsEncryptLive = "/etc/letsencrypt/live"
)

// PathConfig contains the two directories a site lives in.
type PathConfig struct {
	Available string
	Enabled   string
}

// NginxPaths returns the fixed Debian-style layout.
func NginxPaths() PathConfig {
	return PathConfig{Available: SitesAvailable, Enabled: SitesEnabled}
}

// IsPrivileged reports whether the effective user is root.
func IsPrivileged() bool {
	return unix.Geteuid() == 0
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. If path does not exist yet, the nearest existing
// parent is used.
func FreeSpace(path string) (uint64, error) {
	dir := nearestExisting(path)

	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

// Writable reports whether the current user may create entries in dir.
func Writable(dir string) bool {
	return unix.Access(dir, unix.W_OK) == nil
}

// ReadPID parses a pid file.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// ProcessAlive reports whether pid exists. A process owned by another
// user answers EPERM, which still means it is alive.
func ProcessAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Signal delivers sig to pid.
func Signal(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

// Host exposes the facts above through an interface-friendly value.
type Host struct {
	PIDFile string
}

// NewHost returns a Host reading the nginx pid from the default location.
func NewHost() *Host {
	return &Host{PIDFile: NginxPIDFile}
}

// IsPrivileged reports whether sitectl runs as root.
func (h *Host) IsPrivileged() bool {
	return IsPrivileged()
}

// DaemonRunning reports whether the pid in the pid file is alive.
func (h *Host) DaemonRunning() bool {
	pid, err := ReadPID(h.PIDFile)
	if err != nil {
		return false
	}
	return ProcessAlive(pid)
}

// FreeSpace returns the free bytes at path.
func (h *Host) FreeSpace(path string) (uint64, error) {
	return FreeSpace(path)
}

func nearestExisting(path string) string {
	dir := filepath.Clean(path)
	for !pathExists(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dir
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
