package driver

import (
	"os"
	"path/filepath"

	"github.com/ksyq12/sitectl/internal/executor"
)

// SiteFS performs the file and link operations on the proxy directories.
type SiteFS interface {
	// WriteFile replaces path with data atomically.
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	// Symlink points link at target, replacing an existing link.
	Symlink(target, link string) error
	// Remove deletes path. A missing path is not an error.
	Remove(path string) error
	MkdirAll(path string) error
}

// DirectFS uses syscalls directly. It requires write access to the
// directories involved.
type DirectFS struct{}

// WriteFile writes to a temp file in the same directory and renames it.
func (DirectFS) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadFile reads path.
func (DirectFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Symlink creates the link under a temp name and renames it over link.
func (DirectFS) Symlink(target, link string) error {
	tmp := filepath.Join(filepath.Dir(link), "."+filepath.Base(link)+".link.tmp")
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Remove deletes path, ignoring absence.
func (DirectFS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MkdirAll creates path and parents.
func (DirectFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// EscalatedFS runs argv commands through sudo for directories the
// operator cannot write. Reads stay direct.
type EscalatedFS struct {
	Exec executor.CommandExecutor
}

// WriteFile streams data into a temp file with tee, then moves it into place.
func (e EscalatedFS) WriteFile(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".sitectl.tmp")
	if _, err := e.Exec.Run(executor.Command{Name: "tee", Args: []string{tmp}, Stdin: data, Privileged: true}); err != nil {
		return err
	}
	if _, err := e.Exec.Run(executor.Command{Name: "chmod", Args: []string{"0644", tmp}, Privileged: true}); err != nil {
		_ = e.Remove(tmp)
		return err
	}
	if _, err := e.Exec.Run(executor.Command{Name: "mv", Args: []string{"-f", tmp, path}, Privileged: true}); err != nil {
		_ = e.Remove(tmp)
		return err
	}
	return nil
}

// ReadFile reads path directly.
func (e EscalatedFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Symlink runs ln -sfn.
func (e EscalatedFS) Symlink(target, link string) error {
	_, err := e.Exec.Run(executor.Command{Name: "ln", Args: []string{"-sfn", target, link}, Privileged: true})
	return err
}

// Remove runs rm -f.
func (e EscalatedFS) Remove(path string) error {
	_, err := e.Exec.Run(executor.Command{Name: "rm", Args: []string{"-f", path}, Privileged: true})
	return err
}

// MkdirAll runs mkdir -p.
func (e EscalatedFS) MkdirAll(path string) error {
	_, err := e.Exec.Run(executor.Command{Name: "mkdir", Args: []string{"-p", path}, Privileged: true})
	return err
}
