// Package driver manages nginx site definitions on disk and talks to the
// nginx master process.
//
// A site is two filesystem entries named by its identifier:
//
//	/etc/nginx/sites-available/<identifier>   the definition
//	/etc/nginx/sites-enabled/<identifier>     symlink to the definition
//
// The layout is fixed. Tests point a driver at temporary directories
// through Options.Paths.
//
// # File operations
//
// File and link changes go through a SiteFS. DirectFS uses syscalls
// (atomic temp file + rename, symlink + rename) and is chosen when the
// caller can write both directories. Otherwise EscalatedFS runs argv
// commands through sudo: tee, chmod, mv, ln -sfn, rm -f and mkdir -p.
// No command line is ever built as a shell string.
//
// # Daemon control
//
// Test runs nginx -t through the executor. Reload sends SIGHUP to the pid
// in /run/nginx.pid and falls back to an escalated nginx -s reload when
// that is not possible.
//
//	drv := driver.NewNginx(driver.Options{Logger: log})
//	if err := drv.Write("shop-api", text); err != nil { ... }
//	if err := drv.Enable("shop-api"); err != nil { ... }
//	if err := drv.Test(); err != nil { ... }
//	if err := drv.Reload(); err != nil { ... }
//
// # Errors
//
// Failures are returned as *errors.Error values of KindOperation, with the
// failing command attached when nginx or sudo exited non-zero. Remove and
// Read return errors.ErrNotFound for unknown identifiers.
package driver
