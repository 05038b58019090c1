//go:build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/pipeline"
	"github.com/ksyq12/sitectl/internal/platform"
	"github.com/ksyq12/sitectl/internal/probe"
	"github.com/ksyq12/sitectl/internal/sanitize"
	"github.com/ksyq12/sitectl/internal/template"
	"github.com/ksyq12/sitectl/internal/validate"
)

// testDirs holds paths to test directories, created fresh for each test
type testDirs struct {
	base           string
	sitesAvailable string
	sitesEnabled   string
	pidFile        string
}

// setupTestDirs creates temporary directories for testing
func setupTestDirs(t *testing.T) *testDirs {
	t.Helper()
	baseDir := t.TempDir()

	dirs := &testDirs{
		base:           baseDir,
		sitesAvailable: filepath.Join(baseDir, "sites-available"),
		sitesEnabled:   filepath.Join(baseDir, "sites-enabled"),
		pidFile:        filepath.Join(baseDir, "nginx.pid"),
	}

	for _, d := range []string{dirs.sitesAvailable, dirs.sitesEnabled} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	// Our own pid stands in for a live nginx master.
	if err := os.WriteFile(dirs.pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("Failed to write pid file: %v", err)
	}
	return dirs
}

// newDriver returns a driver on the test directories. nginx commands go to
// the mock so no system nginx is touched.
func newDriver(dirs *testDirs, exec *executor.MockExecutor) *driver.NginxDriver {
	return driver.NewNginx(driver.Options{
		Paths:    driver.Paths{Available: dirs.sitesAvailable, Enabled: dirs.sitesEnabled},
		PIDFile:  filepath.Join(dirs.base, "missing.pid"),
		Executor: exec,
		FS:       driver.DirectFS{},
	})
}

// unprivilegedHost reports the real machine but never as root, so the
// suite also runs inside containers.
type unprivilegedHost struct{ *platform.Host }

func (unprivilegedHost) IsPrivileged() bool { return false }

// listen starts a backend on a free loopback port.
func listen(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestNginxDriverIntegration(t *testing.T) {
	dirs := setupTestDirs(t)
	mock := &executor.MockExecutor{}
	drv := newDriver(dirs, mock)

	site, err := sanitize.Process(config.RawConfig{ProjectName: "My App", DomainName: "app.test.local", PortNumber: "3000"})
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	text := template.Render(site, config.New().Proxy)

	t.Run("Write definition", func(t *testing.T) {
		if err := drv.Write(site.Identifier, text); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dirs.sitesAvailable, "my-app"))
		if err != nil {
			t.Fatalf("definition not written: %v", err)
		}
		if string(data) != text {
			t.Error("definition content differs from rendered text")
		}
		if !drv.Exists("my-app") {
			t.Error("Exists should report the new site")
		}
	})

	t.Run("Enable creates symlink", func(t *testing.T) {
		if err := drv.Enable("my-app"); err != nil {
			t.Fatalf("Enable failed: %v", err)
		}
		target, err := os.Readlink(filepath.Join(dirs.sitesEnabled, "my-app"))
		if err != nil {
			t.Fatalf("activation link missing: %v", err)
		}
		if target != filepath.Join(dirs.sitesAvailable, "my-app") {
			t.Errorf("link target = %s", target)
		}
		enabled, err := drv.IsEnabled("my-app")
		if err != nil || !enabled {
			t.Errorf("IsEnabled = %v, %v", enabled, err)
		}
	})

	t.Run("Read and describe", func(t *testing.T) {
		got, err := drv.Read("my-app")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		d, err := template.Describe(got)
		if err != nil {
			t.Fatalf("Describe failed: %v", err)
		}
		if d.Domain != "app.test.local" || d.Port != 3000 || d.Upstream != "my-app_backend" || d.SSL {
			t.Errorf("unexpected description: %+v", d)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := drv.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != "my-app" {
			t.Errorf("List = %v", ids)
		}
	})

	t.Run("Disable is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := drv.Disable("my-app"); err != nil {
				t.Fatalf("Disable #%d failed: %v", i+1, err)
			}
		}
		if _, err := os.Lstat(filepath.Join(dirs.sitesEnabled, "my-app")); !os.IsNotExist(err) {
			t.Error("activation link still present")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := drv.Enable("my-app"); err != nil {
			t.Fatalf("Enable failed: %v", err)
		}
		if err := drv.Remove("my-app"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if drv.Exists("my-app") {
			t.Error("definition still present")
		}
		if _, err := os.Lstat(filepath.Join(dirs.sitesEnabled, "my-app")); !os.IsNotExist(err) {
			t.Error("activation link still present")
		}
	})

	t.Run("Reload falls back to nginx -s reload", func(t *testing.T) {
		mock.Calls = nil
		if err := drv.Reload(); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		names := mock.CallNames()
		if len(names) != 1 || names[0] != "nginx -s reload" {
			t.Errorf("commands = %v", names)
		}
	})
}

func TestPipelineIntegration(t *testing.T) {
	dirs := setupTestDirs(t)
	port := listen(t)

	deploy := func(t *testing.T, mock *executor.MockExecutor, name string) (*pipeline.Report, *driver.NginxDriver) {
		t.Helper()
		drv := newDriver(dirs, mock)
		engine := validate.New(validate.Options{
			Probe:          probe.NewTCPProbe(time.Second),
			Host:           unprivilegedHost{&platform.Host{PIDFile: dirs.pidFile}},
			Paths:          mock,
			Sites:          drv,
			DefinitionsDir: dirs.sitesAvailable,
			MinFreeSpace:   1,
		})
		p := pipeline.New(pipeline.Deps{
			Validator: engine,
			Driver:    drv,
			Source: pipeline.StaticSource{
				ProjectName: name,
				DomainName:  name + ".test.local",
				PortNumber:  strconv.Itoa(port),
			},
		}, pipeline.Options{AssumeYes: true, SSL: pipeline.SSLNo, Limits: config.New().Proxy})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return p.Run(ctx), drv
	}

	t.Run("deploys against a live backend", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		rep, drv := deploy(t, mock, "live")

		if !rep.Succeeded() {
			t.Fatalf("deployment failed: %v", rep.Err)
		}
		if !drv.Exists("live") {
			t.Error("definition missing after success")
		}
		if enabled, _ := drv.IsEnabled("live"); !enabled {
			t.Error("site not enabled after success")
		}
	})

	t.Run("rolls back when nginx -t fails", func(t *testing.T) {
		mock := &executor.MockExecutor{
			RunFunc: func(cmd executor.Command) (executor.Output, error) {
				if cmd.Name == "nginx" && len(cmd.Args) > 0 && cmd.Args[0] == "-t" {
					return executor.Output{}, fmt.Errorf("configuration file test failed")
				}
				return executor.Output{}, nil
			},
		}
		rep, drv := deploy(t, mock, "broken")

		if rep.Succeeded() {
			t.Fatal("deployment should have failed")
		}
		if !rep.RolledBack {
			t.Errorf("rollback incomplete: %v", rep.RollbackErrors)
		}
		if drv.Exists("broken") {
			t.Error("definition left behind")
		}
		if _, err := os.Lstat(filepath.Join(dirs.sitesEnabled, "broken")); !os.IsNotExist(err) {
			t.Error("activation link left behind")
		}
		if !drv.Exists("live") {
			t.Error("rollback touched an unrelated site")
		}
	})
}

// TestRenderedConfigPassesNginx runs the real nginx -t over a generated
// definition. It is skipped when nginx is not installed.
func TestRenderedConfigPassesNginx(t *testing.T) {
	nginx, err := exec.LookPath("nginx")
	if err != nil {
		t.Skip("Nginx is not available")
	}

	dirs := setupTestDirs(t)
	for _, tc := range []struct{ name, domain, port string }{
		{"web", "web.test.local", "8080"},
		{"Api Server", "api.test.local", "9000"},
	} {
		site, err := sanitize.Process(config.RawConfig{ProjectName: tc.name, DomainName: tc.domain, PortNumber: tc.port})
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		path := filepath.Join(dirs.sitesEnabled, site.Identifier)
		if err := os.WriteFile(path, []byte(template.Render(site, config.New().Proxy)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	conf := filepath.Join(dirs.base, "nginx.conf")
	main := fmt.Sprintf(`pid %s;
error_log %s;
events {}
http {
    access_log off;
    client_body_temp_path %s;
    proxy_temp_path %s;
    include %s/*;
}
`, filepath.Join(dirs.base, "test.pid"), filepath.Join(dirs.base, "error.log"),
		filepath.Join(dirs.base, "body"), filepath.Join(dirs.base, "proxy"), dirs.sitesEnabled)
	if err := os.WriteFile(conf, []byte(main), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := exec.Command(nginx, "-t", "-p", dirs.base, "-c", conf, "-e", filepath.Join(dirs.base, "error.log")).CombinedOutput()
	if err != nil {
		t.Fatalf("nginx -t failed: %v\n%s", err, out)
	}
}
