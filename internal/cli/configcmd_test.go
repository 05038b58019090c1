package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/sitectl/internal/config"
)

func TestRunConfigInit(t *testing.T) {
	t.Run("writes defaults", func(t *testing.T) {
		h := NewTestHelper(t, availDir, enabledDir)
		path := filepath.Join(t.TempDir(), "config.yaml")

		if code := h.Run("config", "init", "--config", path, "--email", "ops@example.com"); code != ExitOK {
			t.Fatalf("exit code = %d, stderr: %s", code, h.Stderr)
		}
		if h.MockConfig.SaveCalls != 1 || h.MockConfig.SavedPath != path {
			t.Errorf("save calls = %d, path = %q", h.MockConfig.SaveCalls, h.MockConfig.SavedPath)
		}
		if h.MockConfig.Cfg.Certificate.Email != "ops@example.com" {
			t.Errorf("email = %q", h.MockConfig.Cfg.Certificate.Email)
		}
		if !strings.Contains(h.Stdout.String(), "Config written to "+path) {
			t.Errorf("stdout = %s", h.Stdout)
		}
	})

	t.Run("existing file needs force", func(t *testing.T) {
		h := NewTestHelper(t, availDir, enabledDir)
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("proxy: {}\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if code := h.Run("config", "init", "--config", path); code != ExitError {
			t.Fatalf("exit code = %d, want %d", code, ExitError)
		}
		if h.MockConfig.SaveCalls != 0 {
			t.Error("config saved without --force")
		}
		if !strings.Contains(h.Stderr.String(), "already exists") {
			t.Errorf("stderr = %s", h.Stderr)
		}

		if code := h.Run("config", "init", "--config", path, "--force"); code != ExitOK {
			t.Fatalf("exit code with --force = %d", code)
		}
		if h.MockConfig.SaveCalls != 1 {
			t.Errorf("save calls = %d, want 1", h.MockConfig.SaveCalls)
		}
	})
}

func TestRunConfigShow(t *testing.T) {
	h := NewTestHelper(t, availDir, enabledDir)
	cfg := config.New()
	cfg.Certificate.Email = "ops@example.com"
	h.MockConfig.Cfg = cfg

	if code := h.Run("config", "show"); code != ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	out := h.Stdout.String()
	for _, want := range []string{"client_max_body_size: 10M", "email: ops@example.com", "renew_schedule:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRunConfigPath(t *testing.T) {
	h := NewTestHelper(t, availDir, enabledDir)

	if code := h.Run("config", "path", "--config", "/tmp/sitectl.yaml"); code != ExitOK {
		t.Fatalf("exit code = %d", code)
	}
	if got := strings.TrimSpace(h.Stdout.String()); got != "/tmp/sitectl.yaml" {
		t.Errorf("path = %q", got)
	}
}

func TestRunConfig_LoadError(t *testing.T) {
	h := NewTestHelper(t, availDir, enabledDir)
	h.MockConfig.LoadErr = os.ErrPermission

	if code := h.Run("list"); code != ExitError {
		t.Fatalf("exit code = %d, want %d", code, ExitError)
	}
	if !strings.Contains(h.Stderr.String(), "permission denied") {
		t.Errorf("stderr = %s", h.Stderr)
	}
}
