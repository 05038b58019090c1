package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ksyq12/sitectl/internal/errors"
)

func TestRunRemove(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		stdin      []string
		setup      func(*TestHelper)
		wantCode   int
		wantCalls  []string
		wantExists bool
		wantStdout string
		wantStderr string
	}{
		{
			name:      "remove with force flag",
			args:      []string{"remove", "shop", "--force"},
			wantCode:  ExitOK,
			wantCalls: []string{"remove shop", "test", "reload"},
		},
		{
			name:      "remove with confirmation yes",
			args:      []string{"remove", "shop"},
			stdin:     []string{"y\n"},
			wantCode:  ExitOK,
			wantCalls: []string{"remove shop", "test", "reload"},
		},
		{
			name:       "remove with confirmation no",
			args:       []string{"remove", "shop"},
			stdin:      []string{"n\n"},
			wantCode:   ExitOK,
			wantExists: true,
			wantStdout: "Removal cancelled",
		},
		{
			name:       "empty answer keeps the site",
			args:       []string{"rm", "shop"},
			wantCode:   ExitOK,
			wantExists: true,
		},
		{
			name:      "no reload",
			args:      []string{"remove", "shop", "-f", "--no-reload"},
			wantCode:  ExitOK,
			wantCalls: []string{"remove shop", "test"},
		},
		{
			name:       "missing site",
			args:       []string{"remove", "ghost", "-f"},
			wantCode:   ExitError,
			wantExists: true,
			wantStderr: "site ghost: site not found",
		},
		{
			name:       "invalid identifier",
			args:       []string{"remove", "../etc", "-f"},
			wantCode:   ExitError,
			wantExists: true,
			wantStderr: "invalid site identifier",
		},
		{
			name: "failed test after removal is only a warning",
			args: []string{"remove", "shop", "-f"},
			setup: func(h *TestHelper) {
				h.MockDriver.TestFunc = func() error { return errors.New("broken") }
			},
			wantCode:   ExitOK,
			wantCalls:  []string{"remove shop", "test"},
			wantStdout: "Post-removal check failed: broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTestHelper(t, availDir, enabledDir)
			h.AddSite("shop", "server {}", true)
			h.SetStdinInput(tt.stdin...)
			if tt.setup != nil {
				tt.setup(h)
			}

			code := h.Run(tt.args...)

			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, h.Stderr)
			}
			if tt.wantCalls != nil && !reflect.DeepEqual(h.MockDriver.Calls, tt.wantCalls) {
				t.Errorf("driver calls = %v, want %v", h.MockDriver.Calls, tt.wantCalls)
			}
			if got := h.MockDriver.Exists("shop"); got != tt.wantExists {
				t.Errorf("shop exists = %v, want %v", got, tt.wantExists)
			}
			if tt.wantStdout != "" && !strings.Contains(h.Stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q\n%s", tt.wantStdout, h.Stdout)
			}
			if tt.wantStderr != "" && !strings.Contains(h.Stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q\n%s", tt.wantStderr, h.Stderr)
			}
		})
	}
}

func TestRunRemove_JSON(t *testing.T) {
	h := NewTestHelper(t, availDir, enabledDir)
	h.AddSite("shop", "server {}", false)

	if code := h.Run("remove", "shop", "-f", "--json"); code != ExitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, h.Stderr)
	}
	for _, want := range []string{`"success": true`, `"identifier": "shop"`, `"action": "removed"`} {
		if !strings.Contains(h.Stdout.String(), want) {
			t.Errorf("stdout missing %s\n%s", want, h.Stdout)
		}
	}
}
