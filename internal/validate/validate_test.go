package validate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/probe"
)

type fakeHost struct {
	root    bool
	running bool
	free    uint64
	freeErr error
}

func (h fakeHost) IsPrivileged() bool               { return h.root }
func (h fakeHost) DaemonRunning() bool              { return h.running }
func (h fakeHost) FreeSpace(string) (uint64, error) { return h.free, h.freeErr }

type fakePaths map[string]bool

func (p fakePaths) LookPath(file string) (string, error) {
	if p[file] {
		return "/usr/sbin/" + file, nil
	}
	return "", fmt.Errorf("%s: not found", file)
}

type fakeSites map[string]bool

func (s fakeSites) Exists(id string) bool { return s[id] }

func healthyEngine() *Engine {
	return New(Options{
		Probe:          probe.Static{3101: true},
		Host:           fakeHost{running: true, free: 10 << 30},
		Paths:          fakePaths{"nginx": true},
		Sites:          fakeSites{"existing": true},
		DefinitionsDir: "/etc/nginx/sites-available",
		MinFreeSpace:   100 << 20,
	})
}

func TestValidateConfig(t *testing.T) {
	e := healthyEngine()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		res := e.ValidateConfig(ctx, config.RawConfig{
			ProjectName: "hrayfi-api", DomainName: "hrayfi-api.reacture.dev", PortNumber: "3101",
		})
		assert.True(t, res.Valid, res.Errors)
		assert.Empty(t, res.Errors)
		assert.NoError(t, res.Err("invalid input"))
	})

	t.Run("all checks run", func(t *testing.T) {
		res := e.ValidateConfig(ctx, config.RawConfig{
			ProjectName: "!!!", DomainName: "x", PortNumber: "abc",
		})
		assert.False(t, res.Valid)
		assert.Len(t, res.Errors, 3)
	})

	t.Run("reserved port", func(t *testing.T) {
		res := e.ValidateConfig(ctx, config.RawConfig{
			ProjectName: "app", DomainName: "app.example.com", PortNumber: "443",
		})
		require.False(t, res.Valid)
		err := res.Err("invalid input")
		assert.True(t, errors.Is(err, errors.ErrReservedPort))
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		assert.Contains(t, err.Error(), "reserved port")
	})

	t.Run("backend not listening", func(t *testing.T) {
		res := e.ValidateConfig(ctx, config.RawConfig{
			ProjectName: "app", DomainName: "app.example.com", PortNumber: "3999",
		})
		require.False(t, res.Valid)
		assert.True(t, errors.Is(res.Err("invalid input"), errors.ErrNotListening))
		assert.Contains(t, res.Errors[0], "3999")
	})
}

func TestDomain(t *testing.T) {
	tests := []struct {
		domain string
		valid  bool
	}{
		{"example.com", true},
		{"hrayfi-api.reacture.dev", true},
		{"Shop.Example.COM", true},
		{"a.b", true},
		{"ab", false},
		{"localhost", false},
		{"-bad.com", false},
		{"bad-.com", false},
		{"a..com", false},
		{"under_score.com", false},
		{strings.Repeat("a", 64) + ".com", false},
		{strings.Repeat("a", 63) + ".com", true},
		{strings.Repeat("a.", 127) + "com", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			res := Domain(tt.domain)
			assert.Equal(t, tt.valid, res.Valid, res.Errors)
		})
	}
}

func TestIdentifier(t *testing.T) {
	assert.True(t, Identifier("My App").Valid)
	assert.False(t, Identifier("???").Valid)
	assert.False(t, Identifier(strings.Repeat("x", 51)).Valid)
	assert.True(t, Identifier(strings.Repeat("x", 50)).Valid)
}

func TestValidateSystem(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		res := healthyEngine().ValidateSystem(ctx)
		assert.True(t, res.Valid, res.Errors)
	})

	t.Run("running as root", func(t *testing.T) {
		e := healthyEngine()
		e.opts.Host = fakeHost{root: true, running: true, free: 10 << 30}
		res := e.ValidateSystem(ctx)
		require.False(t, res.Valid)
		assert.True(t, errors.Is(res.Err("system check failed"), errors.ErrPrivileged))
	})

	t.Run("everything wrong", func(t *testing.T) {
		e := healthyEngine()
		e.opts.Host = fakeHost{root: true, running: false, free: 1 << 20}
		e.opts.Paths = fakePaths{}
		res := e.ValidateSystem(ctx)
		assert.Len(t, res.Errors, 4)
		assert.Contains(t, res.Errors[1], "nginx not found")
		assert.Contains(t, res.Errors[2], "not running")
		assert.Contains(t, res.Errors[3], "1.0 MB free")
	})

	t.Run("free space unknown", func(t *testing.T) {
		e := healthyEngine()
		e.opts.Host = fakeHost{running: true, freeErr: fmt.Errorf("statfs failed")}
		res := e.ValidateSystem(ctx)
		require.False(t, res.Valid)
		assert.Contains(t, res.Errors[0], "statfs failed")
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.False(t, healthyEngine().ValidateSystem(cctx).Valid)
	})
}

func TestValidateNotExists(t *testing.T) {
	e := healthyEngine()
	assert.NoError(t, e.ValidateNotExists("fresh"))

	err := e.ValidateNotExists("existing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSiteExists))
	assert.Contains(t, err.Error(), "site existing")
}

func TestResult_Merge(t *testing.T) {
	a := NewResult()
	b := NewResult()
	b.Add("first")
	c := NewResult()
	c.AddErr(errors.ValidationCode(errors.ErrCodeInvalidPort, "bad port"))

	a.Merge(b)
	a.Merge(c)
	assert.False(t, a.Valid)
	assert.Equal(t, []string{"first", "bad port"}, a.Errors)
	assert.True(t, errors.Is(a.Err("x"), errors.ErrInvalidPort))
}
