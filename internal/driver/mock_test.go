package driver

import (
	"errors"
	"testing"

	sitectlerrors "github.com/ksyq12/sitectl/internal/errors"
)

func TestMockDriver(t *testing.T) {
	m := NewMockDriver("/a", "/e")

	if err := m.Write("shop", "x"); err != nil {
		t.Fatal(err)
	}
	if err := m.Enable("shop"); err != nil {
		t.Fatal(err)
	}
	if err := m.Test(); err != nil {
		t.Fatal(err)
	}
	if enabled, _ := m.IsEnabled("shop"); !enabled {
		t.Error("expected shop enabled")
	}
	if err := m.Remove("shop"); err != nil {
		t.Fatal(err)
	}
	if m.Exists("shop") {
		t.Error("expected shop removed")
	}
	if err := m.Remove("shop"); !sitectlerrors.Is(err, sitectlerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	want := []string{"write shop", "enable shop", "test", "remove shop", "remove shop"}
	if len(m.Calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, m.Calls)
	}
	for i := range want {
		if m.Calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], m.Calls[i])
		}
	}

	_ = m.Write("blog", "x")
	_ = m.Enable("blog")
	if err := m.Delete("blog"); err != nil {
		t.Fatal(err)
	}
	if m.Exists("blog") || !m.Links["blog"] {
		t.Error("Delete should drop the definition and keep the link")
	}

	m.Reset()
	if len(m.Calls) != 0 {
		t.Error("Reset should clear calls")
	}
}

func TestMockDriver_Failures(t *testing.T) {
	m := NewMockDriver("/a", "/e")
	m.EnableFunc = func(string) error { return errors.New("boom") }

	_ = m.Write("shop", "x")
	if err := m.Enable("shop"); err == nil {
		t.Fatal("expected Enable to fail")
	}
	if enabled, _ := m.IsEnabled("shop"); enabled {
		t.Error("failed Enable must not mark the link")
	}
	if m.DefinitionPath("shop") != "/a/shop" || m.LinkPath("shop") != "/e/shop" {
		t.Error("unexpected mock paths")
	}
}
