package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func TestJSON(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		type summary struct {
			Identifier string `json:"identifier"`
			Port       int    `json:"port"`
		}
		var buf bytes.Buffer
		p := New(&buf, true)

		if err := p.JSON(summary{Identifier: "shop-api", Port: 3101}); err != nil {
			t.Fatalf("JSON failed: %v", err)
		}

		var result summary
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("JSON output is invalid: %v", err)
		}
		if result.Identifier != "shop-api" || result.Port != 3101 {
			t.Errorf("unexpected round trip: %+v", result)
		}
	})

	t.Run("empty object", func(t *testing.T) {
		var buf bytes.Buffer
		_ = New(&buf, false).JSON(map[string]interface{}{})
		if !strings.Contains(buf.String(), "{}") {
			t.Errorf("expected empty object, got %s", buf.String())
		}
	})
}

func TestTable(t *testing.T) {
	t.Run("aligns columns", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(&buf, false)

		p.Table(
			[]string{"IDENTIFIER", "ENABLED"},
			[][]string{
				{"shop-api", "yes"},
				{"a", "no"},
			},
		)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
		}
		if lines[0] != "IDENTIFIER  ENABLED" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "----------  -------" {
			t.Errorf("unexpected separator %q", lines[1])
		}
		if lines[3] != "a           no" {
			t.Errorf("unexpected row %q", lines[3])
		}
	})

	t.Run("short rows are padded", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, false).Table([]string{"A", "B"}, [][]string{{"x"}})
		if !strings.Contains(buf.String(), "x") {
			t.Errorf("row missing: %q", buf.String())
		}
	})

	t.Run("no headers prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, false).Table(nil, [][]string{{"x"}})
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name   string
		call   func(p *Printer)
		prefix string
	}{
		{"success", func(p *Printer) { p.Success("created %s", "shop-api") }, "✓ created shop-api"},
		{"error", func(p *Printer) { p.Error("failed %d", 1) }, "✗ failed 1"},
		{"warn", func(p *Printer) { p.Warn("careful") }, "! careful"},
		{"info", func(p *Printer) { p.Info("working") }, "→ working"},
		{"print", func(p *Printer) { p.Print("plain") }, "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.call(New(&buf, false))
			if got := strings.TrimRight(buf.String(), "\n"); got != tt.prefix {
				t.Errorf("got %q, want %q", got, tt.prefix)
			}
		})
	}
}

func TestJSONModeSuppressesText(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)

	p.Success("a")
	p.Info("b")
	p.Warn("c")
	p.Print("d")
	p.Progress("e")
	p.Table([]string{"H"}, [][]string{{"r"}})

	if buf.Len() != 0 {
		t.Errorf("json mode should only emit JSON, got %q", buf.String())
	}
	if !p.JSONMode() {
		t.Error("JSONMode() should be true")
	}
}

func TestProgressWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Progress("Writing %s", "definition")
	p.Done()
	p.Success("done")

	want := "… Writing definition\n✓ done\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFlushClosesPendingLine(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.tty = true

	p.Progress("Reloading nginx")
	p.Flush()
	p.Flush()

	if !strings.HasSuffix(buf.String(), "Reloading nginx\n") {
		t.Errorf("flush should terminate the open line exactly once: %q", buf.String())
	}
}

func TestFlushFromAnotherGoroutine(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.tty = true

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			p.Flush()
		}
	}()
	for i := 0; i < 100; i++ {
		p.Progress("step %d", i)
		p.Done()
	}
	wg.Wait()
	p.Flush()

	if got := strings.Count(buf.String(), "… step "); got != 100 {
		t.Errorf("expected 100 progress lines, got %d", got)
	}
}
