package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes operator-facing messages. In JSON mode only JSON documents
// are written, so scripts can parse stdout. A Printer may be used from the
// interrupt goroutine while a command is still printing.
type Printer struct {
	out      io.Writer
	jsonMode bool
	tty      bool

	mu      sync.Mutex
	pending bool // a progress line is on screen without a newline

	successColor *color.Color
	errorColor   *color.Color
	warnColor    *color.Color
	infoColor    *color.Color
}

// New creates a Printer writing to w.
func New(w io.Writer, jsonMode bool) *Printer {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	p := &Printer{
		out:          w,
		jsonMode:     jsonMode,
		tty:          tty,
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		warnColor:    color.New(color.FgYellow),
		infoColor:    color.New(color.FgCyan),
	}
	if !tty {
		for _, c := range []*color.Color{p.successColor, p.errorColor, p.warnColor, p.infoColor} {
			c.DisableColor()
		}
	}
	return p
}

// NewStdout creates a Printer on os.Stdout.
func NewStdout(jsonMode bool) *Printer {
	return New(os.Stdout, jsonMode)
}

// JSONMode reports whether the printer only emits JSON.
func (p *Printer) JSONMode() bool {
	return p.jsonMode
}

// Writer exposes the underlying writer (used for prompts).
func (p *Printer) Writer() io.Writer {
	return p.out
}

// JSON outputs data as JSON
func (p *Printer) JSON(data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	encoder := json.NewEncoder(p.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table outputs data as a formatted table
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 || p.jsonMode {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = fmt.Sprintf("%-*s", widths[i], h)
	}
	fmt.Fprintln(p.out, strings.TrimRight(strings.Join(headerLine, "  "), " "))

	sepLine := make([]string, len(headers))
	for i, w := range widths {
		sepLine[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(p.out, strings.Join(sepLine, "  "))

	for _, row := range rows {
		rowLine := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowLine[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(p.out, strings.TrimRight(strings.Join(rowLine, "  "), " "))
	}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	p.colored(p.successColor, "✓ ", format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	p.colored(p.errorColor, "✗ ", format, args...)
}

// Warn prints a warning message
func (p *Printer) Warn(format string, args ...interface{}) {
	p.colored(p.warnColor, "! ", format, args...)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	p.colored(p.infoColor, "→ ", format, args...)
}

// Print prints a plain message
func (p *Printer) Print(format string, args ...interface{}) {
	if p.jsonMode {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Progress shows the step currently running. On a terminal the line stays
// open and is replaced by the next message; elsewhere it is a plain line.
func (p *Printer) Progress(format string, args ...interface{}) {
	if p.jsonMode {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	msg := fmt.Sprintf(format, args...)
	if !p.tty {
		fmt.Fprintf(p.out, "… %s\n", msg)
		return
	}
	_, _ = p.infoColor.Fprintf(p.out, "… %s", msg)
	p.pending = true
}

// Done clears the in-flight progress line.
func (p *Printer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		fmt.Fprint(p.out, "\r\033[K")
		p.pending = false
	}
}

// Flush terminates an open progress line so the next write starts clean.
// Safe to call from the interrupt path.
func (p *Printer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
}

func (p *Printer) flush() {
	if p.pending {
		fmt.Fprintln(p.out)
		p.pending = false
	}
}

func (p *Printer) colored(c *color.Color, prefix, format string, args ...interface{}) {
	if p.jsonMode {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	_, _ = c.Fprintf(p.out, prefix+format+"\n", args...)
}
