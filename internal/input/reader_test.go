package input

import (
	"io"
	"strings"
	"testing"
)

func TestStringReader(t *testing.T) {
	r := NewStringReader("shop\n", "8080\n")

	for _, want := range []string{"shop\n", "8080\n"} {
		got, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	for i := 0; i < 2; i++ {
		got, err := r.ReadString('\n')
		if err != io.EOF || got != "" {
			t.Errorf("exhausted reader returned %q, %v", got, err)
		}
	}
}

func TestLineReader(t *testing.T) {
	r := NewLineReader(strings.NewReader("y\nlast"))

	line, err := r.ReadString('\n')
	if err != nil || line != "y\n" {
		t.Fatalf("first line = %q, %v", line, err)
	}

	line, err = r.ReadString('\n')
	if err != io.EOF || line != "last" {
		t.Errorf("unterminated line = %q, %v", line, err)
	}
}

func TestNewStdinReader(t *testing.T) {
	if r := NewStdinReader(); r == nil || r.buf == nil {
		t.Fatal("expected a buffered stdin reader")
	}
}
