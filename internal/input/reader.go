// Package input reads operator answers from a terminal or, in tests, from
// canned lines.
package input

import (
	"bufio"
	"io"
	"os"
)

// Reader yields one line of input per call.
type Reader interface {
	ReadString(delim byte) (string, error)
}

// LineReader buffers an io.Reader.
type LineReader struct {
	buf *bufio.Reader
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{buf: bufio.NewReader(r)}
}

// NewStdinReader reads from os.Stdin.
func NewStdinReader() *LineReader {
	return NewLineReader(os.Stdin)
}

// ReadString reads through delim. A final line without delim is returned
// together with io.EOF.
func (r *LineReader) ReadString(delim byte) (string, error) {
	return r.buf.ReadString(delim)
}

// StringReader replays fixed answers. Each answer carries its own
// delimiter ("yes\n"); delim is ignored.
type StringReader struct {
	lines []string
	next  int
}

// NewStringReader creates a StringReader.
func NewStringReader(lines ...string) *StringReader {
	return &StringReader{lines: lines}
}

// ReadString returns the next answer, then io.EOF once all are used.
func (r *StringReader) ReadString(byte) (string, error) {
	if r.next >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.next]
	r.next++
	return line, nil
}
