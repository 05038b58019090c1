package template

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ksyq12/sitectl/internal/errors"
)

// requiredKeywords must appear in every generated definition.
var requiredKeywords = []string{"upstream", "server", "listen", "server_name", "proxy_pass"}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokSemicolon
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
	line int
}

// tokenize splits nginx configuration text into words and punctuation.
// Comments are dropped and quoted strings become one word.
func tokenize(text string) ([]token, error) {
	var (
		toks []token
		word strings.Builder
		line = 1
	)
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, token{kind: tokWord, text: word.String(), line: line})
			word.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\n':
			flush()
			line++
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		case c == '#' && word.Len() == 0:
			for i < len(text) && text[i] != '\n' {
				i++
			}
			i--
		case c == '"' || c == '\'':
			start := line
			i++
			for ; i < len(text) && text[i] != c; i++ {
				if text[i] == '\\' && i+1 < len(text) {
					i++
				}
				if text[i] == '\n' {
					line++
				}
				word.WriteByte(text[i])
			}
			if i >= len(text) {
				return nil, fmt.Errorf("line %d: unterminated quoted string", start)
			}
		case c == ';':
			flush()
			toks = append(toks, token{kind: tokSemicolon, line: line})
		case c == '{':
			flush()
			toks = append(toks, token{kind: tokOpen, line: line})
		case c == '}':
			flush()
			toks = append(toks, token{kind: tokClose, line: line})
		default:
			word.WriteByte(c)
		}
	}
	flush()
	return toks, nil
}

// ValidateSyntax performs structural checks only: required keywords are
// present and braces balance. nginx -t remains the real grammar check.
func ValidateSyntax(text string) error {
	toks, err := tokenize(text)
	if err != nil {
		return errors.Validation("invalid site definition", err.Error())
	}

	var problems []string
	depth := 0
	seen := make(map[string]bool)
	for _, t := range toks {
		switch t.kind {
		case tokOpen:
			depth++
		case tokClose:
			depth--
			if depth < 0 {
				problems = append(problems, fmt.Sprintf("line %d: unexpected }", t.line))
				depth = 0
			}
		case tokWord:
			seen[t.text] = true
		}
	}
	if depth > 0 {
		problems = append(problems, fmt.Sprintf("%d unclosed block(s)", depth))
	}
	for _, kw := range requiredKeywords {
		if !seen[kw] {
			problems = append(problems, fmt.Sprintf("missing %s directive", kw))
		}
	}

	if len(problems) > 0 {
		return errors.Validation("invalid site definition", problems...)
	}
	return nil
}

// Description summarizes a definition written by Render or RenderSSL.
type Description struct {
	Domain   string `json:"domain"`
	Upstream string `json:"upstream"`
	Port     int    `json:"port"`
	SSL      bool   `json:"ssl"`
}

// Describe extracts the domain, backend port and TLS status from a site
// definition. Unknown directives are ignored.
func Describe(text string) (Description, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Description{}, err
	}

	var (
		d     Description
		stack []string
		stmt  []string
	)
	for _, t := range toks {
		switch t.kind {
		case tokWord:
			stmt = append(stmt, t.text)
		case tokOpen:
			name := ""
			if len(stmt) > 0 {
				name = stmt[0]
				if name == "upstream" && len(stmt) > 1 && d.Upstream == "" {
					d.Upstream = stmt[1]
				}
			}
			stack = append(stack, name)
			stmt = nil
		case tokClose:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			stmt = nil
		case tokSemicolon:
			describeStatement(&d, stack, stmt)
			stmt = nil
		}
	}
	return d, nil
}

func describeStatement(d *Description, stack, stmt []string) {
	if len(stmt) < 2 || len(stack) == 0 {
		return
	}
	ctx := stack[len(stack)-1]
	switch {
	case ctx == "upstream" && stmt[0] == "server" && d.Port == 0:
		if _, p, err := net.SplitHostPort(stmt[1]); err == nil {
			d.Port, _ = strconv.Atoi(p)
		}
	case ctx == "server" && stmt[0] == "server_name" && d.Domain == "":
		d.Domain = stmt[1]
	case ctx == "server" && stmt[0] == "listen":
		for _, a := range stmt[2:] {
			if a == "ssl" {
				d.SSL = true
			}
		}
	}
}
