package input

import (
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator questions on w and reads answers from r.
type Prompter struct {
	r Reader
	w io.Writer
}

// NewPrompter creates a Prompter.
func NewPrompter(r Reader, w io.Writer) *Prompter {
	return &Prompter{r: r, w: w}
}

// Ask prints question and returns the trimmed answer, or def when the
// answer is empty or input is exhausted.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.w, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.w, "%s: ", question)
	}

	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		if err == io.EOF {
			fmt.Fprintln(p.w)
		}
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. Anything other than y/yes (or n/no) is
// treated as the default.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.w, "%s [%s]: ", question, hint)

	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if err == io.EOF && line == "" {
		fmt.Fprintln(p.w)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}
