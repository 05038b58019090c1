package validate

import (
	"github.com/ksyq12/sitectl/internal/errors"
)

// Result aggregates the outcome of a group of checks.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`

	codes []errors.ErrorCode
}

// NewResult returns a passing result.
func NewResult() Result {
	return Result{Valid: true}
}

// Add records a failed check.
func (r *Result) Add(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// AddErr records err, keeping its error code when it has one.
func (r *Result) AddErr(err error) {
	if err == nil {
		return
	}
	var e *errors.Error
	if errors.As(err, &e) && e.Code != "" {
		r.codes = append(r.codes, e.Code)
		r.Add(e.Message)
		return
	}
	r.Add(err.Error())
}

func (r *Result) addCode(code errors.ErrorCode, msg string) {
	r.codes = append(r.codes, code)
	r.Add(msg)
}

// Merge folds o into r.
func (r *Result) Merge(o Result) {
	if !o.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, o.Errors...)
	r.codes = append(r.codes, o.codes...)
}

// Err converts a failed result into a validation error carrying every
// message as a detail. The first recorded code wins. Returns nil when valid.
func (r Result) Err(msg string) error {
	if r.Valid {
		return nil
	}
	code := errors.ErrCodeInvalidInput
	if len(r.codes) > 0 {
		code = r.codes[0]
	}
	return &errors.Error{
		Kind:    errors.KindValidation,
		Code:    code,
		Message: msg,
		Details: append([]string(nil), r.Errors...),
	}
}
