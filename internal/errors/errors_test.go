package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Kind: KindValidation, Message: "invalid input"},
			expected: "invalid input",
		},
		{
			name:     "with identifier",
			err:      &Error{Kind: KindOperation, Message: "site not found", Identifier: "shop-api"},
			expected: "site shop-api: site not found",
		},
		{
			name:     "with details",
			err:      &Error{Kind: KindValidation, Message: "configuration is invalid", Details: []string{"bad domain", "reserved port 443"}},
			expected: "configuration is invalid: bad domain; reserved port 443",
		},
		{
			name:     "op without message",
			err:      &Error{Kind: KindOperation, Op: "reload", Err: fmt.Errorf("boom")},
			expected: "reload failed: boom",
		},
		{
			name:     "execution with stderr",
			err:      &Error{Kind: KindExecution, Command: "sudo nginx -t", Message: "emerg: unexpected }", Err: fmt.Errorf("exit status 1")},
			expected: `command "sudo nginx -t" failed: emerg: unexpected }: exit status 1`,
		},
		{
			name:     "execution without stderr",
			err:      &Error{Kind: KindExecution, Command: "certbot renew"},
			expected: `command "certbot renew" failed`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("underlying error")
	err := &Error{Kind: KindOperation, Message: "wrapped", Err: underlying}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() did not return underlying error")
	}

	if (&Error{Message: "no underlying"}).Unwrap() != nil {
		t.Errorf("Unwrap() should return nil when no underlying error")
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{"matches code sentinel", &Error{Kind: KindValidation, Code: ErrCodeReservedPort, Message: "port 443 is reserved"}, ErrReservedPort, true},
		{"different code", &Error{Kind: KindValidation, Code: ErrCodeInvalidPort}, ErrReservedPort, false},
		{"matches kind sentinel", Validation("bad"), ErrValidation, true},
		{"kind mismatch", Operation("enable", "x", nil), ErrValidation, false},
		{"execution kind", Execution("nginx -t", "", nil), ErrExecution, true},
		{"non-Error target", &Error{Kind: KindOperation}, fmt.Errorf("regular error"), false},
		{"wrapped in fmt", fmt.Errorf("outer: %w", AlreadyExists("shop")), ErrSiteExists, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errors.Is(tt.err, tt.target) != tt.expected {
				t.Errorf("Is() = %v, want %v", !tt.expected, tt.expected)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("shop-api")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("NotFound() should return *Error")
	}
	if e.Kind != KindOperation {
		t.Errorf("Kind = %v, want %v", e.Kind, KindOperation)
	}
	if e.Identifier != "shop-api" {
		t.Errorf("Identifier = %v, want shop-api", e.Identifier)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound() should match ErrNotFound")
	}
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("shop-api")

	if KindOf(err) != KindValidation {
		t.Errorf("KindOf() = %v, want validation", KindOf(err))
	}
	if !errors.Is(err, ErrSiteExists) {
		t.Error("AlreadyExists() should match ErrSiteExists")
	}
}

func TestOperationWrapsExecution(t *testing.T) {
	exec := Execution("sudo nginx -t", "nginx: [emerg] unknown directive", fmt.Errorf("exit status 1"))
	err := Operation("test", "shop-api", exec)

	if KindOf(err) != KindOperation {
		t.Errorf("KindOf() = %v, want operation", KindOf(err))
	}
	if !errors.Is(err, ErrExecution) {
		t.Error("execution error should be found in chain")
	}
	if got := CommandOf(err); got != "sudo nginx -t" {
		t.Errorf("CommandOf() = %q, want %q", got, "sudo nginx -t")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{fmt.Errorf("plain"), KindUnknown},
		{Validation("x"), KindValidation},
		{Operation("write", "", nil), KindOperation},
		{Execution("ls", "", nil), KindExecution},
		{fmt.Errorf("ctx: %w", Validation("x")), KindValidation},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindValidation: "validation",
		KindOperation:  "operation",
		KindExecution:  "execution",
		KindUnknown:    "unknown",
	}
	for k, want := range tests {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  *Error
		kind Kind
		code ErrorCode
	}{
		{"ErrNotFound", ErrNotFound, KindOperation, ErrCodeNotFound},
		{"ErrSiteExists", ErrSiteExists, KindValidation, ErrCodeAlreadyExists},
		{"ErrInvalidPort", ErrInvalidPort, KindValidation, ErrCodeInvalidPort},
		{"ErrReservedPort", ErrReservedPort, KindValidation, ErrCodeReservedPort},
		{"ErrNotListening", ErrNotListening, KindValidation, ErrCodeNotListening},
		{"ErrPrivileged", ErrPrivileged, KindValidation, ErrCodePrivileged},
		{"ErrSSLNotInstalled", ErrSSLNotInstalled, KindOperation, ErrCodeSSL},
	}

	for _, tt := range sentinels {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("%s.Kind = %v, want %v", tt.name, tt.err.Kind, tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("%s.Code = %v, want %v", tt.name, tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Errorf("%s.Message should not be empty", tt.name)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	underlying := fmt.Errorf("file not found")
	err := Wrap(KindValidation, ErrCodeConfig, "failed to load config", underlying)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("Wrap() should return *Error")
	}
	if e.Code != ErrCodeConfig {
		t.Errorf("Code = %v, want %v", e.Code, ErrCodeConfig)
	}
	if !errors.Is(err, underlying) {
		t.Error("wrapped error should contain underlying error in chain")
	}
}
