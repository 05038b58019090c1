package cli

import (
	"fmt"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/driver"
	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/input"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/output"
	"github.com/ksyq12/sitectl/internal/ssl"
)

// session holds what a command needs for one invocation.
type session struct {
	cfg    *config.Config
	out    *output.Printer
	log    *logger.Logger
	drv    driver.Driver
	prompt *input.Prompter
}

// loadSession loads config and builds the printer, logger and driver
func loadSession() (*session, error) {
	log := logger.New(deps.Stderr, verbose)

	cfg, err := deps.ConfigLoader.Load(configFile)
	if err != nil {
		return nil, err
	}

	// Prompts must not end up inside JSON on stdout.
	promptOut := deps.Stdout
	if jsonOutput {
		promptOut = deps.Stderr
	}

	return &session{
		cfg:    cfg,
		out:    output.New(deps.Stdout, jsonOutput),
		log:    log,
		drv:    deps.DriverFactory.Create(deps.Executor, log),
		prompt: input.NewPrompter(deps.Stdin, promptOut),
	}, nil
}

// certbot returns the certificate controller for this session
func (s *session) certbot() *ssl.Certbot {
	return ssl.New(ssl.Options{
		Executor: deps.Executor,
		Logger:   s.log,
		LiveDir:  deps.CertificateDir,
		Email:    s.cfg.Certificate.Email,
		Identity: deps.Identity,
	})
}

// result handles JSON or human-readable output
func (s *session) result(data interface{}, successMsg string, args ...interface{}) error {
	if s.out.JSONMode() {
		return s.out.JSON(data)
	}
	s.out.Success(successMsg, args...)
	return nil
}

// testAndReload tests config and reloads nginx.
// If rollback is provided, it will be called on test or reload failure
func (s *session) testAndReload(reload bool, rollback func() error) error {
	s.out.Progress("Testing nginx configuration")
	err := s.drv.Test()
	s.out.Done()
	if err == nil && reload {
		s.out.Progress("Reloading nginx")
		err = s.drv.Reload()
		s.out.Done()
	}
	if err == nil {
		return nil
	}

	if rollback != nil {
		s.out.Info("Rolling back changes")
		if rbErr := rollback(); rbErr != nil {
			s.log.LogError(rbErr, "rollback failed")
			s.out.Warn("Rollback failed: %v", rbErr)
		}
	}
	return err
}

// confirm asks unless force is set
func (s *session) confirm(force bool, question string) (bool, error) {
	if force {
		return true, nil
	}
	return s.prompt.Confirm(question, false)
}

// validateIdentifier checks a site identifier given on the command line
func validateIdentifier(identifier string) error {
	if !driver.ValidIdentifier(identifier) {
		return errors.Validation(fmt.Sprintf("invalid site identifier %q", identifier),
			"identifiers are 1-50 characters of a-z, 0-9 and -")
	}
	return nil
}

// requireSite fails with NotFound when neither definition nor link exists
func (s *session) requireSite(identifier string) error {
	if s.drv.Exists(identifier) {
		return nil
	}
	if enabled, _ := s.drv.IsEnabled(identifier); enabled {
		return nil
	}
	return errors.NotFound(identifier)
}

// outputStderr returns a plain printer for failure details.
func outputStderr() *output.Printer {
	return output.New(deps.Stderr, false)
}

// printError shows err with its aggregated details, one per line
func printError(out *output.Printer, err error) {
	var e *errors.Error
	if errors.As(err, &e) && len(e.Details) > 0 {
		msg := e.Message
		if msg == "" {
			msg = e.Kind.String() + " failed"
		}
		out.Error("%s", msg)
		for _, d := range e.Details {
			out.Print("  - %s", d)
		}
		return
	}
	out.Error("%v", err)
}

// CommandResult represents a common result structure for CLI commands
type CommandResult struct {
	Success    bool   `json:"success"`
	Identifier string `json:"identifier,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Action     string `json:"action,omitempty"`
	Message    string `json:"message,omitempty"`
}

// newSuccessResult creates a success result
func newSuccessResult(identifier, action string) CommandResult {
	return CommandResult{
		Success:    true,
		Identifier: identifier,
		Action:     action,
	}
}

// reportedError is a failure the command has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// exitError ends the process with a specific status.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
