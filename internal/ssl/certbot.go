package ssl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/executor"
	"github.com/ksyq12/sitectl/internal/logger"
	"github.com/ksyq12/sitectl/internal/platform"
)

// installHint is shown when certbot is missing.
const installHint = "certbot is not installed. Install it with: apt install certbot python3-certbot-nginx"

// Cert represents an SSL certificate
type Cert struct {
	Domain   string `json:"domain"`
	CertPath string `json:"cert_path"`
	KeyPath  string `json:"key_path"`
}

// Result is the outcome of an issuance. Failure is reported here, not
// returned as an error, since a missing certificate never undoes a live
// plaintext site.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Cert         *Cert  `json:"cert,omitempty"`
	RetryCommand string `json:"retry_command,omitempty"`
	Err          error  `json:"-"`
}

// Info describes one certificate known to certbot.
type Info struct {
	Name     string    `json:"name"`
	Domains  []string  `json:"domains"`
	Expiry   time.Time `json:"expiry"`
	Valid    bool      `json:"valid"`
	CertPath string    `json:"cert_path"`
	KeyPath  string    `json:"key_path"`
}

// Options configures a Certbot. Zero values get production defaults.
type Options struct {
	Executor executor.CommandExecutor
	Logger   *logger.Logger
	LiveDir  string

	// Email is the configured contact address (config file or
	// SITECTL_CERTIFICATE_EMAIL).
	Email string

	// Identity is consulted when Email is empty. Defaults to GitEmail.
	Identity func() string
}

// Certbot wraps the certbot CLI.
type Certbot struct {
	exec     executor.CommandExecutor
	log      *logger.Logger
	liveDir  string
	email    string
	identity func() string
}

// New creates a Certbot.
func New(opts Options) *Certbot {
	if opts.Executor == nil {
		opts.Executor = executor.NewSystemExecutor()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.LiveDir == "" {
		opts.LiveDir = platform.LetsEncryptLive
	}
	if opts.Identity == nil {
		opts.Identity = GitEmail
	}
	return &Certbot{
		exec:     opts.Executor,
		log:      opts.Logger,
		liveDir:  opts.LiveDir,
		email:    opts.Email,
		identity: opts.Identity,
	}
}

// IsAvailable checks if certbot is installed
func (c *Certbot) IsAvailable() bool {
	_, err := c.exec.LookPath("certbot")
	return err == nil
}

// GetCertPaths returns the certificate paths for a domain
func (c *Certbot) GetCertPaths(domain string) *Cert {
	return &Cert{
		Domain:   domain,
		CertPath: filepath.Join(c.liveDir, domain, "fullchain.pem"),
		KeyPath:  filepath.Join(c.liveDir, domain, "privkey.pem"),
	}
}

// Exists reports whether certificate material for domain is present.
// The live directory is usually root-only, so a permission error is
// answered with an escalated test -f.
func (c *Certbot) Exists(domain string) bool {
	path := c.GetCertPaths(domain).CertPath
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true
	case os.IsPermission(err):
		_, err := c.exec.Run(executor.Command{Name: "test", Args: []string{"-f", path}, Privileged: true})
		return err == nil
	default:
		return false
	}
}

// Email returns the contact address certbot will register with, or "".
func (c *Certbot) Email() string {
	if e := strings.TrimSpace(c.email); e != "" {
		return e
	}
	if e := strings.TrimSpace(c.identity()); strings.Contains(e, "@") {
		return e
	}
	return ""
}

// IssueCommand builds the certbot invocation used by Issue.
func (c *Certbot) IssueCommand(domain string) executor.Command {
	args := []string{
		"--nginx",
		"-d", domain,
		"--non-interactive",
		"--agree-tos",
		"--redirect",
	}
	if email := c.Email(); email != "" {
		args = append(args, "--email", email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}
	return executor.Command{Name: "certbot", Args: args, Privileged: true}
}

// Issue obtains a certificate with the nginx plugin and lets certbot add
// the HTTPS redirect.
func (c *Certbot) Issue(domain string) Result {
	cmd := c.IssueCommand(domain)
	retry := cmd.String()

	if !c.IsAvailable() {
		return Result{
			Message:      installHint,
			RetryCommand: retry,
			Err:          errors.ErrSSLNotInstalled,
		}
	}

	c.log.InfoFields("requesting certificate", map[string]interface{}{"domain": domain, "email": c.Email() != ""})
	if _, err := c.exec.Run(cmd); err != nil {
		return Result{
			Message:      fmt.Sprintf("certificate issuance for %s failed", domain),
			RetryCommand: retry,
			Err:          errors.Wrap(errors.KindOperation, errors.ErrCodeSSL, "certbot failed", err),
		}
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("certificate installed for %s", domain),
		Cert:    c.GetCertPaths(domain),
	}
}

// run executes a maintenance subcommand.
func (c *Certbot) run(op string, args ...string) ([]byte, error) {
	if !c.IsAvailable() {
		return nil, errors.ErrSSLNotInstalled
	}
	out, err := c.exec.Run(executor.Command{Name: "certbot", Args: args, Privileged: true})
	if err != nil {
		return nil, errors.Wrap(errors.KindOperation, errors.ErrCodeSSL, "certbot "+op+" failed", err)
	}
	return out.Stdout, nil
}

// Renew renews a specific certificate
func (c *Certbot) Renew(domain string) error {
	_, err := c.run("renew", "renew", "--cert-name", domain, "--non-interactive")
	return err
}

// RenewAll renews all certificates that are due
func (c *Certbot) RenewAll() error {
	_, err := c.run("renew", "renew", "--non-interactive")
	return err
}

// Revoke revokes a certificate and deletes it
func (c *Certbot) Revoke(domain string) error {
	_, err := c.run("revoke", "revoke", "--cert-name", domain, "--non-interactive", "--delete-after-revoke")
	return err
}

// Delete removes a certificate without revoking it
func (c *Certbot) Delete(domain string) error {
	_, err := c.run("delete", "delete", "--cert-name", domain, "--non-interactive")
	return err
}

// List returns the names of all managed certificates
func (c *Certbot) List() ([]string, error) {
	infos, err := c.certificates()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, i := range infos {
		names = append(names, i.Name)
	}
	return names, nil
}

// Info returns details for one certificate
func (c *Certbot) Info(domain string) (*Info, error) {
	infos, err := c.certificates("--cert-name", domain)
	if err != nil {
		return nil, err
	}
	for _, i := range infos {
		if i.Name == domain {
			return &i, nil
		}
	}
	return nil, errors.Wrap(errors.KindOperation, errors.ErrCodeNotFound,
		fmt.Sprintf("no certificate named %s", domain), nil)
}

// All returns details for every managed certificate
func (c *Certbot) All() ([]Info, error) {
	return c.certificates()
}

func (c *Certbot) certificates(extra ...string) ([]Info, error) {
	out, err := c.run("certificates", append([]string{"certificates"}, extra...)...)
	if err != nil {
		return nil, err
	}
	return parseCertificates(string(out)), nil
}

// parseCertificates reads `certbot certificates` output.
func parseCertificates(output string) []Info {
	var (
		infos []Info
		cur   *Info
	)
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Certificate Name":
			infos = append(infos, Info{Name: value})
			cur = &infos[len(infos)-1]
		case "Domains":
			if cur != nil {
				cur.Domains = strings.Fields(value)
			}
		case "Expiry Date":
			if cur != nil {
				cur.Expiry, cur.Valid = parseExpiry(value)
			}
		case "Certificate Path":
			if cur != nil {
				cur.CertPath = value
			}
		case "Private Key Path":
			if cur != nil {
				cur.KeyPath = value
			}
		}
	}
	return infos
}

// parseExpiry handles "2026-01-17 10:00:00+00:00 (VALID: 89 days)".
func parseExpiry(value string) (time.Time, bool) {
	valid := strings.Contains(value, "(VALID")
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return time.Time{}, valid
	}
	t, err := time.Parse("2006-01-02 15:04:05-07:00", fields[0]+" "+fields[1])
	if err != nil {
		return time.Time{}, valid
	}
	return t, valid
}
