package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/ssl"
	"github.com/ksyq12/sitectl/internal/validate"
)

var (
	renewAll      bool
	renewWatch    bool
	renewSchedule string
	forceCert     bool
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Let's Encrypt certificate management",
	Long:  `Manage Let's Encrypt certificates for deployed sites through certbot.`,
}

var certIssueCmd = &cobra.Command{
	Use:   "issue <domain>",
	Short: "Obtain a certificate for a deployed domain",
	Long: `Obtain a certificate with the certbot nginx plugin, which also adds the
HTTPS server block and redirect to the site.

Examples:
  sitectl cert issue hrayfi.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runCertIssue,
}

var certListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List certificates",
	Args:    cobra.NoArgs,
	RunE:    runCertList,
}

var certInfoCmd = &cobra.Command{
	Use:   "info <domain>",
	Short: "Show certificate details",
	Args:  cobra.ExactArgs(1),
	RunE:  runCertInfo,
}

var certRenewCmd = &cobra.Command{
	Use:   "renew [domain]",
	Short: "Renew certificate(s)",
	Long: `Renew certificates.

With --watch, renewal runs on a cron schedule until interrupted. The
schedule comes from --schedule or certificate.renew_schedule.

Examples:
  sitectl cert renew hrayfi.example.com   # Renew one certificate
  sitectl cert renew --all                # Renew all certificates that are due
  sitectl cert renew --all --watch        # Keep renewing on the configured schedule`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCertRenew,
}

var certRevokeCmd = &cobra.Command{
	Use:   "revoke <domain>",
	Short: "Revoke and delete a certificate",
	Args:  cobra.ExactArgs(1),
	RunE:  runCertRevoke,
}

var certDeleteCmd = &cobra.Command{
	Use:   "delete <domain>",
	Short: "Delete a certificate without revoking it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCertDelete,
}

func init() {
	certRenewCmd.Flags().BoolVar(&renewAll, "all", false, "Renew all certificates")
	certRenewCmd.Flags().BoolVar(&renewWatch, "watch", false, "Keep running and renew on a schedule")
	certRenewCmd.Flags().StringVar(&renewSchedule, "schedule", "", "Cron schedule for --watch (default from config)")
	certRevokeCmd.Flags().BoolVarP(&forceCert, "force", "f", false, "Skip confirmation")
	certDeleteCmd.Flags().BoolVarP(&forceCert, "force", "f", false, "Skip confirmation")

	certCmd.AddCommand(certIssueCmd, certListCmd, certInfoCmd, certRenewCmd, certRevokeCmd, certDeleteCmd)
	rootCmd.AddCommand(certCmd)
}

// certSession loads a session and fails early when certbot is missing.
func certSession() (*session, *ssl.Certbot, error) {
	s, err := loadSession()
	if err != nil {
		return nil, nil, err
	}
	cb := s.certbot()
	if !cb.IsAvailable() {
		return nil, nil, errors.ErrSSLNotInstalled
	}
	return s, cb, nil
}

func validateDomainArg(domain string) error {
	return validate.Domain(domain).Err("invalid domain")
}

func runCertIssue(cmd *cobra.Command, args []string) error {
	domain := strings.ToLower(strings.TrimSpace(args[0]))
	if err := validateDomainArg(domain); err != nil {
		return err
	}

	s, cb, err := certSession()
	if err != nil {
		return err
	}

	s.out.Progress("Requesting certificate for %s", domain)
	res := cb.Issue(domain)
	s.out.Done()

	if !res.Success {
		if s.out.JSONMode() {
			_ = s.out.JSON(res)
			return &reportedError{err: res.Err}
		}
		errOut := outputStderr()
		errOut.Error("%s", res.Message)
		if res.RetryCommand != "" {
			errOut.Info("Retry with: %s", res.RetryCommand)
		}
		return &reportedError{err: res.Err}
	}

	if s.out.JSONMode() {
		return s.out.JSON(res)
	}
	s.out.Success("%s", res.Message)
	s.out.Print("  Certificate: %s", res.Cert.CertPath)
	s.out.Print("  Private Key: %s", res.Cert.KeyPath)
	return nil
}

func runCertList(cmd *cobra.Command, args []string) error {
	s, cb, err := certSession()
	if err != nil {
		return err
	}

	infos, err := cb.All()
	if err != nil {
		return err
	}

	if s.out.JSONMode() {
		if infos == nil {
			infos = []ssl.Info{}
		}
		return s.out.JSON(infos)
	}

	if len(infos) == 0 {
		s.out.Info("No certificates found")
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, i := range infos {
		rows = append(rows, []string{i.Name, strings.Join(i.Domains, ","), expiryText(i), validText(i)})
	}
	s.out.Table([]string{"NAME", "DOMAINS", "EXPIRES", "STATUS"}, rows)
	return nil
}

func runCertInfo(cmd *cobra.Command, args []string) error {
	domain := args[0]
	if err := validateDomainArg(domain); err != nil {
		return err
	}

	s, cb, err := certSession()
	if err != nil {
		return err
	}

	info, err := cb.Info(domain)
	if err != nil {
		return err
	}

	if s.out.JSONMode() {
		return s.out.JSON(info)
	}
	s.out.Print("Name:        %s", info.Name)
	s.out.Print("Domains:     %s", strings.Join(info.Domains, ", "))
	s.out.Print("Expires:     %s", expiryText(*info))
	s.out.Print("Status:      %s", validText(*info))
	s.out.Print("Certificate: %s", info.CertPath)
	s.out.Print("Private Key: %s", info.KeyPath)
	return nil
}

func runCertRenew(cmd *cobra.Command, args []string) error {
	if !renewAll && len(args) == 0 {
		return errors.Validation("specify a domain or use --all to renew all certificates")
	}
	if renewAll && len(args) > 0 {
		return errors.Validation("a domain and --all cannot be combined")
	}
	domain := ""
	if len(args) > 0 {
		domain = args[0]
		if err := validateDomainArg(domain); err != nil {
			return err
		}
	}

	s, cb, err := certSession()
	if err != nil {
		return err
	}

	renew := func() error {
		if domain == "" {
			return cb.RenewAll()
		}
		return cb.Renew(domain)
	}

	if renewWatch {
		return watchRenewals(cmd, s, renew)
	}

	if domain == "" {
		s.out.Info("Renewing all certificates")
	} else {
		s.out.Info("Renewing certificate for %s", domain)
	}
	if err := renew(); err != nil {
		return err
	}

	if domain == "" {
		return s.result(CommandResult{Success: true, Action: "renewed"}, "All certificates renewed")
	}
	return s.result(CommandResult{Success: true, Domain: domain, Action: "renewed"}, "Certificate renewed for %s", domain)
}

// watchRenewals runs renew on the cron schedule until the command's
// context is cancelled. A failed renewal is logged and retried on the
// next tick.
func watchRenewals(cmd *cobra.Command, s *session, renew func() error) error {
	schedule := renewSchedule
	if schedule == "" {
		schedule = s.cfg.Certificate.RenewSchedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return errors.Validation(fmt.Sprintf("invalid renew schedule %q: %v", schedule, err))
	}

	log := s.log.With(map[string]interface{}{"component": "renew", "schedule": schedule})
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		log.Info("renewal started")
		if err := renew(); err != nil {
			log.LogError(err, "renewal failed")
			return
		}
		log.Info("renewal finished")
	}); err != nil {
		return fmt.Errorf("failed to schedule renewal: %w", err)
	}

	c.Start()
	s.out.Info("Renewing on schedule %q; next run %s", schedule, humanize.Time(sched.Next(time.Now())))

	<-cmd.Context().Done()
	<-c.Stop().Done()
	s.out.Info("Renewal watch stopped")
	return nil
}

func runCertRevoke(cmd *cobra.Command, args []string) error {
	return removeCertificate(args[0], "revoke", "Revoke the certificate for %s? This cannot be undone.",
		func(cb *ssl.Certbot, domain string) error { return cb.Revoke(domain) })
}

func runCertDelete(cmd *cobra.Command, args []string) error {
	return removeCertificate(args[0], "delete", "Delete the certificate for %s?",
		func(cb *ssl.Certbot, domain string) error { return cb.Delete(domain) })
}

func removeCertificate(domain, action, question string, op func(*ssl.Certbot, string) error) error {
	if err := validateDomainArg(domain); err != nil {
		return err
	}

	s, cb, err := certSession()
	if err != nil {
		return err
	}

	ok, err := s.confirm(forceCert, fmt.Sprintf(question, domain))
	if err != nil {
		return err
	}
	if !ok {
		s.out.Info("Cancelled")
		return nil
	}

	if err := op(cb, domain); err != nil {
		return err
	}
	return s.result(CommandResult{Success: true, Domain: domain, Action: action + "d"}, "Certificate for %s %sd", domain, action)
}

func expiryText(i ssl.Info) string {
	if i.Expiry.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", i.Expiry.Format("2006-01-02"), humanize.Time(i.Expiry))
}

func validText(i ssl.Info) string {
	if i.Valid {
		return "valid"
	}
	return "expired"
}
