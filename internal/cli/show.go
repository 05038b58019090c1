package cli

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ksyq12/sitectl/internal/errors"
	"github.com/ksyq12/sitectl/internal/template"
)

var showDefinition bool

var showCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show details of a site",
	Long: `Show a site's domain, backend, files and certificate.

Examples:
  sitectl show hrayfi
  sitectl show hrayfi --definition
  sitectl show hrayfi --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showDefinition, "definition", false, "Print the site definition")

	rootCmd.AddCommand(showCmd)
}

// showDetail represents the detailed site information for output
type showDetail struct {
	Identifier     string     `json:"identifier"`
	Domain         string     `json:"domain"`
	Upstream       string     `json:"upstream"`
	Backend        string     `json:"backend"`
	SSL            bool       `json:"ssl"`
	Enabled        bool       `json:"enabled"`
	DefinitionPath string     `json:"definition_path"`
	LinkPath       string     `json:"link_path"`
	SSLCert        string     `json:"ssl_cert,omitempty"`
	SSLKey         string     `json:"ssl_key,omitempty"`
	SSLExpires     *time.Time `json:"ssl_expires,omitempty"`
	Definition     string     `json:"definition,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	if err := validateIdentifier(identifier); err != nil {
		return err
	}

	s, err := loadSession()
	if err != nil {
		return err
	}
	if !s.drv.Exists(identifier) {
		return errors.NotFound(identifier)
	}

	text, err := s.drv.Read(identifier)
	if err != nil {
		return err
	}
	d, err := template.Describe(text)
	if err != nil {
		return err
	}

	enabled, err := s.drv.IsEnabled(identifier)
	if err != nil {
		s.out.Warn("Could not determine enabled status: %v", err)
	}

	detail := showDetail{
		Identifier:     identifier,
		Domain:         d.Domain,
		Upstream:       d.Upstream,
		Backend:        backendURL(d.Port),
		SSL:            d.SSL,
		Enabled:        enabled,
		DefinitionPath: s.drv.DefinitionPath(identifier),
		LinkPath:       s.drv.LinkPath(identifier),
	}
	if showDefinition || s.out.JSONMode() {
		detail.Definition = text
	}

	if d.SSL && d.Domain != "" {
		cb := s.certbot()
		if cert := cb.GetCertPaths(d.Domain); cert != nil {
			detail.SSLCert = cert.CertPath
			detail.SSLKey = cert.KeyPath
		}
		if info, err := cb.Info(d.Domain); err == nil && info != nil && !info.Expiry.IsZero() {
			detail.SSLExpires = &info.Expiry
		}
	}

	if s.out.JSONMode() {
		return s.out.JSON(detail)
	}

	s.out.Print("Identifier:  %s", detail.Identifier)
	s.out.Print("Domain:      %s", detail.Domain)
	s.out.Print("Upstream:    %s", detail.Upstream)
	s.out.Print("Backend:     %s", detail.Backend)
	s.out.Print("Enabled:     %s", yesNo(detail.Enabled))
	s.out.Print("SSL:         %s", yesNo(detail.SSL))
	if detail.SSLCert != "" {
		s.out.Print("SSL Cert:    %s", detail.SSLCert)
		s.out.Print("SSL Key:     %s", detail.SSLKey)
	}
	if detail.SSLExpires != nil {
		s.out.Print("SSL Expires: %s (%s)", detail.SSLExpires.Format("2006-01-02"), humanize.Time(*detail.SSLExpires))
	}
	s.out.Print("Definition:  %s", detail.DefinitionPath)
	s.out.Print("Link:        %s", detail.LinkPath)

	if showDefinition {
		s.out.Print("")
		s.out.Print("%s", strings.TrimRight(text, "\n"))
	}
	return nil
}
