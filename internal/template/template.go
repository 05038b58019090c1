package template

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ksyq12/sitectl/internal/config"
	"github.com/ksyq12/sitectl/internal/platform"
)

// Header is the first line of every generated definition.
const Header = "Managed by sitectl. Manual edits are lost on the next deploy."

// HealthPath answers 200 without touching the backend.
const HealthPath = "/nginx-health"

// deniedExtensions are never served, even if the backend would.
const deniedExtensions = `~* \.(env|log|ini|sql|bak|conf|sh)$`

// Cert points at certificate material for a domain.
type Cert struct {
	Fullchain string `json:"fullchain"`
	Privkey   string `json:"privkey"`
}

// CertFor returns the Let's Encrypt live paths for domain.
func CertFor(domain string) Cert {
	dir := filepath.Join(platform.LetsEncryptLive, domain)
	return Cert{
		Fullchain: filepath.Join(dir, "fullchain.pem"),
		Privkey:   filepath.Join(dir, "privkey.pem"),
	}
}

// Render builds the plaintext definition: one upstream and one port 80
// server block.
func Render(site config.ProcessedConfig, limits config.ProxyConfig) string {
	doc := &Document{Nodes: []Node{
		Comment(Header),
		upstream(site),
		httpServer(site, limits),
	}}
	return doc.String()
}

// RenderSSL is Render plus a port 443 server block using cert.
func RenderSSL(site config.ProcessedConfig, limits config.ProxyConfig, cert Cert) string {
	doc := &Document{Nodes: []Node{
		Comment(Header),
		upstream(site),
		httpServer(site, limits),
		httpsServer(site, limits, cert),
	}}
	return doc.String()
}

func upstream(site config.ProcessedConfig) *Block {
	b := &Block{Name: "upstream", Args: []string{Value(site.Upstream)}}
	b.Add("ip_hash")
	b.Add("server", "127.0.0.1:"+strconv.Itoa(site.Port))
	return b
}

func httpServer(site config.ProcessedConfig, limits config.ProxyConfig) *Block {
	s := &Block{Name: "server"}
	s.Add("listen", "80")
	s.Add("listen", "[::]:80")
	s.Add("server_name", Value(site.Domain))
	s.Blank()
	siteBody(s, site, limits, "$scheme")
	return s
}

func httpsServer(site config.ProcessedConfig, limits config.ProxyConfig, cert Cert) *Block {
	s := &Block{Name: "server"}
	s.Add("listen", "443", "ssl")
	s.Add("listen", "[::]:443", "ssl")
	s.Add("server_name", Value(site.Domain))
	s.Blank()
	s.Add("ssl_certificate", Value(cert.Fullchain))
	s.Add("ssl_certificate_key", Value(cert.Privkey))
	s.Add("ssl_protocols", "TLSv1.2", "TLSv1.3")
	s.Blank()
	siteBody(s, site, limits, "https")
	return s
}

// siteBody is shared by the plaintext and encrypted server blocks.
func siteBody(s *Block, site config.ProcessedConfig, limits config.ProxyConfig, proto string) {
	s.Add("client_max_body_size", Value(limits.ClientMaxBodySize))
	s.Blank()

	health := s.Nest("location", "=", HealthPath)
	health.Add("access_log", "off")
	health.Add("return", "200", `"ok"`)

	s.Nest("location", "~", `/\.(?!well-known)`).Add("deny", "all")
	s.Nest("location", deniedExtensions).Add("deny", "all")

	loc := s.Nest("location", "/")
	loc.Add("proxy_pass", "http://"+Value(site.Upstream))
	loc.Add("proxy_http_version", "1.1")
	loc.Add("proxy_set_header", "Host", "$host")
	loc.Add("proxy_set_header", "X-Real-IP", "$remote_addr")
	loc.Add("proxy_set_header", "X-Forwarded-For", "$proxy_add_x_forwarded_for")
	loc.Add("proxy_set_header", "X-Forwarded-Proto", proto)
	loc.Add("proxy_set_header", "Upgrade", "$http_upgrade")
	loc.Add("proxy_set_header", "Connection", `"upgrade"`)
	loc.Add("proxy_connect_timeout", seconds(limits.ConnectTimeout))
	loc.Add("proxy_read_timeout", seconds(limits.ReadTimeout))
}

// seconds formats d the way nginx expects time values.
func seconds(d time.Duration) string {
	s := int(d / time.Second)
	if s < 1 {
		s = 1
	}
	return fmt.Sprintf("%ds", s)
}
