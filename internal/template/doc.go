// Package template renders nginx site definitions for a single upstream
// reverse proxy.
//
// Definitions are assembled from typed nodes (Block, Directive, Comment)
// rather than text templates. Values that come from the operator pass
// through Value, which quotes anything that is not a plain token, so a
// domain or identifier can never close a block or start a new directive.
//
// # Rendering
//
//	site, _ := sanitize.Process(raw)
//	text := template.Render(site, cfg.Proxy)
//
// Render produces:
//   - upstream <identifier>_backend with ip_hash and 127.0.0.1:<port>
//   - a port 80 server block for the domain
//   - location = /nginx-health returning 200 with access logging off
//   - deny rules for dot-files (except .well-known) and sensitive extensions
//   - location / proxying with forwarding and upgrade headers
//
// RenderSSL adds a port 443 server block using the certificate material
// under /etc/letsencrypt/live/<domain>/.
//
// # Checking
//
// ValidateSyntax only checks structure (required keywords, balanced
// braces, quotes and comments skipped). Describe reads back the domain,
// backend port and TLS status of an existing definition for listings.
package template
