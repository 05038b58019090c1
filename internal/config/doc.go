// Package config loads sitectl settings and defines the per-site input
// types that flow through a deployment.
//
// Settings live in ~/.config/sitectl/config.yaml. Every key has a default,
// and any key can be overridden from the environment with the SITECTL_
// prefix, dots replaced by underscores:
//
//	proxy:
//	  client_max_body_size: 10M
//	  connect_timeout: 1m0s
//	  read_timeout: 1m0s
//	system:
//	  min_free_space: 100MB
//	probe:
//	  timeout: 2s
//	certificate:
//	  email: ops@example.com        # SITECTL_CERTIFICATE_EMAIL
//	  renew_schedule: 0 3 * * *
//	metrics:
//	  textfile: /var/lib/node_exporter/textfile_collector/sitectl.prom
//
// The nginx directory layout is deliberately absent: sites always go to
// /etc/nginx/sites-available and /etc/nginx/sites-enabled.
//
// # Site input
//
// RawConfig holds the three operator answers as typed. ProcessedConfig adds
// the sanitized identifier, upstream name and numeric port; it is built by
// the sanitize package and consumed by the renderer and driver.
package config
