// Package ssl obtains and maintains Let's Encrypt certificates through
// certbot's nginx plugin.
//
// Certbot must be installed on the system:
//
//	sudo apt install certbot python3-certbot-nginx
//
// # Issuance
//
//	cb := ssl.New(ssl.Options{Email: cfg.Certificate.Email, Logger: log})
//	res := cb.Issue("shop.example.com")
//	if !res.Success {
//	    fmt.Println(res.Message)
//	    fmt.Println("retry with:", res.RetryCommand)
//	}
//
// Issue never returns an error: a failed or skipped certificate leaves the
// plaintext site running, and the Result says how to retry by hand.
//
// The contact address comes from the sitectl config (or
// SITECTL_CERTIFICATE_EMAIL), then from user.email in the global git
// config. Without one, certbot runs with --register-unsafely-without-email.
//
// # Maintenance
//
// List, Info, Renew, RenewAll, Revoke and Delete map onto the matching
// certbot subcommands. All certbot calls are escalated with sudo.
package ssl
