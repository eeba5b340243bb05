// Package ssl obtains Let's Encrypt certificates through certbot's nginx
// plugin.
//
// # Prerequisites
//
// Certbot and its nginx plugin must be installed:
//
//	sudo apt install certbot python3-certbot-nginx
//
// # Usage
//
// Every issuance is preceded by a dry run against the staging endpoint:
//
//	cb := ssl.New(executor.NewSystemExecutor(), "admin@example.com", ssl.DefaultLiveDir)
//	if err := cb.DryRun(ctx, "example.com", []string{"example.com", "www.example.com"}); err != nil {
//	    return err
//	}
//	cert, err := cb.Issue(ctx, "example.com", []string{"example.com", "www.example.com"})
//
// Both run non-interactively and accept the terms of service. Without an
// email certbot is told to register without one.
//
// # Certificate Paths
//
//	/etc/letsencrypt/live/{domain}/fullchain.pem  (certificate chain)
//	/etc/letsencrypt/live/{domain}/privkey.pem    (private key)
//
// # Errors
//
// A failed dry run is a CertDryRunError and a failed issuance a
// CertIssuanceError. Both carry certbot's exit status and output.
package ssl
