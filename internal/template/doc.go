// Package template renders the nginx site definitions written during
// provisioning from embedded Go templates.
//
// Two templates exist, both keyed to the same output file:
//
//	nginx/default.tmpl  plain HTTP server serving /var/www/<domain>
//	nginx/https.tmpl    HTTP->HTTPS redirect plus the TLS server
//
// The default site is live while certbot validates the domain; the HTTPS
// site replaces it once the certificate exists.
//
// # Rendering
//
//	req, _ := config.NewRequest(config.RequestFlags{Domain: "example.com", APIKey: key})
//	content, err := template.RenderHTTPS(req, config.New())
//
// # Template Data
//
// Templates receive TemplateData:
//   - Domain: the domain name, without www.
//   - ServerNameAlias: "server_name www.<domain>;" or empty for subdomains
//   - Root: document root
//   - CertPath, KeyPath: certbot's live certificate files
//   - PHPSocket: PHP-FPM unix socket
//   - AccessLog, ErrorLog: per-domain nginx log files
//   - ContentSecurityPolicy: the fixed CSP header value
//
// Rendering is deterministic: the same request and settings always produce
// the same bytes.
package template
