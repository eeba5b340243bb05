package template

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/ksyq12/vhost-provision/internal/config"
	"github.com/ksyq12/vhost-provision/internal/ssl"
)

// Template names
const (
	Default = "default"
	HTTPS   = "https"
)

// contentSecurityPolicy is sent on every HTTPS response
const contentSecurityPolicy = "default-src 'self'; script-src 'self'; object-src 'none'; frame-ancestors 'self'; base-uri 'self'"

// TemplateData contains data for rendering templates
type TemplateData struct {
	Domain                string
	ServerNameAlias       string
	Root                  string
	CertPath              string
	KeyPath               string
	PHPSocket             string
	AccessLog             string
	ErrorLog              string
	ContentSecurityPolicy string
}

// NewData derives template data from a request and host settings
func NewData(req config.Request, s *config.Settings) TemplateData {
	cert := ssl.GetCertPaths(s.Cert.LiveDir, req.Domain)
	return TemplateData{
		Domain:                req.Domain,
		ServerNameAlias:       req.ServerNameAlias(),
		Root:                  s.DocumentRoot(req.Domain),
		CertPath:              cert.CertPath,
		KeyPath:               cert.KeyPath,
		PHPSocket:             s.PHPSocket,
		AccessLog:             filepath.Join(s.LogDir, req.Domain+".access.log"),
		ErrorLog:              filepath.Join(s.LogDir, req.Domain+".error.log"),
		ContentSecurityPolicy: contentSecurityPolicy,
	}
}

// Render renders the named nginx template
func Render(name string, data TemplateData) (string, error) {
	content, err := nginxTemplates.ReadFile(fmt.Sprintf("nginx/%s.tmpl", name))
	if err != nil {
		return "", fmt.Errorf("template not found: nginx/%s", name)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

// RenderDefault renders the plain HTTP site definition
func RenderDefault(req config.Request, s *config.Settings) (string, error) {
	return Render(Default, NewData(req, s))
}

// RenderHTTPS renders the redirect + TLS site definition
func RenderHTTPS(req config.Request, s *config.Settings) (string, error) {
	return Render(HTTPS, NewData(req, s))
}
