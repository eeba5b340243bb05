package ssl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/executor"
	"github.com/ksyq12/vhost-provision/internal/logger"
)

// Cert represents the certificate files certbot maintains for a domain
type Cert struct {
	Domain   string `json:"domain"`
	CertPath string `json:"cert_path"`
	KeyPath  string `json:"key_path"`
}

// DefaultLiveDir is where certbot keeps current certificates
const DefaultLiveDir = "/etc/letsencrypt/live"

// GetCertPaths returns the certificate paths for a domain under liveDir
func GetCertPaths(liveDir, domain string) *Cert {
	if liveDir == "" {
		liveDir = DefaultLiveDir
	}
	return &Cert{
		Domain:   domain,
		CertPath: filepath.Join(liveDir, domain, "fullchain.pem"),
		KeyPath:  filepath.Join(liveDir, domain, "privkey.pem"),
	}
}

// Certbot drives certbot's nginx plugin
type Certbot struct {
	exec    executor.CommandExecutor
	email   string
	liveDir string
}

// New creates a Certbot. An empty email registers without one.
func New(exec executor.CommandExecutor, email, liveDir string) *Certbot {
	return &Certbot{exec: exec, email: email, liveDir: liveDir}
}

// IsInstalled checks if certbot is installed
func (c *Certbot) IsInstalled() bool {
	_, err := c.exec.LookPath("certbot")
	return err == nil
}

// Args builds the certbot argument list for the given domains
func (c *Certbot) Args(domains []string, dryRun bool) []string {
	args := []string{"--nginx", "-d", strings.Join(domains, ",")}
	if dryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, "--non-interactive", "--agree-tos")
	if c.email != "" {
		args = append(args, "--email", c.email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}
	return args
}

// DryRun asks certbot to validate issuance without obtaining a certificate.
// A non-zero exit is a CertDryRunError carrying the status.
func (c *Certbot) DryRun(ctx context.Context, domain string, domains []string) error {
	code, output, err := c.run(ctx, domains, true)
	if err != nil {
		msg := fmt.Sprintf("certbot dry run failed (exit status %d)", code)
		return perrors.WithHint(
			perrors.WrapDomain(perrors.KindCertDryRun, domain, msg, outputError(output, err)),
			"Check that the domain resolves to this host and port 80 is reachable.",
		)
	}
	return nil
}

// Issue obtains the real certificate and returns its paths
func (c *Certbot) Issue(ctx context.Context, domain string, domains []string) (*Cert, error) {
	code, output, err := c.run(ctx, domains, false)
	if err != nil {
		msg := fmt.Sprintf("dry run succeeded but certbot failed to issue the certificate (exit status %d)", code)
		return nil, perrors.WrapDomain(perrors.KindCertIssuance, domain, msg, outputError(output, err))
	}
	return GetCertPaths(c.liveDir, domain), nil
}

func (c *Certbot) run(ctx context.Context, domains []string, dryRun bool) (int, []byte, error) {
	args := c.Args(domains, dryRun)
	logger.DebugFields("running certbot", map[string]interface{}{
		"args":    strings.Join(args, " "),
		"dry_run": dryRun,
	})

	output, err := c.exec.Execute(ctx, "certbot", args...)
	if err != nil {
		return executor.ExitCode(err), output, err
	}
	return 0, output, nil
}

// outputError folds trimmed certbot output into err
func outputError(output []byte, err error) error {
	out := strings.TrimSpace(string(output))
	if out == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, out)
}
