package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ksyq12/vhost-provision/internal/config"
	"github.com/ksyq12/vhost-provision/internal/driver"
	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/logger"
	"github.com/ksyq12/vhost-provision/internal/output"
	"github.com/ksyq12/vhost-provision/internal/propagation"
	"github.com/ksyq12/vhost-provision/internal/resolver"
	"github.com/ksyq12/vhost-provision/internal/ssl"
	"github.com/ksyq12/vhost-provision/internal/template"
)

// Summary describes a completed provisioning run
type Summary struct {
	Domain       string           `json:"domain"`
	IP           string           `json:"ip"`
	Registered   bool             `json:"registered"`
	DNSVerified  bool             `json:"dns_verified"`
	DNSPolls     int              `json:"dns_polls"`
	ConfigPath   string           `json:"config_path"`
	EnabledPath  string           `json:"enabled_path"`
	DocumentRoot string           `json:"document_root"`
	CertDomains  []string         `json:"cert_domains"`
	Certificate  *ssl.Cert        `json:"certificate"`
	Preflight    *PreflightReport `json:"preflight,omitempty"`
}

const registrarHint = "Verify the API key and that this server's IP address is allow-listed with the registrar."

func runProvision(ctx context.Context, opts *options) error {
	req, err := config.NewRequest(opts.flags)
	if err != nil {
		return err
	}

	report := runPreflight(ctx, deps)
	if opts.jsonOutput {
		if report.Err() != nil {
			_ = output.JSON(report)
		}
	} else {
		displayPreflightResults(report)
	}
	if err := report.Err(); err != nil {
		return err
	}

	settings, err := deps.SettingsLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	p := newPipeline(deps, settings, opts.jsonOutput)
	summary, err := p.run(ctx, req)
	if err != nil {
		return err
	}
	summary.Preflight = report

	if opts.jsonOutput {
		return output.JSON(summary)
	}
	displaySummary(summary)
	return nil
}

// pipeline runs the provisioning steps for one request
type pipeline struct {
	deps     *Dependencies
	settings *config.Settings
	drv      driver.Driver
	certbot  *ssl.Certbot
	quiet    bool
}

func newPipeline(d *Dependencies, s *config.Settings, quiet bool) *pipeline {
	return &pipeline{
		deps:     d,
		settings: s,
		drv:      d.DriverFactory.Create(s, d.Executor),
		certbot:  ssl.New(d.Executor, s.Cert.Email, s.Cert.LiveDir),
		quiet:    quiet,
	}
}

func (p *pipeline) info(format string, args ...interface{}) {
	if !p.quiet {
		output.Info(format, args...)
	}
}

func (p *pipeline) success(format string, args ...interface{}) {
	if !p.quiet {
		output.Success(format, args...)
	}
}

func (p *pipeline) warn(format string, args ...interface{}) {
	if !p.quiet {
		output.Warn(format, args...)
	}
}

func (p *pipeline) run(ctx context.Context, req config.Request) (*Summary, error) {
	s := p.settings
	summary := &Summary{Domain: req.Domain, CertDomains: req.CertDomains()}

	p.info("Resolving public IP address...")
	dns := p.deps.ResolverFactory.Create(s.DNS)
	ip, err := resolver.ResolveIP(ctx, dns, req.IP)
	if err != nil {
		return nil, err
	}
	req = req.WithIP(ip)
	summary.IP = ip
	p.success("Using IP address %s", ip)

	if req.RegistrationEnabled() {
		p.info("Registering %s with the registrar...", req.Domain)
		reg := p.deps.RegistrarFactory.Create(s.Registrar, req.APIKey)
		if err := reg.Register(ctx, req.Domain, ip); err != nil {
			return nil, perrors.WithHint(err, registrarHint)
		}
		summary.Registered = true
		logger.InfoFields("domain registered", map[string]interface{}{"domain": req.Domain, "ip": ip})
		p.success("Registered %s -> %s", req.Domain, ip)
	}

	if req.SkipDNSVerify {
		p.warn("Skipping DNS verification")
	} else {
		p.info("Waiting for %s to resolve to %s...", req.Domain, ip)
		v := &propagation.Verifier{
			Lookup:   dns,
			Attempts: s.DNS.PollAttempts,
			Interval: s.DNS.PollInterval,
			Sleep:    p.deps.Sleeper.Sleep,
		}
		polls, err := v.Wait(ctx, req.Domain, ip)
		summary.DNSPolls = polls
		if err != nil {
			return nil, err
		}
		summary.DNSVerified = true
		p.success("DNS verified after %d poll(s)", polls)
	}

	// HTTP site, live while certbot validates the domain
	path, root, err := p.writeSite(req, template.Default)
	if err != nil {
		return nil, err
	}
	summary.ConfigPath = path
	summary.DocumentRoot = root
	logger.InfoFields("site written", map[string]interface{}{"path": path, "document_root": root})
	p.success("Wrote %s", path)

	if err := p.restart(ctx); err != nil {
		return nil, err
	}

	domains := req.CertDomains()
	p.info("Requesting certificate for %v (dry run)...", domains)
	if err := p.certbot.DryRun(ctx, req.Domain, domains); err != nil {
		return nil, err
	}
	p.success("Dry run succeeded")

	logger.Debug("waiting %s before the real certificate request", s.Cert.Delay)
	if err := p.deps.Sleeper.Sleep(ctx, s.Cert.Delay); err != nil {
		return nil, perrors.WrapDomain(perrors.KindCertIssuance, req.Domain, "interrupted before certificate request", err)
	}

	p.info("Requesting certificate for %v...", domains)
	cert, err := p.certbot.Issue(ctx, req.Domain, domains)
	if err != nil {
		return nil, err
	}
	summary.Certificate = cert
	logger.Info("certificate stored at %s", cert.CertPath)
	p.success("Certificate issued")

	if _, _, err := p.writeSite(req, template.HTTPS); err != nil {
		return nil, err
	}
	p.success("Wrote HTTPS configuration")

	if err := p.drv.Enable(req.Domain); err != nil {
		return nil, err
	}
	summary.EnabledPath = filepath.Join(p.drv.Paths().Enabled, req.Domain)
	p.success("Enabled %s", req.Domain)

	if err := p.restart(ctx); err != nil {
		return nil, err
	}

	return summary, nil
}

// writeSite prepares the document root and writes the named site template
func (p *pipeline) writeSite(req config.Request, name string) (string, string, error) {
	root, err := p.drv.EnsureWebRoot(req.Domain)
	if err != nil {
		return "", "", err
	}

	content, err := template.Render(name, template.NewData(req, p.settings))
	if err != nil {
		return "", "", perrors.WrapDomain(perrors.KindConfigWrite, req.Domain, "failed to render "+name+" site", err)
	}

	path, err := p.drv.WriteSite(req.Domain, content)
	if err != nil {
		return "", "", err
	}
	return path, root, nil
}

func (p *pipeline) restart(ctx context.Context) error {
	p.info("Restarting %s...", p.drv.Name())
	return p.drv.Restart(ctx)
}

func displaySummary(s *Summary) {
	output.Print("")
	output.Success("%s is live over HTTPS", s.Domain)
	rows := [][]string{
		{"Config", s.ConfigPath},
		{"Enabled", s.EnabledPath},
		{"Document root", s.DocumentRoot},
		{"IP address", s.IP},
	}
	if s.Certificate != nil {
		rows = append(rows, []string{"Certificate", s.Certificate.CertPath})
	}
	output.Table([]string{"ITEM", "VALUE"}, rows)
	output.Print("")
	output.Warn("Set ownership of the document root: chown -R www-data:www-data %s", s.DocumentRoot)
}
