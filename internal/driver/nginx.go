package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ksyq12/vhost-provision/internal/config"
	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/executor"
	"github.com/ksyq12/vhost-provision/internal/logger"
)

// NginxDriver implements the Driver interface for Nginx
type NginxDriver struct {
	paths   Paths
	service string
	exec    executor.CommandExecutor
}

// NewNginx creates a new Nginx driver from host settings
func NewNginx(s *config.Settings, exec executor.CommandExecutor) *NginxDriver {
	return NewNginxWithPaths(Paths{
		Available: s.SitesAvailable,
		Enabled:   s.SitesEnabled,
		WebRoot:   s.WebRoot,
	}, s.Service, exec)
}

// NewNginxWithPaths creates a new Nginx driver with custom paths and executor
func NewNginxWithPaths(paths Paths, service string, exec executor.CommandExecutor) *NginxDriver {
	if service == "" {
		service = "nginx"
	}
	if exec == nil {
		exec = executor.NewSystemExecutor()
	}
	return &NginxDriver{paths: paths, service: service, exec: exec}
}

// Name returns the driver name
func (n *NginxDriver) Name() string {
	return "nginx"
}

// Paths returns the config paths
func (n *NginxDriver) Paths() Paths {
	return n.paths
}

// WriteSite writes the site definition to sites-available, replacing any previous one
func (n *NginxDriver) WriteSite(domain, content string) (string, error) {
	if err := os.MkdirAll(n.paths.Available, 0755); err != nil {
		return "", perrors.WrapDomain(perrors.KindConfigWrite, domain, "failed to create sites-available directory", err)
	}

	configPath := filepath.Join(n.paths.Available, domain)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return "", perrors.WrapDomain(perrors.KindConfigWrite, domain, "failed to write config file", err)
	}

	logger.Debug("wrote %d bytes to %s", len(content), configPath)
	return configPath, nil
}

// EnsureWebRoot creates the document root if needed and checks write access
func (n *NginxDriver) EnsureWebRoot(domain string) (string, error) {
	root := filepath.Join(n.paths.WebRoot, domain)
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", perrors.WrapDomain(perrors.KindDirectoryWrite, domain, "failed to create document root", err)
	}
	if err := unix.Access(root, unix.W_OK); err != nil {
		return "", perrors.WrapDomain(perrors.KindDirectoryWrite, domain, "document root "+root+" is not writable", err)
	}
	return root, nil
}

// Enable activates a site by creating a symlink. An existing link is an error.
func (n *NginxDriver) Enable(domain string) error {
	source := filepath.Join(n.paths.Available, domain)
	target := filepath.Join(n.paths.Enabled, domain)

	if err := os.Symlink(source, target); err != nil {
		return perrors.WrapDomain(perrors.KindActivationLink, domain, "failed to enable site", err)
	}

	logger.Debug("linked %s -> %s", target, source)
	return nil
}

// Restart restarts nginx through systemd
func (n *NginxDriver) Restart(ctx context.Context) error {
	output, err := n.exec.Execute(ctx, "systemctl", "restart", n.service)
	if err != nil {
		msg := fmt.Sprintf("failed to restart %s", n.service)
		if out := strings.TrimSpace(string(output)); out != "" {
			err = fmt.Errorf("%w: %s", err, out)
		}
		return perrors.Wrap(perrors.KindServiceRestart, msg, err)
	}
	return nil
}
