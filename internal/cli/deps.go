package cli

import (
	"context"
	"os"
	"time"

	"github.com/ksyq12/vhost-provision/internal/config"
	"github.com/ksyq12/vhost-provision/internal/driver"
	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/executor"
	"github.com/ksyq12/vhost-provision/internal/registrar"
	"github.com/ksyq12/vhost-provision/internal/resolver"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	SettingsLoader   SettingsLoader
	RootChecker      RootChecker
	Executor         executor.CommandExecutor
	ResolverFactory  ResolverFactory
	RegistrarFactory RegistrarFactory
	DriverFactory    DriverFactory
	Sleeper          Sleeper
}

// SettingsLoader loads host settings
type SettingsLoader interface {
	Load() (*config.Settings, error)
}

// RootChecker checks root privileges
type RootChecker interface {
	RequireRoot() error
}

// Resolver answers the DNS questions the pipeline asks
type Resolver interface {
	PublicIP(ctx context.Context) (string, error)
	LookupA(ctx context.Context, domain string) ([]string, error)
}

// ResolverFactory creates resolvers
type ResolverFactory interface {
	Create(s config.DNSSettings) Resolver
}

// RegistrarFactory creates registrar clients
type RegistrarFactory interface {
	Create(s config.RegistrarSettings, apiKey string) registrar.Registrar
}

// DriverFactory creates driver instances
type DriverFactory interface {
	Create(s *config.Settings, exec executor.CommandExecutor) driver.Driver
}

// Sleeper waits between DNS polls and before the real certificate request
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Package-level dependencies (can be overridden for testing)
var deps = defaultDeps()

func defaultDeps() *Dependencies {
	return &Dependencies{
		SettingsLoader:   &realSettingsLoader{},
		RootChecker:      &realRootChecker{},
		Executor:         executor.NewSystemExecutor(),
		ResolverFactory:  &realResolverFactory{},
		RegistrarFactory: &realRegistrarFactory{},
		DriverFactory:    &realDriverFactory{},
		Sleeper:          &realSleeper{},
	}
}

// Real implementations that delegate to existing functions

type realSettingsLoader struct{}

func (r *realSettingsLoader) Load() (*config.Settings, error) {
	return config.Load()
}

type realRootChecker struct{}

func (r *realRootChecker) RequireRoot() error {
	if os.Geteuid() != 0 {
		return errRootRequired
	}
	return nil
}

type realResolverFactory struct{}

func (r *realResolverFactory) Create(s config.DNSSettings) Resolver {
	return resolver.New(s)
}

type realRegistrarFactory struct{}

func (r *realRegistrarFactory) Create(s config.RegistrarSettings, apiKey string) registrar.Registrar {
	return registrar.New(s.URL, apiKey, s.Timeout)
}

type realDriverFactory struct{}

func (r *realDriverFactory) Create(s *config.Settings, exec executor.CommandExecutor) driver.Driver {
	return driver.NewNginx(s, exec)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// errRootRequired is the sentinel error for root privilege check
var errRootRequired = perrors.New(perrors.KindMissingDependency, "this operation requires root privileges. Please run with sudo")
