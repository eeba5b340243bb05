package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ksyq12/vhost-provision/internal/config"
	"github.com/ksyq12/vhost-provision/internal/driver"
	"github.com/ksyq12/vhost-provision/internal/executor"
	"github.com/ksyq12/vhost-provision/internal/registrar"
)

// MockSettingsLoader is a test double for SettingsLoader
type MockSettingsLoader struct {
	Settings *config.Settings
	Err      error
	Calls    int
}

func (m *MockSettingsLoader) Load() (*config.Settings, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Settings == nil {
		m.Settings = config.New()
	}
	return m.Settings, nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	IsRoot bool
	Calls  int
}

func (m *MockRootChecker) RequireRoot() error {
	m.Calls++
	if !m.IsRoot {
		return errRootRequired
	}
	return nil
}

// MockResolver is a test double for Resolver
type MockResolver struct {
	IP          string
	PublicIPErr error
	// Answers are returned by successive LookupA calls; the last one repeats
	Answers [][]string

	PublicIPCalls int
	LookupCalls   []string
}

func (m *MockResolver) PublicIP(ctx context.Context) (string, error) {
	m.PublicIPCalls++
	if m.PublicIPErr != nil {
		return "", m.PublicIPErr
	}
	return m.IP, nil
}

func (m *MockResolver) LookupA(ctx context.Context, domain string) ([]string, error) {
	m.LookupCalls = append(m.LookupCalls, domain)
	if len(m.Answers) == 0 {
		return nil, errors.New("no answer")
	}
	i := len(m.LookupCalls) - 1
	if i >= len(m.Answers) {
		i = len(m.Answers) - 1
	}
	return m.Answers[i], nil
}

// MockResolverFactory is a test double for ResolverFactory
type MockResolverFactory struct {
	Resolver *MockResolver
	Settings []config.DNSSettings
}

func (m *MockResolverFactory) Create(s config.DNSSettings) Resolver {
	m.Settings = append(m.Settings, s)
	return m.Resolver
}

// MockRegistrar is a test double for registrar.Registrar
type MockRegistrar struct {
	Err   error
	Calls []registrar.Record
}

func (m *MockRegistrar) Register(ctx context.Context, domain, ip string) error {
	m.Calls = append(m.Calls, registrar.Record{Domain: domain, IP: ip})
	return m.Err
}

// MockRegistrarFactory is a test double for RegistrarFactory
type MockRegistrarFactory struct {
	Registrar *MockRegistrar
	APIKeys   []string
}

func (m *MockRegistrarFactory) Create(s config.RegistrarSettings, apiKey string) registrar.Registrar {
	m.APIKeys = append(m.APIKeys, apiKey)
	return m.Registrar
}

// MockDriverFactory is a test double for DriverFactory
type MockDriverFactory struct {
	Driver driver.Driver
}

func (m *MockDriverFactory) Create(s *config.Settings, exec executor.CommandExecutor) driver.Driver {
	if m.Driver != nil {
		return m.Driver
	}
	return driver.NewMockDriver("nginx", s.SitesAvailable, s.SitesEnabled)
}

// MockSleeper records requested delays without waiting
type MockSleeper struct {
	Sleeps []time.Duration
}

func (m *MockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	m.Sleeps = append(m.Sleeps, d)
	return nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults:
// root access, every tool installed, DNS already converged on 203.0.113.10
func NewMockDeps() *MockDependenciesBuilder {
	settings := config.New()
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			SettingsLoader: &MockSettingsLoader{Settings: settings},
			RootChecker:    &MockRootChecker{IsRoot: true},
			Executor:       &executor.MockExecutor{},
			ResolverFactory: &MockResolverFactory{Resolver: &MockResolver{
				IP:      "203.0.113.10",
				Answers: [][]string{{"203.0.113.10"}},
			}},
			RegistrarFactory: &MockRegistrarFactory{Registrar: &MockRegistrar{}},
			DriverFactory:    &MockDriverFactory{},
			Sleeper:          &MockSleeper{},
		},
	}
}

// WithSettings sets the settings returned by the loader
func (b *MockDependenciesBuilder) WithSettings(s *config.Settings) *MockDependenciesBuilder {
	b.deps.SettingsLoader = &MockSettingsLoader{Settings: s}
	return b
}

// WithRootAccess sets whether root access is available
func (b *MockDependenciesBuilder) WithRootAccess(isRoot bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
	return b
}

// WithExecutor sets the command executor
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithResolver sets the resolver
func (b *MockDependenciesBuilder) WithResolver(r *MockResolver) *MockDependenciesBuilder {
	b.deps.ResolverFactory = &MockResolverFactory{Resolver: r}
	return b
}

// WithRegistrar sets the registrar
func (b *MockDependenciesBuilder) WithRegistrar(r *MockRegistrar) *MockDependenciesBuilder {
	b.deps.RegistrarFactory = &MockRegistrarFactory{Registrar: r}
	return b
}

// WithDriver sets the driver for the mock
func (b *MockDependenciesBuilder) WithDriver(drv driver.Driver) *MockDependenciesBuilder {
	b.deps.DriverFactory = &MockDriverFactory{Driver: drv}
	return b
}

// WithSleeper sets the sleeper
func (b *MockDependenciesBuilder) WithSleeper(s Sleeper) *MockDependenciesBuilder {
	b.deps.Sleeper = s
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// CertbotExecutor returns a MockExecutor whose certbot calls fail with
// status dryRunCode (dry runs) or issueCode (real requests); 0 succeeds
func CertbotExecutor(dryRunCode, issueCode int) *executor.MockExecutor {
	return &executor.MockExecutor{
		ExecuteFunc: func(name string, args ...string) ([]byte, error) {
			if name != "certbot" {
				return nil, nil
			}
			code := issueCode
			if strings.Contains(strings.Join(args, " "), "--dry-run") {
				code = dryRunCode
			}
			if code != 0 {
				return []byte("certbot: challenge failed"), &executor.ExitError{Code: code}
			}
			return []byte("Congratulations!"), nil
		},
	}
}

// TestHelper provides utilities for CLI tests
type TestHelper struct {
	T interface {
		Helper()
		Cleanup(func())
	}
	OldDeps    *Dependencies
	Deps       *Dependencies
	MockDriver *driver.MockDriver
	Executor   *executor.MockExecutor
	Resolver   *MockResolver
	Registrar  *MockRegistrar
	Sleeper    *MockSleeper
	Settings   *config.Settings
}

// NewTestHelper installs mock dependencies and restores the originals on cleanup
func NewTestHelper(t interface {
	Helper()
	Cleanup(func())
}, availableDir, enabledDir string) *TestHelper {
	t.Helper()

	settings := config.New()
	settings.SitesAvailable = availableDir
	settings.SitesEnabled = enabledDir

	helper := &TestHelper{
		T:          t,
		OldDeps:    deps,
		MockDriver: driver.NewMockDriver("nginx", availableDir, enabledDir),
		Executor:   &executor.MockExecutor{},
		Resolver:   &MockResolver{IP: "203.0.113.10", Answers: [][]string{{"203.0.113.10"}}},
		Registrar:  &MockRegistrar{},
		Sleeper:    &MockSleeper{},
		Settings:   settings,
	}

	helper.Deps = NewMockDeps().
		WithSettings(settings).
		WithExecutor(helper.Executor).
		WithResolver(helper.Resolver).
		WithRegistrar(helper.Registrar).
		WithDriver(helper.MockDriver).
		WithSleeper(helper.Sleeper).
		Build()

	deps = helper.Deps

	t.Cleanup(func() {
		deps = helper.OldDeps
	})

	return helper
}

// SetRootAccess sets whether root access is available
func (h *TestHelper) SetRootAccess(isRoot bool) {
	h.Deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
}

// SetExecutor replaces the command executor
func (h *TestHelper) SetExecutor(exec *executor.MockExecutor) {
	h.Executor = exec
	h.Deps.Executor = exec
}

// CertbotCalls returns the recorded certbot invocations
func (h *TestHelper) CertbotCalls() []executor.CommandCall {
	return h.Executor.CallsTo("certbot")
}
