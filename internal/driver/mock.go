package driver

import (
	"context"
	"path/filepath"
)

// MockDriver is a test double for Driver interface
type MockDriver struct {
	name  string
	paths Paths

	// Function mocks - set these to customize behavior
	WriteSiteFunc     func(domain, content string) error
	EnsureWebRootFunc func(domain string) error
	EnableFunc        func(domain string) error
	RestartFunc       func() error

	// Call tracking - check these to verify interactions
	WriteSiteCalls     []WriteSiteCall
	EnsureWebRootCalls []string
	EnableCalls        []string
	RestartCalls       int

	// Events lists every call in order, e.g. "write:example.com", "restart"
	Events []string
}

// WriteSiteCall records arguments passed to WriteSite
type WriteSiteCall struct {
	Domain  string
	Content string
}

// NewMockDriver creates a new MockDriver with default no-op implementations
func NewMockDriver(name, availableDir, enabledDir string) *MockDriver {
	return &MockDriver{
		name: name,
		paths: Paths{
			Available: availableDir,
			Enabled:   enabledDir,
			WebRoot:   "/var/www",
		},
		WriteSiteCalls:     make([]WriteSiteCall, 0),
		EnsureWebRootCalls: make([]string, 0),
		EnableCalls:        make([]string, 0),
	}
}

// Name returns the driver name
func (m *MockDriver) Name() string {
	return m.name
}

// Paths returns the configured paths
func (m *MockDriver) Paths() Paths {
	return m.paths
}

// WriteSite records the call and invokes the mock function if set
func (m *MockDriver) WriteSite(domain, content string) (string, error) {
	m.WriteSiteCalls = append(m.WriteSiteCalls, WriteSiteCall{Domain: domain, Content: content})
	m.Events = append(m.Events, "write:"+domain)
	if m.WriteSiteFunc != nil {
		if err := m.WriteSiteFunc(domain, content); err != nil {
			return "", err
		}
	}
	return filepath.Join(m.paths.Available, domain), nil
}

// EnsureWebRoot records the call and invokes the mock function if set
func (m *MockDriver) EnsureWebRoot(domain string) (string, error) {
	m.EnsureWebRootCalls = append(m.EnsureWebRootCalls, domain)
	m.Events = append(m.Events, "webroot:"+domain)
	if m.EnsureWebRootFunc != nil {
		if err := m.EnsureWebRootFunc(domain); err != nil {
			return "", err
		}
	}
	return filepath.Join(m.paths.WebRoot, domain), nil
}

// Enable records the call and invokes the mock function if set
func (m *MockDriver) Enable(domain string) error {
	m.EnableCalls = append(m.EnableCalls, domain)
	m.Events = append(m.Events, "enable:"+domain)
	if m.EnableFunc != nil {
		return m.EnableFunc(domain)
	}
	return nil
}

// Restart records the call and invokes the mock function if set
func (m *MockDriver) Restart(ctx context.Context) error {
	m.RestartCalls++
	m.Events = append(m.Events, "restart")
	if m.RestartFunc != nil {
		return m.RestartFunc()
	}
	return nil
}

// LastContent returns the most recently written site definition
func (m *MockDriver) LastContent() string {
	if len(m.WriteSiteCalls) == 0 {
		return ""
	}
	return m.WriteSiteCalls[len(m.WriteSiteCalls)-1].Content
}
