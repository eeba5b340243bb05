package ssl

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/executor"
)

func TestIsInstalled(t *testing.T) {
	t.Run("certbot installed", func(t *testing.T) {
		mock := &executor.MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				if file == "certbot" {
					return "/usr/bin/certbot", nil
				}
				return "", errors.New("not found")
			},
		}
		if !New(mock, "", "").IsInstalled() {
			t.Error("IsInstalled should return true")
		}
	})

	t.Run("certbot not installed", func(t *testing.T) {
		mock := &executor.MockExecutor{
			LookPathFunc: func(file string) (string, error) {
				return "", errors.New("not found")
			},
		}
		if New(mock, "", "").IsInstalled() {
			t.Error("IsInstalled should return false")
		}
	})
}

func TestGetCertPaths(t *testing.T) {
	cert := GetCertPaths("", "example.com")

	if cert.Domain != "example.com" {
		t.Errorf("expected domain example.com, got %s", cert.Domain)
	}
	if cert.CertPath != "/etc/letsencrypt/live/example.com/fullchain.pem" {
		t.Errorf("unexpected cert path: %s", cert.CertPath)
	}
	if cert.KeyPath != "/etc/letsencrypt/live/example.com/privkey.pem" {
		t.Errorf("unexpected key path: %s", cert.KeyPath)
	}

	custom := GetCertPaths("/tmp/live", "example.com")
	if custom.CertPath != "/tmp/live/example.com/fullchain.pem" {
		t.Errorf("unexpected cert path: %s", custom.CertPath)
	}
}

func TestArgs(t *testing.T) {
	testCases := []struct {
		name     string
		email    string
		domains  []string
		dryRun   bool
		expected []string
	}{
		{
			name:    "dry run with alias",
			domains: []string{"example.com", "www.example.com"},
			dryRun:  true,
			expected: []string{
				"--nginx", "-d", "example.com,www.example.com", "--dry-run",
				"--non-interactive", "--agree-tos", "--register-unsafely-without-email",
			},
		},
		{
			name:    "real issuance with email",
			email:   "admin@example.com",
			domains: []string{"blog.example.com"},
			expected: []string{
				"--nginx", "-d", "blog.example.com",
				"--non-interactive", "--agree-tos", "--email", "admin@example.com",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := New(&executor.MockExecutor{}, tc.email, "").Args(tc.domains, tc.dryRun)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestDryRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		cb := New(mock, "", "")
		if err := cb.DryRun(context.Background(), "example.com", []string{"example.com"}); err != nil {
			t.Fatalf("DryRun failed: %v", err)
		}

		calls := mock.CallsTo("certbot")
		if len(calls) != 1 {
			t.Fatalf("expected 1 certbot call, got %d", len(calls))
		}
		if !contains(calls[0].Args, "--dry-run") {
			t.Errorf("dry run must pass --dry-run: %v", calls[0].Args)
		}
	})

	t.Run("failure carries exit status", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return []byte("Challenge failed for domain example.com\n"), &executor.ExitError{Code: 1}
			},
		}
		err := New(mock, "", "").DryRun(context.Background(), "example.com", []string{"example.com"})
		if !perrors.Is(err, perrors.ErrCertDryRun) {
			t.Fatalf("expected CertDryRunError, got %v", err)
		}
		if !strings.Contains(err.Error(), "exit status 1") {
			t.Errorf("error should carry exit status: %v", err)
		}
		if !strings.Contains(err.Error(), "Challenge failed") {
			t.Errorf("error should carry certbot output: %v", err)
		}
	})
}

func TestIssue(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &executor.MockExecutor{}
		cert, err := New(mock, "a@example.com", "/tmp/live").Issue(context.Background(), "example.com", []string{"example.com", "www.example.com"})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if cert.CertPath != "/tmp/live/example.com/fullchain.pem" {
			t.Errorf("unexpected cert path: %s", cert.CertPath)
		}
		calls := mock.CallsTo("certbot")
		if len(calls) != 1 || contains(calls[0].Args, "--dry-run") {
			t.Errorf("expected one real certbot call, got %v", calls)
		}
	})

	t.Run("failure", func(t *testing.T) {
		mock := &executor.MockExecutor{
			ExecuteFunc: func(name string, args ...string) ([]byte, error) {
				return nil, &executor.ExitError{Code: 2}
			},
		}
		_, err := New(mock, "", "").Issue(context.Background(), "example.com", []string{"example.com"})
		if !perrors.Is(err, perrors.ErrCertIssuance) {
			t.Fatalf("expected CertIssuanceError, got %v", err)
		}
		if !strings.Contains(err.Error(), "exit status 2") {
			t.Errorf("error should carry exit status: %v", err)
		}
	})
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
