package config

import (
	"reflect"
	"strings"
	"testing"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name     string
		flags    RequestFlags
		wantErr  bool
		validate func(*testing.T, Request)
	}{
		{
			name:  "domain and key",
			flags: RequestFlags{Domain: "example.com", APIKey: "KEY123"},
			validate: func(t *testing.T, r Request) {
				if r.Domain != "example.com" || r.APIKey != "KEY123" {
					t.Errorf("unexpected request: %+v", r)
				}
				if !r.UseRegistrarAPI || r.IsSubdomain || r.SkipDNSVerify {
					t.Errorf("unexpected flags: %+v", r)
				}
			},
		},
		{
			name:  "www prefix stripped",
			flags: RequestFlags{Domain: "www.example.com", APIKey: "k"},
			validate: func(t *testing.T, r Request) {
				if r.Domain != "example.com" {
					t.Errorf("expected example.com, got %s", r.Domain)
				}
			},
		},
		{
			name:  "subdomain without key",
			flags: RequestFlags{Domain: "app.example.com", Subdomain: true},
			validate: func(t *testing.T, r Request) {
				if !r.IsSubdomain || r.APIKey != "" {
					t.Errorf("unexpected request: %+v", r)
				}
			},
		},
		{
			name:  "skip api and force",
			flags: RequestFlags{Domain: "example.com", APIKey: "k", SkipAPI: true, Force: true, IP: " 203.0.113.7 "},
			validate: func(t *testing.T, r Request) {
				if r.UseRegistrarAPI || !r.SkipDNSVerify {
					t.Errorf("unexpected flags: %+v", r)
				}
				if r.IP != "203.0.113.7" {
					t.Errorf("expected trimmed IP, got %q", r.IP)
				}
			},
		},
		{name: "no domain", flags: RequestFlags{APIKey: "k"}, wantErr: true},
		{name: "only www prefix", flags: RequestFlags{Domain: "www.", APIKey: "k"}, wantErr: true},
		{name: "no key without sub", flags: RequestFlags{Domain: "example.com"}, wantErr: true},
		{name: "no key with skip api", flags: RequestFlags{Domain: "example.com", SkipAPI: true}, wantErr: true},
		{name: "domain with space", flags: RequestFlags{Domain: "exa mple.com", APIKey: "k"}, wantErr: true},
		{name: "domain with slash", flags: RequestFlags{Domain: "../etc/passwd", APIKey: "k"}, wantErr: true},
		{name: "leading hyphen", flags: RequestFlags{Domain: "-example.com", APIKey: "k"}, wantErr: true},
		{name: "trailing semicolon", flags: RequestFlags{Domain: "example.com;", APIKey: "k"}, wantErr: true},
		{name: "braces", flags: RequestFlags{Domain: "a{b}.com", APIKey: "k"}, wantErr: true},
		{name: "injected server block", flags: RequestFlags{Domain: "evil.com;}server{listen;root", APIKey: "k"}, wantErr: true},
		{name: "label hyphen edge", flags: RequestFlags{Domain: "app-.example.com", APIKey: "k"}, wantErr: true},
		{name: "label too long", flags: RequestFlags{Domain: strings.Repeat("a", 64) + ".com", APIKey: "k"}, wantErr: true},
		{name: "underscore", flags: RequestFlags{Domain: "my_site.com", APIKey: "k"}, wantErr: true},
		{
			name:  "hyphens and digits",
			flags: RequestFlags{Domain: "my-site2.example.com", Subdomain: true},
			validate: func(t *testing.T, r Request) {
				if r.Domain != "my-site2.example.com" {
					t.Errorf("unexpected domain: %s", r.Domain)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRequest(tt.flags)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !perrors.Is(err, perrors.ErrUsage) {
					t.Errorf("expected UsageError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, r)
			}
		})
	}
}

func TestNewRequest_NoDomainMessage(t *testing.T) {
	_, err := NewRequest(RequestFlags{})
	if err == nil || err.Error() != "no domain specified (use -d <domain>)" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRequest_WithIP(t *testing.T) {
	r, _ := NewRequest(RequestFlags{Domain: "example.com", APIKey: "k"})
	r2 := r.WithIP("198.51.100.1")

	if r.IP != "" {
		t.Error("WithIP should not modify the original")
	}
	if r2.IP != "198.51.100.1" || r2.Domain != "example.com" {
		t.Errorf("unexpected copy: %+v", r2)
	}
}

func TestRequest_Derived(t *testing.T) {
	apex := Request{Domain: "example.com", UseRegistrarAPI: true}
	sub := Request{Domain: "app.example.com", IsSubdomain: true, UseRegistrarAPI: true}

	if apex.WWWAlias() != "www.example.com" || sub.WWWAlias() != "" {
		t.Errorf("unexpected aliases: %q %q", apex.WWWAlias(), sub.WWWAlias())
	}
	if apex.ServerNameAlias() != "server_name www.example.com;" {
		t.Errorf("unexpected alias line: %q", apex.ServerNameAlias())
	}
	if sub.ServerNameAlias() != "" {
		t.Errorf("subdomain should have no alias line: %q", sub.ServerNameAlias())
	}
	if !reflect.DeepEqual(apex.CertDomains(), []string{"example.com", "www.example.com"}) {
		t.Errorf("unexpected cert domains: %v", apex.CertDomains())
	}
	if !reflect.DeepEqual(sub.CertDomains(), []string{"app.example.com"}) {
		t.Errorf("unexpected cert domains: %v", sub.CertDomains())
	}
	if !apex.RegistrationEnabled() {
		t.Error("apex with api should register")
	}
	if sub.RegistrationEnabled() {
		t.Error("subdomain should never register")
	}
	apex.UseRegistrarAPI = false
	if apex.RegistrationEnabled() {
		t.Error("-s should disable registration")
	}
}
