package config

import (
	"regexp"
	"strings"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
)

// RequestFlags are the raw command-line values a Request is built from
type RequestFlags struct {
	Domain    string
	APIKey    string
	IP        string
	SkipAPI   bool
	Subdomain bool
	Force     bool
}

// Request is one provisioning run. Treat it as immutable; WithIP returns a copy.
type Request struct {
	Domain          string `json:"domain"`
	APIKey          string `json:"-"`
	IP              string `json:"ip,omitempty"`
	UseRegistrarAPI bool   `json:"use_registrar_api"`
	IsSubdomain     bool   `json:"is_subdomain"`
	SkipDNSVerify   bool   `json:"skip_dns_verify"`
}

// NewRequest validates flags and builds the Request
func NewRequest(f RequestFlags) (Request, error) {
	domain := NormalizeDomain(f.Domain)
	if domain == "" {
		return Request{}, perrors.New(perrors.KindUsage, "no domain specified (use -d <domain>)")
	}
	if err := ValidateDomain(domain); err != nil {
		return Request{}, err
	}
	if f.APIKey == "" && !f.Subdomain {
		return Request{}, perrors.New(perrors.KindUsage, "no API key specified (use -a <apikey>, or -sub for a subdomain)")
	}

	return Request{
		Domain:          domain,
		APIKey:          f.APIKey,
		IP:              strings.TrimSpace(f.IP),
		UseRegistrarAPI: !f.SkipAPI,
		IsSubdomain:     f.Subdomain,
		SkipDNSVerify:   f.Force,
	}, nil
}

// NormalizeDomain trims whitespace and strips a leading "www."
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	return strings.TrimPrefix(domain, "www.")
}

// domainLabel is one DNS label: letters, digits and inner hyphens, up to 63 chars
var domainLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

// ValidateDomain checks if domain is usable as a file name, server_name and
// certbot argument. Only hostname characters are accepted.
func ValidateDomain(domain string) error {
	switch {
	case domain == "":
		return perrors.New(perrors.KindUsage, "domain cannot be empty")
	case len(domain) > 253:
		return perrors.Newf(perrors.KindUsage, "invalid domain %q: longer than 253 characters", domain)
	case strings.ContainsAny(domain, " \t/\\"):
		return perrors.Newf(perrors.KindUsage, "invalid domain %q: contains whitespace or path separators", domain)
	case strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-"):
		return perrors.Newf(perrors.KindUsage, "invalid domain %q: cannot start or end with hyphen", domain)
	case strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") || strings.Contains(domain, ".."):
		return perrors.Newf(perrors.KindUsage, "invalid domain %q: empty label", domain)
	}
	for _, label := range strings.Split(domain, ".") {
		if !domainLabel.MatchString(label) {
			return perrors.Newf(perrors.KindUsage, "invalid domain %q: label %q may only contain letters, digits and hyphens", domain, label)
		}
	}
	return nil
}

// WithIP returns a copy of r with the target IP set
func (r Request) WithIP(ip string) Request {
	r.IP = ip
	return r
}

// RegistrationEnabled reports whether the registrar API should be called
func (r Request) RegistrationEnabled() bool {
	return r.UseRegistrarAPI && !r.IsSubdomain
}

// WWWAlias returns "www.<domain>", or "" for subdomains
func (r Request) WWWAlias() string {
	if r.IsSubdomain {
		return ""
	}
	return "www." + r.Domain
}

// ServerNameAlias returns the extra server_name directive for the www alias
func (r Request) ServerNameAlias() string {
	alias := r.WWWAlias()
	if alias == "" {
		return ""
	}
	return "server_name " + alias + ";"
}

// CertDomains returns the domains the certificate must cover
func (r Request) CertDomains() []string {
	if alias := r.WWWAlias(); alias != "" {
		return []string{r.Domain, alias}
	}
	return []string{r.Domain}
}
