// Package resolver queries public DNS servers directly, the way
// `dig @server +time=3 +tries=1` would, without going through the system
// resolver.
//
// It answers the two questions the provisioning pipeline asks of DNS: what
// is this host's public IPv4 address (a TXT "whoami" lookup), and what A
// records does a domain currently have.
package resolver

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/ksyq12/vhost-provision/internal/config"
	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/logger"
)

// Client sends single questions to a named server
type Client struct {
	dns   *dns.Client
	tries int
}

// NewClient creates a UDP client with a per-query timeout and try count
func NewClient(timeout time.Duration, tries int) *Client {
	if tries < 1 {
		tries = 1
	}
	return &Client{
		dns:   &dns.Client{Net: "udp", Timeout: timeout},
		tries: tries,
	}
}

// Query asks server for name/qtype and returns the answer section
func (c *Client) Query(ctx context.Context, name string, qtype uint16, server string) ([]dns.RR, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for try := 1; try <= c.tries; try++ {
		in, rtt, err := c.dns.ExchangeContext(ctx, m, server)
		if err != nil {
			logger.DebugFields("dns query failed", map[string]interface{}{
				"name": name, "server": server, "try": try, "error": err,
			})
			lastErr = err
			continue
		}
		logger.DebugFields("dns query", map[string]interface{}{
			"name": name, "server": server, "type": dns.TypeToString[qtype],
			"rcode": dns.RcodeToString[in.Rcode], "answers": len(in.Answer), "rtt": rtt,
		})
		if in.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("%s %s: %s", dns.TypeToString[qtype], name, dns.RcodeToString[in.Rcode])
		}
		return in.Answer, nil
	}
	return nil, fmt.Errorf("%s %s @%s: %w", dns.TypeToString[qtype], name, server, lastErr)
}

// TXT returns the TXT strings for name with surrounding quotes removed
func (c *Client) TXT(ctx context.Context, name, server string) ([]string, error) {
	answers, err := c.Query(ctx, name, dns.TypeTXT, server)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range answers {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.Trim(strings.Join(txt.Txt, ""), `"`))
		}
	}
	return out, nil
}

// A returns the IPv4 addresses for name
func (c *Client) A(ctx context.Context, name, server string) ([]string, error) {
	answers, err := c.Query(ctx, name, dns.TypeA, server)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range answers {
		if a, ok := rr.(*dns.A); ok {
			out = append(out, a.A.String())
		}
	}
	return out, nil
}

// Resolver is the pipeline's view of public DNS
type Resolver struct {
	client       *Client
	whoamiName   string
	whoamiServer string
	lookupServer string
}

// New creates a Resolver from settings
func New(s config.DNSSettings) *Resolver {
	return &Resolver{
		client:       NewClient(s.Timeout, s.Tries),
		whoamiName:   s.WhoamiName,
		whoamiServer: s.WhoamiServer,
		lookupServer: s.LookupServer,
	}
}

// PublicIP asks the whoami server which address the query came from
func (r *Resolver) PublicIP(ctx context.Context) (string, error) {
	txts, err := r.client.TXT(ctx, r.whoamiName, r.whoamiServer)
	if err != nil {
		return "", err
	}
	if len(txts) == 0 {
		return "", fmt.Errorf("no TXT record for %s", r.whoamiName)
	}
	return strings.TrimSpace(txts[0]), nil
}

// LookupA returns the current A records of domain on the public resolver
func (r *Resolver) LookupA(ctx context.Context, domain string) ([]string, error) {
	return r.client.A(ctx, domain, r.lookupServer)
}

// IPFinder discovers the host's public address
type IPFinder interface {
	PublicIP(ctx context.Context) (string, error)
}

var ipv4Pattern = regexp.MustCompile(`^[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}$`)

// ValidIPv4 reports whether s is a dotted-decimal IPv4 address
func ValidIPv4(s string) bool {
	if !ipv4Pattern.MatchString(s) {
		return false
	}
	return net.ParseIP(s) != nil
}

// ResolveIP returns override when set, otherwise asks finder.
// Either way the result must be a dotted-decimal IPv4 address.
func ResolveIP(ctx context.Context, finder IPFinder, override string) (string, error) {
	ip := override
	if ip == "" {
		found, err := finder.PublicIP(ctx)
		if err != nil {
			return "", perrors.Wrap(perrors.KindNoIPAddress, "no IP address found", err)
		}
		ip = found
	} else {
		logger.Debug("using IP override %s", ip)
	}

	if !ValidIPv4(ip) {
		return "", perrors.Newf(perrors.KindNoIPAddress, "no IP address found (got %q)", ip)
	}
	return ip, nil
}
