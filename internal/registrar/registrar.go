// Package registrar registers a domain and its IP with the DNS registrar API.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/logger"
)

// Registrar creates or updates the DNS record of a domain
type Registrar interface {
	Register(ctx context.Context, domain, ip string) error
}

// Record is the request body sent to the registrar
type Record struct {
	Domain string `json:"domain"`
	IP     string `json:"ip"`
}

// Client talks to the registrar over HTTPS with bearer authentication
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client. Redirects are not followed; a redirect is a failure.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Register posts {domain, ip} to the registrar endpoint
func (c *Client) Register(ctx context.Context, domain, ip string) error {
	body, err := json.Marshal(Record{Domain: domain, IP: ip})
	if err != nil {
		return perrors.WrapDomain(perrors.KindRegistration, domain, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return perrors.WrapDomain(perrors.KindRegistration, domain, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.DebugFields("registrar request", map[string]interface{}{
		"endpoint": c.endpoint, "domain": domain, "ip": ip,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return perrors.WrapDomain(perrors.KindRegistration, domain, "registrar request failed", err)
	}
	defer resp.Body.Close()

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	logger.DebugFields("registrar response", map[string]interface{}{
		"status": resp.StatusCode, "body": strings.TrimSpace(string(detail)),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("registrar returned %s", resp.Status)
		if d := strings.TrimSpace(string(detail)); d != "" {
			msg += ": " + d
		}
		return &perrors.ProvisionError{Kind: perrors.KindRegistration, Domain: domain, Message: msg}
	}
	return nil
}
