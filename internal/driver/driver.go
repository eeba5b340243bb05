package driver

import "context"

// Driver is the interface the provisioning pipeline uses to manage a web server
type Driver interface {
	// Name returns the driver name
	Name() string

	// WriteSite writes a site definition to the available directory and returns its path
	WriteSite(domain, content string) (string, error)

	// EnsureWebRoot creates the document root and checks it is writable
	EnsureWebRoot(domain string) (string, error)

	// Enable activates a site by linking it into the enabled directory
	Enable(domain string) error

	// Restart restarts the web server service
	Restart(ctx context.Context) error

	// Paths returns the driver's config paths
	Paths() Paths
}

// Paths contains the web server config directory paths
type Paths struct {
	Available string // config available directory
	Enabled   string // config enabled directory
	WebRoot   string // parent of per-domain document roots
}
