// Package driver manages the nginx side of provisioning: site definition
// files, document roots, activation links and service restarts.
//
// # Layout
//
// Nginx follows the Debian sites-available/sites-enabled pattern:
//
//	/etc/nginx/sites-available/<domain>   site definition
//	/etc/nginx/sites-enabled/<domain>     symlink to the above
//	/var/www/<domain>                     document root
//
// # Basic Usage
//
//	drv := driver.NewNginx(config.New(), executor.NewSystemExecutor())
//
//	path, err := drv.WriteSite("example.com", content)
//	root, err := drv.EnsureWebRoot("example.com")
//	err = drv.Restart(ctx)
//	err = drv.Enable("example.com")
//
// Enable does not check for an existing link; enabling twice fails with an
// ActivationLinkError.
//
// # Testing
//
// MockDriver records every call, in order, in Events:
//
//	mock := driver.NewMockDriver("nginx", "/tmp/available", "/tmp/enabled")
//	mock.RestartFunc = func() error { return errors.New("failed") }
package driver
