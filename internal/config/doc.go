// Package config holds the two values every pipeline step receives: the
// per-run Request built from command-line flags, and the Settings describing
// where things live on this host.
//
// # Request
//
// A Request is constructed once by NewRequest and passed by value. The only
// field filled in later is the IP, through WithIP, which returns a copy:
//
//	req, err := config.NewRequest(config.RequestFlags{Domain: "www.example.com", APIKey: key})
//	// req.Domain == "example.com"
//	req = req.WithIP("203.0.113.7")
//	req.CertDomains() // [example.com www.example.com]
//
// # Settings
//
// Settings start from the conventional Debian nginx/certbot layout and can be
// overridden, in order, by:
//   - a YAML file at /etc/vhost-provision/config.yaml (or $VHOST_PROVISION_CONFIG)
//   - a .env file in the working directory
//   - VHOST_PROVISION_* environment variables
//
// Example config.yaml:
//
//	sites_available: /etc/nginx/sites-available
//	sites_enabled: /etc/nginx/sites-enabled
//	web_root: /var/www
//	dns:
//	  lookup_server: 1.1.1.1:53
//	  poll_attempts: 60
//	registrar:
//	  url: https://registrar.example/api/domains
//	cert:
//	  email: admin@example.com
//
// The same keys as environment variables:
//
//	VHOST_PROVISION_DNS_LOOKUP_SERVER=1.1.1.1:53
//	VHOST_PROVISION_CERT_EMAIL=admin@example.com
package config
