package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhost-provision/internal/config"
	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/logger"
	"github.com/ksyq12/vhost-provision/internal/output"
)

var version = "dev"

// options are the parsed command line flags of one invocation
type options struct {
	flags      config.RequestFlags
	jsonOutput bool
	verbose    bool
}

// newRootCmd builds the provisioning command with fresh flag state
func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vhost-provision -d <domain> [-a <apikey>] [flags]",
		Short: "Provision a TLS-enabled nginx virtual host",
		Long: `vhost-provision sets up an nginx virtual host with a Let's Encrypt
certificate in one run.

It resolves this host's public IP, optionally registers the domain with the
registrar API, waits for DNS to point at this host, writes the nginx site,
obtains a certificate with certbot and activates the HTTPS configuration.

Examples:
  vhost-provision -d example.com -a KEY123
  vhost-provision -d example.com -a KEY123 -ip 203.0.113.10
  vhost-provision -d blog.example.com -sub
  vhost-provision -d example.com -s -f`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return perrors.Newf(perrors.KindUsage, "unexpected argument %q", args[0])
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), opts)
		},
	}

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return perrors.Wrap(perrors.KindUsage, "invalid arguments", err)
	})

	f := cmd.Flags()
	f.StringVarP(&opts.flags.Domain, "domain", "d", "", "Domain to provision (leading www. is stripped)")
	f.StringVarP(&opts.flags.APIKey, "apikey", "a", "", "Registrar API key (required unless --sub)")
	f.StringVar(&opts.flags.IP, "ip", "", "Use this IPv4 address instead of discovering it")
	f.BoolVarP(&opts.flags.SkipAPI, "skip-api", "s", false, "Skip the registrar API call")
	f.BoolVar(&opts.flags.Subdomain, "sub", false, "Domain is a subdomain: no www alias, no registration")
	f.BoolVarP(&opts.flags.Force, "force", "f", false, "Skip DNS propagation verification")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging for debugging")

	return cmd
}

// Execute runs the command against os.Args and returns the process exit code
func Execute() int {
	return run(context.Background(), os.Args[1:])
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(normalizeArgs(args))

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		reportError(cmd, err)
	}
	return perrors.ExitCode(err)
}

// reportError prints the one-line diagnostic, its hint and, for usage errors, the usage text
func reportError(cmd *cobra.Command, err error) {
	output.Error("%s", err)
	if hint := perrors.HintOf(err); hint != "" {
		output.Hint("%s", hint)
	}
	if perrors.Is(err, perrors.ErrUsage) {
		output.Usage(cmd.UsageString())
	}
	logger.DebugFields("provisioning aborted", map[string]interface{}{
		"kind":  string(perrors.KindOf(err)),
		"error": err.Error(),
	})
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}
