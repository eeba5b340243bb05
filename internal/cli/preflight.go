package cli

import (
	"context"
	"fmt"
	"regexp"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/executor"
	"github.com/ksyq12/vhost-provision/internal/logger"
	"github.com/ksyq12/vhost-provision/internal/output"
	"github.com/ksyq12/vhost-provision/internal/ssl"
)

// CheckResult represents a single preflight check result
type CheckResult struct {
	Status  string `json:"status"` // "success" or "error"
	Message string `json:"message"`
}

// PreflightReport contains all preflight results
type PreflightReport struct {
	SystemRequirements []CheckResult `json:"system_requirements"`
	Privileges         []CheckResult `json:"privileges"`

	err error
}

// Err returns the first failed check as an error
func (r *PreflightReport) Err() error {
	return r.err
}

// requiredTool is an external program the pipeline shells out to
type requiredTool struct {
	name    string
	binary  string
	install string
	// installed overrides the PATH lookup
	installed func(executor.CommandExecutor) bool
}

var requiredTools = []requiredTool{
	{"Certbot", "certbot", "apt install certbot python3-certbot-nginx", func(e executor.CommandExecutor) bool {
		return ssl.New(e, "", "").IsInstalled()
	}},
	{"Nginx", "nginx", "apt install nginx", nil},
	{"systemctl", "systemctl", "a systemd-based host is required", nil},
}

func (t requiredTool) check(exec executor.CommandExecutor) bool {
	if t.installed != nil {
		return t.installed(exec)
	}
	_, err := exec.LookPath(t.binary)
	return err == nil
}

var nginxVersionPattern = regexp.MustCompile(`nginx/(\d+\.\d+\.\d+)`)

// runPreflight checks that every required tool is installed and the caller is root
func runPreflight(ctx context.Context, d *Dependencies) *PreflightReport {
	report := &PreflightReport{}
	report.SystemRequirements = checkSystemRequirements(ctx, d.Executor, report)
	report.Privileges = checkPrivileges(d.RootChecker, report)
	return report
}

func checkSystemRequirements(ctx context.Context, exec executor.CommandExecutor, report *PreflightReport) []CheckResult {
	results := []CheckResult{}

	for _, tool := range requiredTools {
		if !tool.check(exec) {
			results = append(results, CheckResult{
				Status:  "error",
				Message: fmt.Sprintf("%s not installed", tool.name),
			})
			if report.err == nil {
				report.err = perrors.WithHint(
					perrors.Newf(perrors.KindMissingDependency, "%s is not installed", tool.binary),
					"Install it with: "+tool.install,
				)
			}
			continue
		}

		msg := fmt.Sprintf("%s installed", tool.name)
		if tool.binary == "nginx" {
			msg = fmt.Sprintf("%s installed (%s)", tool.name, nginxVersion(ctx, exec))
		}
		results = append(results, CheckResult{Status: "success", Message: msg})
	}

	return results
}

// nginxVersion reads the version from nginx -v, which reports on stderr
func nginxVersion(ctx context.Context, exec executor.CommandExecutor) string {
	out, err := exec.Execute(ctx, "nginx", "-v")
	if err != nil {
		logger.Warn("could not read nginx version: %v", err)
		return "unknown"
	}
	if matches := nginxVersionPattern.FindStringSubmatch(string(out)); len(matches) >= 2 {
		return matches[1]
	}
	return "unknown"
}

func checkPrivileges(rc RootChecker, report *PreflightReport) []CheckResult {
	if err := rc.RequireRoot(); err != nil {
		if report.err == nil {
			report.err = err
		}
		return []CheckResult{{Status: "error", Message: "Not running as root"}}
	}
	return []CheckResult{{Status: "success", Message: "Running as root"}}
}

// displayPreflightResults prints the check list. A failed preflight is left
// to the single diagnostic printed by reportError.
func displayPreflightResults(report *PreflightReport) {
	if report.Err() != nil {
		return
	}
	output.Print("Checking system requirements...")
	for _, checks := range [][]CheckResult{report.SystemRequirements, report.Privileges} {
		for _, check := range checks {
			output.Success("%s", check.Message)
		}
	}
	output.Print("")
}
