package cli

import "strings"

// longFlags are accepted with a single dash, e.g. -ip or -sub
var longFlags = map[string]bool{
	"domain":   true,
	"apikey":   true,
	"ip":       true,
	"skip-api": true,
	"sub":      true,
	"force":    true,
	"verbose":  true,
	"json":     true,
	"help":     true,
	"version":  true,
}

// valueFlags consume the following token
var valueFlags = map[string]bool{
	"d":      true,
	"a":      true,
	"domain": true,
	"apikey": true,
	"ip":     true,
}

// normalizeArgs rewrites single-dash long flags to their double-dash form
// so pflag does not read -ip as the shorthand cluster -i -p.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	expectValue := false
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if expectValue {
			out = append(out, arg)
			expectValue = false
			continue
		}

		name, hasValue := flagName(arg)
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && longFlags[name] {
			arg = "-" + arg
		}
		if name != "" && valueFlags[name] && !hasValue {
			expectValue = true
		}
		out = append(out, arg)
	}
	return out
}

// flagName returns the flag name of a token and whether it carries an inline value
func flagName(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" {
		return "", false
	}
	name := strings.TrimLeft(arg, "-")
	if eq := strings.IndexByte(name, '='); eq >= 0 {
		return name[:eq], true
	}
	return name, false
}
