// Package errors provides the failure taxonomy of the provisioning pipeline.
//
// Every step of the pipeline reports failure as a *ProvisionError carrying a
// Kind. The CLI prints the error once and exits with ExitCode(err); there is
// no local recovery, so the Kind is mainly there for tests and for the
// --json failure report.
//
// # Sentinel Errors
//
// Each Kind has a sentinel that matches any error of that Kind:
//
//	if errors.Is(err, errors.ErrDNSMismatch) {
//	    // rerun with -f
//	}
//
// # Creating Errors
//
//	return errors.New(errors.KindNoIPAddress, "no IP address found")
//	return errors.Wrap(errors.KindConfigWrite, "failed to write site config", err)
//	return errors.WrapDomain(errors.KindActivationLink, "example.com", "failed to enable site", err)
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure.
type Kind string

// Failure kinds, one per pipeline step that can abort.
const (
	KindUsage             Kind = "UsageError"
	KindMissingDependency Kind = "MissingDependencyError"
	KindNoIPAddress       Kind = "NoIPAddressError"
	KindRegistration      Kind = "RegistrationError"
	KindDNSMismatch       Kind = "DNSMismatchError"
	KindDirectoryWrite    Kind = "DirectoryWriteError"
	KindConfigWrite       Kind = "ConfigWriteError"
	KindServiceRestart    Kind = "ServiceRestartError"
	KindCertDryRun        Kind = "CertDryRunError"
	KindCertIssuance      Kind = "CertIssuanceError"
	KindActivationLink    Kind = "ActivationLinkError"
)

// ProvisionError is a failure of one pipeline step.
type ProvisionError struct {
	Kind    Kind   // Failure category
	Message string // One-line diagnostic
	Domain  string // Domain being provisioned (if known)
	Hint    string // Follow-up advice printed after the diagnostic
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Domain != "" {
		msg = fmt.Sprintf("%s: %s", e.Domain, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ProvisionError of the same Kind.
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUsage             = &ProvisionError{Kind: KindUsage}
	ErrMissingDependency = &ProvisionError{Kind: KindMissingDependency}
	ErrNoIPAddress       = &ProvisionError{Kind: KindNoIPAddress}
	ErrRegistration      = &ProvisionError{Kind: KindRegistration}
	ErrDNSMismatch       = &ProvisionError{Kind: KindDNSMismatch}
	ErrDirectoryWrite    = &ProvisionError{Kind: KindDirectoryWrite}
	ErrConfigWrite       = &ProvisionError{Kind: KindConfigWrite}
	ErrServiceRestart    = &ProvisionError{Kind: KindServiceRestart}
	ErrCertDryRun        = &ProvisionError{Kind: KindCertDryRun}
	ErrCertIssuance      = &ProvisionError{Kind: KindCertIssuance}
	ErrActivationLink    = &ProvisionError{Kind: KindActivationLink}
)

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &ProvisionError{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &ProvisionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &ProvisionError{Kind: kind, Message: msg, Err: err}
}

// WrapDomain is Wrap with domain context.
func WrapDomain(kind Kind, domain, msg string, err error) error {
	return &ProvisionError{Kind: kind, Message: msg, Domain: domain, Err: err}
}

// WithHint attaches follow-up advice to err if it is a *ProvisionError.
func WithHint(err error, hint string) error {
	var pe *ProvisionError
	if As(err, &pe) {
		cp := *pe
		cp.Hint = hint
		return &cp
	}
	return err
}

// KindOf returns the Kind of err, or "" when err is not a *ProvisionError.
func KindOf(err error) Kind {
	var pe *ProvisionError
	if As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// HintOf returns the hint attached to err, if any.
func HintOf(err error) string {
	var pe *ProvisionError
	if As(err, &pe) {
		return pe.Hint
	}
	return ""
}

// ExitCode maps err to the process exit status. There are no finer-grained codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
