// Package assess enriches discovered devices with a hardware/software
// profile through a prioritized chain of introspection protocols.
//
// Each protocol is an Assessor producing a tagged Outcome: Unreached when
// the transport never answered, Failed when it answered but introspection
// broke, Success with a profile otherwise. The engine tries assessors in
// a fixed priority order (ssh, winrm, basic scan) and stops at the first
// success; a device no method could reach is dropped from the assessed
// set rather than recorded as failed.
package assess

import (
	"context"

	"subnetier/internal/domain"
)

// Status tags an assessment outcome
type Status int

const (
	// StatusUnreached - the protocol's transport never answered
	StatusUnreached Status = iota
	// StatusSuccess - introspection produced a profile
	StatusSuccess
	// StatusFailed - the transport answered but introspection failed
	StatusFailed
)

// Outcome is the tagged result of one assessor attempt
type Outcome struct {
	Status  Status
	Profile *Profile
	Err     error
}

// Unreached reports a transport that never answered
func Unreached() Outcome {
	return Outcome{Status: StatusUnreached}
}

// Success wraps a gathered profile
func Success(p *Profile) Outcome {
	return Outcome{Status: StatusSuccess, Profile: p}
}

// Failed reports a reachable transport whose introspection broke
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Profile is the normalized result of one introspection method. Fields a
// method could not retrieve stay nil; they are never fabricated and never
// merged across methods.
type Profile struct {
	Method          domain.AssessmentMethod
	OperatingSystem *domain.OperatingSystem
	Hardware        *domain.Hardware
	Software        *domain.Software
	ReachablePorts  []int
}

// Assessor is one introspection protocol in the fallback chain
type Assessor interface {
	// Method identifies the protocol in assessed records
	Method() domain.AssessmentMethod

	// Assess attempts to profile the device. Implementations keep their
	// individual queries best-effort: one failed query leaves its field
	// null instead of aborting the rest.
	Assess(ctx context.Context, dev domain.DiscoveredDevice) Outcome
}

// Credentials carries the remote login material shared by the SSH and
// WinRM assessors.
type Credentials struct {
	Username string
	Password string
	KeyFile  string
	// Domain switches WinRM to NTLM authentication when set
	Domain string
	// UseHTTPS selects the TLS WinRM endpoint (port 5986)
	UseHTTPS bool
}
