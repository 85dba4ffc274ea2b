package dependency

import (
	"context"
	"errors"
)

// Type tells production dependencies from development-only ones.
type Type string

const (
	Prod Type = "prod"
	Dev  Type = "dev"
)

// Record is one declared dependency. Vulnerabilities and Outdated are nil
// when unknown, which is distinct from an audited zero or false.
type Record struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Type            Type   `json:"type"`
	Vulnerabilities *int   `json:"vulnerabilities,omitempty"`
	Outdated        *bool  `json:"outdated,omitempty"`
}

// Result is the dependency summary of a project.
type Result struct {
	Dependencies    []Record `json:"dependencies"`
	DependencyCount int      `json:"dependencyCount"`
	HasPackageLock  bool     `json:"hasPackageLock"`
	Manifest        string   `json:"manifest,omitempty"`
	Audited         bool     `json:"audited"`
}

// Vulnerable returns the names of records with at least one known
// vulnerability, in record order.
func (r Result) Vulnerable() []string {
	var names []string
	for _, d := range r.Dependencies {
		if d.Vulnerabilities != nil && *d.Vulnerabilities > 0 {
			names = append(names, d.Name)
		}
	}
	return names
}

// Request describes the manifest handed to an audit collaborator.
type Request struct {
	Dir          string
	Manifest     string
	Dependencies []Record
}

// Auditor looks up vulnerability counts for declared dependencies.
// A dependency missing from the returned map is unknown, not clean.
type Auditor interface {
	Audit(ctx context.Context, req Request) (map[string]int, error)
}

// OutdatedChecker reports which dependencies have newer releases.
// A dependency missing from the returned map is unknown.
type OutdatedChecker interface {
	Outdated(ctx context.Context, req Request) (map[string]bool, error)
}

// ErrUnsupportedManifest is returned by collaborators that cannot handle
// the manifest kind in a Request.
var ErrUnsupportedManifest = errors.New("unsupported manifest")
