// Package provider defines the port interface for construction-management
// platforms (Procore, Autodesk Construction Cloud, Fieldwire).
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNotSupported is returned when a provider does not support the requested operation.
var ErrNotSupported = errors.New("operation not supported by this provider")

// Project identifies a project on a provider.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is a normalized issue record. Fields maps field name to the
// unwrapped scalar value: adapters strip any provider metadata envelope
// (e.g. {value, timestamp} nesting) so the engine never special-cases
// provider quirks.
type Issue struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Title returns the issue's title field, if the provider exposes one.
func (i *Issue) Title() string {
	s, _ := i.Fields["title"].(string)
	return s
}

// FieldCatalog describes the fields a provider exposes for a data type,
// keyed by field name with a semantic type tag as value (see the mapping
// validator for the closed tag set).
type FieldCatalog map[string]string

// Capabilities declares what a provider supports.
type Capabilities struct {
	ListProjects bool `json:"list_projects"`
	ListIssues   bool `json:"list_issues"`
	CreateIssue  bool `json:"create_issue"`
}

// TokenSource supplies a valid bearer token for outbound calls. The token
// manager implements this; adapters must call it per request rather than
// caching, so proactive refresh stays transparent.
type TokenSource interface {
	Bearer(ctx context.Context) (string, error)
}

// Config carries the per-connection settings an adapter factory needs.
type Config struct {
	BaseURL   string
	Tokens    TokenSource
	CompanyID string        // multi-tenant scoping, required by some providers for writes
	Timeout   time.Duration // per HTTP call; adapters fall back to 30s when zero
}

// Provider is the port interface for construction-management platforms.
// Each implementation owns its provider's quirks: response unwrapping,
// accepted-field whitelists, date normalization, and sentinel handling.
type Provider interface {
	// Name returns the provider identifier (e.g. "procore", "acc", "fieldwire").
	Name() string

	// Capabilities returns what this provider supports.
	Capabilities() Capabilities

	// ListProjects enumerates the projects visible to the credential.
	ListProjects(ctx context.Context) ([]Project, error)

	// ListIssues returns normalized issues for a project.
	ListIssues(ctx context.Context, projectID string) ([]Issue, error)

	// CreateIssue creates an issue from the given fields. Fields outside the
	// provider's accepted-field whitelist are stripped before transmission.
	CreateIssue(ctx context.Context, projectID string, fields map[string]any) (*Issue, error)
}
