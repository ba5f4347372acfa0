// Package procore implements a provider.Provider for Procore using its REST API.
package procore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/brixworks/sitesync/internal/adapter/rest"
	"github.com/brixworks/sitesync/internal/port/provider"
)

const providerName = "procore"

// createWhitelist is the accepted-field set for issue creation. Procore
// rejects payloads carrying unknown keys, and its issue responses include
// read-only bookkeeping fields that must never be echoed back.
var createWhitelist = map[string]bool{
	"title":       true,
	"description": true,
	"status":      true,
	"due_date":    true,
	"priority":    true,
	"assignee_id": true,
	"trade":       true,
	"location":    true,
}

// Provider implements provider.Provider for Procore.
type Provider struct {
	client    *rest.Client
	companyID string
}

// NewProvider creates a Procore provider. companyID scopes write calls to a
// Procore company; reads work without it.
func NewProvider(baseURL string, tokens provider.TokenSource, companyID string, timeout time.Duration) *Provider {
	return &Provider{
		client:    rest.New(providerName, baseURL, tokens, timeout),
		companyID: companyID,
	}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{ListProjects: true, ListIssues: true, CreateIssue: true}
}

// procoreProject mirrors the JSON shape of GET /rest/v1.0/projects.
type procoreProject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// procoreIssue mirrors the JSON shape of Procore's issue endpoints.
// Custom fields arrive wrapped in a {value, updated_at} envelope.
type procoreIssue struct {
	ID           int64                    `json:"id"`
	Title        string                   `json:"title"`
	Description  string                   `json:"description"`
	Status       string                   `json:"status"`
	Priority     string                   `json:"priority"`
	DueDate      string                   `json:"due_date"`
	Trade        string                   `json:"trade"`
	Location     string                   `json:"location"`
	CustomFields map[string]procoreCustom `json:"custom_fields"`
}

type procoreCustom struct {
	Value     any    `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

func (p *Provider) ListProjects(ctx context.Context) ([]provider.Project, error) {
	body, err := p.client.Get(ctx, "/rest/v1.0/projects", nil, p.companyHeader())
	if err != nil {
		return nil, fmt.Errorf("procore list projects: %w", err)
	}

	var raw []procoreProject
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("procore parse projects: %w", err)
	}

	projects := make([]provider.Project, 0, len(raw))
	for _, pr := range raw {
		projects = append(projects, provider.Project{ID: fmt.Sprintf("%d", pr.ID), Name: pr.Name})
	}
	return projects, nil
}

func (p *Provider) ListIssues(ctx context.Context, projectID string) ([]provider.Issue, error) {
	query := url.Values{"project_id": {projectID}}
	body, err := p.client.Get(ctx, "/rest/v1.0/issues", query, p.companyHeader())
	if err != nil {
		return nil, fmt.Errorf("procore list issues: %w", err)
	}

	var raw []procoreIssue
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("procore parse issues: %w", err)
	}

	issues := make([]provider.Issue, 0, len(raw))
	for i := range raw {
		issues = append(issues, issueToRecord(&raw[i]))
	}
	return issues, nil
}

func (p *Provider) CreateIssue(ctx context.Context, projectID string, fields map[string]any) (*provider.Issue, error) {
	payload := provider.WhitelistFields(fields, createWhitelist)
	if date, ok := payload["due_date"]; ok {
		if normalized, valid := provider.NormalizeDate(date); valid {
			payload["due_date"] = normalized
		} else {
			delete(payload, "due_date")
		}
	}
	payload["project_id"] = projectID

	body, err := p.client.Post(ctx, "/rest/v1.0/issues", map[string]any{"issue": payload}, p.companyHeader())
	if err != nil {
		return nil, fmt.Errorf("procore create issue: %w", err)
	}

	var created procoreIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("procore parse created issue: %w", err)
	}

	issue := issueToRecord(&created)
	return &issue, nil
}

// companyHeader returns the multi-tenant scoping header Procore requires.
func (p *Provider) companyHeader() http.Header {
	if p.companyID == "" {
		return nil
	}
	return http.Header{"Procore-Company-Id": {p.companyID}}
}

// issueToRecord flattens a Procore issue into the normalized record shape,
// unwrapping custom field envelopes to their bare values.
func issueToRecord(issue *procoreIssue) provider.Issue {
	fields := map[string]any{
		"title":       issue.Title,
		"description": issue.Description,
		"status":      issue.Status,
		"priority":    issue.Priority,
		"trade":       issue.Trade,
		"location":    issue.Location,
	}
	if date, ok := provider.NormalizeDate(issue.DueDate); ok {
		fields["due_date"] = date
	}
	for name, cf := range issue.CustomFields {
		fields[name] = cf.Value
	}
	return provider.Issue{ID: fmt.Sprintf("%d", issue.ID), Fields: fields}
}
