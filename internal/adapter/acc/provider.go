// Package acc implements a provider.Provider for Autodesk Construction Cloud.
// Project discovery is two-step: hubs are enumerated first, then each hub's
// projects. Issue payloads nest their fields in a JSON:API style attributes
// envelope that this adapter unwraps.
package acc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brixworks/sitesync/internal/adapter/rest"
	"github.com/brixworks/sitesync/internal/port/provider"
)

const providerName = "acc"

// createWhitelist is the accepted-field set for issue creation. ACC issue
// responses expose read-only fields (createdBy, permittedActions, ...) that
// must never be echoed back on create.
var createWhitelist = map[string]bool{
	"title":          true,
	"description":    true,
	"status":         true,
	"dueDate":        true,
	"assignedTo":     true,
	"issueSubtypeId": true,
}

// Provider implements provider.Provider for Autodesk Construction Cloud.
type Provider struct {
	client *rest.Client
}

// NewProvider creates an ACC provider against the given API base URL.
func NewProvider(baseURL string, tokens provider.TokenSource, timeout time.Duration) *Provider {
	return &Provider{client: rest.New(providerName, baseURL, tokens, timeout)}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{ListProjects: true, ListIssues: true, CreateIssue: true}
}

// JSON:API style envelopes used by the hub and project endpoints.
type accList[T any] struct {
	Data []T `json:"data"`
}

type accHub struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

type accProject struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

// accIssue mirrors the issues v2 payload. Fields live under attributes;
// customAttributes carry a {name, value, type} envelope per entry.
type accIssue struct {
	ID         string `json:"id"`
	Attributes struct {
		Title            string      `json:"title"`
		Description      string      `json:"description"`
		Status           string      `json:"status"`
		DueDate          string      `json:"dueDate"`
		AssignedTo       string      `json:"assignedTo"`
		CustomAttributes []accCustom `json:"customAttributes"`
	} `json:"attributes"`
}

type accCustom struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// ListProjects enumerates hubs, then projects per hub. A hub that fails to
// enumerate is skipped so one dead hub does not hide every other project.
func (p *Provider) ListProjects(ctx context.Context) ([]provider.Project, error) {
	body, err := p.client.Get(ctx, "/project/v1/hubs", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("acc list hubs: %w", err)
	}

	var hubs accList[accHub]
	if err := json.Unmarshal(body, &hubs); err != nil {
		return nil, fmt.Errorf("acc parse hubs: %w", err)
	}

	var projects []provider.Project
	for _, hub := range hubs.Data {
		hubProjects, err := p.listHubProjects(ctx, hub.ID)
		if err != nil {
			slog.Warn("acc hub enumeration failed, skipping",
				"hub", hub.ID, "hub_name", hub.Attributes.Name, "error", err)
			continue
		}
		projects = append(projects, hubProjects...)
	}
	return projects, nil
}

func (p *Provider) listHubProjects(ctx context.Context, hubID string) ([]provider.Project, error) {
	body, err := p.client.Get(ctx, "/project/v1/hubs/"+hubID+"/projects", nil, nil)
	if err != nil {
		return nil, err
	}

	var raw accList[accProject]
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse hub projects: %w", err)
	}

	projects := make([]provider.Project, 0, len(raw.Data))
	for _, pr := range raw.Data {
		projects = append(projects, provider.Project{ID: pr.ID, Name: pr.Attributes.Name})
	}
	return projects, nil
}

func (p *Provider) ListIssues(ctx context.Context, projectID string) ([]provider.Issue, error) {
	body, err := p.client.Get(ctx, "/issues/v2/containers/"+containerID(projectID)+"/issues", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("acc list issues: %w", err)
	}

	var raw struct {
		Results []accIssue `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("acc parse issues: %w", err)
	}

	issues := make([]provider.Issue, 0, len(raw.Results))
	for i := range raw.Results {
		issues = append(issues, issueToRecord(&raw.Results[i]))
	}
	return issues, nil
}

func (p *Provider) CreateIssue(ctx context.Context, projectID string, fields map[string]any) (*provider.Issue, error) {
	payload := provider.WhitelistFields(fields, createWhitelist)
	if date, ok := payload["dueDate"]; ok {
		if normalized, valid := provider.NormalizeDate(date); valid {
			payload["dueDate"] = normalized
		} else {
			delete(payload, "dueDate")
		}
	}

	body, err := p.client.Post(ctx, "/issues/v2/containers/"+containerID(projectID)+"/issues", payload, nil)
	if err != nil {
		return nil, fmt.Errorf("acc create issue: %w", err)
	}

	var created accIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("acc parse created issue: %w", err)
	}

	issue := issueToRecord(&created)
	return &issue, nil
}

// containerID strips the "b." prefix hubs and projects carry in the data
// management API; the issues API wants the bare container GUID.
func containerID(projectID string) string {
	return strings.TrimPrefix(projectID, "b.")
}

// issueToRecord flattens the attributes envelope into the normalized record.
func issueToRecord(issue *accIssue) provider.Issue {
	attrs := issue.Attributes
	fields := map[string]any{
		"title":       attrs.Title,
		"description": attrs.Description,
		"status":      attrs.Status,
		"assignedTo":  attrs.AssignedTo,
	}
	if date, ok := provider.NormalizeDate(attrs.DueDate); ok {
		fields["dueDate"] = date
	}
	for _, ca := range attrs.CustomAttributes {
		fields[ca.Name] = ca.Value
	}
	return provider.Issue{ID: issue.ID, Fields: fields}
}
