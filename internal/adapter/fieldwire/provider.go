// Package fieldwire implements a provider.Provider for Fieldwire. Fieldwire
// calls its issue records "tasks" and titles them "name"; this adapter owns
// that translation so the engine only ever sees title/description fields.
package fieldwire

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brixworks/sitesync/internal/adapter/rest"
	"github.com/brixworks/sitesync/internal/port/provider"
)

const providerName = "fieldwire"

// sentinelDate is the epoch placeholder Fieldwire stores on tasks that have
// no real due date. Forwarding it corrupts the destination record, so it is
// discarded during normalization.
const sentinelDate = "1970-01-01"

// createWhitelist is the accepted-field set for task creation, in wire names.
var createWhitelist = map[string]bool{
	"name":        true,
	"description": true,
	"status":      true,
	"due_at":      true,
	"priority":    true,
}

// Provider implements provider.Provider for Fieldwire.
type Provider struct {
	client *rest.Client
}

// NewProvider creates a Fieldwire provider against the given regional API host.
func NewProvider(baseURL string, tokens provider.TokenSource, timeout time.Duration) *Provider {
	return &Provider{client: rest.New(providerName, baseURL, tokens, timeout)}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{ListProjects: true, ListIssues: true, CreateIssue: true}
}

type fieldwireProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fieldwireTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueAt       string `json:"due_at"`
	Priority    int    `json:"priority"`
}

func (p *Provider) ListProjects(ctx context.Context) ([]provider.Project, error) {
	body, err := p.client.Get(ctx, "/api/v3/account/projects", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fieldwire list projects: %w", err)
	}

	var raw []fieldwireProject
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("fieldwire parse projects: %w", err)
	}

	projects := make([]provider.Project, 0, len(raw))
	for _, pr := range raw {
		projects = append(projects, provider.Project{ID: pr.ID, Name: pr.Name})
	}
	return projects, nil
}

func (p *Provider) ListIssues(ctx context.Context, projectID string) ([]provider.Issue, error) {
	body, err := p.client.Get(ctx, "/api/v3/projects/"+projectID+"/tasks", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fieldwire list tasks: %w", err)
	}

	var raw []fieldwireTask
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("fieldwire parse tasks: %w", err)
	}

	issues := make([]provider.Issue, 0, len(raw))
	for i := range raw {
		issues = append(issues, taskToRecord(&raw[i]))
	}
	return issues, nil
}

func (p *Provider) CreateIssue(ctx context.Context, projectID string, fields map[string]any) (*provider.Issue, error) {
	wire := make(map[string]any, len(fields))
	for k, v := range fields {
		wire[toWireField(k)] = v
	}

	payload := provider.WhitelistFields(wire, createWhitelist)
	if date, ok := payload["due_at"]; ok {
		normalized, valid := provider.NormalizeDate(date)
		if !valid || normalized == sentinelDate {
			delete(payload, "due_at")
		} else {
			payload["due_at"] = normalized
		}
	}

	body, err := p.client.Post(ctx, "/api/v3/projects/"+projectID+"/tasks", payload, nil)
	if err != nil {
		return nil, fmt.Errorf("fieldwire create task: %w", err)
	}

	var created fieldwireTask
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("fieldwire parse created task: %w", err)
	}

	issue := taskToRecord(&created)
	return &issue, nil
}

// toWireField maps normalized field names onto Fieldwire's task schema.
func toWireField(name string) string {
	switch name {
	case "title":
		return "name"
	case "due_date", "dueDate":
		return "due_at"
	default:
		return name
	}
}

// taskToRecord normalizes a Fieldwire task, discarding the sentinel
// placeholder date instead of forwarding it.
func taskToRecord(task *fieldwireTask) provider.Issue {
	fields := map[string]any{
		"title":       task.Name,
		"description": task.Description,
		"status":      strings.ToLower(task.Status),
	}
	if task.Priority != 0 {
		fields["priority"] = task.Priority
	}
	if date, ok := provider.NormalizeDate(task.DueAt); ok && date != sentinelDate {
		fields["due_date"] = date
	}
	return provider.Issue{ID: task.ID, Fields: fields}
}
