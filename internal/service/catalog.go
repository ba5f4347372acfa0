package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/domain/syncerr"
	"github.com/brixworks/sitesync/internal/port/cache"
	"github.com/brixworks/sitesync/internal/port/provider"
)

// fieldCatalogs describes the issue fields each provider exposes, tagged
// with their semantic type. The mapping validator checks mapping documents
// against these.
var fieldCatalogs = map[string]provider.FieldCatalog{
	"procore": {
		"title":       TagString,
		"description": TagText,
		"status":      TagSelect,
		"due_date":    TagDate,
		"priority":    TagSelect,
		"assignee_id": TagUser,
		"trade":       TagString,
		"location":    TagString,
	},
	"acc": {
		"title":          TagString,
		"description":    TagText,
		"status":         TagSelect,
		"dueDate":        TagDate,
		"assignedTo":     TagUser,
		"issueSubtypeId": TagReference,
	},
	"fieldwire": {
		"title":       TagString,
		"description": TagText,
		"status":      TagSelect,
		"due_date":    TagDate,
		"priority":    TagInteger,
	},
}

// FieldCatalog returns the field catalog for a provider.
func FieldCatalog(providerName string) (provider.FieldCatalog, bool) {
	c, ok := fieldCatalogs[providerName]
	return c, ok
}

// CatalogService serves provider project listings through the in-process
// cache. Enumeration is expensive on some providers (one walks every hub
// before it can list a single project), so listings are cached briefly.
type CatalogService struct {
	cache     cache.Cache
	tokens    *TokenManager
	providers config.Providers
	ttl       time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	newProvider func(name string, cfg provider.Config) (provider.Provider, error)
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(c cache.Cache, tokens *TokenManager, providers config.Providers, cfg config.Cache, timeout time.Duration, logger *slog.Logger) *CatalogService {
	ttl := cfg.CatalogTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{
		cache:       c,
		tokens:      tokens,
		providers:   providers,
		ttl:         ttl,
		timeout:     timeout,
		logger:      logger,
		newProvider: provider.New,
	}
}

// ListProjects returns the projects visible to the user's credential on a
// provider, serving from cache when fresh.
func (s *CatalogService) ListProjects(ctx context.Context, userID, providerName string) ([]provider.Project, error) {
	key := "projects:" + userID + ":" + providerName

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var projects []provider.Project
		if err := json.Unmarshal(data, &projects); err == nil {
			return projects, nil
		}
		// A corrupt cache entry falls through to a live listing.
		_ = s.cache.Delete(ctx, key)
	}

	app, ok := s.providers.App(providerName)
	if !ok {
		return nil, syncerr.Validation("unknown provider %q", providerName)
	}
	p, err := s.newProvider(providerName, provider.Config{
		BaseURL: app.BaseURL,
		Tokens:  s.tokens.Source(userID, providerName),
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}

	projects, err := p.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(projects); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("catalog cache set failed", "key", key, "error", err)
		}
	}
	return projects, nil
}
