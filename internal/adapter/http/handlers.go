package http

import (
	"net/http"

	"github.com/brixworks/sitesync/internal/domain/syncjob"
	"github.com/brixworks/sitesync/internal/port/provider"
	"github.com/brixworks/sitesync/internal/service"
)

// maxBodySize limits JSON request bodies.
const maxBodySize = 1 << 20 // 1 MiB

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	credentials *service.CredentialService
	syncs       *service.SyncService
	catalog     *service.CatalogService
	mappings    *service.MappingService
}

// NewHandlers creates the handler set.
func NewHandlers(credentials *service.CredentialService, syncs *service.SyncService, catalog *service.CatalogService, mappings *service.MappingService) *Handlers {
	return &Handlers{
		credentials: credentials,
		syncs:       syncs,
		catalog:     catalog,
		mappings:    mappings,
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProviders returns the registered provider names.
func (h *Handlers) ListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": provider.Available()})
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// ListCredentials returns the caller's connected providers without secrets.
func (h *Handlers) ListCredentials(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	creds, err := h.credentials.List(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err, "credentials not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

type connectRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// ConnectProvider completes the OAuth handshake for a provider.
func (h *Handlers) ConnectProvider(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[connectRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	cred, err := h.credentials.Connect(r.Context(), uid, urlParam(r, "provider"), req.Code, req.RedirectURI)
	if err != nil {
		writeDomainError(w, err, "provider not found")
		return
	}
	writeJSON(w, http.StatusCreated, cred.Redact())
}

// DisconnectProvider removes a stored credential.
func (h *Handlers) DisconnectProvider(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.credentials.Disconnect(r.Context(), uid, urlParam(r, "provider")); err != nil {
		writeDomainError(w, err, "credential not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Provider catalogs
// ---------------------------------------------------------------------------

// ListProjects returns the projects visible to the caller on a provider.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	projects, err := h.catalog.ListProjects(r.Context(), uid, urlParam(r, "provider"))
	if err != nil {
		writeDomainError(w, err, "provider not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// ---------------------------------------------------------------------------
// Syncs
// ---------------------------------------------------------------------------

type createSyncRequest struct {
	Name              string             `json:"name"`
	SourceProvider    string             `json:"source_provider"`
	SourceProjectID   string             `json:"source_project_id"`
	SourceProjectName string             `json:"source_project_name"`
	DestProvider      string             `json:"dest_provider"`
	DestProjectID     string             `json:"dest_project_id"`
	DestProjectName   string             `json:"dest_project_name"`
	DestCompanyID     string             `json:"dest_company_id"`
	DataTypes         []string           `json:"data_types"`
	Mappings          syncjob.MappingDoc `json:"mappings"`
}

// CreateSync persists a new sync configuration in draft status.
func (h *Handlers) CreateSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[createSyncRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	sy, err := h.syncs.Create(r.Context(), &syncjob.Sync{
		UserID:            uid,
		Name:              req.Name,
		SourceProvider:    req.SourceProvider,
		SourceProjectID:   req.SourceProjectID,
		SourceProjectName: req.SourceProjectName,
		DestProvider:      req.DestProvider,
		DestProjectID:     req.DestProjectID,
		DestProjectName:   req.DestProjectName,
		DestCompanyID:     req.DestCompanyID,
		DataTypes:         req.DataTypes,
		Mappings:          req.Mappings,
	})
	if err != nil {
		writeDomainError(w, err, "sync not found")
		return
	}
	writeJSON(w, http.StatusCreated, sy)
}

// ListSyncs returns the caller's sync configurations.
func (h *Handlers) ListSyncs(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	syncs, err := h.syncs.List(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err, "syncs not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"syncs": syncs})
}

// GetSync returns one sync configuration.
func (h *Handlers) GetSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sy, err := h.syncs.Get(r.Context(), urlParam(r, "id"), uid)
	if err != nil {
		writeDomainError(w, err, "sync not found")
		return
	}
	writeJSON(w, http.StatusOK, sy)
}

// DeleteSync removes a sync configuration and its crosswalk.
func (h *Handlers) DeleteSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.syncs.Delete(r.Context(), urlParam(r, "id"), uid); err != nil {
		writeDomainError(w, err, "sync not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteSync runs a sync once and returns the run result.
func (h *Handlers) ExecuteSync(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	result, err := h.syncs.Execute(r.Context(), urlParam(r, "id"), uid)
	if err != nil {
		writeDomainError(w, err, "sync not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Mapping validation
// ---------------------------------------------------------------------------

type validateMappingRequest struct {
	SourceProvider string                 `json:"source_provider"`
	DestProvider   string                 `json:"dest_provider"`
	Mappings       []syncjob.FieldMapping `json:"mappings"`
}

// ValidateMappings checks a mapping document against the two providers'
// field catalogs without touching any provider API.
func (h *Handlers) ValidateMappings(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[validateMappingRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	sourceCatalog, ok := service.FieldCatalog(req.SourceProvider)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown source provider")
		return
	}
	destCatalog, ok := service.FieldCatalog(req.DestProvider)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown destination provider")
		return
	}

	writeJSON(w, http.StatusOK, h.mappings.Validate(req.Mappings, sourceCatalog, destCatalog))
}
