package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/providers", h.ListProviders)
		r.Get("/providers/{provider}/projects", h.ListProjects)

		// Credentials
		r.Get("/credentials", h.ListCredentials)
		r.Post("/credentials/{provider}/connect", h.ConnectProvider)
		r.Delete("/credentials/{provider}", h.DisconnectProvider)

		// Syncs
		r.Post("/syncs", h.CreateSync)
		r.Get("/syncs", h.ListSyncs)
		r.Get("/syncs/{id}", h.GetSync)
		r.Delete("/syncs/{id}", h.DeleteSync)
		r.Post("/syncs/{id}/execute", h.ExecuteSync)

		// Mapping validation
		r.Post("/mappings/validate", h.ValidateMappings)
	})
}
