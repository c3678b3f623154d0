package catalog

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/glass-rates", h.ListGlassRates)
		r.Put("/glass-rates", h.UpsertGlassRate)
		r.Get("/processes", h.ListProcesses)
		r.Put("/processes", h.UpsertProcess)
		r.Get("/tax-settings", h.GetTaxSettings)
		r.Put("/tax-settings", h.SetTaxSettings)
		r.Get("/pricing-settings", h.GetPricingSettings)
		r.Put("/pricing-settings", h.SetPricingSettings)
	})
}
