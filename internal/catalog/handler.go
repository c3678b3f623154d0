package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/platform/httpx"
	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

func (h *Handler) ListGlassRates(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	rates, err := h.service.ListGlassRates(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list glass rates failed", "org_id", orgID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"glass_rates": rates})
}

func (h *Handler) UpsertGlassRate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	var req UpsertGlassRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rates := make(map[pricing.Thickness]decimal.Decimal, len(req.Rates))
	for bucket, rate := range req.Rates {
		rates[pricing.Thickness(bucket)] = rate
	}
	rate := GlassRate{
		OrgID:     orgID,
		GlassType: req.GlassType,
		Rates:     rates,
		IsActive:  true,
	}
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}

	saved, err := h.service.UpsertGlassRate(r.Context(), rate)
	if err != nil {
		h.logger.Error("upsert glass rate failed", "org_id", orgID, "glass_type", req.GlassType, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	processes, err := h.service.ListProcesses(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list processes failed", "org_id", orgID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"processes": processes})
}

func (h *Handler) UpsertProcess(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	var req UpsertProcessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p := Process{
		OrgID:       orgID,
		Code:        req.Code,
		Name:        req.Name,
		PricingType: pricing.PricingType(req.PricingType),
		Rate:        req.Rate,
		IsActive:    true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	saved, err := h.service.UpsertProcess(r.Context(), p)
	if err != nil {
		h.logger.Error("upsert process failed", "org_id", orgID, "code", req.Code, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) GetTaxSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTaxSettings(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Defaults apply until the org configures anything.
			httpx.JSON(w, http.StatusOK, (*TaxSettings)(nil).Config())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) SetTaxSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	var req SetTaxSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	t := TaxSettings{
		OrgID:      orgID,
		GSTEnabled: req.GSTEnabled,
		Mode:       pricing.TaxMode(req.Mode),
		GSTPercent: req.GSTPercent,
	}
	if err := h.service.SetTaxSettings(r.Context(), t); err != nil {
		h.logger.Error("set tax settings failed", "org_id", orgID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) GetPricingSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPricingSettings(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSON(w, http.StatusOK, (*PricingSettings)(nil).Settings())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) SetPricingSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(w, r)
	if !ok {
		return
	}

	var req SetPricingSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p := PricingSettings{
		OrgID:      orgID,
		StepInches: req.StepInches,
		MinCharge:  req.MinCharge,
	}
	if err := h.service.SetPricingSettings(r.Context(), p); err != nil {
		h.logger.Error("set pricing settings failed", "org_id", orgID, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func orgIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid organization ID")
		return 0, false
	}
	return id, true
}
