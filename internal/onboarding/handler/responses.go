package handler

import (
	"net/http"

	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/reference"
	"keystone/internal/onboarding/schema"
	"keystone/pkg/platform/httputil"
)

type schemaResponse struct {
	Role       models.Role    `json:"role"`
	TotalSteps int            `json:"totalSteps"`
	Phases     []schema.Phase `json:"phases"`
}

func toSchemaResponse(sch *schema.Schema) schemaResponse {
	return schemaResponse{
		Role:       sch.Role,
		TotalSteps: sch.TotalSteps(),
		Phases:     sch.Phases,
	}
}

type phaseNotFoundResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Redirect         schema.Coordinate `json:"redirect"`
	RedirectSlug     string            `json:"redirect_slug"`
}

func (h *Handler) handleCountries(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"countries": reference.Countries()})
}

func (h *Handler) handleCurrencies(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"currencies": reference.Currencies()})
}
