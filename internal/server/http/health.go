package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/paravox/internal/model"
)

type (
	// HealthResponseDTO is the response body for the Health operation.
	HealthResponseDTO struct {
		Status string       `json:"status" enum:"ok,unavailable"`
		Error  string       `json:"error,omitempty"`
		Models []model.Info `json:"models"`
	}

	// HealthOutput is the huma output for the Health operation.
	HealthOutput struct {
		Body HealthResponseDTO
	}
)

// ModelLister lists configured models.
type ModelLister interface {
	Registry() *model.Registry
}

// Availability reports whether speech can be generated.
type Availability interface {
	Available() error
}

// HealthHandler reports model availability.
type HealthHandler struct {
	models  ModelLister
	service Availability
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(api huma.API, models ModelLister, svc Availability) *HealthHandler {
	h := &HealthHandler{models: models, service: svc}

	huma.Register(api, huma.Operation{
		OperationID:   "health",
		Method:        http.MethodGet,
		Path:          "/health",
		Summary:       "Report model availability",
		Tags:          []string{"health"},
		DefaultStatus: http.StatusOK,
	}, h.handleHealth)

	return h
}

func (h *HealthHandler) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	body := HealthResponseDTO{Status: "ok", Models: []model.Info{}}

	for _, instance := range h.models.Registry().List() {
		body.Models = append(body.Models, instance.Info())
	}

	if err := h.service.Available(); err != nil {
		body.Status = "unavailable"
		body.Error = err.Error()
	}

	return &HealthOutput{Body: body}, nil
}
