// Package web provides HTTP handlers and REST API endpoints for trigger
// configuration, previews, and test dispatch.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/tagrelay/tagrelay/pkg/catalog"
	"github.com/tagrelay/tagrelay/pkg/dispatch"
	"github.com/tagrelay/tagrelay/pkg/services"
)

type APIHandlers struct {
	triggerService     *services.Trigger
	integrationService *services.Integrations
	pipeline           *dispatch.Pipeline
	validator          *validator.Validate
	catalog            *catalog.Catalog
}

func NewAPIHandlers(
	triggerService *services.Trigger,
	integrationService *services.Integrations,
	pipeline *dispatch.Pipeline,
	validator *validator.Validate,
	cat *catalog.Catalog,
) *APIHandlers {
	return &APIHandlers{
		triggerService:     triggerService,
		integrationService: integrationService,
		pipeline:           pipeline,
		validator:          validator,
		catalog:            cat,
	}
}

// RegisterRoutes wires the trigger API onto a fiber app.
func RegisterRoutes(app *fiber.App, h *APIHandlers) {
	app.Get("/health", h.HealthCheck)
	app.Get("/integrations", h.GetIntegrations)

	i := app.Group("/integrations/:slug")
	i.Get("/", h.GetIntegration)
	i.Get("/triggers", h.GetTriggers)
	i.Post("/triggers", h.CreateTrigger)
	i.Patch("/triggers/:id", h.UpdateTrigger)
	i.Delete("/triggers/:id", h.DeleteTrigger)
	i.Post("/preview", h.PreviewEvent)
	i.Post("/test", h.SendTestEvent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, ok := h.triggerService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetIntegrations(c fiber.Ctx) error {
	integrations, err := h.integrationService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"integrations": integrations})
}

func (h *APIHandlers) GetIntegration(c fiber.Ctx) error {
	slug := c.Params("slug")

	if _, ok := h.catalog.Adapter(slug); !ok {
		return notFound(c, "integration not registered")
	}

	integration, err := h.integrationService.Get(c.Context(), slug)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"integration":   integration,
		"trigger_count": integration.TriggerCount(),
	})
}

// GetTriggers returns the full configured set for the slug in bulk; the
// engine never serves partial or paginated reads.
func (h *APIHandlers) GetTriggers(c fiber.Ctx) error {
	slug := c.Params("slug")

	if _, ok := h.catalog.Adapter(slug); !ok {
		return notFound(c, "integration not registered")
	}

	triggers, err := h.triggerService.List(c.Context(), slug)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"triggers": triggers})
}

func (h *APIHandlers) CreateTrigger(c fiber.Ctx) error {
	var req CreateTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.triggerService.Create(c.Context(), c.Params("slug"), services.CreateTriggerRequest{
		TriggerTypeID: req.Trigger,
		Name:          req.Name,
		EventName:     req.EventName,
		Mappings:      toMappings(req.Mappings),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateTrigger(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Trigger ID is required")
	}

	var req UpdateTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	update := services.UpdateTriggerRequest{
		Name:      req.Name,
		EventName: req.EventName,
	}
	if req.Mappings != nil {
		update.Mappings = toMappings(req.Mappings)
	}

	updated, err := h.triggerService.Update(c.Context(), c.Params("slug"), id, update)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteTrigger(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Trigger ID is required")
	}

	if err := h.triggerService.Delete(c.Context(), c.Params("slug"), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PreviewEvent(c fiber.Ctx) error {
	var req PreviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.pipeline.Preview(dispatch.EventConfig{
		Name:     req.Event.Name,
		Mappings: toMappings(req.Event.Mappings),
	}, c.Params("slug"), req.Trigger, nil)

	return c.JSON(result)
}

func (h *APIHandlers) SendTestEvent(c fiber.Ctx) error {
	var req TestDispatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.pipeline.SendTest(c.Context(), dispatch.EventConfig{
		Name:     req.Event.Name,
		Mappings: toMappings(req.Event.Mappings),
	}, c.Params("slug"), req.Trigger)
	if err != nil {
		return deliveryFailed(c, err)
	}

	return c.JSON(fiber.Map{"delivered": true})
}
