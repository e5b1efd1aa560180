package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secretprops/pkg/propertysource"
	"github.com/Checker-Finance/secretprops/pkg/utils"
)

// PropertyHandler serves read-only views of a property source. Values are
// always redacted.
type PropertyHandler struct {
	logger *zap.Logger
	source propertysource.PropertySource
}

// NewPropertyHandler constructs a handler over source.
func NewPropertyHandler(logger *zap.Logger, source propertysource.PropertySource) *PropertyHandler {
	return &PropertyHandler{logger: logger, source: source}
}

// ListProperties returns the property names of the source.
func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	names := h.source.PropertyNames()
	return c.JSON(fiber.Map{
		"source": h.source.Name(),
		"count":  len(names),
		"names":  names,
	})
}

// GetProperty reports whether a property is set. The value itself is redacted.
func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	name := c.Params("name")
	value, ok := h.source.Property(name)
	if !ok {
		h.logger.Debug("api.property_not_found", zap.String("name", name))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "property not found",
			"name":  name,
		})
	}
	return c.JSON(fiber.Map{
		"name":   name,
		"source": h.source.Name(),
		"value":  utils.Redact(value),
	})
}

// RegisterRoutes registers all HTTP routes on the Fiber app.
func RegisterRoutes(app *fiber.App, handler *PropertyHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check: the source is built before the server starts, so being
	// reachable means resolution succeeded.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"source":     handler.source.Name(),
			"properties": len(handler.source.PropertyNames()),
		})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/properties", handler.ListProperties)
	v1.Get("/properties/:name", handler.GetProperty)
}
