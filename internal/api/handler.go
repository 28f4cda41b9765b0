package api

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/skylite-app/skylite/internal/attribution"
	"github.com/skylite-app/skylite/internal/models"
	"github.com/skylite-app/skylite/internal/presentation"
	"github.com/skylite-app/skylite/internal/services"
	"go.uber.org/zap"
)

const SessionHeader = "X-Session-ID"

var validate = validator.New()

var startTime = time.Now()

// JobStatus reports the state of background jobs for the health endpoint.
type JobStatus interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	dashboard     *services.Dashboard
	attributions  *attribution.Store
	jobs          JobStatus
	searchTimeout time.Duration
	logger        *zap.Logger
}

func NewHandler(dashboard *services.Dashboard, attributions *attribution.Store, jobs JobStatus, searchTimeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard:     dashboard,
		attributions:  attributions,
		jobs:          jobs,
		searchTimeout: searchTimeout,
		logger:        logger,
	}
}

type forecastQuery struct {
	Source  string `validate:"required,oneof=aw ow"`
	Query   string `validate:"required,max=200"`
	Session string `validate:"max=128"`
}

type sourceQuery struct {
	Source string `validate:"required,oneof=aw ow"`
}

// GetForecast handles GET /api/v1/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	q := forecastQuery{
		Source:  c.Query("source"),
		Query:   strings.TrimSpace(c.Query("q")),
		// The registry keeps the session id after the request buffer is reused.
		Session: utils.CopyString(c.Get(SessionHeader)),
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "source must be one of aw, ow and q is required",
			"details": err.Error(),
		})
	}

	h.logger.Info("Searching forecast",
		zap.String("source", q.Source),
		zap.String("query", q.Query))

	ctx := c.UserContext()
	if h.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.searchTimeout)
		defer cancel()
	}

	result := h.dashboard.Search(ctx, services.SearchRequest{
		Source:  q.Source,
		Query:   q.Query,
		Session: q.Session,
	})

	if result.Superseded {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":    false,
			"error":      "search superseded by a newer request",
			"source":     result.Source,
			"query":      result.Query,
			"generation": result.Generation,
		})
	}

	if result.Unavailable != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":    false,
			"error":      result.Unavailable.Reason,
			"provider":   result.Unavailable.Provider,
			"source":     result.Source,
			"query":      result.Query,
			"generation": result.Generation,
		})
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"source":              result.Source,
		"query":               result.Query,
		"generation":          result.Generation,
		"points":              result.Points,
		"series":              result.Series,
		"cards":               presentation.Cards(result.Source, result.Points),
		"charts":              presentation.Charts(result.Source, result.Series, temperatureUnit(result.Points)),
		"providerAttribution": presentation.AttributionLinks(h.attributions.Get(result.Source)),
	})
}

// GetAttributions handles GET /api/v1/attributions
func (h *Handler) GetAttributions(c *fiber.Ctx) error {
	q := sourceQuery{Source: c.Query("source")}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "source must be one of aw, ow",
		})
	}

	return c.JSON(fiber.Map{
		"source":       q.Source,
		"attributions": presentation.AttributionLinks(h.attributions.Get(q.Source)),
	})
}

// GetProviders handles GET /api/v1/providers
func (h *Handler) GetProviders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": h.dashboard.Providers(),
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	status := "healthy"
	if !h.dashboard.Configured() {
		status = "degraded"
	}

	response := fiber.Map{
		"status":                 status,
		"timestamp":              time.Now(),
		"uptime":                 time.Since(startTime).String(),
		"attributions_loaded_at": h.attributions.LoadedAt(),
		"stats":                  h.dashboard.GetStats(),
	}
	if h.jobs != nil {
		response["scheduler"] = h.jobs.GetStatus()
	}

	return c.JSON(response)
}

func temperatureUnit(points []models.ForecastPoint) string {
	for _, p := range points {
		if p.Temperature.Valid && p.TemperatureUnit != "" && p.TemperatureUnit != "N/A" {
			return p.TemperatureUnit
		}
	}
	return "F"
}
