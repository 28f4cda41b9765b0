package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skylite-app/skylite/internal/config"
	"github.com/skylite-app/skylite/internal/models"
	"github.com/skylite-app/skylite/pkg/client"
	"go.uber.org/zap"
)

const (
	ReasonNotConfigured = "weather service is not configured"
	ReasonUnknownSource = "unknown weather source"
)

// ForecastProvider is one upstream adapter reduced to the search pipeline.
type ForecastProvider interface {
	Source() string
	Process(ctx context.Context, query string) ([]models.ForecastPoint, error)
	BreakerState() string
}

type SearchRequest struct {
	Source  string
	Query   string
	Session string
}

type ProviderInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Dashboard struct {
	providers  map[string]ForecastProvider
	configured bool
	registry   *SearchRegistry
	logger     *zap.Logger

	mu              sync.RWMutex
	lastSearchTime  time.Time
	successCount    int
	failureCount    int
	supersededCount int
}

func NewDashboard(cfg *config.Config, timezones client.TimezoneFinder, logger *zap.Logger) *Dashboard {
	clientConfig := client.ClientConfig{
		Timeout:        cfg.WeatherAPI.Timeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		RetryDelay:     cfg.Retry.Delay,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
		RateLimit:      cfg.RateLimit.RequestsPerSecond,
		RateBurst:      cfg.RateLimit.Burst,
	}

	accuWeather := client.NewAccuWeatherClient(
		cfg.WeatherAPI.AccuWeatherAPIKey,
		cfg.WeatherAPI.AccuWeatherURL,
		clientConfig,
		logger,
	)
	logger.Info("AccuWeather client initialized", zap.String("client", accuWeather.Name()))

	openWeather := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		client.OpenWeatherOptions{
			BaseURL:   cfg.WeatherAPI.OpenWeatherURL,
			GeoURL:    cfg.WeatherAPI.OpenWeatherGeoURL,
			Units:     cfg.WeatherAPI.Units,
			Timezones: timezones,
		},
		clientConfig,
		logger,
	)
	logger.Info("OpenWeather client initialized", zap.String("client", openWeather.Name()))

	registry := NewSearchRegistry(cfg.Sessions.TTL, cfg.Sessions.CleanupInterval, logger)

	return NewDashboardWithProviders(
		[]ForecastProvider{accuWeather, openWeather},
		cfg.HasCredentials(),
		registry,
		logger,
	)
}

// NewDashboardWithProviders wires a dashboard around arbitrary providers.
// When configured is false every search fails closed.
func NewDashboardWithProviders(providers []ForecastProvider, configured bool, registry *SearchRegistry, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewSearchRegistry(0, 0, logger)
	}

	byID := make(map[string]ForecastProvider, len(providers))
	for _, p := range providers {
		byID[p.Source()] = p
	}

	return &Dashboard{
		providers:  byID,
		configured: configured,
		registry:   registry,
		logger:     logger,
	}
}

func (d *Dashboard) Configured() bool {
	return d.configured
}

// Search runs one provider pipeline. It never returns nil and never panics
// on upstream data; every failure is reported through Unavailable.
func (d *Dashboard) Search(ctx context.Context, req SearchRequest) *models.SearchResult {
	query := strings.TrimSpace(req.Query)
	result := &models.SearchResult{
		Source: req.Source,
		Query:  query,
	}

	d.mu.Lock()
	d.lastSearchTime = time.Now()
	d.mu.Unlock()

	if !d.configured {
		result.Unavailable = &models.Unavailable{Provider: providerLabel(req.Source), Reason: ReasonNotConfigured}
		d.recordFailure()
		return result
	}

	provider, ok := d.providers[req.Source]
	if !ok {
		result.Unavailable = &models.Unavailable{Provider: req.Source, Reason: ReasonUnknownSource}
		d.recordFailure()
		return result
	}

	searchCtx, ticket := d.registry.Begin(ctx, req.Session)
	result.Generation = ticket.Generation

	startTime := time.Now()
	points, err := provider.Process(searchCtx, query)
	current := d.registry.Finish(ticket)

	if !current {
		result.Superseded = true
		d.mu.Lock()
		d.supersededCount++
		d.mu.Unlock()

		d.logger.Info("Search superseded by a newer one",
			zap.String("source", req.Source),
			zap.String("session", req.Session),
			zap.Uint64("generation", ticket.Generation))
		return result
	}

	if err != nil {
		result.Unavailable = unavailableFor(req.Source, query, err)
		d.recordFailure()

		d.logger.Warn("Search failed",
			zap.String("source", req.Source),
			zap.String("query", query),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err))
		return result
	}

	result.Points = points
	result.Series = ExtractSeries(points)

	d.mu.Lock()
	d.successCount++
	d.mu.Unlock()

	d.logger.Info("Search completed",
		zap.String("source", req.Source),
		zap.String("query", query),
		zap.Int("points", len(points)),
		zap.Duration("duration", time.Since(startTime)))

	return result
}

func (d *Dashboard) recordFailure() {
	d.mu.Lock()
	d.failureCount++
	d.mu.Unlock()
}

// Providers lists the selectable sources ordered by id.
func (d *Dashboard) Providers() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(d.providers))
	for id := range d.providers {
		infos = append(infos, ProviderInfo{ID: id, Label: providerLabel(id)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// BreakerStates maps each source to its circuit breaker state.
func (d *Dashboard) BreakerStates() map[string]string {
	states := make(map[string]string, len(d.providers))
	for id, p := range d.providers {
		states[id] = p.BreakerState()
	}
	return states
}

func (d *Dashboard) GetStats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"configured":       d.configured,
		"last_search_time": d.lastSearchTime,
		"success_count":    d.successCount,
		"failure_count":    d.failureCount,
		"superseded_count": d.supersededCount,
		"breakers":         d.BreakerStates(),
		"sessions":         d.registry.GetStats(),
	}
}

func unavailableFor(source, query string, err error) *models.Unavailable {
	switch source {
	case models.SourceAccuWeather:
		return &models.Unavailable{
			Provider: providerLabel(source),
			Reason:   "Sorry, could not retrieve weather data from AccuWeather!",
		}
	case models.SourceOpenWeather:
		if errors.Is(err, client.ErrResolve) {
			return &models.Unavailable{
				Provider: providerLabel(source),
				Reason:   fmt.Sprintf("Could not retrieve coordinates for %s from OpenWeather. Please check your input!", query),
			}
		}
		return &models.Unavailable{
			Provider: providerLabel(source),
			Reason:   "Sorry, could not retrieve weather data from OpenWeather!",
		}
	}
	return &models.Unavailable{Provider: source, Reason: err.Error()}
}

func providerLabel(source string) string {
	if label, ok := models.SourceLabels[source]; ok {
		return label
	}
	return source
}
