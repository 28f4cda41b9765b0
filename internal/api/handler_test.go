package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skylite-app/skylite/internal/attribution"
	"github.com/skylite-app/skylite/internal/config"
	"github.com/skylite-app/skylite/internal/models"
	"github.com/skylite-app/skylite/internal/services"
	"github.com/skylite-app/skylite/pkg/client"
	"go.uber.org/zap"
)

type stubProvider struct {
	source string
	err    error
}

func (s *stubProvider) Source() string       { return s.source }
func (s *stubProvider) BreakerState() string { return "closed" }

func (s *stubProvider) Process(ctx context.Context, query string) ([]models.ForecastPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	humidity := 70
	return []models.ForecastPoint{{
		Source:          s.source,
		Timestamp:       models.NewTimestamp("2024-06-01 12:00:00"),
		Temperature:     models.Some(59),
		TemperatureUnit: "F",
		Humidity:        &humidity,
		ConditionText:   "few clouds",
		IconRef:         "/assets/OpenWeatherIcons/FewCloudsDay_(02d).png",
	}}, nil
}

type staticJobs map[string]interface{}

func (s staticJobs) GetStatus() map[string]interface{} {
	return s
}

func newTestApp(t *testing.T, configured bool, providers ...services.ForecastProvider) *fiber.App {
	t.Helper()
	registry := services.NewSearchRegistry(time.Minute, time.Minute, zap.NewNop())
	return newTestAppWithRegistry(t, configured, registry, providers...)
}

func newTestAppWithRegistry(t *testing.T, configured bool, registry *services.SearchRegistry, providers ...services.ForecastProvider) *fiber.App {
	t.Helper()

	assets := t.TempDir()
	attrDir := filepath.Join(assets, "Attributions")
	if err := os.MkdirAll(attrDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `[{"text":"Icons","url":"https://example.com/icons"},{"text":"No url"}]`
	if err := os.WriteFile(filepath.Join(attrDir, "ow_attributions.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.AllowOrigins = "*"
	cfg.Assets.Dir = assets

	logger := zap.NewNop()
	dashboard := services.NewDashboardWithProviders(providers, configured, registry, logger)
	jobs := staticJobs{"running": true}
	handler := NewHandler(dashboard, attribution.NewStore(attrDir, logger), jobs, 5*time.Second, logger)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, handler, cfg, logger)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func forecastURL(source, q string) string {
	return "/api/v1/forecast?" + url.Values{"source": {source}, "q": {q}}.Encode()
}

func TestForecastValidation(t *testing.T) {
	app := newTestApp(t, true, &stubProvider{source: models.SourceOpenWeather})

	for _, target := range []string{
		forecastURL("xx", "Paris, FR"),
		forecastURL("ow", ""),
		"/api/v1/forecast",
	} {
		status, body := doGet(t, app, target)
		if status != fiber.StatusBadRequest || body["success"] != false {
			t.Fatalf("%s: expected 400, got %d %v", target, status, body)
		}
	}
}

func TestForecastUnavailableWithoutCredentials(t *testing.T) {
	app := newTestApp(t, false, &stubProvider{source: models.SourceOpenWeather})

	status, body := doGet(t, app, forecastURL("ow", "Paris, FR"))
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if body["error"] != services.ReasonNotConfigured {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestForecastSuccess(t *testing.T) {
	app := newTestApp(t, true, &stubProvider{source: models.SourceOpenWeather})

	status, body := doGet(t, app, forecastURL("ow", "Paris, FR"))
	if status != fiber.StatusOK || body["success"] != true {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if body["query"] != "Paris, FR" {
		t.Fatalf("unexpected query: %v", body["query"])
	}
	if cards, ok := body["cards"].([]interface{}); !ok || len(cards) != 1 {
		t.Fatalf("unexpected cards: %v", body["cards"])
	}
	if charts, ok := body["charts"].([]interface{}); !ok || len(charts) != 4 {
		t.Fatalf("unexpected charts: %v", body["charts"])
	}
	if links, ok := body["providerAttribution"].([]interface{}); !ok || len(links) != 1 {
		t.Fatalf("unexpected attributions: %v", body["providerAttribution"])
	}
}

func TestAttributionsEndpoint(t *testing.T) {
	app := newTestApp(t, true)

	status, body := doGet(t, app, "/api/v1/attributions?source=ow")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if links, ok := body["attributions"].([]interface{}); !ok || len(links) != 1 {
		t.Fatalf("unexpected attributions: %v", body["attributions"])
	}

	status, body = doGet(t, app, "/api/v1/attributions?source=aw")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if links, ok := body["attributions"].([]interface{}); !ok || len(links) != 0 {
		t.Fatalf("missing file should give an empty list, got %v", body["attributions"])
	}

	if status, _ := doGet(t, app, "/api/v1/attributions?source=zz"); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestProvidersAndHealth(t *testing.T) {
	app := newTestApp(t, false,
		&stubProvider{source: models.SourceAccuWeather},
		&stubProvider{source: models.SourceOpenWeather})

	status, body := doGet(t, app, "/api/v1/providers")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if providers, ok := body["providers"].([]interface{}); !ok || len(providers) != 2 {
		t.Fatalf("unexpected providers: %v", body["providers"])
	}

	status, body = doGet(t, app, "/api/v1/health")
	if status != fiber.StatusOK || body["status"] != "degraded" {
		t.Fatalf("expected degraded health, got %d %v", status, body)
	}
	if scheduler, ok := body["scheduler"].(map[string]interface{}); !ok || scheduler["running"] != true {
		t.Fatalf("expected scheduler status, got %v", body["scheduler"])
	}
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, true)

	status, body := doGet(t, app, "/api/v1/nope")
	if status != fiber.StatusNotFound || body["error"] != "Endpoint not found" {
		t.Fatalf("expected JSON 404, got %d %v", status, body)
	}
}

func TestForecastSessionsAreIndependent(t *testing.T) {
	registry := services.NewSearchRegistry(50*time.Millisecond, 10*time.Millisecond, zap.NewNop())
	app := newTestAppWithRegistry(t, true, registry, &stubProvider{source: models.SourceOpenWeather})

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, forecastURL("ow", "Paris"), nil)
		req.Header.Set(SessionHeader, fmt.Sprintf("session-%04d", i))

		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()

		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	stats := registry.GetStats()
	if stats["superseded_count"].(uint64) != 0 {
		t.Fatalf("distinct sessions must not supersede each other: %v", stats)
	}

	deadline := time.Now().Add(2 * time.Second)
	for registry.GetStats()["active_sessions"].(int) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expired sessions never evicted: %v", registry.GetStats())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestDefaultIconsAreServed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.AllowOrigins = "*"
	cfg.Assets.Dir = filepath.Join("..", "..", "assets")

	logger := zap.NewNop()
	dashboard := services.NewDashboardWithProviders(nil, true, nil, logger)
	handler := NewHandler(dashboard, attribution.NewStore(filepath.Join(cfg.Assets.Dir, "Attributions"), logger), nil, time.Second, logger)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, handler, cfg, logger)

	for _, icon := range []string{client.AccuWeatherDefaultIcon, client.OpenWeatherDefaultIcon} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, icon, nil), -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", icon, resp.StatusCode)
		}
	}
}
