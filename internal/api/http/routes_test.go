package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/alfred-weather/internal/command"
	"github.com/i474232898/alfred-weather/internal/present"
	"github.com/i474232898/alfred-weather/internal/weather"
)

type stubDispatcher struct {
	lastVerb, lastQuery string
}

func (s *stubDispatcher) Tell(_ context.Context, verb, query string) command.Outcome {
	s.lastVerb, s.lastQuery = verb, query
	switch verb {
	case "weather":
		return command.Outcome{Kind: command.OK, Items: []present.Item{present.NewItem("Currently in Paris: Clear", "")}}
	case "sun":
		err := &weather.SetupError{Title: "Missing default location"}
		return command.Outcome{Kind: command.NeedsSetup, Items: []present.Item{present.ErrorItem(err.Title, "")}, Err: err}
	case "location":
		return command.Outcome{Kind: command.OK}
	}
	// Unknown verbs go through the real dispatcher to get its error.
	return command.New(command.Env{}).Tell(context.Background(), verb, query)
}

func (s *stubDispatcher) Do(_ context.Context, verb, query string) command.Outcome {
	s.lastVerb, s.lastQuery = verb, query
	if verb == "days" {
		return command.Outcome{Kind: command.OK, Message: "Now showing 2 days of forecast"}
	}
	return command.Outcome{Kind: command.Internal, Message: "Error: boom", Err: errors.New("boom")}
}

func newApp(d Dispatcher) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, d)
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

// TestTellReturnsItems verifies that read commands are served as JSON with
// a status derived from the outcome.
func TestTellReturnsItems(t *testing.T) {
	d := &stubDispatcher{}
	app := newApp(d)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tell/weather?q=Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if d.lastVerb != "weather" || d.lastQuery != "Paris" {
		t.Fatalf("unexpected dispatch %q %q", d.lastVerb, d.lastQuery)
	}

	body := decode(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 || body["kind"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}

	// Nothing to show is an empty list, not null.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/tell/location", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items, ok := decode(t, resp)["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty item list")
	}
}

func TestTellStatusCodes(t *testing.T) {
	app := newApp(&stubDispatcher{})

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/tell/sun", http.StatusConflict},
		{"/api/v1/tell/bogus", http.StatusNotFound},
		{"/api/v1/tell/weather?q=" + strings.Repeat("x", 600), http.StatusBadRequest},
		{"/api/v1/tell/" + strings.Repeat("v", 40), http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.path[:min(len(tt.path), 40)], tt.want, resp.StatusCode)
		}
	}
}

func TestDoAcceptsJSONBodyAndQuery(t *testing.T) {
	d := &stubDispatcher{}
	app := newApp(d)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/do/days", strings.NewReader(`{"query":"2"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || d.lastQuery != "2" {
		t.Fatalf("unexpected response %d for query %q", resp.StatusCode, d.lastQuery)
	}
	if body := decode(t, resp); body["message"] != "Now showing 2 days of forecast" {
		t.Fatalf("unexpected body %v", body)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/do/days?q=4", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || d.lastQuery != "4" {
		t.Fatalf("expected query parameter fallback, got %d %q", resp.StatusCode, d.lastQuery)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/do/units", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, resp.StatusCode)
	}
}
