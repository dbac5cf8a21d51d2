package hotspotd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/capabilities"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	c, err := ParseCatalogue([]byte(sampleCatalogue))
	if err != nil {
		t.Fatalf("ParseCatalogue error: %v", err)
	}
	s := NewServer(c, NewMetrics(), Identity{UUID: "8d0f3a4e-58c3-4d7e-9a57-0f6b1c1e2a10", Name: "Test hotspot"})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestCapabilitiesRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	var warnings []string
	f := capabilities.NewFetcher(capabilities.WithWarnFunc(func(msg string) { warnings = append(warnings, msg) }))
	techs, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(techs) != 3 || techs[0].Name != "DAB" || techs[2].Name != "DVB-T" {
		t.Errorf("techs = %+v", techs)
	}
	if len(warnings) != 0 {
		t.Errorf("served Content-Type should be accepted, got warnings %v", warnings)
	}
}

func TestProgrammesRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	f := capabilities.NewFetcher()
	programmes, err := f.FetchProgrammes(context.Background(), ts.URL, "DAB")
	if err != nil {
		t.Fatalf("FetchProgrammes error: %v", err)
	}
	if len(programmes) != 2 || programmes[1].Name != "Radio 2" {
		t.Errorf("programmes = %+v", programmes)
	}

	_, err = f.FetchProgrammes(context.Background(), ts.URL, "AM")
	if hotspot.KindOf(err) != hotspot.KindIO {
		t.Errorf("unknown tech should map to IO, got %v", err)
	}
}

func TestProgrammesStatusCodes(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/programmes", http.StatusBadRequest},
		{"/programmes?tech=AM", http.StatusNotFound},
		{"/programmes?tech=FM", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestCapabilitiesHeaders(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/capabilities")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestOptionsPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/capabilities", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["status"] != "ok" || body["uuid"] != "8d0f3a4e-58c3-4d7e-9a57-0f6b1c1e2a10" {
		t.Errorf("health = %v", body)
	}
	if body["techs"] != float64(3) {
		t.Errorf("techs = %v", body["techs"])
	}
}

func TestMetricsCountRequests(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/capabilities", "/capabilities", "/programmes"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	out := string(data)

	for _, want := range []string{
		`hotspot_requests_total{route="/capabilities"} 2`,
		`hotspot_errors_total 1`,
		`hotspot_catalogue_techs 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetCatalogue(t *testing.T) {
	s, ts := newTestServer(t)

	c, err := ParseCatalogue([]byte("techs:\n  - name: AM\n"))
	if err != nil {
		t.Fatalf("ParseCatalogue error: %v", err)
	}
	s.SetCatalogue(c)

	techs, err := capabilities.NewFetcher().Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(techs) != 1 || techs[0].Name != "AM" {
		t.Errorf("techs after reload = %+v", techs)
	}
}
