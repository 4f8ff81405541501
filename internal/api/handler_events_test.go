package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ryanbastic/go-contentstore/internal/event"
)

func TestListAlerts(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(http.MethodGet, "/v1/alerts", nil)
	var empty struct {
		Alerts []string `json:"alerts"`
	}
	if err := json.NewDecoder(w.Body).Decode(&empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Alerts == nil || len(empty.Alerts) != 0 {
		t.Errorf("no listeners: got %v, want empty list", empty.Alerts)
	}

	srv.service.Events().RegisterCpAlerts.On(func(ctx context.Context, ev *event.RegisterCpAlertsEvent) {
		ev.Alerts = append(ev.Alerts, "search index unavailable")
	})

	w = srv.do(http.MethodGet, "/v1/alerts", nil)
	var resp struct {
		Alerts []string `json:"alerts"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Alerts) != 1 || resp.Alerts[0] != "search index unavailable" {
		t.Errorf("alerts: got %v", resp.Alerts)
	}
}

func TestListElementTypes(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(http.MethodGet, "/v1/element-types", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var types []ElementTypeResponse
	if err := json.NewDecoder(w.Body).Decode(&types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 2 || types[0].Handle != "product" || types[1].Handle != "user" {
		t.Fatalf("types: got %+v", types)
	}

	fields := types[0].Fields
	if len(fields) != 3 {
		t.Fatalf("product fields: got %d", len(fields))
	}
	if fields[0].Column != "field_color" || fields[0].Kind != "text" {
		t.Errorf("color: got %+v", fields[0])
	}
	if fields[2].Column != "" || fields[2].Kind != "none" {
		t.Errorf("tags should have no column, got %+v", fields[2])
	}
	if types[1].HasContent {
		t.Error("user should have no content")
	}
}

func TestListSources(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.service.Events().RegisterElementSources.On(func(ctx context.Context, ev *event.RegisterElementSourcesEvent) {
		if ev.Context == event.SourceContextModal {
			ev.Sources = append(ev.Sources, event.ElementSource{
				Key:      "featured",
				Label:    "Featured",
				Criteria: map[string]any{"featured": true},
			})
		}
	})

	type sourcesBody struct {
		Context string                `json:"context"`
		Sources []event.ElementSource `json:"sources"`
	}
	get := func(path string) sourcesBody {
		t.Helper()
		w := srv.do(http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: got %d\nbody: %s", path, w.Code, w.Body.String())
		}
		var body sourcesBody
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	index := get("/v1/element-types/product/sources")
	if index.Context != event.SourceContextIndex {
		t.Errorf("default context: got %q", index.Context)
	}
	if len(index.Sources) != 1 || index.Sources[0].Key != AllSourcesKey {
		t.Errorf("index sources: got %+v", index.Sources)
	}

	modal := get("/v1/element-types/product/sources?context=modal")
	if len(modal.Sources) != 2 || modal.Sources[1].Key != "featured" {
		t.Errorf("modal sources: got %+v", modal.Sources)
	}
}

func TestListSources_Errors(t *testing.T) {
	srv := newTestServer(t, nil)

	if w := srv.do(http.MethodGet, "/v1/element-types/widget/sources", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown type: got %d, want 404", w.Code)
	}
	if w := srv.do(http.MethodGet, "/v1/element-types/product/sources?context=sidebar", nil); w.Code < 400 || w.Code >= 500 {
		t.Errorf("invalid context: got %d, want 4xx", w.Code)
	}
}

func TestServeResource(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "css"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "css", "app.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, nil)
	srv.service.Events().ResolveResourcePath.On(ResourceDirResolver(dir))

	w := srv.do(http.MethodGet, "/v1/resources/css/app.css", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if w.Body.String() != "body{}" {
		t.Errorf("body: got %q", w.Body.String())
	}

	if w := srv.do(http.MethodGet, "/v1/resources/css/missing.css", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing file: got %d, want 404", w.Code)
	}
	if w := srv.do(http.MethodGet, "/v1/resources/css", nil); w.Code != http.StatusNotFound {
		t.Errorf("directory: got %d, want 404", w.Code)
	}
}

func TestServeResource_Unresolved(t *testing.T) {
	srv := newTestServer(t, nil)

	if w := srv.do(http.MethodGet, "/v1/resources/js/app.js", nil); w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestResourceDirResolver(t *testing.T) {
	resolve := ResourceDirResolver("/srv/resources")

	tests := []struct {
		uri  string
		want string
	}{
		{"css/app.css", filepath.Join("/srv/resources", "css", "app.css")},
		{"/img/logo.png", filepath.Join("/srv/resources", "img", "logo.png")},
		{"css/../js/app.js", filepath.Join("/srv/resources", "js", "app.js")},
		{"../etc/passwd", ""},
		{"css/../../etc/passwd", ""},
		{"..", ""},
		{"", ""},
	}
	for _, tt := range tests {
		ev := &event.ResolveResourcePathEvent{URI: tt.uri}
		resolve(context.Background(), ev)
		if ev.Path != tt.want {
			t.Errorf("%q: got %q, want %q", tt.uri, ev.Path, tt.want)
		}
	}

	ev := &event.ResolveResourcePathEvent{URI: "css/app.css", Path: "/already/resolved"}
	resolve(context.Background(), ev)
	if ev.Path != "/already/resolved" {
		t.Errorf("resolved path overwritten: got %q", ev.Path)
	}
}
