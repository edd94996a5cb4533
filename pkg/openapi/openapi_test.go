package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/pkg/openapi"
)

func TestNewSpec(t *testing.T) {
	spec := openapi.NewSpec("Test API", "1.0.0")
	spec.AddServer("/api")
	spec.SetDescription("A test API")

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" || spec.Info.Version != "1.0.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	if spec.Info.Description != "A test API" {
		t.Errorf("description: got %s", spec.Info.Description)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers: got %+v", spec.Servers)
	}
	if spec.Components == nil || spec.Paths == nil {
		t.Fatal("components and paths should not be nil")
	}
}

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("Test", "1.0.0")
	get := &openapi.Operation{Summary: "find"}
	post := &openapi.Operation{Summary: "trigger"}

	if !spec.AddOperation("GET", "/scans/{source}", get) || !spec.AddOperation("post", "/scans/{source}", post) {
		t.Fatal("GET/POST rejected")
	}
	if spec.AddOperation("PATCH", "/ignored", post) {
		t.Error("PATCH accepted")
	}

	item := spec.Paths["/scans/{source}"]
	if item == nil || item.Get != get || item.Post != post {
		t.Errorf("path item = %+v", item)
	}
	if _, ok := spec.Paths["/ignored"]; ok {
		t.Error("unsupported method created a path item")
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"schema", openapi.SchemaRef("Document").Ref, "#/components/schemas/Document"},
		{"response", openapi.ResponseRef("NotFound").Ref, "#/components/responses/NotFound"},
		{"request body", openapi.RequestBodyJSON("SearchRequest", true).Content["application/json"].Schema.Ref, "#/components/schemas/SearchRequest"},
		{"response json", openapi.ResponseJSON("ok", "ScanJob").Content["application/json"].Schema.Ref, "#/components/schemas/ScanJob"},
		{"response array", openapi.ResponseJSONArray("ok", "Entry").Content["application/json"].Schema.Items.Ref, "#/components/schemas/Entry"},
		{"response page", openapi.ResponsePage("ok", "Document").Content["application/json"].Schema.Properties["data"].Items.Ref, "#/components/schemas/Document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("ref: got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	id := openapi.PathParam("id", "Document ID")
	if id.In != "path" || !id.Required || id.Schema.Format != "uuid" {
		t.Errorf("path param: %+v", id)
	}

	src := openapi.EnumPathParam("source", "Scan source", "archive", "manual")
	if !src.Required || len(src.Schema.Enum) != 2 || src.Schema.Enum[1] != "manual" {
		t.Errorf("enum param: %+v", src.Schema)
	}

	q := openapi.QueryParam("status", "string", "Status filter", false)
	if q.In != "query" || q.Required || q.Schema.Type != "string" {
		t.Errorf("query param: %+v", q)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()
	for _, name := range []string{"BadRequest", "NotFound", "Conflict", "ServiceUnavailable"} {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing default response: %s", name)
		}
	}

	c.AddSchemas(map[string]*openapi.Schema{"Document": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"Gone": {Description: "gone"}})

	for _, name := range []string{"Document", "Error", "PageRequest"} {
		if _, ok := c.Schemas[name]; !ok {
			t.Errorf("missing schema: %s", name)
		}
	}
	if _, ok := c.Responses["Gone"]; !ok {
		t.Error("Gone response not added")
	}
}

type embedded struct {
	Page int `json:"page"`
}

type sample struct {
	embedded
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Note      *string           `json:"note,omitempty"`
	Pages     int               `json:"pages"`
	Score     float64           `json:"score"`
	Tags      []string          `json:"tags"`
	Extra     map[string]string `json:"extra,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ClosedAt  *time.Time        `json:"closed_at,omitempty"`
	Data      []byte            `json:"data"`
	Hidden    string            `json:"-"`
	internal  string
}

type Outer struct {
	embedded
	Inner sample `json:"inner"`
}

func TestSchemaOf(t *testing.T) {
	s := openapi.SchemaOf(sample{})

	tests := []struct {
		field  string
		typ    string
		format string
	}{
		{"id", "string", "uuid"},
		{"name", "string", ""},
		{"note", "string", ""},
		{"pages", "integer", ""},
		{"score", "number", ""},
		{"tags", "array", ""},
		{"extra", "object", ""},
		{"created_at", "string", "date-time"},
		{"closed_at", "string", "date-time"},
		{"data", "string", "byte"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p, ok := s.Properties[tt.field]
			if !ok {
				t.Fatalf("missing property %s", tt.field)
			}
			if p.Type != tt.typ || p.Format != tt.format {
				t.Errorf("%s = %s/%s, want %s/%s", tt.field, p.Type, p.Format, tt.typ, tt.format)
			}
		})
	}

	for _, absent := range []string{"Hidden", "-", "internal"} {
		if _, ok := s.Properties[absent]; ok {
			t.Errorf("unexpected property %s", absent)
		}
	}

	if !slices.Contains(s.Required, "name") || slices.Contains(s.Required, "note") || slices.Contains(s.Required, "extra") {
		t.Errorf("required = %v", s.Required)
	}
}

func TestSchemaOfNested(t *testing.T) {
	s := openapi.SchemaOf(&Outer{})

	if _, ok := s.Properties["page"]; !ok {
		t.Error("embedded struct fields not promoted")
	}
	inner, ok := s.Properties["inner"]
	if !ok || inner.Type != "object" || inner.Properties["id"].Format != "uuid" {
		t.Errorf("inner = %+v", inner)
	}
}

func TestServeSpec(t *testing.T) {
	data, err := openapi.MarshalJSON(openapi.NewSpec("Test", "1.0.0"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}
}

func TestConfig(t *testing.T) {
	cfg := openapi.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Title != "Dossier API" {
		t.Errorf("title: got %s, want Dossier API", cfg.Title)
	}

	t.Setenv("TEST_OPENAPI_TITLE", "Env Title")
	env := openapi.Config{}
	if err := env.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if env.Title != "Env Title" {
		t.Errorf("env title: got %s", env.Title)
	}

	env.Merge(&openapi.Config{Description: "overlay"})
	if env.Title != "Env Title" || env.Description != "overlay" {
		t.Errorf("merge: got %+v", env)
	}
}

func TestConfigServers(t *testing.T) {
	tests := []struct {
		name    string
		servers []string
		env     string
		want    []string
		wantErr bool
	}{
		{"none", nil, "", nil, false},
		{"path and url", []string{"/api", "https://hr.example.com/api"}, "", []string{"/api", "https://hr.example.com/api"}, false},
		{"env replaces", []string{"/api"}, " https://a.example.com , ,/v2", []string{"https://a.example.com", "/v2"}, false},
		{"relative rejected", []string{"api"}, "", nil, true},
		{"hostless rejected", []string{"https://"}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_OPENAPI_SERVERS", tt.env)
			cfg := openapi.Config{Servers: tt.servers}

			err := cfg.Finalize(&openapi.ConfigEnv{Servers: "TEST_OPENAPI_SERVERS"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(cfg.Servers, tt.want) {
				t.Errorf("servers = %v, want %v", cfg.Servers, tt.want)
			}
		})
	}
}
