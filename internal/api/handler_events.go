package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/ryanbastic/go-contentstore/internal/element"
	"github.com/ryanbastic/go-contentstore/internal/event"
)

// AllSourcesKey is the source every element type starts with.
const AllSourcesKey = "*"

// --- Huma Input/Output types ---

type ListAlertsInput struct{}

type ListAlertsOutput struct {
	Body struct {
		Alerts []string `json:"alerts"`
	}
}

type ListElementTypesInput struct{}

type FieldResponse struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle"`
	Column string `json:"column,omitempty" doc:"Content column, empty when the field has none"`
	Kind   string `json:"kind"`
}

type ElementTypeResponse struct {
	Handle      string              `json:"handle"`
	HasContent  bool                `json:"has_content"`
	HasTitles   bool                `json:"has_titles"`
	Coordinates element.Coordinates `json:"coordinates"`
	Fields      []FieldResponse     `json:"fields"`
}

type ListElementTypesOutput struct {
	Body []ElementTypeResponse
}

type ListSourcesInput struct {
	Type    string `path:"type" doc:"Element type handle"`
	Context string `query:"context" doc:"Where the sources are shown" enum:"index,modal" default:"index"`
}

type ListSourcesOutput struct {
	Body struct {
		ElementType string                `json:"element_type"`
		Context     string                `json:"context"`
		Sources     []event.ElementSource `json:"sources"`
	}
}

// --- Handler ---

// EventHandler answers the requests whose results are assembled by event
// listeners.
type EventHandler struct {
	bus    *event.Bus
	types  *element.Registry
	logger *slog.Logger
}

func NewEventHandler(bus *event.Bus, types *element.Registry, logger *slog.Logger) *EventHandler {
	return &EventHandler{bus: bus, types: types, logger: logger}
}

func registerEventRoutes(api huma.API, h *EventHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/v1/alerts",
		Summary:     "List control panel alerts",
		Tags:        []string{"events"},
	}, h.ListAlerts)

	huma.Register(api, huma.Operation{
		OperationID: "list-element-types",
		Method:      http.MethodGet,
		Path:        "/v1/element-types",
		Summary:     "List element types and their field layouts",
		Tags:        []string{"events"},
	}, h.ListElementTypes)

	huma.Register(api, huma.Operation{
		OperationID: "list-element-sources",
		Method:      http.MethodGet,
		Path:        "/v1/element-types/{type}/sources",
		Summary:     "List the sources of an element type",
		Tags:        []string{"events"},
	}, h.ListSources)
}

func (h *EventHandler) ListAlerts(ctx context.Context, input *ListAlertsInput) (*ListAlertsOutput, error) {
	ev := &event.RegisterCpAlertsEvent{}
	h.bus.RegisterCpAlerts.Dispatch(ctx, ev)

	out := &ListAlertsOutput{}
	out.Body.Alerts = ev.Alerts
	if out.Body.Alerts == nil {
		out.Body.Alerts = []string{}
	}
	return out, nil
}

func (h *EventHandler) ListElementTypes(ctx context.Context, input *ListElementTypesInput) (*ListElementTypesOutput, error) {
	types := h.types.Types()
	resp := make([]ElementTypeResponse, len(types))
	for i, t := range types {
		el := element.New(t, 0, 0)
		fields := el.FieldLayout().Fields()
		fr := make([]FieldResponse, len(fields))
		for j, f := range fields {
			fr[j] = FieldResponse{ID: f.ID(), Handle: f.Handle(), Kind: f.ColumnKind().String()}
			if f.HasContentColumn() {
				fr[j].Column = el.FieldColumnPrefix() + f.Handle()
			}
		}
		resp[i] = ElementTypeResponse{
			Handle:      t.Handle,
			HasContent:  t.HasContent,
			HasTitles:   t.HasTitles,
			Coordinates: el.Coordinates(),
			Fields:      fr,
		}
	}
	return &ListElementTypesOutput{Body: resp}, nil
}

func (h *EventHandler) ListSources(ctx context.Context, input *ListSourcesInput) (*ListSourcesOutput, error) {
	if _, err := h.types.TypeFor(input.Type); err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("unknown element type %q", input.Type))
	}

	ev := &event.RegisterElementSourcesEvent{
		ElementType: input.Type,
		Context:     input.Context,
		Sources:     []event.ElementSource{{Key: AllSourcesKey, Label: "All"}},
	}
	h.bus.RegisterElementSources.Dispatch(ctx, ev)

	out := &ListSourcesOutput{}
	out.Body.ElementType = input.Type
	out.Body.Context = input.Context
	out.Body.Sources = ev.Sources
	return out, nil
}

// ServeResource serves the file a ResolveResourcePath listener maps the
// request path to. Unresolved paths are 404s.
func (h *EventHandler) ServeResource(w http.ResponseWriter, r *http.Request) {
	uri := chi.URLParam(r, "*")
	ev := &event.ResolveResourcePathEvent{URI: uri}
	h.bus.ResolveResourcePath.Dispatch(r.Context(), ev)

	if ev.Path == "" {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	info, err := os.Stat(ev.Path)
	if err != nil || info.IsDir() {
		h.logger.Debug("resolved resource missing", "uri", uri, "path", ev.Path)
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}
	http.ServeFile(w, r, ev.Path)
}

// ResourceDirResolver returns a ResolveResourcePath listener that maps URIs
// to files under dir. URIs escaping dir are left unresolved, as are URIs an
// earlier listener already resolved.
func ResourceDirResolver(dir string) event.HandlerFunc[event.ResolveResourcePathEvent] {
	return func(ctx context.Context, ev *event.ResolveResourcePathEvent) {
		if ev.Path != "" || ev.URI == "" {
			return
		}
		rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(ev.URI, "/")))
		if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			return
		}
		ev.Path = filepath.Join(dir, rel)
	}
}
