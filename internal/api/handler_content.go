package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-contentstore/internal/content"
	"github.com/ryanbastic/go-contentstore/internal/element"
)

// --- Huma Input/Output types ---

type ContentPath struct {
	Type      string `path:"type" doc:"Element type handle" example:"product"`
	ElementID int64  `path:"element_id" doc:"Element ID"`
	SiteID    int64  `path:"site_id" doc:"Site ID"`
}

type GetContentInput struct {
	ContentPath
}

type ContentRowResponse struct {
	ElementType string              `json:"element_type"`
	ElementID   int64               `json:"element_id"`
	SiteID      int64               `json:"site_id"`
	Coordinates element.Coordinates `json:"coordinates"`
	Row         map[string]any      `json:"row" doc:"Content row with the field column prefix removed"`
}

type GetContentOutput struct {
	Body ContentRowResponse
}

type SaveContentBody struct {
	Title  *string        `json:"title,omitempty" doc:"Element title, for types with titles"`
	Fields map[string]any `json:"fields,omitempty" doc:"Field values keyed by field handle"`
}

type SaveContentInput struct {
	ContentPath
	Body SaveContentBody
}

type ContentResponse struct {
	ElementType string         `json:"element_type"`
	ElementID   int64          `json:"element_id"`
	SiteID      int64          `json:"site_id"`
	ContentID   int64          `json:"content_id"`
	Title       string         `json:"title,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type SaveContentOutput struct {
	Body ContentResponse
}

// --- Handler ---

type ContentHandler struct {
	service *content.Service
	types   *element.Registry
	logger  *slog.Logger
}

func NewContentHandler(service *content.Service, types *element.Registry, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{service: service, types: types, logger: logger}
}

func registerContentRoutes(api huma.API, h *ContentHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-content",
		Method:      http.MethodGet,
		Path:        "/v1/content/{type}/{element_id}/{site_id}",
		Summary:     "Get an element's content row",
		Tags:        []string{"content"},
	}, h.GetContent)

	huma.Register(api, huma.Operation{
		OperationID: "save-content",
		Method:      http.MethodPut,
		Path:        "/v1/content/{type}/{element_id}/{site_id}",
		Summary:     "Save an element's content",
		Tags:        []string{"content"},
	}, h.SaveContent)
}

func (h *ContentHandler) element(p ContentPath) (*element.Element, error) {
	typ, err := h.types.TypeFor(p.Type)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("unknown element type %q", p.Type))
	}
	return element.New(typ, p.ElementID, p.SiteID), nil
}

func (h *ContentHandler) GetContent(ctx context.Context, input *GetContentInput) (*GetContentOutput, error) {
	el, err := h.element(input.ContentPath)
	if err != nil {
		return nil, err
	}

	row, err := h.service.GetContentRow(ctx, el)
	if err != nil {
		return nil, toHumaError(h.logger, "get content", err)
	}

	return &GetContentOutput{Body: ContentRowResponse{
		ElementType: input.Type,
		ElementID:   el.ID,
		SiteID:      el.SiteID,
		Coordinates: el.Coordinates(),
		Row:         row,
	}}, nil
}

// SaveContent loads the element's current content, applies the request's
// title and field values on top and saves the result.
func (h *ContentHandler) SaveContent(ctx context.Context, input *SaveContentInput) (*SaveContentOutput, error) {
	el, err := h.element(input.ContentPath)
	if err != nil {
		return nil, err
	}
	if !el.HasContent() {
		return nil, huma.Error400BadRequest(fmt.Sprintf("element type %q has no content", input.Type))
	}

	if err := h.service.PopulateElementContent(ctx, el); err != nil {
		return nil, toHumaError(h.logger, "load content", err)
	}

	if input.Body.Title != nil {
		if !el.HasTitles() {
			return nil, huma.Error400BadRequest(fmt.Sprintf("element type %q has no titles", input.Type))
		}
		el.Title = *input.Body.Title
	}

	layout := el.FieldLayout()
	for handle, raw := range input.Body.Fields {
		f, ok := layout.FieldByHandle(handle)
		if !ok {
			return nil, huma.Error400BadRequest(fmt.Sprintf("unknown field %q", handle))
		}
		v, err := f.NormalizeValue(raw, el)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("field %q: %v", handle, err))
		}
		el.SetFieldValue(handle, v)
	}

	if err := h.service.SaveContent(ctx, el); err != nil {
		return nil, toHumaError(h.logger, "save content", err)
	}

	h.logger.Info("content saved", "type", input.Type, "element_id", el.ID, "site_id", el.SiteID, "content_id", el.ContentID)

	return &SaveContentOutput{Body: contentToResponse(input.Type, el)}, nil
}

func contentToResponse(typ string, el *element.Element) ContentResponse {
	values := el.FieldValues()
	if values == nil {
		values = map[string]any{}
	}
	return ContentResponse{
		ElementType: typ,
		ElementID:   el.ID,
		SiteID:      el.SiteID,
		ContentID:   el.ContentID,
		Title:       el.Title,
		Fields:      values,
	}
}
