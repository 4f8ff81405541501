package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-contentstore/internal/search"
)

type SearchInput struct {
	Query  string `query:"q" doc:"Search text" required:"true" minLength:"1"`
	SiteID int64  `query:"site_id" doc:"Restrict hits to one site; 0 searches all sites"`
	Limit  int    `query:"limit" doc:"Maximum number of hits" minimum:"0" maximum:"100"`
}

type SearchOutput struct {
	Body struct {
		Query string       `json:"query"`
		Hits  []search.Hit `json:"hits"`
	}
}

type SearchHandler struct {
	searcher search.Searcher
	logger   *slog.Logger
}

// NewSearchHandler returns a handler that answers 501 when searcher is nil.
func NewSearchHandler(searcher search.Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

func registerSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-content",
		Method:      http.MethodGet,
		Path:        "/v1/search",
		Summary:     "Search indexed field keywords",
		Tags:        []string{"search"},
	}, h.Search)
}

func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if h.searcher == nil {
		return nil, huma.Error501NotImplemented("search is not configured")
	}

	hits, err := h.searcher.Search(ctx, search.Query{Text: input.Query, SiteID: input.SiteID, Limit: input.Limit})
	if err != nil {
		return nil, toHumaError(h.logger, "search", err)
	}
	if hits == nil {
		hits = []search.Hit{}
	}

	out := &SearchOutput{}
	out.Body.Query = input.Query
	out.Body.Hits = hits
	return out, nil
}
