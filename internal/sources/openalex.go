package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/apiclient"
	"github.com/henrybloomingdale/biofan/internal/normalize"
)

// DefaultOpenAlexURL is the OpenAlex API base URL.
const DefaultOpenAlexURL = "https://api.openalex.org"

// OpenAlex searches OpenAlex works.
type OpenAlex struct {
	*apiclient.BaseClient
}

// NewOpenAlex creates an OpenAlex client. mailto opts into the polite pool.
func NewOpenAlex(mailto string, opts ...apiclient.Option) *OpenAlex {
	base := []apiclient.Option{apiclient.WithParam("mailto", mailto)}
	return &OpenAlex{BaseClient: apiclient.New(normalize.ServerOpenAlex, DefaultOpenAlexURL, append(base, opts...)...)}
}

// Works returns the raw works list for a search.
func (c *OpenAlex) Works(ctx context.Context, search string, perPage int) (any, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	params := url.Values{}
	params.Set("search", search)
	params.Set("per-page", strconv.Itoa(orDefault(perPage, 25)))
	return c.GetJSON(ctx, "works", params)
}
