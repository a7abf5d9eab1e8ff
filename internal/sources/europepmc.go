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

// DefaultEuropePMCURL is the Europe PMC REST base URL.
const DefaultEuropePMCURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// EuropePMC searches Europe PMC.
type EuropePMC struct {
	*apiclient.BaseClient
}

// NewEuropePMC creates a Europe PMC client.
func NewEuropePMC(opts ...apiclient.Option) *EuropePMC {
	return &EuropePMC{BaseClient: apiclient.New(normalize.ServerEuropePMC, DefaultEuropePMCURL, opts...)}
}

// Search returns the raw core result list for a query.
func (c *EuropePMC) Search(ctx context.Context, query string, pageSize int) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("resultType", "core")
	params.Set("pageSize", strconv.Itoa(orDefault(pageSize, 25)))
	return c.GetJSON(ctx, "search", params)
}
