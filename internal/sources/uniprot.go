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

// DefaultUniProtURL is the UniProtKB REST base URL.
const DefaultUniProtURL = "https://rest.uniprot.org/uniprotkb"

// UniProt searches UniProtKB.
type UniProt struct {
	*apiclient.BaseClient
}

// NewUniProt creates a UniProt client.
func NewUniProt(opts ...apiclient.Option) *UniProt {
	return &UniProt{BaseClient: apiclient.New(normalize.ServerUniProt, DefaultUniProtURL, opts...)}
}

// Search runs a UniProtKB query. Bare gene symbols are restricted to
// reviewed human entries.
func (c *UniProt) Search(ctx context.Context, query string, size int) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("uniprot query cannot be empty")
	}
	if !strings.ContainsAny(query, ":() ") {
		query = fmt.Sprintf("gene_exact:%s AND organism_id:9606 AND reviewed:true", query)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("size", strconv.Itoa(orDefault(size, 5)))
	return c.GetJSON(ctx, "search", params)
}
