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

const (
	// DefaultEntrezURL is the NCBI E-utilities base URL.
	DefaultEntrezURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// Rate limits per NCBI policy.
	EntrezRateWithoutKey = 3
	EntrezRateWithKey    = 10
)

// Entrez runs PubMed ESearch queries.
type Entrez struct {
	*apiclient.BaseClient
}

// NewEntrez creates an E-utilities client. A non-empty apiKey raises the
// rate limit to the keyed NCBI allowance.
func NewEntrez(apiKey, tool, email string, opts ...apiclient.Option) *Entrez {
	rate := EntrezRateWithoutKey
	if apiKey != "" {
		rate = EntrezRateWithKey
	}
	base := []apiclient.Option{
		apiclient.WithRate(float64(rate)),
		apiclient.WithParam("api_key", apiKey),
		apiclient.WithParam("tool", tool),
		apiclient.WithParam("email", email),
	}
	return &Entrez{BaseClient: apiclient.New(normalize.ServerPubMed, DefaultEntrezURL, append(base, opts...)...)}
}

// ESearch returns the raw ESearch JSON for a PubMed query.
func (c *Entrez) ESearch(ctx context.Context, term string, retmax int) (any, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(orDefault(retmax, 20)))
	return c.GetJSON(ctx, "esearch.fcgi", params)
}
