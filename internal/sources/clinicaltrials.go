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

// DefaultClinicalTrialsURL is the ClinicalTrials.gov v2 API base URL.
const DefaultClinicalTrialsURL = "https://clinicaltrials.gov/api/v2"

// ClinicalTrials searches ClinicalTrials.gov studies.
type ClinicalTrials struct {
	*apiclient.BaseClient
}

// NewClinicalTrials creates a ClinicalTrials.gov client.
func NewClinicalTrials(opts ...apiclient.Option) *ClinicalTrials {
	return &ClinicalTrials{BaseClient: apiclient.New(normalize.ServerClinicalTrials, DefaultClinicalTrialsURL, opts...)}
}

// Studies returns the raw studies list for a term.
func (c *ClinicalTrials) Studies(ctx context.Context, term string, pageSize int) (any, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	params := url.Values{}
	params.Set("query.term", term)
	params.Set("format", "json")
	params.Set("pageSize", strconv.Itoa(orDefault(pageSize, 20)))
	return c.GetJSON(ctx, "studies", params)
}
