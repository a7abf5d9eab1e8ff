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

// DefaultChEMBLURL is the ChEMBL web services base URL.
const DefaultChEMBLURL = "https://www.ebi.ac.uk/chembl/api/data"

// ChEMBL searches targets and fetches bioactivities.
type ChEMBL struct {
	*apiclient.BaseClient
}

// NewChEMBL creates a ChEMBL client.
func NewChEMBL(opts ...apiclient.Option) *ChEMBL {
	return &ChEMBL{BaseClient: apiclient.New(normalize.ServerChEMBL, DefaultChEMBLURL, opts...)}
}

// SearchTargets runs a free-text target search.
func (c *ChEMBL) SearchTargets(ctx context.Context, query string, limit int) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("target query cannot be empty")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(orDefault(limit, 10)))
	return c.GetJSON(ctx, "target/search.json", params)
}

// TargetDetail fetches the full record for one ChEMBL target.
func (c *ChEMBL) TargetDetail(ctx context.Context, chemblID string) (map[string]any, error) {
	chemblID = strings.TrimSpace(chemblID)
	if chemblID == "" {
		return nil, fmt.Errorf("target id cannot be empty")
	}
	params := url.Values{}
	params.Set("format", "json")
	v, err := c.GetJSON(ctx, "target/"+url.PathEscape(chemblID)+".json", params)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected target payload for %s", chemblID)
	}
	return m, nil
}

// ActivityQuery filters an activity fetch.
type ActivityQuery struct {
	TargetChEMBLID   string
	MoleculeChEMBLID string
	Limit            int
	PChEMBLOnly      bool
}

// Activities fetches raw activity rows. PChEMBLOnly is applied server-side.
func (c *ChEMBL) Activities(ctx context.Context, q ActivityQuery) (any, error) {
	if q.TargetChEMBLID == "" && q.MoleculeChEMBLID == "" {
		return nil, fmt.Errorf("activity query needs a target or molecule id")
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(orDefault(q.Limit, 50)))
	if q.TargetChEMBLID != "" {
		params.Set("target_chembl_id", q.TargetChEMBLID)
	}
	if q.MoleculeChEMBLID != "" {
		params.Set("molecule_chembl_id", q.MoleculeChEMBLID)
	}
	if q.PChEMBLOnly {
		params.Set("pchembl_value__isnull", "false")
	}
	return c.GetJSON(ctx, "activity.json", params)
}
