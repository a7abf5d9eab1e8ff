package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/henrybloomingdale/biofan/internal/apiclient"
	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// DefaultPubChemURL is the PubChem PUG REST base URL.
const DefaultPubChemURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

const pubchemProperties = "InChIKey,CanonicalSMILES,MolecularFormula,MolecularWeight,XLogP,TPSA"

// PubChem fetches compound property tables.
type PubChem struct {
	*apiclient.BaseClient
}

// NewPubChem creates a PubChem client.
func NewPubChem(opts ...apiclient.Option) *PubChem {
	return &PubChem{BaseClient: apiclient.New(normalize.ServerPubChem, DefaultPubChemURL, opts...)}
}

// PropertiesByName returns the raw property table for a compound name.
func (c *PubChem) PropertiesByName(ctx context.Context, name string) (any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("compound name cannot be empty")
	}
	endpoint := "compound/name/" + url.PathEscape(name) + "/property/" + pubchemProperties + "/JSON"
	return c.GetJSON(ctx, endpoint, nil)
}

// PropertiesByCID returns the raw property table for a CID.
func (c *PubChem) PropertiesByCID(ctx context.Context, cid string) (any, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, fmt.Errorf("cid cannot be empty")
	}
	endpoint := "compound/cid/" + url.PathEscape(cid) + "/property/" + pubchemProperties + "/JSON"
	return c.GetJSON(ctx, endpoint, nil)
}

// LookupCID resolves a CID to its identity fields. found is false when PubChem
// returns no usable row.
func (c *PubChem) LookupCID(ctx context.Context, cid string) (record.Compound, bool, error) {
	payload, err := c.PropertiesByCID(ctx, cid)
	if err != nil {
		return record.Compound{}, false, err
	}
	for _, comp := range normalize.PubChemPayload(payload, "") {
		if comp.InChIKey != "" || comp.SMILES != "" {
			return comp, true, nil
		}
	}
	return record.Compound{}, false, nil
}
