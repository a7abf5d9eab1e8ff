// Package sources provides thin clients for the public biomedical data
// services the pipelines fan out to. Each client returns decoded JSON for
// the normalize package to map onto canonical records.
package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/apiclient"
	"github.com/henrybloomingdale/biofan/internal/normalize"
)

// Config holds per-source endpoints and shared client settings.
type Config struct {
	PubChemURL        string
	ChEMBLURL         string
	UniProtURL        string
	EntrezURL         string
	EuropePMCURL      string
	OpenAlexURL       string
	ClinicalTrialsURL string

	EntrezAPIKey   string
	EntrezTool     string
	EntrezEmail    string
	OpenAlexMailto string

	Rate     float64
	Timeout  time.Duration
	MaxBytes int64
	Retries  int
}

// Set bundles one client per source.
type Set struct {
	PubChem        *PubChem
	ChEMBL         *ChEMBL
	UniProt        *UniProt
	Entrez         *Entrez
	EuropePMC      *EuropePMC
	OpenAlex       *OpenAlex
	ClinicalTrials *ClinicalTrials
}

// NewSet builds every source client from cfg.
func NewSet(cfg Config, logger *zap.Logger, obs apiclient.Observer) *Set {
	common := []apiclient.Option{
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithMaxResponseBytes(cfg.MaxBytes),
		apiclient.WithMaxRetries(cfg.Retries),
		apiclient.WithLogger(logger),
		apiclient.WithObserver(obs),
	}
	with := func(u string) []apiclient.Option {
		return append([]apiclient.Option{apiclient.WithBaseURL(u), apiclient.WithRate(cfg.Rate)}, common...)
	}
	return &Set{
		PubChem:        NewPubChem(with(cfg.PubChemURL)...),
		ChEMBL:         NewChEMBL(with(cfg.ChEMBLURL)...),
		UniProt:        NewUniProt(with(cfg.UniProtURL)...),
		Entrez:         NewEntrez(cfg.EntrezAPIKey, cfg.EntrezTool, cfg.EntrezEmail, append([]apiclient.Option{apiclient.WithBaseURL(cfg.EntrezURL)}, common...)...),
		EuropePMC:      NewEuropePMC(with(cfg.EuropePMCURL)...),
		OpenAlex:       NewOpenAlex(cfg.OpenAlexMailto, with(cfg.OpenAlexURL)...),
		ClinicalTrials: NewClinicalTrials(with(cfg.ClinicalTrialsURL)...),
	}
}

// ToolFunc invokes one source tool with loosely typed arguments.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// Tools exposes the set as a dispatch table keyed like the normalize
// registry, so a planned call's payload can be normalized by the same key.
func (s *Set) Tools() map[normalize.Key]ToolFunc {
	return map[normalize.Key]ToolFunc{
		{Server: normalize.ServerPubChem, Tool: normalize.ToolProperties}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.PubChem.PropertiesByName(ctx, ArgString(args, "name"))
		},
		{Server: normalize.ServerChEMBL, Tool: normalize.ToolTargetSearch}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.ChEMBL.SearchTargets(ctx, ArgString(args, "query"), ArgInt(args, "limit", 10))
		},
		{Server: normalize.ServerChEMBL, Tool: normalize.ToolActivities}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.ChEMBL.Activities(ctx, ActivityQuery{
				TargetChEMBLID:   ArgString(args, "target_chembl_id"),
				MoleculeChEMBLID: ArgString(args, "molecule_chembl_id"),
				Limit:            ArgInt(args, "limit", 50),
				PChEMBLOnly:      ArgBool(args, "pchembl_only"),
			})
		},
		{Server: normalize.ServerUniProt, Tool: normalize.ToolSearch}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.UniProt.Search(ctx, ArgString(args, "query"), ArgInt(args, "size", 5))
		},
		{Server: normalize.ServerPubMed, Tool: normalize.ToolESearch}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.Entrez.ESearch(ctx, ArgString(args, "term"), ArgInt(args, "retmax", 20))
		},
		{Server: normalize.ServerEuropePMC, Tool: normalize.ToolSearch}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.EuropePMC.Search(ctx, ArgString(args, "query"), ArgInt(args, "page_size", 25))
		},
		{Server: normalize.ServerOpenAlex, Tool: normalize.ToolWorks}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.OpenAlex.Works(ctx, ArgString(args, "search"), ArgInt(args, "per_page", 25))
		},
		{Server: normalize.ServerClinicalTrials, Tool: normalize.ToolStudies}: func(ctx context.Context, args map[string]any) (any, error) {
			return s.ClinicalTrials.Studies(ctx, ArgString(args, "term"), ArgInt(args, "page_size", 20))
		},
	}
}

// Invoke dispatches one tool call by key.
func (s *Set) Invoke(ctx context.Context, server, tool string, args map[string]any) (any, error) {
	fn, ok := s.Tools()[normalize.Key{Server: server, Tool: tool}]
	if !ok {
		return nil, fmt.Errorf("unknown tool %s/%s", server, tool)
	}
	return fn(ctx, args)
}

// ArgString reads a string argument.
func ArgString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// ArgInt reads an integer argument, accepting JSON numbers.
func ArgInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// ArgBool reads a boolean argument.
func ArgBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
