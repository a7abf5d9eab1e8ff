package normalize

import (
	"sort"

	"github.com/henrybloomingdale/biofan/internal/record"
)

// Server and tool names for the built-in adapters.
const (
	ServerPubChem        = "pubchem"
	ServerChEMBL         = "chembl"
	ServerUniProt        = "uniprot"
	ServerPubMed         = "pubmed"
	ServerEuropePMC      = "europepmc"
	ServerOpenAlex       = "openalex"
	ServerClinicalTrials = "clinicaltrials"

	ToolProperties   = "properties"
	ToolTargetSearch = "target_search"
	ToolActivities   = "activities"
	ToolSearch       = "search"
	ToolESearch      = "esearch"
	ToolWorks        = "works"
	ToolStudies      = "studies"
)

// Key identifies the tool call that produced a payload.
type Key struct {
	Server string
	Tool   string
}

func (k Key) String() string { return k.Server + "/" + k.Tool }

// Adapter maps a decoded payload onto canonical records. args are the
// arguments of the originating call.
type Adapter func(payload any, args map[string]any) []record.Record

// Registry dispatches payloads to adapters by (server, tool).
type Registry struct {
	adapters map[Key]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Key]Adapter)}
}

// Register binds an adapter, replacing any previous binding.
func (r *Registry) Register(server, tool string, a Adapter) {
	r.adapters[Key{server, tool}] = a
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Normalize maps payload with the adapter registered for (server, tool). ok is
// false when no adapter is registered. Each record's provenance is set.
func (r *Registry) Normalize(server, tool string, payload any, args map[string]any) (recs []record.Record, ok bool) {
	a, ok := r.adapters[Key{server, tool}]
	if !ok {
		return nil, false
	}
	recs = a(payload, args)
	for i := range recs {
		if recs[i].Source == nil {
			recs[i].Source = &record.Provenance{Server: server, Tool: tool, Args: args}
		}
	}
	return recs, true
}

// DefaultRegistry registers every built-in source adapter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ServerPubChem, ToolProperties, func(p any, args map[string]any) []record.Record {
		name, _ := args["name"].(string)
		return wrap(PubChemPayload(p, name), record.FromCompound)
	})
	r.Register(ServerChEMBL, ToolTargetSearch, func(p any, _ map[string]any) []record.Record {
		return wrap(ChEMBLTargetsPayload(p), record.FromTarget)
	})
	r.Register(ServerChEMBL, ToolActivities, func(p any, args map[string]any) []record.Record {
		lookup, _ := args["target_lookup"].(map[string]string)
		return wrap(ChEMBLActivities(ActivityRows(p), lookup), record.FromAssay)
	})
	r.Register(ServerUniProt, ToolSearch, func(p any, _ map[string]any) []record.Record {
		return wrap(UniProtPayload(p), record.FromTarget)
	})
	r.Register(ServerPubMed, ToolESearch, func(p any, _ map[string]any) []record.Record {
		return wrap(PubMedIDList(p), record.FromLiterature)
	})
	r.Register(ServerEuropePMC, ToolSearch, func(p any, _ map[string]any) []record.Record {
		return wrap(EuropePMCResults(p), record.FromLiterature)
	})
	r.Register(ServerOpenAlex, ToolWorks, func(p any, _ map[string]any) []record.Record {
		return wrap(OpenAlexWorks(p), record.FromLiterature)
	})
	r.Register(ServerClinicalTrials, ToolStudies, func(p any, _ map[string]any) []record.Record {
		return wrap(ClinicalTrialsStudies(p), record.FromTrial)
	})
	return r
}

func wrap[T any](items []T, fn func(T, *record.Provenance) record.Record) []record.Record {
	out := make([]record.Record, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it, nil))
	}
	return out
}
